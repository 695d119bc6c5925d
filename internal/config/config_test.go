package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	c := Load()
	if c.AppPort != "8080" {
		t.Fatalf("AppPort = %s", c.AppPort)
	}
	if c.FundingPeriod() != 7*24*time.Hour {
		t.Fatalf("funding period = %v", c.FundingPeriod())
	}
	if c.StaleBound() != time.Hour {
		t.Fatalf("stale bound = %v", c.StaleBound())
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("MYSQL_HOST", "db.internal")
	t.Setenv("MONITOR_INTERVAL_MS", "500")
	t.Setenv("IDEMPOTENCY_TTL_SECONDS", "60")
	t.Setenv("REDIS_DB", "3")

	c := Load()
	if c.MySQLHost != "db.internal" {
		t.Fatalf("MySQLHost = %s", c.MySQLHost)
	}
	if c.MonitorInterval() != 500*time.Millisecond {
		t.Fatalf("monitor interval = %v", c.MonitorInterval())
	}
	if c.IdempTTL() != time.Minute {
		t.Fatalf("idemp ttl = %v", c.IdempTTL())
	}
	if c.RedisDB != 3 {
		t.Fatalf("redis db = %d", c.RedisDB)
	}
}

func TestValidate(t *testing.T) {
	c := Load()
	c.MySQLPort = "not-a-port"
	if err := c.Validate(); err == nil {
		t.Fatal("bad port accepted")
	}

	c = Load()
	c.SettlementSeed = "zz"
	if err := c.Validate(); err == nil {
		t.Fatal("non-hex seed accepted")
	}
}

func TestMySQLDSN(t *testing.T) {
	c := Load()
	dsn := c.MySQLDSN()
	if !strings.Contains(dsn, "@tcp(mysql:3306)/lendpool") {
		t.Fatalf("dsn = %s", dsn)
	}
	if !strings.Contains(dsn, "parseTime=true") {
		t.Fatalf("dsn missing parseTime: %s", dsn)
	}
}

func TestSettlementKey(t *testing.T) {
	c := Load()

	// ephemeral when unset
	c.SettlementSeed = ""
	if _, err := c.SettlementKey(); err != nil {
		t.Fatalf("ephemeral key: %v", err)
	}

	// deterministic from a 32-byte hex seed
	c.SettlementSeed = strings.Repeat("ab", 32)
	k1, err := c.SettlementKey()
	if err != nil {
		t.Fatalf("seeded key: %v", err)
	}
	k2, _ := c.SettlementKey()
	if !k1.Equal(k2) {
		t.Fatal("seeded key not deterministic")
	}

	// wrong length rejected
	c.SettlementSeed = "abcd"
	if _, err := c.SettlementKey(); err == nil {
		t.Fatal("short seed accepted")
	}
}
