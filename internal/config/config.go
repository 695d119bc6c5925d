package config

import (
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"
)

type Config struct {
	AppPort string

	MySQLHost string
	MySQLPort string
	MySQLDB   string
	MySQLUser string
	MySQLPass string

	RedisAddr string
	RedisDB   int

	OracleBaseURL string

	IdempTTLSecs      int
	StaleBoundSecs    int
	FundingPeriodSecs int
	MonitorIntervalMS int
	SettleMaxAttempts int
	SettleRetryMS     int

	// hex-encoded 32-byte ed25519 seed for signing settlement receipts
	SettlementSeed string
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getint(k string, d int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return d
}

func Load() *Config {
	return &Config{
		AppPort:   getenv("APP_PORT", "8080"),
		MySQLHost: getenv("MYSQL_HOST", "mysql"),
		MySQLPort: getenv("MYSQL_PORT", "3306"),
		MySQLDB:   getenv("MYSQL_DB", "lendpool"),
		MySQLUser: getenv("MYSQL_USER", "lendpool"),
		MySQLPass: getenv("MYSQL_PASS", "lendpool"),

		RedisAddr: getenv("REDIS_ADDR", "redis:6379"),
		RedisDB:   getint("REDIS_DB", 0),

		OracleBaseURL: getenv("ORACLE_BASE_URL", "http://oracle:9090"),

		IdempTTLSecs:      getint("IDEMPOTENCY_TTL_SECONDS", 300),
		StaleBoundSecs:    getint("PRICE_STALE_BOUND_SECONDS", 3600),
		FundingPeriodSecs: getint("FUNDING_PERIOD_SECONDS", 7*24*3600),
		MonitorIntervalMS: getint("MONITOR_INTERVAL_MS", 10000),
		SettleMaxAttempts: getint("SETTLE_MAX_ATTEMPTS", 3),
		SettleRetryMS:     getint("SETTLE_RETRY_MS", 2000),

		SettlementSeed: os.Getenv("SETTLEMENT_SIGNING_SEED"),
	}
}

func (c *Config) Validate() error {
	if c.MySQLHost == "" || c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "" {
		return errors.New("missing MySQL config (MYSQL_HOST/PORT/DB/USER)")
	}
	if _, err := net.LookupPort("tcp", c.MySQLPort); err != nil {
		return fmt.Errorf("invalid MYSQL_PORT %q: %w", c.MySQLPort, err)
	}
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	if c.OracleBaseURL == "" {
		return errors.New("missing ORACLE_BASE_URL")
	}
	if c.SettlementSeed != "" {
		if _, err := c.SettlementKey(); err != nil {
			return err
		}
	}
	return nil
}

// SettlementKey derives the settlement signing key from the configured seed.
// Without a seed an ephemeral key is generated, which is fine for development
// but means receipts do not verify across restarts.
func (c *Config) SettlementKey() (ed25519.PrivateKey, error) {
	if c.SettlementSeed == "" {
		_, priv, err := ed25519.GenerateKey(nil)
		return priv, err
	}
	seed, err := hex.DecodeString(c.SettlementSeed)
	if err != nil {
		return nil, fmt.Errorf("SETTLEMENT_SIGNING_SEED is not hex: %w", err)
	}
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("SETTLEMENT_SIGNING_SEED must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	return ed25519.NewKeyFromSeed(seed), nil
}

func (c *Config) StaleBound() time.Duration    { return time.Duration(c.StaleBoundSecs) * time.Second }
func (c *Config) FundingPeriod() time.Duration { return time.Duration(c.FundingPeriodSecs) * time.Second }
func (c *Config) MonitorInterval() time.Duration {
	return time.Duration(c.MonitorIntervalMS) * time.Millisecond
}
func (c *Config) SettleRetryDelay() time.Duration {
	return time.Duration(c.SettleRetryMS) * time.Millisecond
}
func (c *Config) IdempTTL() time.Duration { return time.Duration(c.IdempTTLSecs) * time.Second }

func (c *Config) mysqlAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

func (c *Config) MySQLDSN() string {
	// multiStatements=true is handy for migrations; parseTime needed for DATETIME
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?multiStatements=true&parseTime=true&charset=utf8mb4,utf8",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB)
}
