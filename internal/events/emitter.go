package events

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Lifecycle event types consumed by the notification collaborator.
const (
	TypeRequested        = "Requested"
	TypeFullyFunded      = "FullyFunded"
	TypeRepaid           = "Repaid"
	TypeDefaulted        = "Defaulted"
	TypeLiquidated       = "Liquidated"
	TypePartiallyClaimed = "PartiallyClaimed"
	TypeExpired          = "Expired"
)

const Channel = "loan.events"

type Event struct {
	Type   string    `json:"type"`
	LoanID string    `json:"loan_id"`
	At     time.Time `json:"at"`
}

// Emitter publishes lifecycle events. Delivery is best effort: the engine
// never depends on a subscriber receiving anything.
type Emitter interface {
	Emit(ctx context.Context, e Event)
}

// RedisEmitter publishes JSON events on the loan.events pub/sub channel.
type RedisEmitter struct{ rdb *redis.Client }

func NewRedisEmitter(rdb *redis.Client) *RedisEmitter { return &RedisEmitter{rdb: rdb} }

func (r *RedisEmitter) Emit(ctx context.Context, e Event) {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	payload, _ := json.Marshal(e)
	if err := r.rdb.Publish(ctx, Channel, payload).Err(); err != nil {
		log.Printf("events: publish %s for loan %s failed: %v", e.Type, e.LoanID, err)
	}
}

// Noop drops every event; used in tests and when redis is disabled.
type Noop struct{}

func (Noop) Emit(context.Context, Event) {}
