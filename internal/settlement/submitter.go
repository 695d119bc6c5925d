// Package settlement serializes settlement execution. Settlements mutate the
// shared ledger, so exactly one is in flight at a time and each confirmed one
// carries a strictly increasing sequence number and an ed25519 signature over
// the settlement payload.
package settlement

import (
	"context"
	"crypto/ed25519"
	"encoding/binary"
	"fmt"
	"time"

	loanuc "lendpool-backend/internal/usecase/loan"

	"go.uber.org/zap"
)

// Engine is the settlement decision executor, normally the loan usecase.
type Engine interface {
	Settle(ctx context.Context, loanID string) (loanuc.SettleOutcome, error)
}

// Policy bounds retries of a failed submission. Zero values mean a single
// attempt with no delay.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration
}

func (p Policy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// Receipt is the confirmation of one executed settlement.
type Receipt struct {
	LoanID      string               `json:"loan_id"`
	Sequence    uint64               `json:"sequence"`
	Outcome     loanuc.SettleOutcome `json:"outcome"`
	Signature   []byte               `json:"signature"`
	ConfirmedAt time.Time            `json:"confirmed_at"`
}

type Submitter struct {
	engine Engine
	key    ed25519.PrivateKey
	policy Policy
	log    *zap.Logger

	// slots acts as the single-submission mutex; holding the token is holding
	// the lock, and context cancellation can interrupt the wait.
	slots chan struct{}
	seq   uint64
}

func NewSubmitter(engine Engine, key ed25519.PrivateKey, policy Policy, log *zap.Logger) *Submitter {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Submitter{engine: engine, key: key, policy: policy, log: log, slots: make(chan struct{}, 1)}
	s.slots <- struct{}{}
	return s
}

// Sequence is the number of confirmed settlements so far.
func (s *Submitter) Sequence() uint64 {
	<-s.slots
	defer func() { s.slots <- struct{}{} }()
	return s.seq
}

// Submit executes the settlement for loanID, blocking until any in-flight
// settlement finishes. The sequence advances only when the engine confirms;
// failed or no-op submissions leave it untouched so replays and later
// settlements are unambiguous.
func (s *Submitter) Submit(ctx context.Context, loanID string) (*Receipt, error) {
	select {
	case <-s.slots:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { s.slots <- struct{}{} }()

	var (
		outcome loanuc.SettleOutcome
		err     error
	)
	for attempt := 1; ; attempt++ {
		outcome, err = s.engine.Settle(ctx, loanID)
		if err == nil || loanuc.IsSettleNoop(err) || ctx.Err() != nil {
			break
		}
		if attempt >= s.policy.attempts() {
			break
		}
		s.log.Warn("settlement attempt failed, retrying",
			zap.String("loan_id", loanID),
			zap.Int("attempt", attempt),
			zap.Error(err))
		select {
		case <-time.After(s.policy.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		if loanuc.IsSettleNoop(err) {
			return nil, err
		}
		s.log.Error("settlement failed",
			zap.String("loan_id", loanID),
			zap.Error(err))
		return nil, fmt.Errorf("settle %s: %w", loanID, err)
	}

	next := s.seq + 1
	rcpt := &Receipt{
		LoanID:      loanID,
		Sequence:    next,
		Outcome:     outcome,
		Signature:   ed25519.Sign(s.key, settlementPayload(loanID, next, outcome)),
		ConfirmedAt: time.Now().UTC(),
	}
	s.seq = next

	s.log.Info("settlement confirmed",
		zap.String("loan_id", loanID),
		zap.Uint64("sequence", next),
		zap.String("outcome", string(outcome)))
	return rcpt, nil
}

// settlementPayload is the signed byte layout: loan id, big-endian sequence,
// outcome.
func settlementPayload(loanID string, seq uint64, outcome loanuc.SettleOutcome) []byte {
	buf := make([]byte, 0, len(loanID)+8+len(outcome))
	buf = append(buf, loanID...)
	buf = binary.BigEndian.AppendUint64(buf, seq)
	buf = append(buf, outcome...)
	return buf
}

// Verify checks a receipt signature against the submitter's public key.
func Verify(pub ed25519.PublicKey, r *Receipt) bool {
	return ed25519.Verify(pub, settlementPayload(r.LoanID, r.Sequence, r.Outcome), r.Signature)
}
