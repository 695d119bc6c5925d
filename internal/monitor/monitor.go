// Package monitor periodically sweeps the loan book for loans that should be
// pushed into settlement: active loans past due or undercollateralized, and
// voting loans whose ballot may have reached a majority.
package monitor

import (
	"context"
	"errors"
	"math/big"
	"sync/atomic"
	"time"

	domain "lendpool-backend/internal/domain/loan"
	"lendpool-backend/internal/domain/money"
	loanuc "lendpool-backend/internal/usecase/loan"
	"lendpool-backend/internal/usecase/valuation"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DefaultScanCap bounds one sweep when the id high-water mark cannot be read.
const DefaultScanCap = 10000

// LoanSource is the slice of the loan repository the sweep reads.
type LoanSource interface {
	GetByID(ctx context.Context, id uint64) (*domain.Loan, error)
	MaxID(ctx context.Context) (uint64, error)
}

// Valuer prices one token leg in USD.
type Valuer interface {
	USDValue(ctx context.Context, tokenID uint64, raw money.Amount, now time.Time) (*big.Int, time.Time, error)
}

// Submitter executes a settlement; it blocks while another one is in flight.
type Submitter interface {
	Submit(ctx context.Context, loanID string) error
}

type Monitor struct {
	loans     LoanSource
	valuer    Valuer
	submitter Submitter
	interval  time.Duration
	scanCap   uint64
	log       *zap.Logger

	running atomic.Bool
	// set after the first oracle connectivity warning so a flapping feed does
	// not flood the log every cycle
	oracleDown atomic.Bool
	// same latch for the loan store: an unreachable database is reported once,
	// not once per id up to the scan cap
	ledgerDown atomic.Bool
}

func New(loans LoanSource, valuer Valuer, submitter Submitter, interval time.Duration, log *zap.Logger) *Monitor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Monitor{
		loans:     loans,
		valuer:    valuer,
		submitter: submitter,
		interval:  interval,
		scanCap:   DefaultScanCap,
		log:       log,
	}
}

// Run sweeps on every tick until ctx is cancelled. A tick that fires while the
// previous sweep is still running is skipped, never queued.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.log.Info("monitor started", zap.Duration("interval", m.interval))
	for {
		select {
		case <-ctx.Done():
			m.log.Info("monitor stopped")
			return
		case <-ticker.C:
			if !m.running.CompareAndSwap(false, true) {
				m.log.Debug("sweep still running, tick skipped")
				continue
			}
			go func() {
				defer m.running.Store(false)
				m.Sweep(ctx)
			}()
		}
	}
}

// Sweep walks the densely allocated numeric loan ids from 1 to the high-water
// mark and submits every loan that needs settlement. A failed settlement never
// stops the sweep; a store connectivity error ends it early.
func (m *Monitor) Sweep(ctx context.Context) {
	now := time.Now().UTC()

	bound, err := m.loans.MaxID(ctx)
	maxOK := err == nil
	if err != nil {
		if m.ledgerDown.CompareAndSwap(false, true) {
			m.log.Warn("id high-water mark unavailable, using scan cap", zap.Error(err))
		}
		bound = m.scanCap
	}

	var checked, submitted int
	for id := uint64(1); id <= bound; id++ {
		if ctx.Err() != nil {
			return
		}
		l, err := m.loans.GetByID(ctx, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// ids are dense: the first hole is the end of the book
			break
		}
		if err != nil {
			// a fetch error here is connectivity, not a broken loan; grinding
			// through the remaining ids would fail the same way
			if m.ledgerDown.CompareAndSwap(false, true) {
				m.log.Warn("loan store unreachable, sweep aborted", zap.Uint64("id", id), zap.Error(err))
			}
			return
		}
		checked++

		switch l.Status {
		case domain.StatusActive:
			if !m.shouldLiquidate(ctx, l, now) {
				continue
			}
		case domain.StatusVoting:
			// a majority may have formed since the last sweep
		default:
			continue
		}

		if err := m.submitter.Submit(ctx, l.LoanID); err != nil {
			if loanuc.IsSettleNoop(err) {
				continue
			}
			m.log.Warn("settlement submission failed",
				zap.String("loan_id", l.LoanID),
				zap.Error(err))
			continue
		}
		submitted++
	}

	// re-arm only after a sweep that saw the store healthy end to end
	if maxOK {
		m.ledgerDown.Store(false)
	}
	m.log.Debug("sweep finished",
		zap.Int("checked", checked),
		zap.Int("submitted", submitted),
		zap.Duration("took", time.Since(now)))
}

// shouldLiquidate prices both legs and applies the liquidation predicate.
// When either leg cannot be valued the decision falls back to the time
// condition alone.
func (m *Monitor) shouldLiquidate(ctx context.Context, l *domain.Loan, now time.Time) bool {
	loanVal := m.value(ctx, l.LoanTokenID, l.Principal, now, l.LoanID)
	collVal := m.value(ctx, l.CollateralTokenID, l.CollateralAmount, now, l.LoanID)
	return domain.Liquidatable(l, loanVal, collVal, now)
}

func (m *Monitor) value(ctx context.Context, tokenID uint64, raw money.Amount, now time.Time, loanID string) domain.Valuation {
	usd, _, err := m.valuer.USDValue(ctx, tokenID, raw, now)
	if err != nil {
		if errors.Is(err, valuation.ErrStaleQuote) {
			if m.oracleDown.CompareAndSwap(false, true) {
				m.log.Warn("price feed unavailable, value checks degraded to time-only",
					zap.Uint64("token_id", tokenID),
					zap.Error(err))
			}
		} else {
			m.log.Warn("valuation failed",
				zap.String("loan_id", loanID),
				zap.Uint64("token_id", tokenID),
				zap.Error(err))
		}
		return domain.Valuation{}
	}
	m.oracleDown.Store(false)
	return domain.Valuation{USD: usd, OK: true}
}
