package monitor

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	domain "lendpool-backend/internal/domain/loan"
	"lendpool-backend/internal/domain/money"
	"lendpool-backend/internal/usecase/valuation"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
)

type fakeSource struct {
	loans    map[uint64]*domain.Loan
	maxIDErr error
	getErr   error            // connectivity failure on every fetch
	getErrAt map[uint64]error // per-id failures
	block    chan struct{}    // when set, GetByID waits until closed
	maxCalls atomic.Int32
}

func (f *fakeSource) GetByID(_ context.Context, id uint64) (*domain.Loan, error) {
	if f.block != nil {
		<-f.block
	}
	if f.getErr != nil {
		return nil, f.getErr
	}
	if err := f.getErrAt[id]; err != nil {
		return nil, err
	}
	if l, ok := f.loans[id]; ok {
		return l, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeSource) MaxID(context.Context) (uint64, error) {
	f.maxCalls.Add(1)
	if f.maxIDErr != nil {
		return 0, f.maxIDErr
	}
	var max uint64
	for id := range f.loans {
		if id > max {
			max = id
		}
	}
	return max, nil
}

// fakeValuer prices per token id; missing entries behave like a dead feed.
type fakeValuer struct {
	usd map[uint64]int64
}

func (f *fakeValuer) USDValue(_ context.Context, tokenID uint64, _ money.Amount, _ time.Time) (*big.Int, time.Time, error) {
	if v, ok := f.usd[tokenID]; ok {
		return big.NewInt(v), time.Now().UTC(), nil
	}
	return nil, time.Time{}, valuation.ErrStaleQuote
}

type fakeSubmitter struct {
	mu    sync.Mutex
	ids   []string
	errFn func(loanID string) error
}

func (f *fakeSubmitter) Submit(_ context.Context, loanID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.errFn != nil {
		if err := f.errFn(loanID); err != nil {
			return err
		}
	}
	f.ids = append(f.ids, loanID)
	return nil
}

func (f *fakeSubmitter) submitted() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.ids...)
}

func activeLoan(id uint64, loanID string, due time.Time) *domain.Loan {
	return &domain.Loan{
		ID: id, LoanID: loanID, Status: domain.StatusActive,
		LoanTokenID: 1, CollateralTokenID: 2,
		Principal:        money.MustParse("1000"),
		CollateralAmount: money.MustParse("10"),
		DueDate:          &due,
	}
}

func newTestMonitor(src *fakeSource, val Valuer, sub Submitter) *Monitor {
	return New(src, val, sub, time.Minute, nil)
}

func TestSweep_SubmitsPastDueLoans(t *testing.T) {
	past := time.Now().UTC().Add(-time.Hour)
	future := time.Now().UTC().Add(time.Hour)
	src := &fakeSource{loans: map[uint64]*domain.Loan{
		1: activeLoan(1, "late", past),
		2: activeLoan(2, "ontime", future),
	}}
	// both legs value at par (200% collateralization): only time triggers
	val := &fakeValuer{usd: map[uint64]int64{1: 1000, 2: 2000}}
	sub := &fakeSubmitter{}

	newTestMonitor(src, val, sub).Sweep(context.Background())

	got := sub.submitted()
	if len(got) != 1 || got[0] != "late" {
		t.Fatalf("submitted = %v, want [late]", got)
	}
}

func TestSweep_SubmitsUndercollateralized(t *testing.T) {
	future := time.Now().UTC().Add(time.Hour)
	src := &fakeSource{loans: map[uint64]*domain.Loan{
		1: activeLoan(1, "thin", future),
	}}
	// collateral at 110% of loan value: below the 120% threshold
	val := &fakeValuer{usd: map[uint64]int64{1: 1000, 2: 1100}}
	sub := &fakeSubmitter{}

	newTestMonitor(src, val, sub).Sweep(context.Background())

	if got := sub.submitted(); len(got) != 1 || got[0] != "thin" {
		t.Fatalf("submitted = %v, want [thin]", got)
	}
}

func TestSweep_DeadFeedFallsBackToTimeOnly(t *testing.T) {
	future := time.Now().UTC().Add(time.Hour)
	past := time.Now().UTC().Add(-time.Hour)
	src := &fakeSource{loans: map[uint64]*domain.Loan{
		1: activeLoan(1, "unvaluable-current", future),
		2: activeLoan(2, "unvaluable-late", past),
	}}
	// no prices at all
	val := &fakeValuer{usd: map[uint64]int64{}}
	sub := &fakeSubmitter{}

	newTestMonitor(src, val, sub).Sweep(context.Background())

	// value check skipped, time check still applies
	if got := sub.submitted(); len(got) != 1 || got[0] != "unvaluable-late" {
		t.Fatalf("submitted = %v, want [unvaluable-late]", got)
	}
}

func TestSweep_VotingLoansAlwaysSubmitted(t *testing.T) {
	src := &fakeSource{loans: map[uint64]*domain.Loan{
		1: {ID: 1, LoanID: "ballot", Status: domain.StatusVoting, LoanTokenID: 1, CollateralTokenID: 2,
			Principal: money.MustParse("1000"), CollateralAmount: money.MustParse("10")},
		2: {ID: 2, LoanID: "fresh", Status: domain.StatusRequested, LoanTokenID: 1, CollateralTokenID: 2,
			Principal: money.MustParse("1000"), CollateralAmount: money.MustParse("10")},
		3: {ID: 3, LoanID: "done", Status: domain.StatusRepaid, LoanTokenID: 1, CollateralTokenID: 2,
			Principal: money.MustParse("1000"), CollateralAmount: money.MustParse("10")},
	}}
	sub := &fakeSubmitter{}

	newTestMonitor(src, &fakeValuer{usd: map[uint64]int64{1: 1000, 2: 5000}}, sub).Sweep(context.Background())

	if got := sub.submitted(); len(got) != 1 || got[0] != "ballot" {
		t.Fatalf("submitted = %v, want [ballot]", got)
	}
}

func TestSweep_StopsAtFirstGap(t *testing.T) {
	past := time.Now().UTC().Add(-time.Hour)
	src := &fakeSource{loans: map[uint64]*domain.Loan{
		1: activeLoan(1, "a", past),
		// id 2 missing
		3: activeLoan(3, "c", past),
	}}
	sub := &fakeSubmitter{}

	newTestMonitor(src, &fakeValuer{}, sub).Sweep(context.Background())

	if got := sub.submitted(); len(got) != 1 || got[0] != "a" {
		t.Fatalf("submitted = %v, want [a] (scan ends at the first hole)", got)
	}
}

func TestSweep_CapFallbackWhenMaxIDFails(t *testing.T) {
	past := time.Now().UTC().Add(-time.Hour)
	src := &fakeSource{
		loans:    map[uint64]*domain.Loan{1: activeLoan(1, "a", past)},
		maxIDErr: errors.New("db gone"),
	}
	sub := &fakeSubmitter{}

	newTestMonitor(src, &fakeValuer{}, sub).Sweep(context.Background())

	if got := sub.submitted(); len(got) != 1 || got[0] != "a" {
		t.Fatalf("submitted = %v, want [a]", got)
	}
}

func TestSweep_SubmitErrorDoesNotStopSweep(t *testing.T) {
	past := time.Now().UTC().Add(-time.Hour)
	src := &fakeSource{loans: map[uint64]*domain.Loan{
		1: activeLoan(1, "broken", past),
		2: activeLoan(2, "fine", past),
	}}
	sub := &fakeSubmitter{errFn: func(loanID string) error {
		if loanID == "broken" {
			return errors.New("settlement exploded")
		}
		return nil
	}}

	newTestMonitor(src, &fakeValuer{}, sub).Sweep(context.Background())

	if got := sub.submitted(); len(got) != 1 || got[0] != "fine" {
		t.Fatalf("submitted = %v, want [fine]", got)
	}
}

func TestSweep_AbortsOnFetchError(t *testing.T) {
	past := time.Now().UTC().Add(-time.Hour)
	src := &fakeSource{
		loans: map[uint64]*domain.Loan{
			1: activeLoan(1, "a", past),
			2: activeLoan(2, "b", past),
			3: activeLoan(3, "c", past),
		},
		getErrAt: map[uint64]error{2: errors.New("driver: bad connection")},
	}
	sub := &fakeSubmitter{}

	newTestMonitor(src, &fakeValuer{}, sub).Sweep(context.Background())

	// a fetch error is connectivity, not a bad loan: the sweep ends there
	// instead of failing id by id up to the bound
	if got := sub.submitted(); len(got) != 1 || got[0] != "a" {
		t.Fatalf("submitted = %v, want [a]", got)
	}
}

func TestSweep_LedgerOutageLogsOnce(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	past := time.Now().UTC().Add(-time.Hour)
	outage := errors.New("dial tcp: connection refused")
	src := &fakeSource{
		loans:    map[uint64]*domain.Loan{1: activeLoan(1, "a", past)},
		maxIDErr: outage,
		getErr:   outage,
	}
	sub := &fakeSubmitter{}
	m := New(src, &fakeValuer{usd: map[uint64]int64{1: 1000, 2: 5000}}, sub, time.Minute, zap.New(core))

	m.Sweep(context.Background())
	m.Sweep(context.Background())
	if got := logs.Len(); got != 1 {
		t.Fatalf("outage warnings = %d, want 1 across repeated sweeps", got)
	}
	if len(sub.submitted()) != 0 {
		t.Fatalf("submissions during an outage: %v", sub.submitted())
	}

	// a healthy sweep re-arms the latch; the next outage is reported again
	src.maxIDErr, src.getErr = nil, nil
	m.Sweep(context.Background())
	src.maxIDErr = outage
	m.Sweep(context.Background())
	if got := logs.Len(); got != 2 {
		t.Fatalf("outage warnings = %d, want 2 after recovery", got)
	}
}

func TestRun_SkipsTickWhileSweepInFlight(t *testing.T) {
	past := time.Now().UTC().Add(-time.Hour)
	src := &fakeSource{
		loans: map[uint64]*domain.Loan{1: activeLoan(1, "a", past)},
		block: make(chan struct{}),
	}
	m := New(src, &fakeValuer{}, &fakeSubmitter{}, time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	// many ticks elapse while the first sweep is stuck on the store; none of
	// them may start a second sweep
	time.Sleep(20 * time.Millisecond)
	if got := src.maxCalls.Load(); got != 1 {
		t.Fatalf("MaxID called %d times while a sweep was in flight, want 1", got)
	}
	close(src.block)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	src := &fakeSource{loans: map[uint64]*domain.Loan{}}
	m := New(src, &fakeValuer{}, &fakeSubmitter{}, time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
