package settlement

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	domain "lendpool-backend/internal/domain/loan"
	loanuc "lendpool-backend/internal/usecase/loan"
)

type fakeEngine struct {
	mu       sync.Mutex
	inFlight int32
	maxSeen  int32
	calls    int
	fn       func(loanID string, call int) (loanuc.SettleOutcome, error)
}

func (f *fakeEngine) Settle(_ context.Context, loanID string) (loanuc.SettleOutcome, error) {
	cur := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		max := atomic.LoadInt32(&f.maxSeen)
		if cur <= max || atomic.CompareAndSwapInt32(&f.maxSeen, max, cur) {
			break
		}
	}
	time.Sleep(2 * time.Millisecond) // widen any overlap window

	f.mu.Lock()
	f.calls++
	call := f.calls
	f.mu.Unlock()
	return f.fn(loanID, call)
}

func testKey(t *testing.T) ed25519.PrivateKey {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("keygen: %v", err)
	}
	return priv
}

func TestSubmit_ConfirmsAndSigns(t *testing.T) {
	eng := &fakeEngine{fn: func(string, int) (loanuc.SettleOutcome, error) {
		return loanuc.OutcomeLiquidated, nil
	}}
	key := testKey(t)
	s := NewSubmitter(eng, key, Policy{}, nil)

	rcpt, err := s.Submit(context.Background(), "loan-1")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if rcpt.Sequence != 1 || rcpt.Outcome != loanuc.OutcomeLiquidated {
		t.Fatalf("receipt = %+v", rcpt)
	}
	if !Verify(key.Public().(ed25519.PublicKey), rcpt) {
		t.Fatal("signature does not verify")
	}

	// tampered receipts fail verification
	bad := *rcpt
	bad.Sequence = 2
	if Verify(key.Public().(ed25519.PublicKey), &bad) {
		t.Fatal("tampered receipt verified")
	}
}

func TestSubmit_SequenceOnlyAdvancesOnConfirmation(t *testing.T) {
	boom := errors.New("ledger unavailable")
	eng := &fakeEngine{fn: func(_ string, call int) (loanuc.SettleOutcome, error) {
		if call == 1 {
			return "", boom
		}
		return loanuc.OutcomePartiallyClaimed, nil
	}}
	s := NewSubmitter(eng, testKey(t), Policy{}, nil)

	if _, err := s.Submit(context.Background(), "loan-1"); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if s.Sequence() != 0 {
		t.Fatalf("sequence = %d after failure, want 0", s.Sequence())
	}

	rcpt, err := s.Submit(context.Background(), "loan-1")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if rcpt.Sequence != 1 {
		t.Fatalf("sequence = %d, want 1", rcpt.Sequence)
	}
}

func TestSubmit_RetriesWithinPolicy(t *testing.T) {
	boom := errors.New("transient")
	eng := &fakeEngine{fn: func(_ string, call int) (loanuc.SettleOutcome, error) {
		if call < 3 {
			return "", boom
		}
		return loanuc.OutcomeDefaulted, nil
	}}
	s := NewSubmitter(eng, testKey(t), Policy{MaxAttempts: 3, Delay: time.Millisecond}, nil)

	rcpt, err := s.Submit(context.Background(), "loan-1")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if rcpt.Outcome != loanuc.OutcomeDefaulted {
		t.Fatalf("outcome = %s", rcpt.Outcome)
	}
	if eng.calls != 3 {
		t.Fatalf("calls = %d, want 3", eng.calls)
	}
}

func TestSubmit_NoRetryOnNoop(t *testing.T) {
	eng := &fakeEngine{fn: func(string, int) (loanuc.SettleOutcome, error) {
		return "", domain.ErrTerminalLoan
	}}
	s := NewSubmitter(eng, testKey(t), Policy{MaxAttempts: 5, Delay: time.Millisecond}, nil)

	_, err := s.Submit(context.Background(), "loan-1")
	if !errors.Is(err, domain.ErrTerminalLoan) {
		t.Fatalf("err = %v, want ErrTerminalLoan", err)
	}
	if eng.calls != 1 {
		t.Fatalf("calls = %d, want 1 (no retry on guarded no-op)", eng.calls)
	}
	if s.Sequence() != 0 {
		t.Fatalf("sequence = %d, want 0", s.Sequence())
	}
}

func TestSubmit_Serialized(t *testing.T) {
	eng := &fakeEngine{fn: func(string, int) (loanuc.SettleOutcome, error) {
		return loanuc.OutcomeLiquidated, nil
	}}
	s := NewSubmitter(eng, testKey(t), Policy{}, nil)

	var wg sync.WaitGroup
	seqs := make([]uint64, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rcpt, err := s.Submit(context.Background(), "loan-1")
			if err != nil {
				t.Errorf("submit: %v", err)
				return
			}
			seqs[i] = rcpt.Sequence
		}(i)
	}
	wg.Wait()

	if eng.maxSeen != 1 {
		t.Fatalf("max concurrent engine calls = %d, want 1", eng.maxSeen)
	}
	seen := map[uint64]bool{}
	for _, q := range seqs {
		if q < 1 || q > 8 || seen[q] {
			t.Fatalf("sequences not unique in 1..8: %v", seqs)
		}
		seen[q] = true
	}
	if s.Sequence() != 8 {
		t.Fatalf("final sequence = %d, want 8", s.Sequence())
	}
}

func TestSubmit_CancelledWhileWaiting(t *testing.T) {
	release := make(chan struct{})
	eng := &fakeEngine{fn: func(string, int) (loanuc.SettleOutcome, error) {
		<-release
		return loanuc.OutcomeLiquidated, nil
	}}
	s := NewSubmitter(eng, testKey(t), Policy{}, nil)

	done := make(chan struct{})
	go func() {
		_, _ = s.Submit(context.Background(), "loan-1")
		close(done)
	}()
	time.Sleep(5 * time.Millisecond) // let the first submission take the slot

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Submit(ctx, "loan-2"); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}

	close(release)
	<-done
}
