package loan

import (
	"context"
	"errors"
	"time"

	domain "lendpool-backend/internal/domain/loan"
	"lendpool-backend/internal/domain/money"
	"lendpool-backend/internal/domain/uow"
	"lendpool-backend/internal/events"

	"gorm.io/gorm"
)

// Settle drives the default path of the state machine. It is invoked only
// through the settlement submitter after the monitor's decision engine judged
// the loan liquidatable; it re-checks the still-current status itself, so a
// replay against a terminal loan is rejected without side effects.
//
// Active loans move through past_due into voting. Voting loans execute the
// ballot once a strict contribution-weighted majority exists:
//
//   - liquidate: the designated liquidator takes the collateral against
//     payment of the outstanding debt; proceeds split pro-rata.
//   - claim_proportional: the collateral itself is partitioned pro-rata.
//
// Both terminal transitions set collateral_claimed and are unreachable twice.
func (u *Usecase) Settle(ctx context.Context, loanID string) (SettleOutcome, error) {
	var (
		outcome SettleOutcome
		emitted []events.Event
	)
	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *domain.Loan) error {
		if l.Status.Terminal() {
			return domain.ErrTerminalLoan
		}
		now := time.Now().UTC()

		switch l.Status {
		case domain.StatusActive, domain.StatusPastDue:
			if l.Status == domain.StatusActive {
				l.Status = domain.StatusPastDue
				l.StatusUpdatedAt = now
				if err := r.Loans.Save(ctx, l); err != nil {
					return err
				}
			}
			l.Status = domain.StatusVoting
			l.StatusUpdatedAt = now
			if err := r.Loans.Save(ctx, l); err != nil {
				return err
			}
			emitted = append(emitted, events.Event{Type: events.TypeDefaulted, LoanID: l.LoanID, At: now})
			outcome = OutcomeDefaulted
			return nil

		case domain.StatusVoting:
			return u.executeVote(ctx, r, l, now, &outcome, &emitted)

		default:
			return domain.ErrInvalidTransition
		}
	})

	if err != nil {
		return "", mapNotFound(err)
	}
	// emit strictly after commit so a rolled-back transition is never announced
	for _, e := range emitted {
		u.emitter.Emit(ctx, e)
	}
	return outcome, nil
}

func (u *Usecase) executeVote(ctx context.Context, r uow.Repos, l *domain.Loan, now time.Time, outcome *SettleOutcome, emitted *[]events.Event) error {
	votes, err := r.Votes.ListByLoanID(ctx, l.ID)
	if err != nil {
		return err
	}
	contribs, err := r.Contributions.ListByLoanID(ctx, l.ID)
	if err != nil {
		return err
	}

	byLender := make(map[string]money.Amount, len(contribs))
	total := money.Zero()
	for _, c := range contribs {
		byLender[c.Lender] = c.Amount
		total = total.Add(c.Amount)
	}

	liquidateWeight := money.Zero()
	claimWeight := money.Zero()
	for _, v := range votes {
		w, ok := byLender[v.Lender]
		if !ok {
			continue
		}
		switch v.Choice {
		case domain.ChoiceLiquidate:
			liquidateWeight = liquidateWeight.Add(w)
		case domain.ChoiceClaimProportional:
			claimWeight = claimWeight.Add(w)
		}
	}

	weights := make([]money.Amount, len(contribs))
	for i := range contribs {
		weights[i] = contribs[i].Amount
	}

	switch {
	case domain.StrictMajority(liquidateWeight, total):
		// Liquidator pays the outstanding debt for the collateral; lenders
		// split the proceeds.
		debt := domain.RequiredRepayment(l.Principal, l.InterestRateBps)
		parts := domain.ProRataSplit(debt, weights)
		for i := range contribs {
			contribs[i].PaidOut = parts[i]
			if err := r.Contributions.Save(ctx, &contribs[i]); err != nil {
				return err
			}
		}
		l.Status = domain.StatusLiquidated
		l.CollateralClaimed = true
		l.StatusUpdatedAt = now
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		*emitted = append(*emitted, events.Event{Type: events.TypeLiquidated, LoanID: l.LoanID, At: now})
		*outcome = OutcomeLiquidated
		return nil

	case domain.StrictMajority(claimWeight, total):
		parts := domain.ProRataSplit(l.CollateralAmount, weights)
		for i := range contribs {
			contribs[i].CollateralShare = parts[i]
			if err := r.Contributions.Save(ctx, &contribs[i]); err != nil {
				return err
			}
		}
		l.Status = domain.StatusPartiallyClaimed
		l.CollateralClaimed = true
		l.StatusUpdatedAt = now
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		*emitted = append(*emitted, events.Event{Type: events.TypePartiallyClaimed, LoanID: l.LoanID, At: now})
		*outcome = OutcomePartiallyClaimed
		return nil

	default:
		return domain.ErrNoMajority
	}
}

// IsSettleNoop reports whether a settlement error means "nothing to do"
// rather than a failure: the loan is already terminal, gone, or the ballot
// has no majority yet.
func IsSettleNoop(err error) bool {
	return errors.Is(err, domain.ErrTerminalLoan) ||
		errors.Is(err, domain.ErrNoMajority) ||
		errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, gorm.ErrRecordNotFound)
}
