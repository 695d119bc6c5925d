package loan

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "lendpool-backend/internal/domain/loan"
	"lendpool-backend/internal/domain/money"
	tokenDomain "lendpool-backend/internal/domain/token"
	"lendpool-backend/internal/domain/uow"
	"lendpool-backend/internal/events"
	"lendpool-backend/pkg/id"

	"gorm.io/gorm"
)

type Usecase struct {
	loans         domain.Repository
	contributions domain.ContributionRepository
	tokens        tokenDomain.Repository
	uow           uow.UnitOfWork
	emitter       events.Emitter
	fundingPeriod time.Duration
}

func NewUsecase(loans domain.Repository, contributions domain.ContributionRepository, tokens tokenDomain.Repository, tx uow.UnitOfWork, emitter events.Emitter, fundingPeriod time.Duration) *Usecase {
	if emitter == nil {
		emitter = events.Noop{}
	}
	return &Usecase{
		loans:         loans,
		contributions: contributions,
		tokens:        tokens,
		uow:           tx,
		emitter:       emitter,
		fundingPeriod: fundingPeriod,
	}
}

// Request creates a loan and records the borrower's escrowed collateral. The
// funding window opens immediately.
func (u *Usecase) Request(ctx context.Context, in RequestLoanInput) (*LoanDTO, error) {
	if !id.IsID32(in.Borrower) {
		return nil, errors.New("borrower must be a 32-char hex id")
	}
	if in.Principal.Sign() <= 0 || in.CollateralAmount.Sign() <= 0 {
		return nil, errors.New("principal and collateral_amount must be positive")
	}
	if in.DurationSecs == 0 {
		return nil, errors.New("duration_secs must be positive")
	}
	if in.LoanTokenID == in.CollateralTokenID {
		return nil, errors.New("loan and collateral tokens must differ")
	}
	for _, tokenID := range []uint64{in.LoanTokenID, in.CollateralTokenID} {
		t, err := u.tokens.GetByID(ctx, tokenID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: id %d", tokenDomain.ErrUnknownToken, tokenID)
			}
			return nil, err
		}
		if !t.Active {
			return nil, fmt.Errorf("%w: id %d", tokenDomain.ErrTokenInactive, tokenID)
		}
	}

	now := time.Now().UTC()
	l := &domain.Loan{
		LoanID:            id.NewID32(),
		Borrower:          in.Borrower,
		LoanTokenID:       in.LoanTokenID,
		CollateralTokenID: in.CollateralTokenID,
		Principal:         in.Principal,
		CollateralAmount:  in.CollateralAmount,
		AmountFunded:      money.Zero(),
		InterestRateBps:   in.InterestRateBps,
		DurationSecs:      in.DurationSecs,
		RiskScore:         in.RiskScore,
		DocumentRef:       in.DocumentRef,
		Status:            domain.StatusRequested,
		FundingDeadline:   now.Add(u.fundingPeriod),
		StatusUpdatedAt:   now,
	}
	if err := u.loans.Create(ctx, l); err != nil {
		return nil, err
	}

	u.emitter.Emit(ctx, events.Event{Type: events.TypeRequested, LoanID: l.LoanID, At: now})
	return toDTO(l), nil
}

// Contribute escrows amount from the lender into the loan's funding pool.
// Overfunding is rejected, not clipped. When the pool reaches the principal
// the loan activates and the principal is disbursed to the borrower in the
// same transaction; there is no observable state where the pool is full but
// the loan is still requested.
func (u *Usecase) Contribute(ctx context.Context, loanID string, in ContributeInput) (*LoanDTO, error) {
	if !id.IsID32(in.Lender) {
		return nil, errors.New("lender must be a 32-char hex id")
	}
	if in.Amount.Sign() <= 0 {
		return nil, errors.New("amount must be positive")
	}

	var (
		dto     *LoanDTO
		emitted []events.Event
		opErr   error // rejection that must not roll back a committed expiry
	)
	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *domain.Loan) error {
		now := time.Now().UTC()

		if l.Status != domain.StatusRequested {
			if l.Status.Terminal() {
				return domain.ErrFundingClosed
			}
			return domain.ErrInvalidTransition
		}
		if !now.Before(l.FundingDeadline) {
			// Deadline lapsed underfunded: this call performs the expiry
			// transition (committed), then rejects the contribution.
			l.Status = domain.StatusExpired
			l.StatusUpdatedAt = now
			if err := r.Loans.Save(ctx, l); err != nil {
				return err
			}
			emitted = append(emitted, events.Event{Type: events.TypeExpired, LoanID: l.LoanID, At: now})
			opErr = domain.ErrFundingClosed
			return nil
		}

		remaining := l.Remaining()
		if in.Amount.Cmp(remaining) > 0 {
			return fmt.Errorf("%w: remaining capacity %s", domain.ErrExceedsRemaining, remaining.String())
		}

		c, err := r.Contributions.GetForUpdate(ctx, l.ID, in.Lender)
		switch {
		case err == nil:
			c.Amount = c.Amount.Add(in.Amount)
			if err := r.Contributions.Save(ctx, c); err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			c = &domain.Contribution{LoanID: l.ID, Lender: in.Lender, Amount: in.Amount}
			if err := r.Contributions.Create(ctx, c); err != nil {
				return err
			}
		default:
			return err
		}

		l.AmountFunded = l.AmountFunded.Add(in.Amount)
		var disbursement *TransferLegDTO
		if l.AmountFunded.Cmp(l.Principal) == 0 {
			tok, err := r.Tokens.GetByID(ctx, l.LoanTokenID)
			if err != nil {
				return err
			}
			due := now.Add(time.Duration(l.DurationSecs) * time.Second)
			l.FundedAt = &now
			l.DueDate = &due
			l.Status = domain.StatusActive
			l.StatusUpdatedAt = now
			disbursement = &TransferLegDTO{
				Strategy: string(tok.Strategy()),
				TokenID:  l.LoanTokenID,
				To:       l.Borrower,
				Amount:   l.Principal,
			}
			emitted = append(emitted, events.Event{Type: events.TypeFullyFunded, LoanID: l.LoanID, At: now})
		}
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}

		dto = toDTO(l)
		dto.Disbursement = disbursement
		return nil
	})

	if err != nil {
		return nil, mapNotFound(err)
	}
	// only after the transaction committed; a rolled-back funding never
	// announces itself
	for _, e := range emitted {
		u.emitter.Emit(ctx, e)
	}
	if opErr != nil {
		return nil, opErr
	}
	return dto, nil
}

// Refund returns a lender's recorded contribution after the funding window
// expired unmet. Replays are no-ops, never double payouts.
func (u *Usecase) Refund(ctx context.Context, loanID, lender string) (*RefundDTO, error) {
	if !id.IsID32(lender) {
		return nil, errors.New("lender must be a 32-char hex id")
	}

	var (
		dto     *RefundDTO
		emitted []events.Event
		opErr   error
	)
	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *domain.Loan) error {
		now := time.Now().UTC()

		// A lapsed, still-requested loan expires on first touch. The expiry
		// commits even when the refund itself is rejected below.
		if l.Status == domain.StatusRequested && !now.Before(l.FundingDeadline) {
			l.Status = domain.StatusExpired
			l.StatusUpdatedAt = now
			if err := r.Loans.Save(ctx, l); err != nil {
				return err
			}
			emitted = append(emitted, events.Event{Type: events.TypeExpired, LoanID: l.LoanID, At: now})
		}
		if l.Status != domain.StatusExpired {
			opErr = domain.ErrInvalidTransition
			return nil
		}

		c, err := r.Contributions.GetForUpdate(ctx, l.ID, lender)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				opErr = domain.ErrNoContribution
				return nil
			}
			return err
		}
		if c.Refunded {
			dto = &RefundDTO{Lender: lender, Amount: money.Zero(), Replayed: true}
			return nil
		}
		c.Refunded = true
		if err := r.Contributions.Save(ctx, c); err != nil {
			return err
		}
		dto = &RefundDTO{Lender: lender, Amount: c.Amount}
		return nil
	})

	if err != nil {
		return nil, mapNotFound(err)
	}
	// the expiry transition commits even on the opErr rejection paths, so its
	// event still goes out; a rolled-back tx emits nothing
	for _, e := range emitted {
		u.emitter.Emit(ctx, e)
	}
	if opErr != nil {
		return nil, opErr
	}
	return dto, nil
}

// Repay settles an active loan with the exact principal + interest amount,
// releases the collateral back to the borrower and distributes the repaid
// amount pro-rata across lenders. The rounding remainder goes to the first
// lender so payouts always sum to the repaid amount exactly.
func (u *Usecase) Repay(ctx context.Context, loanID string, in RepayInput) (*RepayDTO, error) {
	var dto *RepayDTO
	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *domain.Loan) error {
		if l.Status != domain.StatusActive {
			if l.Status.Terminal() {
				return domain.ErrTerminalLoan
			}
			return domain.ErrInvalidTransition
		}

		required := domain.RequiredRepayment(l.Principal, l.InterestRateBps)
		if in.Amount.Cmp(required) != 0 {
			return fmt.Errorf("%w: expected %s", domain.ErrAmountMismatch, required.String())
		}

		contribs, err := r.Contributions.ListByLoanID(ctx, l.ID)
		if err != nil {
			return err
		}
		weights := make([]money.Amount, len(contribs))
		for i := range contribs {
			weights[i] = contribs[i].Amount
		}
		parts := domain.ProRataSplit(required, weights)

		payouts := make([]PayoutDTO, len(contribs))
		for i := range contribs {
			contribs[i].PaidOut = parts[i]
			if err := r.Contributions.Save(ctx, &contribs[i]); err != nil {
				return err
			}
			payouts[i] = PayoutDTO{Lender: contribs[i].Lender, Amount: parts[i]}
		}

		collTok, err := r.Tokens.GetByID(ctx, l.CollateralTokenID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		l.Status = domain.StatusRepaid
		l.StatusUpdatedAt = now
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}

		dto = &RepayDTO{
			LoanID:  l.LoanID,
			Repaid:  required,
			Payouts: payouts,
			CollateralRelease: &TransferLegDTO{
				Strategy: string(collTok.Strategy()),
				TokenID:  l.CollateralTokenID,
				To:       l.Borrower,
				Amount:   l.CollateralAmount,
			},
		}
		return nil
	})
	if err != nil {
		return nil, mapNotFound(err)
	}

	u.emitter.Emit(ctx, events.Event{Type: events.TypeRepaid, LoanID: dto.LoanID, At: time.Now().UTC()})
	return dto, nil
}

// Vote records a default-resolution ballot. One vote per lender, weighted by
// contribution; votes are only meaningful while the loan is in voting.
func (u *Usecase) Vote(ctx context.Context, loanID string, in VoteInput) error {
	if !id.IsID32(in.Lender) {
		return errors.New("lender must be a 32-char hex id")
	}
	choice := domain.VoteChoice(in.Choice)
	if choice != domain.ChoiceLiquidate && choice != domain.ChoiceClaimProportional {
		return errors.New("choice must be liquidate or claim_proportional")
	}

	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *domain.Loan) error {
		if l.Status != domain.StatusVoting {
			if l.Status.Terminal() {
				return domain.ErrTerminalLoan
			}
			return domain.ErrInvalidTransition
		}

		if _, err := r.Contributions.GetForUpdate(ctx, l.ID, in.Lender); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNoContribution
			}
			return err
		}

		if _, err := r.Votes.GetByLoanAndLender(ctx, l.ID, in.Lender); err == nil {
			return domain.ErrAlreadyVoted
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		return r.Votes.Create(ctx, &domain.Vote{LoanID: l.ID, Lender: in.Lender, Choice: choice})
	})
	return mapNotFound(err)
}

// --- read surface ---

func (u *Usecase) Get(ctx context.Context, loanID string) (*LoanDTO, error) {
	l, err := u.loans.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return toDTO(l), nil
}

func (u *Usecase) ActiveLoanIDs(ctx context.Context) ([]string, error) {
	return u.loans.ActiveLoanIDs(ctx)
}

func (u *Usecase) Contributions(ctx context.Context, loanID string) ([]ContributionDTO, error) {
	l, err := u.loans.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	contribs, err := u.contributions.ListByLoanID(ctx, l.ID)
	if err != nil {
		return nil, err
	}
	out := make([]ContributionDTO, len(contribs))
	for i, c := range contribs {
		out[i] = ContributionDTO{
			Lender:          c.Lender,
			Amount:          c.Amount,
			Refunded:        c.Refunded,
			PaidOut:         c.PaidOut,
			CollateralShare: c.CollateralShare,
			CreatedAt:       c.CreatedAt,
		}
	}
	return out, nil
}

func mapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	return err
}
