package uow

import (
	"context"

	"lendpool-backend/internal/domain/loan"
	"lendpool-backend/internal/domain/token"
)

// Repos is the set of repositories bound to one transaction. The underlying
// store is the single writer: everything mutated through one Repos commits or
// rolls back together.
type Repos struct {
	Loans         loan.Repository
	Contributions loan.ContributionRepository
	Votes         loan.VoteRepository
	Tokens        token.Repository
}

type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// convenience: lock the loan row first, then pass it in
	WithinLoanTx(ctx context.Context, loanID string, fn func(r Repos, l *loan.Loan) error) error
}
