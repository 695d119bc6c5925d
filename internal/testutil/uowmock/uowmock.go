// Package uowmock is a function-backed UnitOfWork that satisfies
// uow.UnitOfWork without a database.
package uowmock

import (
	"context"
	"errors"

	"lendpool-backend/internal/domain/loan"
	"lendpool-backend/internal/domain/uow"
)

var errUnstubbed = errors.New("uowmock: method not stubbed")

type UoW struct {
	WithinTxFn     func(ctx context.Context, fn func(r uow.Repos) error) error
	WithinLoanTxFn func(ctx context.Context, loanID string, fn func(r uow.Repos, l *loan.Loan) error) error
}

func (m *UoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	if m.WithinTxFn == nil {
		return errUnstubbed
	}
	return m.WithinTxFn(ctx, fn)
}

func (m *UoW) WithinLoanTx(ctx context.Context, loanID string, fn func(r uow.Repos, l *loan.Loan) error) error {
	if m.WithinLoanTxFn == nil {
		return errUnstubbed
	}
	return m.WithinLoanTxFn(ctx, loanID, fn)
}

// Passthrough wires the mock so every tx runs fn directly against the given
// repos, with no transactional behavior. The loan is looked up through
// r.Loans.GetByLoanIDForUpdate like the real UoW does.
func Passthrough(r uow.Repos) *UoW {
	return &UoW{
		WithinTxFn: func(ctx context.Context, fn func(uow.Repos) error) error {
			return fn(r)
		},
		WithinLoanTxFn: func(ctx context.Context, loanID string, fn func(uow.Repos, *loan.Loan) error) error {
			l, err := r.Loans.GetByLoanIDForUpdate(ctx, loanID)
			if err != nil {
				return err
			}
			return fn(r, l)
		},
	}
}
