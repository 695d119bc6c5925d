// Package loanmock provides function-backed test doubles for the loan
// repositories. Unset functions fail loudly so a test only stubs what it uses.
package loanmock

import (
	"context"
	"errors"

	"lendpool-backend/internal/domain/loan"
)

var errUnstubbed = errors.New("loanmock: method not stubbed")

type Repo struct {
	CreateFn               func(ctx context.Context, l *loan.Loan) error
	SaveFn                 func(ctx context.Context, l *loan.Loan) error
	GetByLoanIDFn          func(ctx context.Context, loanID string) (*loan.Loan, error)
	GetByLoanIDForUpdateFn func(ctx context.Context, loanID string) (*loan.Loan, error)
	GetByIDFn              func(ctx context.Context, id uint64) (*loan.Loan, error)
	MaxIDFn                func(ctx context.Context) (uint64, error)
	ActiveLoanIDsFn        func(ctx context.Context) ([]string, error)
}

func (m *Repo) Create(ctx context.Context, l *loan.Loan) error {
	if m.CreateFn == nil {
		return errUnstubbed
	}
	return m.CreateFn(ctx, l)
}

func (m *Repo) Save(ctx context.Context, l *loan.Loan) error {
	if m.SaveFn == nil {
		return errUnstubbed
	}
	return m.SaveFn(ctx, l)
}

func (m *Repo) GetByLoanID(ctx context.Context, loanID string) (*loan.Loan, error) {
	if m.GetByLoanIDFn == nil {
		return nil, errUnstubbed
	}
	return m.GetByLoanIDFn(ctx, loanID)
}

func (m *Repo) GetByLoanIDForUpdate(ctx context.Context, loanID string) (*loan.Loan, error) {
	if m.GetByLoanIDForUpdateFn == nil {
		return nil, errUnstubbed
	}
	return m.GetByLoanIDForUpdateFn(ctx, loanID)
}

func (m *Repo) GetByID(ctx context.Context, id uint64) (*loan.Loan, error) {
	if m.GetByIDFn == nil {
		return nil, errUnstubbed
	}
	return m.GetByIDFn(ctx, id)
}

func (m *Repo) MaxID(ctx context.Context) (uint64, error) {
	if m.MaxIDFn == nil {
		return 0, errUnstubbed
	}
	return m.MaxIDFn(ctx)
}

func (m *Repo) ActiveLoanIDs(ctx context.Context) ([]string, error) {
	if m.ActiveLoanIDsFn == nil {
		return nil, errUnstubbed
	}
	return m.ActiveLoanIDsFn(ctx)
}

type ContributionRepo struct {
	CreateFn       func(ctx context.Context, c *loan.Contribution) error
	SaveFn         func(ctx context.Context, c *loan.Contribution) error
	GetForUpdateFn func(ctx context.Context, loanID uint64, lender string) (*loan.Contribution, error)
	ListByLoanIDFn func(ctx context.Context, loanID uint64) ([]loan.Contribution, error)
}

func (m *ContributionRepo) Create(ctx context.Context, c *loan.Contribution) error {
	if m.CreateFn == nil {
		return errUnstubbed
	}
	return m.CreateFn(ctx, c)
}

func (m *ContributionRepo) Save(ctx context.Context, c *loan.Contribution) error {
	if m.SaveFn == nil {
		return errUnstubbed
	}
	return m.SaveFn(ctx, c)
}

func (m *ContributionRepo) GetForUpdate(ctx context.Context, loanID uint64, lender string) (*loan.Contribution, error) {
	if m.GetForUpdateFn == nil {
		return nil, errUnstubbed
	}
	return m.GetForUpdateFn(ctx, loanID, lender)
}

func (m *ContributionRepo) ListByLoanID(ctx context.Context, loanID uint64) ([]loan.Contribution, error) {
	if m.ListByLoanIDFn == nil {
		return nil, errUnstubbed
	}
	return m.ListByLoanIDFn(ctx, loanID)
}

type VoteRepo struct {
	CreateFn             func(ctx context.Context, v *loan.Vote) error
	GetByLoanAndLenderFn func(ctx context.Context, loanID uint64, lender string) (*loan.Vote, error)
	ListByLoanIDFn       func(ctx context.Context, loanID uint64) ([]loan.Vote, error)
}

func (m *VoteRepo) Create(ctx context.Context, v *loan.Vote) error {
	if m.CreateFn == nil {
		return errUnstubbed
	}
	return m.CreateFn(ctx, v)
}

func (m *VoteRepo) GetByLoanAndLender(ctx context.Context, loanID uint64, lender string) (*loan.Vote, error) {
	if m.GetByLoanAndLenderFn == nil {
		return nil, errUnstubbed
	}
	return m.GetByLoanAndLenderFn(ctx, loanID, lender)
}

func (m *VoteRepo) ListByLoanID(ctx context.Context, loanID uint64) ([]loan.Vote, error) {
	if m.ListByLoanIDFn == nil {
		return nil, errUnstubbed
	}
	return m.ListByLoanIDFn(ctx, loanID)
}
