package loan

import "context"

type Repository interface {
	Create(ctx context.Context, l *Loan) error
	Save(ctx context.Context, l *Loan) error
	GetByLoanID(ctx context.Context, loanID string) (*Loan, error)
	GetByLoanIDForUpdate(ctx context.Context, loanID string) (*Loan, error)
	// GetByID fetches by the internal dense numeric id (monitor scan path).
	GetByID(ctx context.Context, id uint64) (*Loan, error)
	// MaxID is the scan upper bound: the highest allocated numeric id, 0 when
	// no loans exist.
	MaxID(ctx context.Context) (uint64, error)
	ActiveLoanIDs(ctx context.Context) ([]string, error)
}

type ContributionRepository interface {
	Create(ctx context.Context, c *Contribution) error
	Save(ctx context.Context, c *Contribution) error
	GetForUpdate(ctx context.Context, loanID uint64, lender string) (*Contribution, error)
	// ListByLoanID returns contributions ordered by id ascending, so "first
	// lender" is deterministic for remainder crediting.
	ListByLoanID(ctx context.Context, loanID uint64) ([]Contribution, error)
}

type VoteRepository interface {
	Create(ctx context.Context, v *Vote) error
	GetByLoanAndLender(ctx context.Context, loanID uint64, lender string) (*Vote, error)
	ListByLoanID(ctx context.Context, loanID uint64) ([]Vote, error)
}
