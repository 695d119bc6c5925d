package mysql

import (
	"context"

	loanDomain "lendpool-backend/internal/domain/loan"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LoanRepository struct{ db *gorm.DB }

func NewLoanRepository(db *gorm.DB) *LoanRepository { return &LoanRepository{db: db} }

func (r *LoanRepository) Create(ctx context.Context, l *loanDomain.Loan) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *LoanRepository) Save(ctx context.Context, l *loanDomain.Loan) error {
	return r.db.WithContext(ctx).Save(l).Error
}

func (r *LoanRepository) GetByLoanID(ctx context.Context, loanID string) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	res := r.db.WithContext(ctx).Where("loan_id = ?", loanID).First(&out)
	return &out, res.Error
}

func (r *LoanRepository) GetByLoanIDForUpdate(ctx context.Context, loanID string) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	res := lockForUpdate(r.db.WithContext(ctx)).Where("loan_id = ?", loanID).First(&out)
	return &out, res.Error
}

func (r *LoanRepository) GetByID(ctx context.Context, id uint64) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	res := r.db.WithContext(ctx).Where("id = ?", id).First(&out)
	return &out, res.Error
}

func (r *LoanRepository) MaxID(ctx context.Context) (uint64, error) {
	var max uint64
	res := r.db.WithContext(ctx).Model(&loanDomain.Loan{}).
		Select("COALESCE(MAX(id), 0)").
		Scan(&max)
	return max, res.Error
}

func (r *LoanRepository) ActiveLoanIDs(ctx context.Context) ([]string, error) {
	var ids []string
	res := r.db.WithContext(ctx).Model(&loanDomain.Loan{}).
		Where("status = ?", loanDomain.StatusActive).
		Order("id ASC").
		Pluck("loan_id", &ids)
	return ids, res.Error
}

// lockForUpdate adds SELECT ... FOR UPDATE on engines that support it. The
// sqlite test driver has no row locks; its single-writer file lock stands in.
func lockForUpdate(db *gorm.DB) *gorm.DB {
	if db.Dialector.Name() == "sqlite" {
		return db
	}
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}
