package mysql

import (
	"context"

	loanDomain "lendpool-backend/internal/domain/loan"

	"gorm.io/gorm"
)

type ContributionRepository struct{ db *gorm.DB }

func NewContributionRepository(db *gorm.DB) *ContributionRepository {
	return &ContributionRepository{db: db}
}

func (r *ContributionRepository) Create(ctx context.Context, c *loanDomain.Contribution) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *ContributionRepository) Save(ctx context.Context, c *loanDomain.Contribution) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *ContributionRepository) GetForUpdate(ctx context.Context, loanID uint64, lender string) (*loanDomain.Contribution, error) {
	var out loanDomain.Contribution
	res := lockForUpdate(r.db.WithContext(ctx)).
		Where("loan_id = ? AND lender = ?", loanID, lender).
		First(&out)
	return &out, res.Error
}

func (r *ContributionRepository) ListByLoanID(ctx context.Context, loanID uint64) ([]loanDomain.Contribution, error) {
	var out []loanDomain.Contribution
	res := r.db.WithContext(ctx).
		Where("loan_id = ?", loanID).
		Order("id ASC").
		Find(&out)
	return out, res.Error
}
