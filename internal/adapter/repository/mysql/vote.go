package mysql

import (
	"context"

	loanDomain "lendpool-backend/internal/domain/loan"

	"gorm.io/gorm"
)

type VoteRepository struct{ db *gorm.DB }

func NewVoteRepository(db *gorm.DB) *VoteRepository { return &VoteRepository{db: db} }

func (r *VoteRepository) Create(ctx context.Context, v *loanDomain.Vote) error {
	return r.db.WithContext(ctx).Create(v).Error
}

func (r *VoteRepository) GetByLoanAndLender(ctx context.Context, loanID uint64, lender string) (*loanDomain.Vote, error) {
	var out loanDomain.Vote
	res := r.db.WithContext(ctx).
		Where("loan_id = ? AND lender = ?", loanID, lender).
		First(&out)
	return &out, res.Error
}

func (r *VoteRepository) ListByLoanID(ctx context.Context, loanID uint64) ([]loanDomain.Vote, error) {
	var out []loanDomain.Vote
	res := r.db.WithContext(ctx).
		Where("loan_id = ?", loanID).
		Order("id ASC").
		Find(&out)
	return out, res.Error
}
