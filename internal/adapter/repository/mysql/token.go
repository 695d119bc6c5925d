package mysql

import (
	"context"

	tokenDomain "lendpool-backend/internal/domain/token"

	"gorm.io/gorm"
)

type TokenRepository struct{ db *gorm.DB }

func NewTokenRepository(db *gorm.DB) *TokenRepository { return &TokenRepository{db: db} }

func (r *TokenRepository) Create(ctx context.Context, t *tokenDomain.Token) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *TokenRepository) Save(ctx context.Context, t *tokenDomain.Token) error {
	return r.db.WithContext(ctx).Save(t).Error
}

func (r *TokenRepository) GetByID(ctx context.Context, id uint64) (*tokenDomain.Token, error) {
	var out tokenDomain.Token
	res := r.db.WithContext(ctx).Where("id = ?", id).First(&out)
	return &out, res.Error
}
