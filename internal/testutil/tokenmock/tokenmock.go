// Package tokenmock is a function-backed test double for the token repository.
package tokenmock

import (
	"context"
	"errors"

	"lendpool-backend/internal/domain/token"
)

var errUnstubbed = errors.New("tokenmock: method not stubbed")

type Repo struct {
	CreateFn  func(ctx context.Context, t *token.Token) error
	GetByIDFn func(ctx context.Context, id uint64) (*token.Token, error)
	SaveFn    func(ctx context.Context, t *token.Token) error
}

func (m *Repo) Create(ctx context.Context, t *token.Token) error {
	if m.CreateFn == nil {
		return errUnstubbed
	}
	return m.CreateFn(ctx, t)
}

func (m *Repo) GetByID(ctx context.Context, id uint64) (*token.Token, error) {
	if m.GetByIDFn == nil {
		return nil, errUnstubbed
	}
	return m.GetByIDFn(ctx, id)
}

func (m *Repo) Save(ctx context.Context, t *token.Token) error {
	if m.SaveFn == nil {
		return errUnstubbed
	}
	return m.SaveFn(ctx, t)
}
