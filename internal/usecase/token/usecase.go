package token

import (
	"context"
	"errors"

	domain "lendpool-backend/internal/domain/token"

	"gorm.io/gorm"
)

type Usecase struct{ repo domain.Repository }

func NewUsecase(r domain.Repository) *Usecase { return &Usecase{repo: r} }

type RegisterInput struct {
	ID           uint64 `json:"id"`
	Kind         string `json:"kind"`
	AssetRef     string `json:"asset_ref"`
	Symbol       string `json:"symbol"`
	Decimals     uint8  `json:"decimals"`
	PriceFeedRef string `json:"price_feed_ref"`
}

// Register adds a token to the registry. Fails when the id is already taken;
// registration is a rare administrative operation serialized by the store.
func (u *Usecase) Register(ctx context.Context, in RegisterInput) (*domain.Token, error) {
	kind := domain.Kind(in.Kind)
	if kind != domain.KindNative && kind != domain.KindFungible {
		return nil, errors.New("kind must be native or fungible")
	}
	if in.ID == 0 || in.Symbol == "" || in.PriceFeedRef == "" {
		return nil, errors.New("id, symbol and price_feed_ref are required")
	}

	if _, err := u.repo.GetByID(ctx, in.ID); err == nil {
		return nil, domain.ErrTokenExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	t := &domain.Token{
		ID:           in.ID,
		Kind:         kind,
		AssetRef:     in.AssetRef,
		Symbol:       in.Symbol,
		Decimals:     in.Decimals,
		Active:       true,
		PriceFeedRef: in.PriceFeedRef,
	}
	if err := u.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Deactivate forbids new loans referencing the token. Idempotent; loans
// already referencing it stay valid.
func (u *Usecase) Deactivate(ctx context.Context, id uint64) (*domain.Token, error) {
	t, err := u.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !t.Active {
		return t, nil
	}
	t.Active = false
	if err := u.repo.Save(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (u *Usecase) Get(ctx context.Context, id uint64) (*domain.Token, error) {
	t, err := u.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUnknownToken
		}
		return nil, err
	}
	return t, nil
}
