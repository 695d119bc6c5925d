package token

import (
	"errors"
	"time"
)

var (
	ErrUnknownToken  = errors.New("unknown token")
	ErrTokenInactive = errors.New("token is inactive")
	ErrTokenExists   = errors.New("token id already registered")
)

type Kind string

const (
	KindNative   Kind = "native"
	KindFungible Kind = "fungible"
)

// TransferStrategy is the closed variant describing how value in this token
// moves on the ledger. Selected once at registry lookup time; settlement code
// switches on it instead of inspecting the token again.
type TransferStrategy string

const (
	TransferNative   TransferStrategy = "native_transfer"
	TransferFungible TransferStrategy = "fungible_transfer"
)

// Token is one row of the registry. Immutable after registration except
// Active, which an operator may flip to forbid new loans referencing it.
// Loans already referencing a deactivated token stay valid.
type Token struct {
	// Registry id, assigned by the operator at registration (not auto-increment).
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement:false" json:"id"`
	// native | fungible
	Kind Kind `gorm:"column:kind;type:varchar(16);not null" json:"kind"`
	// Opaque contract/asset reference, never interpreted here.
	AssetRef string `gorm:"column:asset_ref;type:text;not null" json:"asset_ref"`
	Symbol   string `gorm:"column:symbol;size:16;not null" json:"symbol"`
	// Display precision; raw amounts are denominated in 10^-decimals units.
	Decimals uint8 `gorm:"column:decimals;not null" json:"decimals"`
	Active   bool  `gorm:"column:active;not null;default:true" json:"active"`
	// Opaque oracle feed reference passed through to the price client.
	PriceFeedRef string    `gorm:"column:price_feed_ref;type:text;not null" json:"price_feed_ref"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime" json:"-"`
}

func (Token) TableName() string { return "tokens" }

func (t *Token) Strategy() TransferStrategy {
	if t.Kind == KindNative {
		return TransferNative
	}
	return TransferFungible
}
