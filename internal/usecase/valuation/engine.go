package valuation

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"lendpool-backend/internal/domain/money"
	tokenDomain "lendpool-backend/internal/domain/token"
	"lendpool-backend/internal/infrastructure/oracle"
)

// ErrStaleQuote marks a quote older than the staleness bound, a dead feed, or
// a non-positive price. Callers fall back to time-based liquidation only,
// never to "safe".
var ErrStaleQuote = errors.New("price quote is stale or unavailable")

// USDDecimals is the fixed-point precision of every value this engine
// returns, so values of differently-scaled assets compare directly.
const USDDecimals = 8

const DefaultStaleBound = time.Hour

type TokenLookup interface {
	Get(ctx context.Context, id uint64) (*tokenDomain.Token, error)
}

type Engine struct {
	tokens     TokenLookup
	oracle     oracle.Client
	staleBound time.Duration
}

func NewEngine(tokens TokenLookup, client oracle.Client, staleBound time.Duration) *Engine {
	if staleBound <= 0 {
		staleBound = DefaultStaleBound
	}
	return &Engine{tokens: tokens, oracle: client, staleBound: staleBound}
}

// USDValue converts (tokenID, raw) into a USD value with USDDecimals
// fractional digits:
//
//	raw * price * 10^USDDecimals / 10^(tokenDecimals + priceDecimals)
//
// The asOf timestamp is the quote's observation time.
func (e *Engine) USDValue(ctx context.Context, tokenID uint64, raw money.Amount, now time.Time) (*big.Int, time.Time, error) {
	t, err := e.tokens.Get(ctx, tokenID)
	if err != nil {
		return nil, time.Time{}, err
	}

	q, err := e.oracle.LatestQuote(ctx, t.PriceFeedRef)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("%w: %v", ErrStaleQuote, err)
	}
	if q.Price == nil || q.Price.Sign() <= 0 {
		return nil, q.UpdatedAt, ErrStaleQuote
	}
	if now.Sub(q.UpdatedAt) > e.staleBound {
		return nil, q.UpdatedAt, ErrStaleQuote
	}

	value := new(big.Int).Mul(raw.BigInt(), q.Price)
	value.Mul(value, pow10(USDDecimals))
	value.Quo(value, pow10(int(t.Decimals)+int(q.Decimals)))
	return value, q.UpdatedAt, nil
}

func pow10(n int) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}
