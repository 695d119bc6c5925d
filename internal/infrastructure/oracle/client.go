package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"net/url"
	"time"
)

// Quote is one price observation from the external feed service.
type Quote struct {
	// Price in USD, fixed point with Decimals fractional digits.
	Price     *big.Int
	Decimals  uint8
	UpdatedAt time.Time
}

// Client fetches the latest quote for an opaque feed reference. Any transport
// or decode failure is surfaced as an error; callers treat every error as a
// stale quote.
type Client interface {
	LatestQuote(ctx context.Context, priceFeedRef string) (Quote, error)
}

type HTTPClient struct {
	baseURL string
	client  *http.Client
}

func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

type quotePayload struct {
	Price     string `json:"price"`
	Decimals  uint8  `json:"decimals"`
	UpdatedAt int64  `json:"updated_at"` // epoch seconds
}

func (c *HTTPClient) LatestQuote(ctx context.Context, priceFeedRef string) (Quote, error) {
	u := c.baseURL + "/feeds/" + url.PathEscape(priceFeedRef) + "/latest"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Quote{}, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return Quote{}, fmt.Errorf("fetch quote %s: %w", priceFeedRef, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Quote{}, fmt.Errorf("fetch quote %s: status %d", priceFeedRef, resp.StatusCode)
	}

	var p quotePayload
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return Quote{}, fmt.Errorf("decode quote %s: %w", priceFeedRef, err)
	}
	price, ok := new(big.Int).SetString(p.Price, 10)
	if !ok {
		return Quote{}, errors.New("malformed quote price")
	}
	return Quote{
		Price:     price,
		Decimals:  p.Decimals,
		UpdatedAt: time.Unix(p.UpdatedAt, 0).UTC(),
	}, nil
}
