package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-faster/errors"
)

const stripeAPIBase = "https://api.stripe.com/v1"

// StripeClient fetches balance transactions from the Stripe API.
type StripeClient struct {
	base   string
	secret string
	http   *http.Client
}

var _ BalanceFetcher = (*StripeClient)(nil)

// NewStripeClient returns a client authenticated with the given secret key.
func NewStripeClient(secret string) *StripeClient {
	return &StripeClient{
		base:   stripeAPIBase,
		secret: secret,
		http:   &http.Client{Timeout: 10 * time.Second},
	}
}

// WithBaseURL overrides the API base URL. Used in tests.
func (c *StripeClient) WithBaseURL(base string) *StripeClient {
	c.base = base
	return c
}

// BalanceTransaction retrieves one balance transaction by id.
func (c *StripeClient) BalanceTransaction(ctx context.Context, id string) (*BalanceTransaction, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/balance_transactions/"+id, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("Authorization", "Bearer "+c.secret)

	res, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "fetch balance transaction")
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("balance transaction %s: status %d", id, res.StatusCode)
	}

	var bt BalanceTransaction
	if err := json.NewDecoder(res.Body).Decode(&bt); err != nil {
		return nil, errors.Wrap(err, "decode balance transaction")
	}
	return &bt, nil
}
