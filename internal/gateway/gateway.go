// Package gateway holds typed views of what payment gateways hand back
// after a successful charge. The order pipeline reads named fields from
// these records only; the charges themselves happen upstream.
package gateway

import "context"

// ChargeEvent is the post-charge notification of a Stripe-like gateway.
type ChargeEvent struct {
	BalanceTransactionID string `json:"balance_transaction"`
	Card                 Card   `json:"card"`
}

// Card is the charged card's summary as the gateway reports it.
type Card struct {
	Brand    string `json:"brand"`
	Last4    string `json:"last4"`
	ExpMonth int    `json:"exp_month"`
	ExpYear  int    `json:"exp_year"`
}

// BalanceTransaction carries the processor fee for a charge. Fee is in the
// currency's minor units.
type BalanceTransaction struct {
	ID  string `json:"id"`
	Fee int64  `json:"fee"`
}

// BalanceFetcher retrieves the balance transaction behind a charge.
type BalanceFetcher interface {
	BalanceTransaction(ctx context.Context, id string) (*BalanceTransaction, error)
}

// AuthorizeTransaction is the transaction record an Authorize-like gateway
// stores on the submission. AccountNumber arrives masked ("XXXX1111").
type AuthorizeTransaction struct {
	TransactionID string `json:"transaction_id"`
	CardType      string `json:"card_type"`
	AccountNumber string `json:"account_number"`
}
