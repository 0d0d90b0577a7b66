package order

import (
	"github.com/shopspring/decimal"
)

// ExpDate is a card expiry in CiviCRM's month/year shape.
type ExpDate struct {
	Month int `json:"M"`
	Year  int `json:"Y"`
}

// ChargeMetadata is gateway-supplied detail about a successful charge,
// merged into the payload ahead of dispatch.
type ChargeMetadata struct {
	FeeAmount      decimal.Decimal
	CardTypeID     string
	CreditCardType string
	PANTruncation  string
	Exp            *ExpDate
}

// Payload is the mutable accumulator the field mapper and line-item
// aggregator build up before the order is dispatched.
type Payload struct {
	ContactID            int
	FinancialTypeID      int
	ContributionStatusID string
	PaymentInstrumentID  string
	Currency             string
	Source               string
	ContributionPageID   int
	TotalAmount          *decimal.Decimal
	TaxAmount            *decimal.Decimal
	TrxnID               string
	IsPayLater           bool
	Charge               *ChargeMetadata

	// Items holds the resolved fragments in configuration order.
	Items []*Fragment
}

// HasParticipant reports whether any resolved fragment registers an event
// participant, which routes the order through the participant path.
func (p *Payload) HasParticipant() bool {
	for _, f := range p.Items {
		if f.HasParticipantRow() {
			return true
		}
	}
	return false
}
