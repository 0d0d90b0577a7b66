package civi

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/civibridge/order-bridge/internal/domain/order"
)

// OrderLine is one line-item block inside Order.create: the raw rows plus
// the params of the entity the order should create for them.
type OrderLine struct {
	Rows        []order.Row
	Membership  *order.MembershipParams
	Participant *order.ParticipantParams
}

func (l OrderLine) MarshalJSON() ([]byte, error) {
	out := struct {
		LineItem []order.Row `json:"line_item"`
		Params   any         `json:"params,omitempty"`
	}{LineItem: l.Rows}
	switch {
	case l.Membership != nil:
		out.Params = l.Membership
	case l.Participant != nil:
		out.Params = l.Participant
	}
	return json.Marshal(out)
}

// OrderParams is the request body of Order.create.
type OrderParams struct {
	ContactID            int              `json:"contact_id"`
	FinancialTypeID      int              `json:"financial_type_id"`
	ContributionStatusID string           `json:"contribution_status_id,omitempty"`
	PaymentInstrumentID  string           `json:"payment_instrument_id,omitempty"`
	Currency             string           `json:"currency,omitempty"`
	Source               string           `json:"source,omitempty"`
	ContributionPageID   int              `json:"contribution_page_id,omitempty"`
	TotalAmount          *decimal.Decimal `json:"total_amount,omitempty"`
	TaxAmount            *decimal.Decimal `json:"tax_amount,omitempty"`
	TrxnID               string           `json:"trxn_id,omitempty"`
	IsPayLater           int              `json:"is_pay_later,omitempty"`
	FeeAmount            *decimal.Decimal `json:"fee_amount,omitempty"`
	CardTypeID           string           `json:"card_type_id,omitempty"`
	CreditCardType       string           `json:"credit_card_type,omitempty"`
	PANTruncation        string           `json:"pan_truncation,omitempty"`
	CreditCardExpDate    *order.ExpDate   `json:"credit_card_exp_date,omitempty"`
	LineItems            []OrderLine      `json:"line_items,omitempty"`
}

// ContributionParams is the request body of Contribution.create on the
// participant path: line items are keyed by their shared price set and the
// contribution is linked to the primary participant.
type ContributionParams struct {
	ContactID            int                 `json:"contact_id"`
	FinancialTypeID      int                 `json:"financial_type_id"`
	ContributionStatusID string              `json:"contribution_status_id,omitempty"`
	PaymentInstrumentID  string              `json:"payment_instrument_id,omitempty"`
	Currency             string              `json:"currency,omitempty"`
	Source               string              `json:"source,omitempty"`
	ContributionPageID   int                 `json:"contribution_page_id,omitempty"`
	TotalAmount          *decimal.Decimal    `json:"total_amount,omitempty"`
	TaxAmount            *decimal.Decimal    `json:"tax_amount,omitempty"`
	TrxnID               string              `json:"trxn_id,omitempty"`
	IsPayLater           int                 `json:"is_pay_later,omitempty"`
	FeeAmount            *decimal.Decimal    `json:"fee_amount,omitempty"`
	CardTypeID           string              `json:"card_type_id,omitempty"`
	CreditCardType       string              `json:"credit_card_type,omitempty"`
	PANTruncation        string              `json:"pan_truncation,omitempty"`
	CreditCardExpDate    *order.ExpDate      `json:"credit_card_exp_date,omitempty"`
	LineItem             map[int][]order.Row `json:"line_item"`
	ParticipantID        int                 `json:"participant_id"`
	ContributionMode     string              `json:"contribution_mode"`
}

// PremiumParams is the request body of ContributionProduct.create.
type PremiumParams struct {
	ProductID      int    `json:"product_id"`
	ContributionID int    `json:"contribution_id"`
	Quantity       int    `json:"quantity"`
	ProductOption  string `json:"product_option,omitempty"`
}

// DiscountTrackParams is the request body of DiscountTrack.create.
type DiscountTrackParams struct {
	ItemID         int      `json:"item_id"`
	ContactID      int      `json:"contact_id"`
	ContributionID int      `json:"contribution_id"`
	EntityTable    string   `json:"entity_table"`
	EntityID       int      `json:"entity_id"`
	Description    []string `json:"description"`
}

// MembershipQuery selects one membership of a contact.
type MembershipQuery struct {
	ContactID        int
	MembershipTypeID int // 0 matches any type
	// Statuses filters by status name; nil skips status filtering
	// entirely.
	Statuses []string
	// Oldest sorts by join date ascending; otherwise the latest
	// membership is returned.
	Oldest bool
}

func (q MembershipQuery) params() map[string]any {
	sort := "join_date DESC"
	if q.Oldest {
		sort = "join_date ASC"
	}
	p := map[string]any{
		"contact_id": q.ContactID,
		"options":    map[string]any{"limit": 1, "sort": sort},
	}
	if q.MembershipTypeID != 0 {
		p["membership_type_id"] = q.MembershipTypeID
	}
	if len(q.Statuses) > 0 {
		p["status_id"] = map[string]any{"IN": q.Statuses}
	}
	return p
}
