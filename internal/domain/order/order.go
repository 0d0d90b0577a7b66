// Package order holds the domain model for assembling one CiviCRM Order
// (a Contribution with line items) out of a single form submission.
package order

import (
	"github.com/shopspring/decimal"
)

// EntityTable identifies the CiviCRM entity a line item is priced against.
type EntityTable string

const (
	EntityContribution EntityTable = "civicrm_contribution"
	EntityParticipant  EntityTable = "civicrm_participant"
	EntityMembership   EntityTable = "civicrm_membership"
)

// Contribution status values used by the pipeline.
const (
	StatusPending             = "Pending"
	StatusPendingFromPayLater = "Pending from pay later"
)

// Row is one raw line-item record inside a fragment. A fragment produced by
// a multi-choice price field carries several rows.
type Row struct {
	EntityTable       EntityTable     `json:"entity_table"`
	EntityID          int             `json:"entity_id,omitempty"`
	PriceFieldID      int             `json:"price_field_id"`
	PriceFieldValueID int             `json:"price_field_value_id,omitempty"`
	Label             string          `json:"label,omitempty"`
	Qty               decimal.Decimal `json:"qty"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	LineTotal         decimal.Decimal `json:"line_total"`
	TaxAmount         decimal.Decimal `json:"tax_amount,omitempty"`
}

// LineItem is a persisted CiviCRM line item, re-fetched after the order has
// been created.
type LineItem struct {
	ID             int             `json:"id"`
	EntityTable    EntityTable     `json:"entity_table"`
	EntityID       int             `json:"entity_id"`
	ContributionID int             `json:"contribution_id"`
	PriceFieldID   int             `json:"price_field_id"`
	Label          string          `json:"label"`
	Qty            decimal.Decimal `json:"qty"`
	LineTotal      decimal.Decimal `json:"line_total"`
}

// Order is the created Contribution record together with its resolved line
// items. Exactly one Order (or none, on failure) exists per submission.
type Order struct {
	ID        int
	ContactID int
	StatusID  string
	Total     decimal.Decimal
	LineItems []LineItem
}
