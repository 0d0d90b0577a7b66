package civi

import (
	"bytes"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Int unmarshals CiviCRM integers, which arrive as numbers or as quoted
// strings depending on entity and field.
type Int int

func (i *Int) UnmarshalJSON(b []byte) error {
	s := string(bytes.Trim(b, `"`))
	if s == "" || s == "null" {
		*i = 0
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return errors.Wrap(err, "parse int")
	}
	*i = Int(v)
	return nil
}

func (i Int) Int() int { return int(i) }

// Bool unmarshals CiviCRM booleans: true/false, 0/1, "0"/"1".
type Bool bool

func (f *Bool) UnmarshalJSON(b []byte) error {
	switch string(bytes.Trim(b, `"`)) {
	case "", "null", "0", "false":
		*f = false
	default:
		*f = true
	}
	return nil
}

// Date unmarshals CiviCRM dates ("2006-01-02", with or without a time part)
// and marshals back to the date-only form the API expects.
type Date struct {
	time.Time
}

var dateLayouts = []string{"2006-01-02", "2006-01-02 15:04:05", "20060102150405"}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(bytes.Trim(b, `"`))
	if s == "" || s == "null" {
		d.Time = time.Time{}
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t
			return nil
		}
	}
	return errors.Errorf("parse date %q", s)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + d.Format("2006-01-02") + `"`), nil
}

// Before compares calendar days, ignoring any time-of-day part.
func (d Date) Before(o Date) bool {
	return d.Format("2006-01-02") < o.Format("2006-01-02")
}

// Contribution is the created Contribution record as the API returns it.
type Contribution struct {
	ID                   Int             `json:"id"`
	ContactID            Int             `json:"contact_id"`
	ContributionStatusID Int             `json:"contribution_status_id"`
	TotalAmount          decimal.Decimal `json:"total_amount"`
	Currency             string          `json:"currency"`
	Source               string          `json:"source"`
}

// Participant is an event registration record.
type Participant struct {
	ID        Int `json:"id"`
	ContactID Int `json:"contact_id"`
	EventID   Int `json:"event_id"`
}

// Membership is a membership record. It round-trips: lookups decode into
// it, and the join-date rewrite marshals it back into Membership.create.
type Membership struct {
	ID               Int    `json:"id"`
	ContactID        Int    `json:"contact_id"`
	MembershipTypeID Int    `json:"membership_type_id"`
	JoinDate         Date   `json:"join_date"`
	StartDate        Date   `json:"start_date,omitempty"`
	EndDate          Date   `json:"end_date,omitempty"`
	StatusID         Int    `json:"status_id,omitempty"`
	Source           string `json:"source,omitempty"`
}

// LineItem is a persisted line item as LineItem.get returns it.
type LineItem struct {
	ID                Int             `json:"id"`
	EntityTable       string          `json:"entity_table"`
	EntityID          Int             `json:"entity_id"`
	ContributionID    Int             `json:"contribution_id"`
	PriceFieldID      Int             `json:"price_field_id"`
	PriceFieldValueID Int             `json:"price_field_value_id"`
	Label             string          `json:"label"`
	Qty               decimal.Decimal `json:"qty"`
	LineTotal         decimal.Decimal `json:"line_total"`
}

// TaxSettings is the slice of the site's invoicing configuration the
// aggregator needs: whether tax tracking is on at all.
type TaxSettings struct {
	Invoicing Bool `json:"invoicing"`
}
