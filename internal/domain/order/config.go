package order

// Config is the static processor configuration for one order processor
// instance. It is immutable once loaded for a submission.
type Config struct {
	// ContactLink selects which contact processor the order belongs to;
	// the transient store key is "cid_" + ContactLink.
	ContactLink string `json:"contact_link"`

	FinancialTypeID      int    `json:"financial_type_id"`
	ContributionStatusID string `json:"contribution_status_id"`
	Currency             string `json:"currency"`
	ContributionPageID   int    `json:"contribution_page_id,omitempty"`

	// PaymentInstrumentID is the static instrument. When IsMappedField is
	// set, the instrument is taken from the submitted value of
	// PaymentInstrumentField instead.
	PaymentInstrumentID    string `json:"payment_instrument_id"`
	IsMappedField          bool   `json:"is_mapped_field,omitempty"`
	PaymentInstrumentField string `json:"payment_instrument_field,omitempty"`

	// PayLaterInstrumentID marks an instrument as deferred payment. A
	// resolved instrument equal to it puts the whole order in a pending
	// state.
	PayLaterInstrumentID string `json:"is_pay_later,omitempty"`

	IsEmailReceipt bool `json:"is_email_receipt,omitempty"`

	// ProductID attaches a premium product to the created contribution.
	ProductID int `json:"product_id,omitempty"`

	// Mappings routes submitted field values into order parameters. Keys
	// are parameter names ("source", "total_amount", "trxn_id"), values
	// are field slugs.
	Mappings map[string]string `json:"mappings,omitempty"`

	// LineItems is the ordered list of line-item processor references,
	// usually magic tags like "{item_1}". Empty entries are disabled.
	LineItems []string `json:"line_items"`
}
