package processor

// Discount is one discount a participant processor applied during this
// submission.
type Discount struct {
	ID   int    `json:"id"`
	Code string `json:"code"`
}

// OptionRef ties a participant processor to the price-field option it
// rendered.
type OptionRef struct {
	ProcessorID string `json:"processor_id"`
	FieldID     string `json:"field_id"`
}

// DiscountSource exposes the discount bookkeeping the sibling participant
// processor recorded while it ran earlier in the same submission. The
// coupling is same-request only; implementations need no locking.
type DiscountSource interface {
	// DiscountsUsed maps field ids to the discount applied through them.
	DiscountsUsed() map[string]Discount
	// PriceFieldRefs maps participant processor references to field ids.
	PriceFieldRefs() map[string]string
	// PriceFieldOptionRefs lists option-level references.
	PriceFieldOptionRefs() []OptionRef
	// ProcessorID extracts the bare processor id from a reference tag.
	ProcessorID(ref string) string
}
