package order

import (
	"fmt"

	"github.com/go-faster/errors"
)

// Sentinel errors for unresolved required references.
var (
	// ErrContactNotLinked is returned when the configured contact link
	// resolves to no contact in the transient store.
	ErrContactNotLinked = errors.New("contact link unresolved")
	// ErrNoLineItems is returned when none of the configured line-item
	// references resolves to a usable fragment.
	ErrNoLineItems = errors.New("no resolvable line items")
	// ErrNoPrimaryParticipant is returned when the participant path runs
	// without any participant entity to anchor the order to.
	ErrNoPrimaryParticipant = errors.New("no primary participant")
)

// MultiplePriceSetsError indicates the order's line items span more than one
// price set. The participant path requires a single shared price set.
type MultiplePriceSetsError struct {
	PriceSetIDs []int
}

func (e *MultiplePriceSetsError) Error() string {
	return fmt.Sprintf("line items span %d price sets, expected one", len(e.PriceSetIDs))
}
