package processor

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/civibridge/order-bridge/internal/domain/order"
	"github.com/civibridge/order-bridge/internal/form"
)

// lineItemToken marks a processor reference that resolved to a line-item
// binding indirection instead of concrete transient data.
const lineItemToken = "civicrm_line_item"

// collectLineItems is the aggregator stage: it resolves the configured
// line-item references against the transient store, accumulates tax, and
// applies pay-later status overrides to the resolved fragments.
func (p *Processor) collectLineItems(ctx context.Context, sub *Submission, cfg *order.Config, pl *order.Payload) error {
	taxEnabled := false
	ts, err := p.crm.TaxSettings(ctx)
	if err != nil {
		p.lg.Debug("tax settings unavailable, tax tracking disabled", zap.Error(err))
	} else {
		taxEnabled = bool(ts.Invoicing)
	}

	tax := decimal.Zero
	for _, ref := range cfg.LineItems {
		if ref == "" {
			// disabled slot
			continue
		}
		resolved := form.Resolve(ref, sub.Values)
		if resolved == "" || strings.Contains(resolved, lineItemToken) {
			continue
		}
		frag, ok := sub.Transient.LineItem(resolved)
		if !ok || frag.Empty() {
			continue
		}

		// The transient store is read-only to this processor; status
		// overrides go on a copy.
		frag = frag.Clone()

		if taxEnabled {
			tax = tax.Add(frag.Rows[0].TaxAmount)
		}

		if sub.payLater {
			switch frag.Kind() {
			case order.KindMembership:
				// Pending with override, bypassing the CRM's
				// automatic status calculation.
				frag.Membership.StatusID = order.StatusPending
				frag.Membership.IsOverride = 1
			case order.KindParticipant:
				frag.Participant.StatusID = order.StatusPendingFromPayLater
			case order.KindStandard:
			}
		}

		pl.Items = append(pl.Items, frag)
	}

	if !tax.IsZero() {
		pl.TaxAmount = &tax
	}
	return nil
}
