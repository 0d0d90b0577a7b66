package processor

import (
	"context"
	"slices"

	"go.uber.org/zap"

	"github.com/civibridge/order-bridge/internal/civi"
	"github.com/civibridge/order-bridge/internal/domain/order"
	"github.com/civibridge/order-bridge/internal/form"
	"github.com/civibridge/order-bridge/internal/gateway"
)

// currentStatuses are the membership statuses considered "current" when no
// override applies.
var currentStatuses = []string{"New", "Current", "Grace"}

// ThankYou is the data context handed to the thank-you renderer.
type ThankYou struct {
	Values      form.Values
	FormName    string
	Order       *order.Order
	Transaction *gateway.AuthorizeTransaction
}

// PostProcess is the engine's post-process hook: join-date preservation,
// line-item refresh, discount tracking, receipt dispatch, thank-you
// rendering, and the final post-order notification. Everything in here is
// best-effort; a created order is never un-created by a bookkeeping
// failure.
func (p *Processor) PostProcess(ctx context.Context, sub *Submission, cfg *order.Config) {
	p.preserveJoinDates(ctx, sub)

	if o := sub.order; o != nil {
		items, err := p.crm.LineItems(ctx, o.ID)
		if err != nil {
			p.lg.Debug("line item refresh failed", zap.Int("contribution_id", o.ID), zap.Error(err))
		} else {
			o.LineItems = toDomainLineItems(items)
		}

		p.trackDiscounts(ctx, sub)
		p.maybeSendConfirmation(ctx, o, cfg)
	}

	p.appendThankYou(sub)

	for _, l := range p.listeners {
		l.OrderProcessed(ctx, sub.order, cfg, sub.Form, sub.ProcessID)
	}
}

// preserveJoinDates keeps the member's original join date when this order
// renews an existing membership: if an older membership of an associated
// type predates the latest one, the latest membership's join date is
// rewritten to the oldest one's.
func (p *Processor) preserveJoinDates(ctx context.Context, sub *Submission) {
	for _, proc := range sub.Form.MembershipProcessors() {
		mc := proc.Membership
		if mc == nil || !mc.PreserveJoinDate {
			continue
		}
		if sub.contactID == 0 {
			continue
		}

		mp, ok := sub.Transient.Membership(proc.ID)
		if !ok {
			p.lg.Debug("no transient membership for processor", zap.String("processor_id", proc.ID))
			continue
		}

		associated, err := p.crm.OrganizationMembershipTypes(ctx, mc.MemberOfContactID)
		if err != nil {
			p.lg.Debug("associated membership types lookup failed",
				zap.Int("member_of_contact_id", mc.MemberOfContactID), zap.Error(err))
			continue
		}

		// The oldest membership lookup includes lapsed records; a
		// renewal continues from the very first join, even an expired
		// one.
		oldestType := 0
		if mc.RestrictToType {
			oldestType = mp.MembershipTypeID
		}
		oldest, err := p.crm.Membership(ctx, civi.MembershipQuery{
			ContactID:        sub.contactID,
			MembershipTypeID: oldestType,
			Statuses:         append(slices.Clone(currentStatuses), "Expired", "Cancelled"),
			Oldest:           true,
		})
		if err != nil || oldest == nil {
			continue
		}

		// Pay-later orders just created a Pending membership; otherwise
		// the latest record is found with no status filter at all.
		latestQuery := civi.MembershipQuery{
			ContactID:        sub.contactID,
			MembershipTypeID: mp.MembershipTypeID,
		}
		if sub.payLater {
			latestQuery.Statuses = []string{"Pending"}
		}
		latest, err := p.crm.Membership(ctx, latestQuery)
		if err != nil || latest == nil {
			continue
		}

		if oldest.JoinDate.Before(latest.JoinDate) && slices.Contains(associated, latest.MembershipTypeID.Int()) {
			latest.JoinDate = oldest.JoinDate
			if err := p.crm.UpdateMembership(ctx, *latest); err != nil {
				p.lg.Debug("join date rewrite failed",
					zap.Int("membership_id", latest.ID.Int()), zap.Error(err))
			}
		}
	}
}

// trackDiscounts records a discount-tracking entity for every participant
// line item whose discount was actually used. Failures are logged, never
// fatal.
func (p *Processor) trackDiscounts(ctx context.Context, sub *Submission) {
	o := sub.order
	if o == nil || sub.Discounts == nil {
		return
	}

	used := sub.Discounts.DiscountsUsed()
	refs := sub.Discounts.PriceFieldRefs()
	optionRefs := sub.Discounts.PriceFieldOptionRefs()
	if len(used) == 0 || (len(refs) == 0 && len(optionRefs) == 0) {
		return
	}

	merged := make(map[string]string, len(refs)+len(optionRefs))
	for ref, fieldID := range refs {
		merged[ref] = fieldID
	}
	for _, r := range optionRefs {
		merged[r.ProcessorID] = r.FieldID
	}

	var participantIDs []int
	participantItems := make(map[int]order.LineItem)
	for _, item := range o.LineItems {
		if item.EntityTable == order.EntityParticipant {
			participantIDs = append(participantIDs, item.EntityID)
			participantItems[item.EntityID] = item
		}
	}
	if len(participantIDs) == 0 {
		return
	}

	participants, err := p.crm.Participants(ctx, participantIDs)
	if err != nil {
		p.lg.Debug("participant lookup failed", zap.Error(err))
		return
	}

	for ref, fieldID := range merged {
		discount, ok := used[fieldID]
		if !ok {
			continue
		}

		processorID := sub.Discounts.ProcessorID(ref)
		event, ok := sub.Transient.Event(processorID)
		if !ok {
			continue
		}

		var participant *civi.Participant
		for i := range participants {
			if participants[i].EventID.Int() == event.EventID {
				participant = &participants[i]
			}
		}
		if participant == nil {
			continue
		}

		item := participantItems[participant.ID.Int()]
		err := p.crm.CreateDiscountTrack(ctx, civi.DiscountTrackParams{
			ItemID:         discount.ID,
			ContactID:      o.ContactID,
			ContributionID: o.ID,
			EntityTable:    string(item.EntityTable),
			EntityID:       participant.ID.Int(),
			Description:    []string{item.Label},
		})
		if err != nil {
			p.lg.Debug("unable to track discount",
				zap.String("code", discount.Code),
				zap.Int("contribution_id", o.ID),
				zap.Error(err),
			)
		}
	}
}

// maybeSendConfirmation asks the CRM to send its standard receipt when the
// processor is configured to. Failure is logged, never fatal.
func (p *Processor) maybeSendConfirmation(ctx context.Context, o *order.Order, cfg *order.Config) {
	if o == nil || !cfg.IsEmailReceipt {
		return
	}
	if err := p.crm.SendConfirmation(ctx, o.ID); err != nil {
		p.lg.Debug("unable to send confirmation email",
			zap.Int("contribution_id", o.ID), zap.Error(err))
	}
}

// appendThankYou renders the thank-you block into the submission response.
func (p *Processor) appendThankYou(sub *Submission) {
	if p.thankYou == nil {
		return
	}
	html, err := p.thankYou.Render(ThankYou{
		Values:      sub.Values,
		FormName:    sub.Form.Name,
		Order:       sub.order,
		Transaction: sub.Transaction,
	})
	if err != nil {
		p.lg.Debug("thank-you render failed", zap.Error(err))
		return
	}
	sub.Response.AppendHTML(html)
}

func toDomainLineItems(items []civi.LineItem) []order.LineItem {
	out := make([]order.LineItem, len(items))
	for i, it := range items {
		out[i] = order.LineItem{
			ID:             it.ID.Int(),
			EntityTable:    order.EntityTable(it.EntityTable),
			EntityID:       it.EntityID.Int(),
			ContributionID: it.ContributionID.Int(),
			PriceFieldID:   it.PriceFieldID.Int(),
			Label:          it.Label,
			Qty:            it.Qty,
			LineTotal:      it.LineTotal,
		}
	}
	return out
}
