package processor

import (
	"context"
	"slices"
	"strconv"

	"go.uber.org/zap"

	"github.com/civibridge/order-bridge/internal/civi"
	"github.com/civibridge/order-bridge/internal/domain/order"
)

// dispatch issues the single top-level create call for the submission. Any
// fragment registering an event participant routes the whole order through
// the participant path; otherwise the plain path is taken. The two paths
// are mutually exclusive and exhaustive.
func (p *Processor) dispatch(ctx context.Context, sub *Submission, cfg *order.Config, pl *order.Payload) (*order.Order, error) {
	if pl.HasParticipant() {
		return p.participantOrder(ctx, sub, cfg, pl)
	}
	return p.plainOrder(ctx, sub, cfg, pl)
}

// plainOrder creates the contribution through Order.create with the
// fragments embedded as given.
func (p *Processor) plainOrder(ctx context.Context, sub *Submission, cfg *order.Config, pl *order.Payload) (*order.Order, error) {
	params := orderParams(pl)
	for _, frag := range pl.Items {
		params.LineItems = append(params.LineItems, civi.OrderLine{
			Rows:        frag.Rows,
			Membership:  frag.Membership,
			Participant: frag.Participant,
		})
	}

	contrib, err := p.crm.CreateOrder(ctx, params)
	if err != nil {
		return nil, err
	}
	o := newOrder(contrib)
	p.createPremium(ctx, sub, cfg, o)
	return o, nil
}

// participantOrder creates each fragment's entity first, anchors every line
// item to the primary participant, and creates the contribution with line
// items keyed by their shared price set.
func (p *Processor) participantOrder(ctx context.Context, sub *Submission, cfg *order.Config, pl *order.Payload) (*order.Order, error) {
	primary := 0
	var rows []order.Row

	for _, frag := range pl.Items {
		entityID := 0
		switch frag.Kind() {
		case order.KindParticipant:
			id, err := p.crm.CreateParticipant(ctx, *frag.Participant)
			if err != nil {
				return nil, err
			}
			entityID = id
			if primary == 0 && frag.HasParticipantRow() {
				primary = id
			}
		case order.KindMembership:
			id, err := p.crm.CreateMembership(ctx, *frag.Membership)
			if err != nil {
				return nil, err
			}
			entityID = id
		case order.KindStandard:
		}

		// Multi-choice price fields produce several rows; flatten them.
		// Single-row fragments keep the entity they just created.
		if len(frag.Rows) > 1 {
			rows = append(rows, frag.Rows...)
		} else {
			r := frag.Rows[0]
			r.EntityID = entityID
			rows = append(rows, r)
		}
	}

	if primary == 0 {
		return nil, order.ErrNoPrimaryParticipant
	}

	// Every line item belongs to the primary participant, regardless of
	// the entity it originated from.
	for i := range rows {
		rows[i].EntityID = primary
		rows[i].EntityTable = order.EntityParticipant
	}

	setID, err := p.sharedPriceSet(ctx, rows)
	if err != nil {
		return nil, err
	}

	params := contributionParams(pl, setID, rows, primary)
	contrib, err := p.crm.CreateContribution(ctx, params)
	if err != nil {
		return nil, err
	}
	o := newOrder(contrib)

	if err := p.crm.CreateParticipantPayment(ctx, primary, o.ID); err != nil {
		return nil, err
	}

	p.createPremium(ctx, sub, cfg, o)
	return o, nil
}

// sharedPriceSet resolves the price set all rows belong to. Rows spanning
// more than one price set cannot form a participant order.
func (p *Processor) sharedPriceSet(ctx context.Context, rows []order.Row) (int, error) {
	byField := make(map[int]int)
	var sets []int
	for _, r := range rows {
		if _, ok := byField[r.PriceFieldID]; ok {
			continue
		}
		id, err := p.crm.PriceSetID(ctx, r.PriceFieldID)
		if err != nil {
			return 0, err
		}
		byField[r.PriceFieldID] = id
		if !slices.Contains(sets, id) {
			sets = append(sets, id)
		}
	}
	if len(sets) > 1 {
		return 0, &order.MultiplePriceSetsError{PriceSetIDs: sets}
	}
	return sets[0], nil
}

// createPremium attaches the configured premium product to the created
// contribution. Failure here never fails the order.
func (p *Processor) createPremium(ctx context.Context, sub *Submission, cfg *order.Config, o *order.Order) {
	if cfg.ProductID == 0 || o == nil {
		return
	}
	params := civi.PremiumParams{
		ProductID:      cfg.ProductID,
		ContributionID: o.ID,
		Quantity:       1,
	}
	if opt := sub.Values.Get(strconv.Itoa(cfg.ProductID) + "_option"); opt != "" {
		params.ProductOption = opt
	}
	if err := p.crm.CreateContributionProduct(ctx, params); err != nil {
		p.lg.Debug("unable to create premium",
			zap.Int("product_id", cfg.ProductID),
			zap.Int("contribution_id", o.ID),
			zap.Error(err),
		)
	}
}

func newOrder(c *civi.Contribution) *order.Order {
	return &order.Order{
		ID:        c.ID.Int(),
		ContactID: c.ContactID.Int(),
		StatusID:  strconv.Itoa(c.ContributionStatusID.Int()),
		Total:     c.TotalAmount,
	}
}

func orderParams(pl *order.Payload) civi.OrderParams {
	params := civi.OrderParams{
		ContactID:            pl.ContactID,
		FinancialTypeID:      pl.FinancialTypeID,
		ContributionStatusID: pl.ContributionStatusID,
		PaymentInstrumentID:  pl.PaymentInstrumentID,
		Currency:             pl.Currency,
		Source:               pl.Source,
		ContributionPageID:   pl.ContributionPageID,
		TotalAmount:          pl.TotalAmount,
		TaxAmount:            pl.TaxAmount,
		TrxnID:               pl.TrxnID,
	}
	if pl.IsPayLater {
		params.IsPayLater = 1
	}
	if ch := pl.Charge; ch != nil {
		if !ch.FeeAmount.IsZero() {
			fee := ch.FeeAmount
			params.FeeAmount = &fee
		}
		params.CardTypeID = ch.CardTypeID
		params.CreditCardType = ch.CreditCardType
		params.PANTruncation = ch.PANTruncation
		params.CreditCardExpDate = ch.Exp
	}
	return params
}

func contributionParams(pl *order.Payload, priceSetID int, rows []order.Row, primary int) civi.ContributionParams {
	op := orderParams(pl)
	return civi.ContributionParams{
		ContactID:            op.ContactID,
		FinancialTypeID:      op.FinancialTypeID,
		ContributionStatusID: op.ContributionStatusID,
		PaymentInstrumentID:  op.PaymentInstrumentID,
		Currency:             op.Currency,
		Source:               op.Source,
		ContributionPageID:   op.ContributionPageID,
		TotalAmount:          op.TotalAmount,
		TaxAmount:            op.TaxAmount,
		TrxnID:               op.TrxnID,
		IsPayLater:           op.IsPayLater,
		FeeAmount:            op.FeeAmount,
		CardTypeID:           op.CardTypeID,
		CreditCardType:       op.CreditCardType,
		PANTruncation:        op.PANTruncation,
		CreditCardExpDate:    op.CreditCardExpDate,
		LineItem:             map[int][]order.Row{priceSetID: rows},
		ParticipantID:        primary,
		ContributionMode:     "participant",
	}
}
