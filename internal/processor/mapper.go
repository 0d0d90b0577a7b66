package processor

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/civibridge/order-bridge/internal/domain/order"
)

// buildPayload is the field-mapper stage: it assembles the base order
// payload from the processor config, the submitted values, and the
// transient state.
func (p *Processor) buildPayload(ctx context.Context, sub *Submission, cfg *order.Config) (*order.Payload, error) {
	sub.contactKey = "cid_" + cfg.ContactLink
	contactID, ok := sub.Transient.Contact(sub.contactKey)
	if !ok {
		return nil, order.ErrContactNotLinked
	}
	sub.contactID = contactID

	pl := &order.Payload{
		ContactID:            contactID,
		FinancialTypeID:      cfg.FinancialTypeID,
		ContributionStatusID: cfg.ContributionStatusID,
		Currency:             cfg.Currency,
		ContributionPageID:   cfg.ContributionPageID,
	}

	// Submitted values routed into order params by the field mappings.
	for param, slug := range cfg.Mappings {
		val := sub.Values.Get(slug)
		if val == "" {
			continue
		}
		switch param {
		case "source":
			pl.Source = val
		case "trxn_id":
			pl.TrxnID = val
		case "total_amount":
			amt, err := decimal.NewFromString(val)
			if err != nil {
				p.lg.Debug("unparseable total amount", zap.String("field", slug), zap.String("value", val))
				continue
			}
			pl.TotalAmount = &amt
		}
	}

	if cfg.IsMappedField {
		pl.PaymentInstrumentID = sub.Values.Get(cfg.PaymentInstrumentField)
	} else {
		pl.PaymentInstrumentID = cfg.PaymentInstrumentID
	}

	// A pay-later instrument defers the whole order: status forced to
	// Pending, is_pay_later set so the CRM does not flag an incomplete
	// transaction, and no transaction id since no gateway ran.
	if cfg.PayLaterInstrumentID != "" && pl.PaymentInstrumentID == cfg.PayLaterInstrumentID {
		sub.payLater = true
		pl.IsPayLater = true
		pl.ContributionStatusID = order.StatusPending
		pl.TrxnID = ""
	}

	if pl.Source == "" {
		pl.Source = sub.Form.Name
	}

	// Charge metadata captured at pre-process (Stripe-like gateways).
	if sub.charge != nil {
		pl.Charge = sub.charge
	}

	// Authorize-style transaction record stored on the submission.
	if tx := sub.Transaction; tx != nil && tx.TransactionID != "" {
		pl.TrxnID = tx.TransactionID
		cardTypeID, err := p.crm.OptionValueByLabel(ctx, tx.CardType)
		if err != nil {
			p.lg.Debug("card type lookup failed", zap.String("label", tx.CardType), zap.Error(err))
			cardTypeID = ""
		}
		if pl.Charge == nil {
			pl.Charge = &order.ChargeMetadata{}
		}
		pl.Charge.CardTypeID = cardTypeID
		pl.Charge.CreditCardType = tx.CardType
		pl.Charge.PANTruncation = strings.ReplaceAll(tx.AccountNumber, "X", "")
	}

	return pl, nil
}
