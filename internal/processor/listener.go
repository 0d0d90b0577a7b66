package processor

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/civibridge/order-bridge/internal/domain/order"
	"github.com/civibridge/order-bridge/internal/gateway"
)

// CaptureCharge is the pre-process payment-metadata listener. For a
// successful Stripe-like charge it retrieves the balance transaction and
// normalizes fee and card details for the field mapper to merge. It fires
// once per submission; later events are ignored. A submission without a
// charge event simply carries no gateway metadata.
func (p *Processor) CaptureCharge(ctx context.Context, sub *Submission, ev gateway.ChargeEvent) error {
	if sub.charge != nil {
		return nil
	}
	if p.balance == nil {
		return errors.New("no balance fetcher configured")
	}

	bt, err := p.balance.BalanceTransaction(ctx, ev.BalanceTransactionID)
	if err != nil {
		return errors.Wrap(err, "retrieve balance transaction")
	}

	cardTypeID, err := p.crm.OptionValueByLabel(ctx, ev.Card.Brand)
	if err != nil {
		p.lg.Debug("card type lookup failed", zap.String("brand", ev.Card.Brand), zap.Error(err))
		cardTypeID = ""
	}

	// The gateway reports the fee in minor units.
	fee := decimal.NewFromInt(bt.Fee).Div(decimal.NewFromInt(100))

	sub.charge = &order.ChargeMetadata{
		FeeAmount:      fee,
		CardTypeID:     cardTypeID,
		CreditCardType: ev.Card.Brand,
		PANTruncation:  ev.Card.Last4,
		Exp:            &order.ExpDate{Month: ev.Card.ExpMonth, Year: ev.Card.ExpYear},
	}
	return nil
}
