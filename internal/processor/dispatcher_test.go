package processor

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civibridge/order-bridge/internal/civi"
	"github.com/civibridge/order-bridge/internal/domain/order"
	"github.com/civibridge/order-bridge/internal/form"
)

func TestProcessPlainOrder(t *testing.T) {
	crm := newFakeCRM()
	p := New(crm)

	store := baseStore()
	store.SetLineItem("li_1", donationFragment("0"))
	store.SetLineItem("li_2", membershipFragment(5))

	cfg := baseConfig()
	cfg.LineItems = []string{"{item_1}", "{item_2}"}
	sub := newSub(form.Values{"item_1": "li_1", "item_2": "li_2"}, store)

	orderID, err := p.Process(context.Background(), sub, cfg)
	require.NoError(t, err)
	assert.Equal(t, 501, orderID)
	assert.Equal(t, 501, sub.Response.OrderID)

	require.Len(t, crm.orders, 1, "plain submissions go through Order.create exactly once")
	assert.Empty(t, crm.contributions)
	assert.Empty(t, crm.participantsCreated)
	assert.Empty(t, crm.membershipsCreated, "Order.create owns entity creation on the plain path")

	params := crm.orders[0]
	assert.Equal(t, 203, params.ContactID)
	assert.Equal(t, "Completed", params.ContributionStatusID)
	require.Len(t, params.LineItems, 2)
	assert.Nil(t, params.LineItems[0].Membership)
	require.NotNil(t, params.LineItems[1].Membership)
	assert.Equal(t, 5, params.LineItems[1].Membership.MembershipTypeID)

	require.NotNil(t, sub.Order())
	assert.Equal(t, 501, sub.Order().ID)
}

func TestProcessNoLineItems(t *testing.T) {
	crm := newFakeCRM()
	p := New(crm)

	// The contact is linked but every reference resolves to nothing.
	sub := newSub(form.Values{}, baseStore())

	_, err := p.Process(context.Background(), sub, baseConfig())
	require.ErrorIs(t, err, order.ErrNoLineItems)
	assert.Empty(t, crm.orders, "no create call for an empty order")
	assert.Empty(t, crm.contributions)
	assert.Nil(t, sub.Order())
}

func TestProcessPlainOrderWithTax(t *testing.T) {
	crm := newFakeCRM()
	crm.taxSettings.Invoicing = true
	p := New(crm)

	store := baseStore()
	store.SetLineItem("li_1", donationFragment("5.00"))
	sub := newSub(form.Values{"item_1": "li_1"}, store)

	_, err := p.Process(context.Background(), sub, baseConfig())
	require.NoError(t, err)

	require.Len(t, crm.orders, 1)
	params := crm.orders[0]
	require.NotNil(t, params.TaxAmount)
	assert.True(t, params.TaxAmount.Equal(money("5.00")))
	assert.Equal(t, "Completed", params.ContributionStatusID)
	assert.Zero(t, params.IsPayLater)
}

func TestProcessPlainOrderPayLater(t *testing.T) {
	crm := newFakeCRM()
	p := New(crm)

	store := baseStore()
	store.SetLineItem("li_1", donationFragment("0"))

	cfg := baseConfig()
	cfg.Mappings = map[string]string{"trxn_id": "txn_field"}
	cfg.PayLaterInstrumentID = "Check"
	sub := newSub(form.Values{"item_1": "li_1", "txn_field": "ch_1ABC"}, store)

	_, err := p.Process(context.Background(), sub, cfg)
	require.NoError(t, err)

	assert.True(t, sub.PayLater())
	require.Len(t, crm.orders, 1)
	params := crm.orders[0]
	assert.Equal(t, 1, params.IsPayLater)
	assert.Equal(t, order.StatusPending, params.ContributionStatusID)
	assert.Empty(t, params.TrxnID)
}

func TestProcessParticipantOrder(t *testing.T) {
	crm := newFakeCRM()
	p := New(crm)

	store := baseStore()
	store.SetLineItem("li_d", donationFragment("0"))
	store.SetLineItem("li_p", participantFragment(31, 20))

	cfg := baseConfig()
	cfg.LineItems = []string{"{item_d}", "{item_p}"}
	sub := newSub(form.Values{"item_d": "li_d", "item_p": "li_p"}, store)

	orderID, err := p.Process(context.Background(), sub, cfg)
	require.NoError(t, err)
	assert.Equal(t, 601, orderID)

	assert.Empty(t, crm.orders, "a participant fragment forces the participant path")
	require.Len(t, crm.participantsCreated, 1)
	assert.Equal(t, 31, crm.participantsCreated[0].EventID)
	require.Len(t, crm.contributions, 1)

	params := crm.contributions[0]
	assert.Equal(t, "participant", params.ContributionMode)
	assert.Equal(t, 701, params.ParticipantID)

	require.Len(t, params.LineItem, 1)
	rows := params.LineItem[1]
	require.Len(t, rows, 2)
	for _, r := range rows {
		assert.Equal(t, order.EntityParticipant, r.EntityTable)
		assert.Equal(t, 701, r.EntityID, "every row anchors to the primary participant")
	}

	require.Len(t, crm.participantPayments, 1)
	assert.Equal(t, [2]int{701, 601}, crm.participantPayments[0])
}

func TestParticipantOrderCreatesEntitiesPerFragment(t *testing.T) {
	crm := newFakeCRM()
	p := New(crm)

	store := baseStore()
	store.SetLineItem("li_p", participantFragment(31, 20))
	store.SetLineItem("li_m", membershipFragment(5))

	cfg := baseConfig()
	cfg.LineItems = []string{"{item_p}", "{item_m}"}
	sub := newSub(form.Values{"item_p": "li_p", "item_m": "li_m"}, store)

	_, err := p.Process(context.Background(), sub, cfg)
	require.NoError(t, err)

	require.Len(t, crm.participantsCreated, 1)
	require.Len(t, crm.membershipsCreated, 1)
	assert.Equal(t, 5, crm.membershipsCreated[0].MembershipTypeID)

	// The membership row is re-anchored to the participant despite the
	// membership entity existing.
	rows := crm.contributions[0].LineItem[1]
	require.Len(t, rows, 2)
	assert.Equal(t, order.EntityParticipant, rows[1].EntityTable)
	assert.Equal(t, 701, rows[1].EntityID)
}

func TestParticipantOrderFlattensMultiRowFragment(t *testing.T) {
	crm := newFakeCRM()
	p := New(crm)

	multi := participantFragment(31, 20)
	multi.Rows = append(multi.Rows, order.Row{
		EntityTable:  order.EntityParticipant,
		PriceFieldID: 20,
		Label:        "Workshop Add-on",
		Qty:          money("1"),
		UnitPrice:    money("15.00"),
		LineTotal:    money("15.00"),
	})

	store := baseStore()
	store.SetLineItem("li_p", multi)

	sub := newSub(form.Values{"item_1": "li_p"}, store)

	_, err := p.Process(context.Background(), sub, baseConfig())
	require.NoError(t, err)

	rows := crm.contributions[0].LineItem[1]
	require.Len(t, rows, 2)
	assert.Equal(t, "Gala Ticket", rows[0].Label)
	assert.Equal(t, "Workshop Add-on", rows[1].Label)
}

func TestParticipantOrderMultiplePriceSets(t *testing.T) {
	crm := newFakeCRM()
	crm.priceSets[20] = 3
	crm.priceSets[21] = 4
	p := New(crm)

	store := baseStore()
	store.SetLineItem("li_a", participantFragment(31, 20))
	store.SetLineItem("li_b", participantFragment(32, 21))

	cfg := baseConfig()
	cfg.LineItems = []string{"{item_a}", "{item_b}"}
	sub := newSub(form.Values{"item_a": "li_a", "item_b": "li_b"}, store)

	_, err := p.Process(context.Background(), sub, cfg)
	var mpsErr *order.MultiplePriceSetsError
	require.ErrorAs(t, err, &mpsErr)
	assert.ElementsMatch(t, []int{3, 4}, mpsErr.PriceSetIDs)
	assert.Empty(t, crm.contributions, "no contribution is created for ambiguous price sets")
}

func TestParticipantOrderNoPrimaryParticipant(t *testing.T) {
	crm := newFakeCRM()
	p := New(crm)

	// A participant row without a participant params block routes the
	// order down the participant path but creates no entity to anchor to.
	frag := &order.Fragment{
		Rows: []order.Row{{
			EntityTable:  order.EntityParticipant,
			PriceFieldID: 20,
			Qty:          money("1"),
			LineTotal:    money("50.00"),
		}},
	}
	store := baseStore()
	store.SetLineItem("li_p", frag)

	sub := newSub(form.Values{"item_1": "li_p"}, store)

	_, err := p.Process(context.Background(), sub, baseConfig())
	require.ErrorIs(t, err, order.ErrNoPrimaryParticipant)
	assert.Empty(t, crm.contributions)
}

func TestProcessAPIFailureBecomesSubmissionError(t *testing.T) {
	crm := newFakeCRM()
	crm.orderErr = &civi.APIError{
		Entity:  "Order",
		Action:  "create",
		Message: "DB Error: constraint violation",
		Trace:   "#0 CRM_Core_DAO...",
	}
	p := New(crm)

	store := baseStore()
	store.SetLineItem("li_1", donationFragment("0"))
	sub := newSub(form.Values{"item_1": "li_1"}, store)

	_, err := p.Process(context.Background(), sub, baseConfig())
	var subErr *SubmissionError
	require.ErrorAs(t, err, &subErr)
	assert.Equal(t, "DB Error: constraint violation", subErr.Message)
	assert.Contains(t, subErr.Note, "#0 CRM_Core_DAO")
	assert.Nil(t, sub.Order())
}

func TestProcessNonAPIFailurePassesThrough(t *testing.T) {
	crm := newFakeCRM()
	crm.orderErr = errors.New("connection refused")
	p := New(crm)

	store := baseStore()
	store.SetLineItem("li_1", donationFragment("0"))
	sub := newSub(form.Values{"item_1": "li_1"}, store)

	_, err := p.Process(context.Background(), sub, baseConfig())
	require.Error(t, err)
	var subErr *SubmissionError
	assert.False(t, errors.As(err, &subErr))
}

func TestCreatePremium(t *testing.T) {
	crm := newFakeCRM()
	p := New(crm)

	store := baseStore()
	store.SetLineItem("li_1", donationFragment("0"))

	cfg := baseConfig()
	cfg.ProductID = 7
	sub := newSub(form.Values{"item_1": "li_1", "7_option": "Large"}, store)

	_, err := p.Process(context.Background(), sub, cfg)
	require.NoError(t, err)

	require.Len(t, crm.premiums, 1)
	prem := crm.premiums[0]
	assert.Equal(t, 7, prem.ProductID)
	assert.Equal(t, 501, prem.ContributionID)
	assert.Equal(t, 1, prem.Quantity)
	assert.Equal(t, "Large", prem.ProductOption)
}

func TestCreatePremiumFailureDoesNotFailOrder(t *testing.T) {
	crm := newFakeCRM()
	crm.premiumErr = assert.AnError
	p := New(crm)

	store := baseStore()
	store.SetLineItem("li_1", donationFragment("0"))

	cfg := baseConfig()
	cfg.ProductID = 7
	sub := newSub(form.Values{"item_1": "li_1"}, store)

	orderID, err := p.Process(context.Background(), sub, cfg)
	require.NoError(t, err)
	assert.Equal(t, 501, orderID)
}
