package processor

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/civibridge/order-bridge/internal/civi"
	"github.com/civibridge/order-bridge/internal/domain/order"
	"github.com/civibridge/order-bridge/internal/form"
	"github.com/civibridge/order-bridge/internal/transient"
)

// --- Fake CRM ---

type fakeCRM struct {
	// recorded calls
	orders              []civi.OrderParams
	contributions       []civi.ContributionParams
	participantsCreated []order.ParticipantParams
	membershipsCreated  []order.MembershipParams
	membershipUpdates   []civi.Membership
	participantPayments [][2]int
	premiums            []civi.PremiumParams
	discountTracks      []civi.DiscountTrackParams
	confirmations       []int
	membershipQueries   []civi.MembershipQuery

	// canned behaviour
	orderErr           error
	orderResult        *civi.Contribution
	contributionErr    error
	contributionResult *civi.Contribution
	participantErr     error
	nextEntityID       int
	taxSettings        civi.TaxSettings
	taxErr             error
	optionValues       map[string]string
	optionErr          error
	priceSets          map[int]int
	lineItems          []civi.LineItem
	lineItemsErr       error
	participantRecords []civi.Participant
	participantsErr    error
	orgTypes           map[int][]int
	orgTypesErr        error
	membershipFn       func(q civi.MembershipQuery) *civi.Membership
	updateErr          error
	premiumErr         error
	discountErr        error
	sendErr            error
}

func newFakeCRM() *fakeCRM {
	return &fakeCRM{
		nextEntityID: 700,
		optionValues: map[string]string{},
		priceSets:    map[int]int{},
		orgTypes:     map[int][]int{},
	}
}

func (f *fakeCRM) CreateOrder(_ context.Context, p civi.OrderParams) (*civi.Contribution, error) {
	f.orders = append(f.orders, p)
	if f.orderErr != nil {
		return nil, f.orderErr
	}
	if f.orderResult != nil {
		return f.orderResult, nil
	}
	return &civi.Contribution{ID: 501, ContactID: civi.Int(p.ContactID)}, nil
}

func (f *fakeCRM) CreateContribution(_ context.Context, p civi.ContributionParams) (*civi.Contribution, error) {
	f.contributions = append(f.contributions, p)
	if f.contributionErr != nil {
		return nil, f.contributionErr
	}
	if f.contributionResult != nil {
		return f.contributionResult, nil
	}
	return &civi.Contribution{ID: 601, ContactID: civi.Int(p.ContactID)}, nil
}

func (f *fakeCRM) CreateParticipant(_ context.Context, p order.ParticipantParams) (int, error) {
	f.participantsCreated = append(f.participantsCreated, p)
	if f.participantErr != nil {
		return 0, f.participantErr
	}
	f.nextEntityID++
	return f.nextEntityID, nil
}

func (f *fakeCRM) CreateMembership(_ context.Context, p order.MembershipParams) (int, error) {
	f.membershipsCreated = append(f.membershipsCreated, p)
	f.nextEntityID++
	return f.nextEntityID, nil
}

func (f *fakeCRM) UpdateMembership(_ context.Context, m civi.Membership) error {
	f.membershipUpdates = append(f.membershipUpdates, m)
	return f.updateErr
}

func (f *fakeCRM) CreateParticipantPayment(_ context.Context, participantID, contributionID int) error {
	f.participantPayments = append(f.participantPayments, [2]int{participantID, contributionID})
	return nil
}

func (f *fakeCRM) CreateContributionProduct(_ context.Context, p civi.PremiumParams) error {
	f.premiums = append(f.premiums, p)
	return f.premiumErr
}

func (f *fakeCRM) LineItems(_ context.Context, _ int) ([]civi.LineItem, error) {
	return f.lineItems, f.lineItemsErr
}

func (f *fakeCRM) Participants(_ context.Context, _ []int) ([]civi.Participant, error) {
	return f.participantRecords, f.participantsErr
}

func (f *fakeCRM) CreateDiscountTrack(_ context.Context, p civi.DiscountTrackParams) error {
	f.discountTracks = append(f.discountTracks, p)
	return f.discountErr
}

func (f *fakeCRM) SendConfirmation(_ context.Context, contributionID int) error {
	f.confirmations = append(f.confirmations, contributionID)
	return f.sendErr
}

func (f *fakeCRM) OptionValueByLabel(_ context.Context, label string) (string, error) {
	if f.optionErr != nil {
		return "", f.optionErr
	}
	return f.optionValues[label], nil
}

func (f *fakeCRM) PriceSetID(_ context.Context, priceFieldID int) (int, error) {
	if id, ok := f.priceSets[priceFieldID]; ok {
		return id, nil
	}
	return 1, nil
}

func (f *fakeCRM) OrganizationMembershipTypes(_ context.Context, contactID int) ([]int, error) {
	if f.orgTypesErr != nil {
		return nil, f.orgTypesErr
	}
	return f.orgTypes[contactID], nil
}

func (f *fakeCRM) Membership(_ context.Context, q civi.MembershipQuery) (*civi.Membership, error) {
	f.membershipQueries = append(f.membershipQueries, q)
	if f.membershipFn != nil {
		return f.membershipFn(q), nil
	}
	return nil, nil
}

func (f *fakeCRM) TaxSettings(_ context.Context) (civi.TaxSettings, error) {
	return f.taxSettings, f.taxErr
}

// --- Helpers ---

func money(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func civDate(s string) civi.Date {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return civi.Date{Time: t}
}

func testForm() *form.Form {
	return &form.Form{ID: "CF1", Name: "Annual Gala"}
}

func baseConfig() *order.Config {
	return &order.Config{
		ContactLink:          "1",
		FinancialTypeID:      1,
		ContributionStatusID: "Completed",
		PaymentInstrumentID:  "Check",
		Currency:             "USD",
		LineItems:            []string{"{item_1}"},
	}
}

func baseStore() *transient.Store {
	s := transient.New()
	s.SetContact("cid_1", 203)
	return s
}

func donationFragment(tax string) *order.Fragment {
	return &order.Fragment{
		Rows: []order.Row{{
			EntityTable:  order.EntityContribution,
			PriceFieldID: 10,
			Label:        "General Donation",
			Qty:          money("1"),
			UnitPrice:    money("25.00"),
			LineTotal:    money("25.00"),
			TaxAmount:    money(tax),
		}},
	}
}

func participantFragment(eventID, priceFieldID int) *order.Fragment {
	return &order.Fragment{
		Rows: []order.Row{{
			EntityTable:  order.EntityParticipant,
			PriceFieldID: priceFieldID,
			Label:        "Gala Ticket",
			Qty:          money("1"),
			UnitPrice:    money("50.00"),
			LineTotal:    money("50.00"),
		}},
		Participant: &order.ParticipantParams{ContactID: 203, EventID: eventID},
	}
}

func membershipFragment(typeID int) *order.Fragment {
	return &order.Fragment{
		Rows: []order.Row{{
			EntityTable:  order.EntityMembership,
			PriceFieldID: 11,
			Label:        "Gold Membership",
			Qty:          money("1"),
			UnitPrice:    money("100.00"),
			LineTotal:    money("100.00"),
		}},
		Membership: &order.MembershipParams{ContactID: 203, MembershipTypeID: typeID},
	}
}

func newSub(values form.Values, store *transient.Store) *Submission {
	return NewSubmission(testForm(), values, "p_123", store)
}
