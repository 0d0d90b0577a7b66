package civi

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/civibridge/order-bridge/internal/domain/order"
)

// CreateOrder issues Order.create and returns the created contribution.
func (c *Client) CreateOrder(ctx context.Context, p OrderParams) (*Contribution, error) {
	res, err := c.Call(ctx, "Order", "create", p)
	if err != nil {
		return nil, err
	}
	var contrib Contribution
	if err := res.One(&contrib); err != nil {
		return nil, errors.Wrap(err, "decode contribution")
	}
	return &contrib, nil
}

// CreateContribution issues Contribution.create, used by the participant
// path where line items are keyed by price set.
func (c *Client) CreateContribution(ctx context.Context, p ContributionParams) (*Contribution, error) {
	res, err := c.Call(ctx, "Contribution", "create", p)
	if err != nil {
		return nil, err
	}
	var contrib Contribution
	if err := res.One(&contrib); err != nil {
		return nil, errors.Wrap(err, "decode contribution")
	}
	return &contrib, nil
}

// CreateParticipant registers an event participant and returns its id.
func (c *Client) CreateParticipant(ctx context.Context, p order.ParticipantParams) (int, error) {
	res, err := c.Call(ctx, "Participant", "create", p)
	if err != nil {
		return 0, err
	}
	return res.ID, nil
}

// CreateMembership creates a membership record and returns its id.
func (c *Client) CreateMembership(ctx context.Context, p order.MembershipParams) (int, error) {
	res, err := c.Call(ctx, "Membership", "create", p)
	if err != nil {
		return 0, err
	}
	return res.ID, nil
}

// UpdateMembership persists changes to an existing membership record.
func (c *Client) UpdateMembership(ctx context.Context, m Membership) error {
	_, err := c.Call(ctx, "Membership", "create", m)
	return err
}

// CreateParticipantPayment links a contribution to its primary participant.
func (c *Client) CreateParticipantPayment(ctx context.Context, participantID, contributionID int) error {
	_, err := c.Call(ctx, "ParticipantPayment", "create", map[string]any{
		"participant_id":  participantID,
		"contribution_id": contributionID,
	})
	return err
}

// CreateContributionProduct attaches a premium product to a contribution.
func (c *Client) CreateContributionProduct(ctx context.Context, p PremiumParams) error {
	_, err := c.Call(ctx, "ContributionProduct", "create", p)
	return err
}

// LineItems fetches all line items of a contribution.
func (c *Client) LineItems(ctx context.Context, contributionID int) ([]LineItem, error) {
	res, err := c.Call(ctx, "LineItem", "get", map[string]any{
		"contribution_id": contributionID,
		"options":         map[string]any{"limit": 0},
	})
	if err != nil {
		return nil, err
	}
	var items []LineItem
	if err := res.All(&items); err != nil {
		return nil, errors.Wrap(err, "decode line items")
	}
	return items, nil
}

// Participants fetches participant records by id.
func (c *Client) Participants(ctx context.Context, ids []int) ([]Participant, error) {
	res, err := c.Call(ctx, "Participant", "get", map[string]any{
		"id":      map[string]any{"IN": ids},
		"options": map[string]any{"limit": 0},
	})
	if err != nil {
		return nil, err
	}
	var parts []Participant
	if err := res.All(&parts); err != nil {
		return nil, errors.Wrap(err, "decode participants")
	}
	return parts, nil
}

// CreateDiscountTrack records a discount-tracking entity.
func (c *Client) CreateDiscountTrack(ctx context.Context, p DiscountTrackParams) error {
	_, err := c.Call(ctx, "DiscountTrack", "create", p)
	return err
}

// SendConfirmation asks CiviCRM to send its standard receipt for a
// contribution.
func (c *Client) SendConfirmation(ctx context.Context, contributionID int) error {
	_, err := c.Call(ctx, "Contribution", "sendconfirmation", map[string]any{"id": contributionID})
	return err
}

// OptionValueByLabel resolves an option value (e.g. a card type id) by its
// display label. An unknown label resolves to "".
func (c *Client) OptionValueByLabel(ctx context.Context, label string) (string, error) {
	res, err := c.Call(ctx, "OptionValue", "getsingle", map[string]any{"label": label})
	if err != nil {
		return "", err
	}
	var record struct {
		Value string `json:"value"`
	}
	if err := res.Flat(&record); err != nil {
		return "", errors.Wrap(err, "decode option value")
	}
	return record.Value, nil
}

// PriceSetID looks up the price set a price field belongs to.
func (c *Client) PriceSetID(ctx context.Context, priceFieldID int) (int, error) {
	res, err := c.Call(ctx, "PriceField", "getsingle", map[string]any{"id": priceFieldID})
	if err != nil {
		return 0, err
	}
	var record struct {
		PriceSetID Int `json:"price_set_id"`
	}
	if err := res.Flat(&record); err != nil {
		return 0, errors.Wrap(err, "decode price field")
	}
	return record.PriceSetID.Int(), nil
}

// OrganizationMembershipTypes lists the membership types offered by an
// organization contact. Memberships of these types renew each other.
func (c *Client) OrganizationMembershipTypes(ctx context.Context, contactID int) ([]int, error) {
	res, err := c.Call(ctx, "MembershipType", "get", map[string]any{
		"member_of_contact_id": contactID,
		"options":              map[string]any{"limit": 0},
	})
	if err != nil {
		return nil, err
	}
	var types []struct {
		ID Int `json:"id"`
	}
	if err := res.All(&types); err != nil {
		return nil, errors.Wrap(err, "decode membership types")
	}
	ids := make([]int, len(types))
	for i, t := range types {
		ids[i] = t.ID.Int()
	}
	return ids, nil
}

// Membership returns the contact's single best-matching membership for the
// query, or nil when the contact has none.
func (c *Client) Membership(ctx context.Context, q MembershipQuery) (*Membership, error) {
	res, err := c.Call(ctx, "Membership", "get", q.params())
	if err != nil {
		return nil, err
	}
	if len(res.Values) == 0 {
		return nil, nil
	}
	var m Membership
	if err := res.One(&m); err != nil {
		return nil, errors.Wrap(err, "decode membership")
	}
	return &m, nil
}

// TaxSettings fetches the site's invoicing settings.
func (c *Client) TaxSettings(ctx context.Context) (TaxSettings, error) {
	res, err := c.Call(ctx, "Setting", "getvalue", map[string]any{
		"name": "contribution_invoice_settings",
	})
	if err != nil {
		return TaxSettings{}, err
	}
	var ts TaxSettings
	if err := res.Flat(&ts); err != nil {
		return TaxSettings{}, errors.Wrap(err, "decode tax settings")
	}
	return ts, nil
}

// Ping verifies the endpoint is reachable and the keys are accepted.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Call(ctx, "System", "get", nil)
	return err
}
