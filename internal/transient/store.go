// Package transient implements the per-submission cache shared across the
// processors of one form. Upstream processors (contact, line item,
// membership, participant) write into it before the order processor runs;
// the order processor only reads.
package transient

import (
	"github.com/civibridge/order-bridge/internal/domain/order"
)

// Event is the event metadata a participant processor leaves behind.
type Event struct {
	EventID int `json:"event_id"`
}

// Store is the transient state of a single submission, addressable by
// processor id. It lives exactly as long as the submission does and is never
// shared between submissions.
type Store struct {
	contacts    map[string]int
	lineItems   map[string]*order.Fragment
	memberships map[string]*order.MembershipParams
	events      map[string]Event
}

// New returns an empty store.
func New() *Store {
	return &Store{
		contacts:    make(map[string]int),
		lineItems:   make(map[string]*order.Fragment),
		memberships: make(map[string]*order.MembershipParams),
		events:      make(map[string]Event),
	}
}

// SetContact records the contact id created or matched under a contact-link
// key such as "cid_1".
func (s *Store) SetContact(key string, id int) { s.contacts[key] = id }

// Contact resolves a contact-link key.
func (s *Store) Contact(key string) (int, bool) {
	id, ok := s.contacts[key]
	return id, ok
}

// SetLineItem records a line-item fragment under its processor reference.
func (s *Store) SetLineItem(ref string, f *order.Fragment) { s.lineItems[ref] = f }

// LineItem resolves a processor reference to its fragment.
func (s *Store) LineItem(ref string) (*order.Fragment, bool) {
	f, ok := s.lineItems[ref]
	return f, ok
}

// SetMembership records the membership params a membership processor built.
func (s *Store) SetMembership(processorID string, m *order.MembershipParams) {
	s.memberships[processorID] = m
}

// Membership resolves a membership processor id to its params.
func (s *Store) Membership(processorID string) (*order.MembershipParams, bool) {
	m, ok := s.memberships[processorID]
	return m, ok
}

// SetEvent records the event a participant processor registered for.
func (s *Store) SetEvent(processorID string, e Event) { s.events[processorID] = e }

// Event resolves a participant processor id to its event.
func (s *Store) Event(processorID string) (Event, bool) {
	e, ok := s.events[processorID]
	return e, ok
}
