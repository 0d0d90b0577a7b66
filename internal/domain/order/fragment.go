package order

// Kind tags the variant of entity a fragment creates alongside its rows.
type Kind int

const (
	// KindStandard is a plain priced entry (donation, product) with no
	// entity of its own.
	KindStandard Kind = iota
	// KindMembership creates a Membership record before the order.
	KindMembership
	// KindParticipant creates a Participant (event registration) record.
	KindParticipant
)

// MembershipParams is the entity create block carried by a membership
// fragment.
type MembershipParams struct {
	ContactID        int    `json:"contact_id,omitempty"`
	MembershipTypeID int    `json:"membership_type_id"`
	StatusID         string `json:"status_id,omitempty"`
	IsOverride       int    `json:"is_override,omitempty"`
	JoinDate         string `json:"join_date,omitempty"`
	StartDate        string `json:"start_date,omitempty"`
	EndDate          string `json:"end_date,omitempty"`
	Source           string `json:"source,omitempty"`
}

// ParticipantParams is the entity create block carried by an event
// registration fragment.
type ParticipantParams struct {
	ContactID    int    `json:"contact_id,omitempty"`
	EventID      int    `json:"event_id"`
	StatusID     string `json:"status_id,omitempty"`
	RoleID       string `json:"role_id,omitempty"`
	RegisterDate string `json:"register_date,omitempty"`
	FeeLevel     string `json:"fee_level,omitempty"`
	Source       string `json:"source,omitempty"`
}

// Fragment is a pre-built line item read from the transient store, produced
// by an upstream line-item processor. At most one of Membership and
// Participant is set; both nil means a standard fragment.
type Fragment struct {
	Rows        []Row              `json:"line_item"`
	Membership  *MembershipParams  `json:"membership,omitempty"`
	Participant *ParticipantParams `json:"participant,omitempty"`
}

// Kind reports the fragment's variant based on which params block it carries.
func (f *Fragment) Kind() Kind {
	switch {
	case f.Membership != nil:
		return KindMembership
	case f.Participant != nil:
		return KindParticipant
	default:
		return KindStandard
	}
}

// Empty reports whether the fragment carries no rows at all.
func (f *Fragment) Empty() bool {
	return f == nil || len(f.Rows) == 0
}

// Clone returns a deep copy. The transient store is read-only to the order
// pipeline, so pay-later status overrides are applied to copies only.
func (f *Fragment) Clone() *Fragment {
	c := &Fragment{Rows: make([]Row, len(f.Rows))}
	copy(c.Rows, f.Rows)
	if f.Membership != nil {
		m := *f.Membership
		c.Membership = &m
	}
	if f.Participant != nil {
		p := *f.Participant
		c.Participant = &p
	}
	return c
}

// HasParticipantRow reports whether the fragment's leading row registers an
// event participant. The leading row decides the fragment's entity, matching
// how upstream processors emit multi-row fragments.
func (f *Fragment) HasParticipantRow() bool {
	return len(f.Rows) > 0 && f.Rows[0].EntityTable == EntityParticipant
}
