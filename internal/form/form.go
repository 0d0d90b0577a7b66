// Package form models the narrow surface of the host form engine the order
// pipeline consumes: the form definition, submitted values, magic-tag
// resolution, and the response the thank-you block is appended to.
package form

import (
	"regexp"
	"strings"
)

// Values holds the submitted field values of one submission, keyed by field
// slug.
type Values map[string]string

// Get returns the submitted value for a field slug, or "".
func (v Values) Get(slug string) string { return v[slug] }

// MembershipConfig is the slice of a membership sub-processor's
// configuration the order pipeline cares about.
type MembershipConfig struct {
	// PreserveJoinDate keeps the member's original join date when this
	// order renews an existing membership.
	PreserveJoinDate bool `json:"preserve_join_date"`
	// RestrictToType limits the renewal lookup to the membership type
	// being purchased instead of any prior membership.
	RestrictToType bool `json:"is_membership_type"`
	// MemberOfContactID is the organization whose membership types count
	// as renewals of each other.
	MemberOfContactID int `json:"member_of_contact_id"`
}

// ProcessorDef describes one sibling processor configured on the form.
type ProcessorDef struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	Membership *MembershipConfig `json:"membership,omitempty"`
}

// Form is the form definition as the engine hands it to processors.
type Form struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Processors []ProcessorDef `json:"processors,omitempty"`
}

// MembershipProcessors returns the form's membership sub-processors in
// definition order.
func (f *Form) MembershipProcessors() []ProcessorDef {
	var out []ProcessorDef
	for _, p := range f.Processors {
		if p.Type == "civicrm_membership" {
			out = append(out, p)
		}
	}
	return out
}

var magicTag = regexp.MustCompile(`\{([a-zA-Z0-9_:-]+)\}`)

// Resolve substitutes {field} magic tags in s against the submitted values.
// Tags with no submitted value are left intact so callers can tell an
// unresolved reference from an empty one.
func Resolve(s string, v Values) string {
	return magicTag.ReplaceAllStringFunc(s, func(tag string) string {
		slug := strings.Trim(tag, "{}")
		if val, ok := v[slug]; ok {
			return val
		}
		return tag
	})
}

// Response accumulates what is sent back to the browser after the
// submission completes.
type Response struct {
	OrderID int    `json:"order_id,omitempty"`
	HTML    string `json:"html,omitempty"`
}

// AppendHTML appends a rendered block to the response body.
func (r *Response) AppendHTML(html string) {
	r.HTML += html
}
