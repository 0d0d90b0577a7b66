// Package processor implements the order processor: the pipeline that turns
// one form submission plus its pre-built line-item fragments into a single
// CiviCRM Order, then performs post-order bookkeeping.
//
// The pipeline is strictly sequential and request-scoped. It runs in three
// lifecycle phases mirroring the host form engine's hooks: pre-process
// (payment metadata capture), process (field mapping, line-item
// aggregation, dispatch), and post-process (bookkeeping).
package processor

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/civibridge/order-bridge/internal/civi"
	"github.com/civibridge/order-bridge/internal/domain/order"
	"github.com/civibridge/order-bridge/internal/form"
	"github.com/civibridge/order-bridge/internal/gateway"
	"github.com/civibridge/order-bridge/internal/transient"
)

// CRM is the slice of the CiviCRM API the pipeline consumes. *civi.Client
// satisfies it; tests substitute fakes.
type CRM interface {
	CreateOrder(ctx context.Context, p civi.OrderParams) (*civi.Contribution, error)
	CreateContribution(ctx context.Context, p civi.ContributionParams) (*civi.Contribution, error)
	CreateParticipant(ctx context.Context, p order.ParticipantParams) (int, error)
	CreateMembership(ctx context.Context, p order.MembershipParams) (int, error)
	UpdateMembership(ctx context.Context, m civi.Membership) error
	CreateParticipantPayment(ctx context.Context, participantID, contributionID int) error
	CreateContributionProduct(ctx context.Context, p civi.PremiumParams) error
	LineItems(ctx context.Context, contributionID int) ([]civi.LineItem, error)
	Participants(ctx context.Context, ids []int) ([]civi.Participant, error)
	CreateDiscountTrack(ctx context.Context, p civi.DiscountTrackParams) error
	SendConfirmation(ctx context.Context, contributionID int) error
	OptionValueByLabel(ctx context.Context, label string) (string, error)
	PriceSetID(ctx context.Context, priceFieldID int) (int, error)
	OrganizationMembershipTypes(ctx context.Context, contactID int) ([]int, error)
	Membership(ctx context.Context, q civi.MembershipQuery) (*civi.Membership, error)
	TaxSettings(ctx context.Context) (civi.TaxSettings, error)
}

// Renderer renders the thank-you block shown after a submission.
type Renderer interface {
	Render(data any) (string, error)
}

// PostOrderListener is notified once per submission after post-processing,
// with the created order or nil when order creation failed.
type PostOrderListener interface {
	OrderProcessed(ctx context.Context, o *order.Order, cfg *order.Config, f *form.Form, processID string)
}

// Processor assembles orders. One Processor serves many submissions; all
// per-submission state lives on the Submission.
type Processor struct {
	crm       CRM
	lg        *zap.Logger
	balance   gateway.BalanceFetcher
	thankYou  Renderer
	listeners []PostOrderListener
}

// Option configures a Processor.
type Option func(*Processor)

// WithLogger sets the processor's logger.
func WithLogger(lg *zap.Logger) Option {
	return func(p *Processor) { p.lg = lg }
}

// WithBalanceFetcher enables charge-metadata capture for Stripe-like
// gateways.
func WithBalanceFetcher(b gateway.BalanceFetcher) Option {
	return func(p *Processor) { p.balance = b }
}

// WithThankYou sets the thank-you renderer.
func WithThankYou(r Renderer) Option {
	return func(p *Processor) { p.thankYou = r }
}

// WithListener registers a post-order listener.
func WithListener(l PostOrderListener) Option {
	return func(p *Processor) { p.listeners = append(p.listeners, l) }
}

// New creates a Processor backed by the given CRM.
func New(crm CRM, opts ...Option) *Processor {
	p := &Processor{crm: crm, lg: zap.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Submission is the per-submission context threaded through the pipeline
// stages. It owns all mutable submission state; nothing is process-global.
type Submission struct {
	Form      *form.Form
	Values    form.Values
	ProcessID string
	Transient *transient.Store
	// Transaction is the Authorize-style transaction record, when that
	// gateway handled the payment.
	Transaction *gateway.AuthorizeTransaction
	// Discounts is the sibling participant processor's discount
	// bookkeeping for this submission, nil when no discounts ran.
	Discounts DiscountSource
	// Response accumulates the submission's AJAX reply.
	Response *form.Response

	contactKey string
	contactID  int
	payLater   bool
	charge     *order.ChargeMetadata
	order      *order.Order
}

// NewSubmission builds the context for one submission.
func NewSubmission(f *form.Form, values form.Values, processID string, store *transient.Store) *Submission {
	return &Submission{
		Form:      f,
		Values:    values,
		ProcessID: processID,
		Transient: store,
		Response:  &form.Response{},
	}
}

// Order returns the created order, or nil when none was created.
func (s *Submission) Order() *order.Order { return s.order }

// PayLater reports whether the submission resolved to a deferred payment.
func (s *Submission) PayLater() bool { return s.payLater }

// SubmissionError is a user-visible order failure. Message is shown to the
// submitter; Note carries the admin-facing detail including the remote
// trace.
type SubmissionError struct {
	Message string
	Note    string
}

func (e *SubmissionError) Error() string { return e.Message }

// submissionError converts a CRM API failure into a SubmissionError.
// Typed domain failures pass through untouched.
func submissionError(err error) error {
	var apiErr *civi.APIError
	if errors.As(err, &apiErr) {
		note := apiErr.Message
		if apiErr.Trace != "" {
			note = fmt.Sprintf("%s\n%s", apiErr.Message, apiErr.Trace)
		}
		return &SubmissionError{Message: apiErr.Message, Note: note}
	}
	return err
}

// Process is the engine's process hook: it maps fields, aggregates line
// items, and dispatches exactly one order-creation call. It returns the
// created contribution id.
func (p *Processor) Process(ctx context.Context, sub *Submission, cfg *order.Config) (int, error) {
	payload, err := p.buildPayload(ctx, sub, cfg)
	if err != nil {
		return 0, err
	}
	if err := p.collectLineItems(ctx, sub, cfg, payload); err != nil {
		return 0, err
	}
	if len(payload.Items) == 0 {
		return 0, order.ErrNoLineItems
	}

	o, err := p.dispatch(ctx, sub, cfg, payload)
	if err != nil {
		return 0, submissionError(err)
	}
	sub.order = o
	sub.Response.OrderID = o.ID
	return o.ID, nil
}
