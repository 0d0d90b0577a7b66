// Package handler adapts HTTP submission envelopes to the order pipeline.
// It stands in for the host form engine's hook dispatch: one POST carries
// the form, the submitted values, the processor config, and the transient
// state the upstream processors produced.
package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/civibridge/order-bridge/internal/domain/order"
	"github.com/civibridge/order-bridge/internal/form"
	"github.com/civibridge/order-bridge/internal/gateway"
	"github.com/civibridge/order-bridge/internal/processor"
	"github.com/civibridge/order-bridge/internal/transient"
)

// Envelope is the submission payload the host engine posts to the bridge.
type Envelope struct {
	Form        form.Form                     `json:"form"`
	Values      form.Values                   `json:"values"`
	Config      order.Config                  `json:"config"`
	Transient   TransientEnvelope             `json:"transient"`
	Charge      *gateway.ChargeEvent          `json:"charge,omitempty"`
	Transaction *gateway.AuthorizeTransaction `json:"transaction,omitempty"`
	Discounts   *DiscountEnvelope             `json:"discounts,omitempty"`
}

// DiscountEnvelope is the discount bookkeeping the sibling participant
// processor recorded before the order processor ran.
type DiscountEnvelope struct {
	// Used maps price-field ids to the discount applied through them.
	Used map[string]processor.Discount `json:"used,omitempty"`
	// FieldRefs maps participant processor reference tags to field ids.
	FieldRefs map[string]string `json:"field_refs,omitempty"`
	// OptionRefs lists option-level references.
	OptionRefs []processor.OptionRef `json:"option_refs,omitempty"`
}

var _ processor.DiscountSource = (*DiscountEnvelope)(nil)

func (d *DiscountEnvelope) DiscountsUsed() map[string]processor.Discount { return d.Used }

func (d *DiscountEnvelope) PriceFieldRefs() map[string]string { return d.FieldRefs }

func (d *DiscountEnvelope) PriceFieldOptionRefs() []processor.OptionRef { return d.OptionRefs }

// ProcessorID strips the magic-tag braces from a processor reference.
func (d *DiscountEnvelope) ProcessorID(ref string) string { return strings.Trim(ref, "{}") }

// TransientEnvelope is the wire shape of the per-submission cache.
type TransientEnvelope struct {
	Contacts    map[string]int                     `json:"contacts,omitempty"`
	LineItems   map[string]*order.Fragment         `json:"line_items,omitempty"`
	Memberships map[string]*order.MembershipParams `json:"memberships,omitempty"`
	Events      map[string]transient.Event         `json:"events,omitempty"`
}

// Store builds the transient store for one submission.
func (t TransientEnvelope) Store() *transient.Store {
	s := transient.New()
	for k, v := range t.Contacts {
		s.SetContact(k, v)
	}
	for k, v := range t.LineItems {
		s.SetLineItem(k, v)
	}
	for k, v := range t.Memberships {
		s.SetMembership(k, v)
	}
	for k, v := range t.Events {
		s.SetEvent(k, v)
	}
	return s
}

// SubmitResponse is the success reply.
type SubmitResponse struct {
	OrderID  int    `json:"order_id"`
	PayLater bool   `json:"is_pay_later,omitempty"`
	HTML     string `json:"html,omitempty"`
}

// ErrorResponse is the failure reply. Note carries admin-facing detail.
type ErrorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
	Note    string `json:"note,omitempty"`
}

// Handler serves the submission hook.
type Handler struct {
	proc *processor.Processor
}

// New creates a Handler driving the given processor.
func New(proc *processor.Processor) *Handler {
	return &Handler{proc: proc}
}

// Submit runs one submission through pre-process, process, and
// post-process.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	lg := zctx.From(r.Context())
	ctx := r.Context()

	var env Envelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: true, Message: "invalid submission envelope"})
		return
	}

	sub := processor.NewSubmission(&env.Form, env.Values, uuid.New().String(), env.Transient.Store())
	sub.Transaction = env.Transaction
	if env.Discounts != nil {
		sub.Discounts = env.Discounts
	}

	// Pre-process: gateway metadata capture. A failed capture means the
	// order is created without charge metadata, not that it fails.
	if env.Charge != nil {
		if err := h.proc.CaptureCharge(ctx, sub, *env.Charge); err != nil {
			lg.Warn("charge metadata capture failed", zap.Error(err))
		}
	}

	orderID, err := h.proc.Process(ctx, sub, &env.Config)

	// Post-processing runs regardless of the outcome; listeners receive a
	// nil order when creation failed.
	h.proc.PostProcess(ctx, sub, &env.Config)

	if err != nil {
		status, resp := mapProcessError(err)
		lg.Error("order processing failed", zap.String("process_id", sub.ProcessID), zap.Error(err))
		writeJSON(w, status, resp)
		return
	}

	writeJSON(w, http.StatusOK, SubmitResponse{
		OrderID:  orderID,
		PayLater: sub.PayLater(),
		HTML:     sub.Response.HTML,
	})
}

// mapProcessError translates pipeline failures into HTTP replies.
func mapProcessError(err error) (int, ErrorResponse) {
	var subErr *processor.SubmissionError
	if errors.As(err, &subErr) {
		return http.StatusBadGateway, ErrorResponse{Error: true, Message: subErr.Message, Note: subErr.Note}
	}

	var mpsErr *order.MultiplePriceSetsError
	switch {
	case errors.Is(err, order.ErrContactNotLinked),
		errors.Is(err, order.ErrNoLineItems),
		errors.Is(err, order.ErrNoPrimaryParticipant),
		errors.As(err, &mpsErr):
		return http.StatusUnprocessableEntity, ErrorResponse{Error: true, Message: err.Error()}
	}

	return http.StatusInternalServerError, ErrorResponse{Error: true, Message: "internal error"}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
