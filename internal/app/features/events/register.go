// internal/app/features/events/register.go
package events

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/rotaractportal/internal/app/store/audit"
	checkoutstore "github.com/dalemusser/rotaractportal/internal/app/store/checkouts"
	eventstore "github.com/dalemusser/rotaractportal/internal/app/store/events"
	rsvpstore "github.com/dalemusser/rotaractportal/internal/app/store/rsvps"
	"github.com/dalemusser/rotaractportal/internal/app/system/apiresp"
	"github.com/dalemusser/rotaractportal/internal/app/system/auth"
	"github.com/dalemusser/rotaractportal/internal/app/system/billing"
	"github.com/dalemusser/rotaractportal/internal/app/system/inputval"
	"github.com/dalemusser/rotaractportal/internal/app/system/payments"
	"github.com/dalemusser/rotaractportal/internal/app/system/pricing"
	"github.com/dalemusser/rotaractportal/internal/app/system/timeouts"
	"github.com/dalemusser/rotaractportal/internal/domain/errs"
	"github.com/dalemusser/rotaractportal/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var (
	errProcessing  = errs.Conflict("a payment for this registration is still processing")
	errClosed      = errs.Conflict("this event is not open for registration")
	errSoldOut     = errs.Conflict("not enough seats left for this event")
	errNeedsPay    = errs.Conflict("this event requires payment; use checkout")
	errGuestFields = errs.Invalid("name and email are required")
)

// registration is a validated request for seats at one event.
type registration struct {
	event    models.Event
	quote    pricing.Quote
	tickets  int
	name     string
	email    string
	memberID *primitive.ObjectID
}

// prepare loads the event, resolves the caller's price and checks the
// event is open with enough seats. Members register under their own name;
// guests must supply name and email.
func (h *Handler) prepare(ctx context.Context, r *http.Request, id primitive.ObjectID, in registerInput) (registration, error) {
	e, err := eventstore.New(h.DB).GetByID(ctx, id)
	if err != nil {
		return registration{}, err
	}
	if !visible(r, e) {
		return registration{}, eventstore.ErrNotFound
	}
	if e.Status != models.EventPublished || e.StartsAt.Before(time.Now()) {
		return registration{}, errClosed
	}

	reg := registration{
		event:   e,
		quote:   pricing.Resolve(e.Pricing, buyer(r), time.Now()),
		tickets: in.Tickets,
		name:    strings.TrimSpace(in.Name),
		email:   strings.ToLower(strings.TrimSpace(in.Email)),
	}
	if reg.tickets == 0 {
		reg.tickets = 1
	}
	if u, ok := auth.CurrentUser(r); ok {
		if oid, err := primitive.ObjectIDFromHex(u.ID); err == nil {
			reg.memberID = &oid
		}
		reg.name, reg.email = u.Name, u.Email
	}
	if reg.name == "" || reg.email == "" {
		return registration{}, errGuestFields
	}

	if e.Capacity > 0 {
		held, err := rsvpstore.New(h.DB).TicketsHeld(ctx, e.ID)
		if err != nil {
			return registration{}, err
		}
		if held+reg.tickets > e.Capacity {
			return registration{}, errSoldOut
		}
	}
	return reg, nil
}

func (h *Handler) decodeRegistration(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, registerInput, bool) {
	id, err := pathID(r)
	if err != nil {
		h.ErrLog.Fail(w, r, "event id", err)
		return id, registerInput{}, false
	}
	var in registerInput
	if err := apiresp.Decode(w, r, &in); err != nil {
		h.ErrLog.Fail(w, r, "decode registration", err)
		return id, in, false
	}
	if res := inputval.Validate(in); res.HasErrors() {
		apiresp.BadRequest(w, res.First())
		return id, in, false
	}
	return id, in, true
}

// recordFree stores a confirmed RSVP for a free registration.
func (h *Handler) recordFree(ctx context.Context, reg registration) (models.RSVP, error) {
	return rsvpstore.New(h.DB).Create(ctx, models.RSVP{
		EventID:       reg.event.ID,
		MemberID:      reg.memberID,
		Name:          reg.name,
		Email:         reg.email,
		Tickets:       reg.tickets,
		Tier:          models.TierFree,
		PaymentStatus: models.PaymentFree,
	})
}

// HandleRSVP registers the caller for a free event.
func (h *Handler) HandleRSVP(w http.ResponseWriter, r *http.Request) {
	id, in, ok := h.decodeRegistration(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	reg, err := h.prepare(ctx, r, id, in)
	if err != nil {
		h.ErrLog.Fail(w, r, "rsvp", err)
		return
	}
	if !reg.quote.Free() {
		h.ErrLog.Fail(w, r, "rsvp", errNeedsPay)
		return
	}
	rsvp, err := h.recordFree(ctx, reg)
	if err != nil {
		h.ErrLog.Fail(w, r, "rsvp failed", err)
		return
	}
	apiresp.Created(w, map[string]any{"rsvp": rsvp})
}

// resumeCheckout handles a caller who already has a pending RSVP for the
// event. An open session is handed back; a paid one is settled and the
// caller told they are registered; an expired one is released so a new
// checkout can start. It reports whether a response was written.
func (h *Handler) resumeCheckout(ctx context.Context, w http.ResponseWriter, r *http.Request, eventID primitive.ObjectID, in registerInput) bool {
	var memberID *primitive.ObjectID
	email := in.Email
	if u, ok := auth.CurrentUser(r); ok {
		if oid, err := primitive.ObjectIDFromHex(u.ID); err == nil {
			memberID = &oid
		}
		email = u.Email
	}
	if memberID == nil && strings.TrimSpace(email) == "" {
		return false
	}

	rsvps := rsvpstore.New(h.DB)
	prev, err := rsvps.PendingCheckout(ctx, eventID, memberID, email)
	if errors.Is(err, rsvpstore.ErrNotFound) {
		return false
	}
	if err != nil {
		h.ErrLog.ServerError(w, r, "load pending rsvp failed", err)
		return true
	}
	sess, err := h.Gateway.GetCheckout(ctx, prev.CheckoutSessionID)
	if err != nil {
		h.ErrLog.ServerError(w, r, "load checkout session failed", err)
		return true
	}

	settle := billing.New(h.DB, h.Log, h.AuditLog, nil, h.Metrics)
	switch {
	case sess.Status == payments.SessionOpen && sess.URL != "":
		apiresp.OK(w, map[string]any{
			"url":        sess.URL,
			"session_id": sess.ID,
			"tier":       prev.Tier,
			"unit_price": prev.UnitPrice,
			"tickets":    prev.Tickets,
		})
		return true
	case sess.Paid():
		if _, err := settle.ApplyCompleted(ctx, sess, billing.SourceCheckout); err != nil {
			h.ErrLog.ServerError(w, r, "settle checkout failed", err)
			return true
		}
		h.ErrLog.Fail(w, r, "checkout", rsvpstore.ErrAlreadyRSVPed)
		return true
	case sess.Status == payments.SessionExpired:
		if _, err := settle.ApplyExpired(ctx, sess, billing.SourceCheckout); err != nil {
			h.ErrLog.ServerError(w, r, "release checkout failed", err)
			return true
		}
		// Sessions without a checkout record carry no kind to settle by.
		if _, err := rsvps.ReleaseBySession(ctx, prev.CheckoutSessionID); err != nil {
			h.ErrLog.ServerError(w, r, "release pending rsvp failed", err)
			return true
		}
		return false
	default:
		h.ErrLog.Fail(w, r, "checkout", errProcessing)
		return true
	}
}

// HandleCheckout starts a Stripe Checkout Session for paid tickets. When the
// caller's price resolves to free the RSVP is recorded directly instead.
func (h *Handler) HandleCheckout(w http.ResponseWriter, r *http.Request) {
	id, in, ok := h.decodeRegistration(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if h.Gateway != nil && h.resumeCheckout(ctx, w, r, id, in) {
		return
	}
	reg, err := h.prepare(ctx, r, id, in)
	if err != nil {
		h.ErrLog.Fail(w, r, "checkout", err)
		return
	}
	if reg.quote.Free() {
		rsvp, err := h.recordFree(ctx, reg)
		if err != nil {
			h.ErrLog.Fail(w, r, "rsvp failed", err)
			return
		}
		apiresp.Created(w, map[string]any{"rsvp": rsvp, "free": true})
		return
	}
	if h.Gateway == nil {
		apiresp.Error(w, http.StatusServiceUnavailable, "online payments are not available")
		return
	}

	rsvps := rsvpstore.New(h.DB)
	pending, err := rsvps.Create(ctx, models.RSVP{
		EventID:       reg.event.ID,
		MemberID:      reg.memberID,
		Name:          reg.name,
		Email:         reg.email,
		Tickets:       reg.tickets,
		Tier:          reg.quote.Tier,
		UnitPrice:     reg.quote.UnitPrice,
		PaymentStatus: models.PaymentPending,
	})
	if err != nil {
		h.ErrLog.Fail(w, r, "create pending rsvp failed", err)
		return
	}

	memberHex := ""
	if reg.memberID != nil {
		memberHex = reg.memberID.Hex()
	}
	eventURL := fmt.Sprintf("%s/events/%s", h.BaseURL, reg.event.ID.Hex())
	sess, err := h.Gateway.CreateCheckout(ctx, payments.CheckoutRequest{
		Kind:        models.PaymentForEvent,
		RelatedID:   reg.event.ID.Hex(),
		MemberID:    memberHex,
		Email:       reg.email,
		Description: reg.event.Title,
		UnitAmount:  reg.quote.UnitPrice,
		Quantity:    int64(reg.tickets),
		SuccessURL:  eventURL + "?checkout=success&session_id={CHECKOUT_SESSION_ID}",
		CancelURL:   eventURL + "?checkout=cancelled",
	})
	if err != nil {
		if derr := rsvps.Delete(ctx, pending.ID); derr != nil {
			h.Log.Warn("release pending rsvp failed", zap.Error(derr), zap.String("rsvp_id", pending.ID.Hex()))
		}
		h.ErrLog.ServerError(w, r, "create checkout session failed", err)
		return
	}
	if err := rsvps.AttachSession(ctx, pending.ID, sess.ID); err != nil {
		h.ErrLog.ServerError(w, r, "attach checkout session failed", err)
		return
	}

	amount := reg.quote.UnitPrice * int64(reg.tickets)
	if _, err := checkoutstore.New(h.DB).Create(ctx, models.Checkout{
		SessionID:   sess.ID,
		Kind:        models.PaymentForEvent,
		RelatedID:   reg.event.ID,
		MemberID:    reg.memberID,
		Email:       reg.email,
		AmountTotal: amount,
	}); err != nil {
		// The webhook can still settle the RSVP by session id; only the
		// sweep loses sight of this session.
		h.Log.Error("record checkout failed", zap.Error(err), zap.String("session_id", sess.ID))
	}
	h.Metrics.Checkout(models.PaymentForEvent)
	h.AuditLog.Checkout(ctx, audit.EventCheckoutCreated, sess.ID, models.PaymentForEvent, "api", amount)

	apiresp.Created(w, map[string]any{
		"url":        sess.URL,
		"session_id": sess.ID,
		"tier":       reg.quote.Tier,
		"unit_price": reg.quote.UnitPrice,
		"tickets":    reg.tickets,
	})
}
