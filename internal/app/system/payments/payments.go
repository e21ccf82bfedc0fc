// Package payments creates Stripe Checkout Sessions and verifies Stripe
// webhook deliveries.
package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/webhook"
)

// Checkout session states, as reported by Stripe.
const (
	SessionOpen     = "open"
	SessionComplete = "complete"
	SessionExpired  = "expired"

	PaymentPaid = "paid"
)

// Webhook event types the portal acts on.
const (
	EventCheckoutCompleted = "checkout.session.completed"
	EventCheckoutExpired   = "checkout.session.expired"
)

// Metadata keys stamped on every session.
const (
	MetaKind      = "kind"
	MetaRelatedID = "related_id"
	MetaMemberID  = "member_id"
)

var ErrBadSignature = errors.New("payments: invalid webhook signature")

// CheckoutRequest describes a one-line-item payment.
type CheckoutRequest struct {
	Kind        string // dues | event
	RelatedID   string
	MemberID    string // empty for guests
	Email       string
	Description string
	UnitAmount  int64 // cents
	Quantity    int64
	SuccessURL  string
	CancelURL   string
}

// Session is the subset of a Checkout Session the portal uses.
type Session struct {
	ID                string            `json:"id"`
	URL               string            `json:"url"`
	Status            string            `json:"status"`
	PaymentStatus     string            `json:"payment_status"`
	AmountTotal       int64             `json:"amount_total"`
	ClientReferenceID string            `json:"client_reference_id"`
	CustomerEmail     string            `json:"customer_email"`
	Metadata          map[string]string `json:"metadata"`
}

// Paid reports whether Stripe has collected the money.
func (s Session) Paid() bool {
	return s.Status == SessionComplete && s.PaymentStatus == PaymentPaid
}

// Gateway is the payment provider seen by handlers and the reconciler.
type Gateway interface {
	CreateCheckout(ctx context.Context, req CheckoutRequest) (Session, error)
	GetCheckout(ctx context.Context, id string) (Session, error)
}

// Stripe implements Gateway against the Stripe API.
type Stripe struct {
	sessions *session.Client
	currency string
}

// NewStripe returns a Stripe gateway, or nil when no secret key is configured.
func NewStripe(secretKey, currency string) *Stripe {
	if secretKey == "" {
		return nil
	}
	if currency == "" {
		currency = string(stripe.CurrencyUSD)
	}
	return &Stripe{
		sessions: &session.Client{B: stripe.GetBackend(stripe.APIBackend), Key: secretKey},
		currency: currency,
	}
}

func (s *Stripe) CreateCheckout(ctx context.Context, req CheckoutRequest) (Session, error) {
	if req.UnitAmount <= 0 || req.Quantity <= 0 {
		return Session{}, fmt.Errorf("payments: invalid amount %d x %d", req.UnitAmount, req.Quantity)
	}
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(s.currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(req.Description),
				},
				UnitAmount: stripe.Int64(req.UnitAmount),
			},
			Quantity: stripe.Int64(req.Quantity),
		}},
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		ClientReferenceID: stripe.String(req.RelatedID),
	}
	if req.Email != "" {
		params.CustomerEmail = stripe.String(req.Email)
	}
	params.AddMetadata(MetaKind, req.Kind)
	params.AddMetadata(MetaRelatedID, req.RelatedID)
	if req.MemberID != "" {
		params.AddMetadata(MetaMemberID, req.MemberID)
	}
	params.SetIdempotencyKey(uuid.NewString())
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}

	cs, err := s.sessions.New(params)
	if err != nil {
		return Session{}, fmt.Errorf("payments: create checkout session: %w", err)
	}
	return fromStripe(cs), nil
}

func (s *Stripe) GetCheckout(ctx context.Context, id string) (Session, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}
	cs, err := s.sessions.Get(id, nil)
	if err != nil {
		return Session{}, fmt.Errorf("payments: get checkout session %s: %w", id, err)
	}
	return fromStripe(cs), nil
}

func fromStripe(cs *stripe.CheckoutSession) Session {
	return Session{
		ID:                cs.ID,
		URL:               cs.URL,
		Status:            string(cs.Status),
		PaymentStatus:     string(cs.PaymentStatus),
		AmountTotal:       cs.AmountTotal,
		ClientReferenceID: cs.ClientReferenceID,
		CustomerEmail:     cs.CustomerEmail,
		Metadata:          cs.Metadata,
	}
}

// Event is a verified webhook delivery. Session is set for checkout.session.*
// events.
type Event struct {
	ID      string
	Type    string
	Session *Session
}

// ParseEvent verifies the Stripe-Signature header and decodes the event.
func ParseEvent(payload []byte, signature, secret string) (Event, error) {
	ev, err := webhook.ConstructEventWithOptions(payload, signature, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrBadSignature, err)
	}
	out := Event{ID: ev.ID, Type: string(ev.Type)}
	if ev.Data != nil && (out.Type == EventCheckoutCompleted || out.Type == EventCheckoutExpired) {
		var s Session
		if err := json.Unmarshal(ev.Data.Raw, &s); err != nil {
			return Event{}, fmt.Errorf("payments: decode checkout session: %w", err)
		}
		out.Session = &s
	}
	return out, nil
}
