// internal/app/features/webhooks/handler.go
package webhooks

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/dalemusser/rotaractportal/internal/app/system/apiresp"
	"github.com/dalemusser/rotaractportal/internal/app/system/billing"
	"github.com/dalemusser/rotaractportal/internal/app/system/metrics"
	"github.com/dalemusser/rotaractportal/internal/app/system/payments"
	"github.com/dalemusser/rotaractportal/internal/app/system/timeouts"
	"go.uber.org/zap"
)

const maxPayloadBytes = 65536

// EventApplier settles a verified payment event. *billing.Reconciler
// implements it.
type EventApplier interface {
	HandleEvent(ctx context.Context, ev payments.Event) (string, error)
}

// Handler receives Stripe webhook deliveries.
type Handler struct {
	Log     *zap.Logger
	ErrLog  *apiresp.ErrorLogger
	Billing EventApplier
	Metrics *metrics.Metrics
	Secret  string
}

func NewHandler(applier EventApplier, secret string, m *metrics.Metrics, logger *zap.Logger) *Handler {
	return &Handler{
		Log:     logger,
		ErrLog:  apiresp.NewErrorLogger(logger),
		Billing: applier,
		Metrics: m,
		Secret:  secret,
	}
}

// HandleStripe verifies the Stripe-Signature header and applies the event.
// A bad signature is a 400; a persistence failure is a 500 so Stripe
// redelivers; anything else, including event types we ignore, is a 200.
func (h *Handler) HandleStripe(w http.ResponseWriter, r *http.Request) {
	if h.Secret == "" || h.Billing == nil {
		apiresp.Error(w, http.StatusServiceUnavailable, "webhooks are not configured")
		return
	}
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPayloadBytes))
	if err != nil {
		apiresp.BadRequest(w, "could not read body")
		return
	}

	ev, err := payments.ParseEvent(payload, r.Header.Get("Stripe-Signature"), h.Secret)
	if err != nil {
		if errors.Is(err, payments.ErrBadSignature) {
			h.Metrics.Webhook("unknown", "bad_signature")
			h.Log.Warn("stripe webhook rejected", zap.Error(err))
			apiresp.BadRequest(w, "invalid signature")
			return
		}
		h.Metrics.Webhook("unknown", "bad_payload")
		apiresp.BadRequest(w, "invalid payload")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	outcome, err := h.Billing.HandleEvent(ctx, ev)
	if err != nil {
		h.Metrics.Webhook(ev.Type, billing.OutcomeFailed)
		h.ErrLog.ServerError(w, r, "apply stripe event failed", err)
		return
	}
	h.Metrics.Webhook(ev.Type, outcome)
	h.Log.Info("stripe webhook applied",
		zap.String("event_id", ev.ID),
		zap.String("type", ev.Type),
		zap.String("outcome", outcome))
	apiresp.OK(w, map[string]any{"received": true, "outcome": outcome})
}
