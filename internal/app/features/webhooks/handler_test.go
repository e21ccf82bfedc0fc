package webhooks_test

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/rotaractportal/internal/app/features/webhooks"
	"github.com/dalemusser/rotaractportal/internal/app/system/billing"
	"github.com/dalemusser/rotaractportal/internal/app/system/payments"
	"github.com/dalemusser/rotaractportal/internal/testutil"
	"go.uber.org/zap"
)

const secret = "whsec_handler_test"

const payload = `{
  "id": "evt_42",
  "object": "event",
  "api_version": "2020-08-27",
  "type": "checkout.session.completed",
  "data": {"object": {"id": "cs_42", "object": "checkout.session", "status": "complete", "payment_status": "paid", "amount_total": 1500}}
}`

func sign(body []byte, key string) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(key))
	fmt.Fprintf(mac, "%d.%s", ts, body)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

type recordingApplier struct {
	events []payments.Event
	err    error
}

func (a *recordingApplier) HandleEvent(_ context.Context, ev payments.Event) (string, error) {
	a.events = append(a.events, ev)
	if a.err != nil {
		return billing.OutcomeFailed, a.err
	}
	return billing.OutcomeCompleted, nil
}

func deliver(t *testing.T, h *webhooks.Handler, signature string) *testutil.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/stripe", bytes.NewBufferString(payload))
	req.Header.Set("Stripe-Signature", signature)
	rec := testutil.NewRecorder()
	webhooks.Routes(h).ServeHTTP(rec, req)
	return rec
}

func TestHandleStripe(t *testing.T) {
	t.Run("bad signature", func(t *testing.T) {
		app := &recordingApplier{}
		rec := deliver(t, webhooks.NewHandler(app, secret, nil, zap.NewNop()), sign([]byte(payload), "whsec_wrong"))
		rec.AssertStatus(t, http.StatusBadRequest)
		if len(app.events) != 0 {
			t.Errorf("applier called %d times on a forged event", len(app.events))
		}
	})

	t.Run("applied", func(t *testing.T) {
		app := &recordingApplier{}
		rec := deliver(t, webhooks.NewHandler(app, secret, nil, zap.NewNop()), sign([]byte(payload), secret))
		rec.AssertStatus(t, http.StatusOK)
		rec.AssertContains(t, billing.OutcomeCompleted)
		if len(app.events) != 1 || app.events[0].Session == nil || app.events[0].Session.ID != "cs_42" {
			t.Errorf("events = %+v", app.events)
		}
	})

	t.Run("persistence failure asks for redelivery", func(t *testing.T) {
		app := &recordingApplier{err: errors.New("mongo down")}
		rec := deliver(t, webhooks.NewHandler(app, secret, nil, zap.NewNop()), sign([]byte(payload), secret))
		rec.AssertStatus(t, http.StatusInternalServerError)
	})

	t.Run("not configured", func(t *testing.T) {
		rec := deliver(t, webhooks.NewHandler(&recordingApplier{}, "", nil, zap.NewNop()), "")
		rec.AssertStatus(t, http.StatusServiceUnavailable)
	})
}
