package messages_test

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/rotaractportal/internal/app/features/messages"
	"github.com/dalemusser/rotaractportal/internal/app/system/ratelimit"
	"github.com/dalemusser/rotaractportal/internal/domain/models"
	"github.com/dalemusser/rotaractportal/internal/testutil"
	"go.uber.org/zap"
)

func TestValidationAndGates(t *testing.T) {
	h := messages.NewHandler(nil, nil, zap.NewNop())

	tests := []struct {
		name   string
		router http.Handler
		req    *http.Request
		want   int
	}{
		{"missing body", messages.Routes(h), testutil.JSONRequest(t, http.MethodPost, "/", map[string]any{"name": "A", "email": "a@example.org"}), http.StatusBadRequest},
		{"bad email", messages.Routes(h), testutil.JSONRequest(t, http.MethodPost, "/", map[string]any{"name": "A", "email": "nope", "body": "hi"}), http.StatusBadRequest},
		{"script only body", messages.Routes(h), testutil.JSONRequest(t, http.MethodPost, "/", map[string]any{"name": "A", "email": "a@example.org", "body": "<script>x()</script>"}), http.StatusBadRequest},
		{"anonymous admin", messages.AdminRoutes(h), testutil.NewRequest(http.MethodGet, "/"), http.StatusUnauthorized},
		{"member admin", messages.AdminRoutes(h), testutil.WithUser(testutil.NewRequest(http.MethodGet, "/"), testutil.MemberUser()), http.StatusForbidden},
		{"bad handled filter", messages.AdminRoutes(h), testutil.WithUser(testutil.NewRequest(http.MethodGet, "/?handled=maybe"), testutil.BoardUser()), http.StatusBadRequest},
		{"bad id", messages.AdminRoutes(h), testutil.WithUser(testutil.NewRequest(http.MethodPost, "/zzz/handled"), testutil.BoardUser()), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			tt.router.ServeHTTP(rec, tt.req)
			rec.AssertStatus(t, tt.want)
		})
	}
}

func TestRateLimited(t *testing.T) {
	lim := ratelimit.New(1, time.Minute)
	defer lim.Close()
	router := messages.Routes(messages.NewHandler(nil, lim, zap.NewNop()))

	// The first request consumes the allowance and fails validation.
	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.JSONRequest(t, http.MethodPost, "/", map[string]any{}))
	rec.AssertStatus(t, http.StatusBadRequest)

	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.JSONRequest(t, http.MethodPost, "/", map[string]any{}))
	rec.AssertStatus(t, http.StatusTooManyRequests)
}

func TestSubmitAndTriage(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := messages.NewHandler(db, nil, zap.NewNop())
	board := testutil.BoardUser()

	rec := testutil.NewRecorder()
	messages.Routes(h).ServeHTTP(rec, testutil.JSONRequest(t, http.MethodPost, "/", map[string]any{
		"name":    "<b>Dana</b>",
		"email":   "Dana@Example.org",
		"subject": "Joining",
		"body":    `<p>How do I join?</p><img src=x onerror="alert(1)">`,
	}))
	rec.AssertStatus(t, http.StatusCreated)
	var created struct {
		ID string `json:"id"`
	}
	rec.DecodeJSON(t, &created)

	rec = testutil.NewRecorder()
	messages.AdminRoutes(h).ServeHTTP(rec, testutil.WithUser(testutil.NewRequest(http.MethodGet, "/?handled=false"), board))
	rec.AssertStatus(t, http.StatusOK)
	var out struct {
		Messages []models.Message `json:"messages"`
	}
	rec.DecodeJSON(t, &out)
	if len(out.Messages) != 1 {
		t.Fatalf("unhandled = %d, want 1", len(out.Messages))
	}
	m := out.Messages[0]
	if m.Name != "Dana" || m.Email != "dana@example.org" {
		t.Errorf("name/email = %q/%q", m.Name, m.Email)
	}
	if strings.Contains(m.Body, "onerror") {
		t.Errorf("body not sanitized: %q", m.Body)
	}

	rec = testutil.NewRecorder()
	messages.AdminRoutes(h).ServeHTTP(rec, testutil.WithUser(testutil.NewRequest(http.MethodPost, "/"+created.ID+"/handled"), board))
	rec.AssertStatus(t, http.StatusOK)

	rec = testutil.NewRecorder()
	messages.AdminRoutes(h).ServeHTTP(rec, testutil.WithUser(testutil.NewRequest(http.MethodGet, "/?handled=false"), board))
	rec.AssertStatus(t, http.StatusOK)
	rec.DecodeJSON(t, &out)
	if len(out.Messages) != 0 {
		t.Errorf("unhandled after triage = %d, want 0", len(out.Messages))
	}
}
