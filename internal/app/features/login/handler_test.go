package login_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/rotaractportal/internal/app/features/login"
	"github.com/dalemusser/rotaractportal/internal/app/system/auth"
	"github.com/dalemusser/rotaractportal/internal/app/system/ratelimit"
	"github.com/dalemusser/rotaractportal/internal/domain/models"
	"github.com/dalemusser/rotaractportal/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const testSessionKey = "test-session-key-for-testing-only-0123456789"

func newHandler(t *testing.T, db *mongo.Database) *login.Handler {
	t.Helper()
	logger := zap.NewNop()
	sm, err := auth.NewSessionManager(testSessionKey, "test-session", "", time.Hour, false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}
	limiter := ratelimit.NewLoginLimiter()
	t.Cleanup(limiter.Close)
	return login.NewHandler(db, sm, limiter, nil, logger)
}

func hasCookie(rec *testutil.ResponseRecorder, name string) bool {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return true
		}
	}
	return false
}

func TestHandleLogin_ValidationErrors(t *testing.T) {
	h := newHandler(t, nil)

	tests := []struct {
		name string
		body any
	}{
		{"missing password", map[string]string{"email": "ana@example.org"}},
		{"bad email", map[string]string{"email": "not-an-email", "password": "secret123"}},
		{"unknown field", map[string]string{"email": "ana@example.org", "password": "x", "role": "president"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			h.HandleLogin(rec, testutil.JSONRequest(t, http.MethodPost, "/api/auth/login", tt.body))
			rec.AssertStatus(t, http.StatusBadRequest)
		})
	}
}

func TestHandleLogin_RateLimited(t *testing.T) {
	h := newHandler(t, nil)
	h.Limiter = ratelimit.NewLoginLimiterWithConfig(1, time.Hour, 5, time.Hour)
	t.Cleanup(h.Limiter.Close)

	body := map[string]string{"email": "ana@example.org", "password": "secret123"}
	first := testutil.JSONRequest(t, http.MethodPost, "/api/auth/login", body)
	if ok, _ := h.Limiter.Check(first, "ana@example.org"); !ok {
		t.Fatal("first attempt should be allowed")
	}

	rec := testutil.NewRecorder()
	h.HandleLogin(rec, testutil.JSONRequest(t, http.MethodPost, "/api/auth/login", body))
	rec.AssertStatus(t, http.StatusTooManyRequests)
}

func TestHandleLogin_Outcomes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.EnsureIndexes(t, db)
	h := newHandler(t, db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx.CreateMemberWithPassword(ctx, "Ana Active", "ana@example.org", models.RoleBoard, models.MemberActive, "correct-horse")
	fx.CreateMemberWithPassword(ctx, "Pat Pending", "pat@example.org", models.RoleMember, models.MemberPending, "correct-horse")

	tests := []struct {
		name     string
		email    string
		password string
		want     int
	}{
		{"success", "ANA@example.org", "correct-horse", http.StatusOK},
		{"wrong password", "ana@example.org", "battery-staple", http.StatusUnauthorized},
		{"unknown member", "nobody@example.org", "correct-horse", http.StatusUnauthorized},
		{"pending member", "pat@example.org", "correct-horse", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			h.HandleLogin(rec, testutil.JSONRequest(t, http.MethodPost, "/api/auth/login",
				map[string]string{"email": tt.email, "password": tt.password}))
			rec.AssertStatus(t, tt.want)
			if got := hasCookie(rec, "test-session"); got != (tt.want == http.StatusOK) {
				t.Errorf("session cookie set = %v", got)
			}
		})
	}
}

func TestServeMe(t *testing.T) {
	h := newHandler(t, nil)
	router := login.Routes(h)

	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewRequest(http.MethodGet, "/me"))
	rec.AssertStatus(t, http.StatusUnauthorized)

	u := testutil.BoardUser()
	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.WithUser(testutil.NewRequest(http.MethodGet, "/me"), u))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, u.Email)
	rec.AssertContains(t, `"role":"board"`)
}

func TestHandleToken(t *testing.T) {
	h := newHandler(t, nil)
	u := testutil.MemberUser()

	rec := testutil.NewRecorder()
	h.HandleToken(rec, testutil.WithUser(testutil.NewRequest(http.MethodPost, "/token"), u))
	rec.AssertStatus(t, http.StatusServiceUnavailable)

	issuer, err := auth.NewTokenIssuer("test-token-secret-for-testing-only-0123456789", "rotaract-test", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}
	h.SessionMgr.SetTokenIssuer(issuer)

	rec = testutil.NewRecorder()
	h.HandleToken(rec, testutil.WithUser(testutil.NewRequest(http.MethodPost, "/token"), u))
	rec.AssertStatus(t, http.StatusOK)

	var out struct {
		Token     string `json:"token"`
		TokenType string `json:"token_type"`
	}
	rec.DecodeJSON(t, &out)
	if out.TokenType != "Bearer" {
		t.Errorf("token_type = %q", out.TokenType)
	}
	claims, err := issuer.Parse(out.Token)
	if err != nil {
		t.Fatalf("Parse issued token: %v", err)
	}
	if claims.Subject != u.ID {
		t.Errorf("subject = %q, want %q", claims.Subject, u.ID)
	}
}

func TestHandleLogout_ClearsCookie(t *testing.T) {
	h := newHandler(t, nil)
	rec := testutil.NewRecorder()
	h.HandleLogout(rec, testutil.WithUser(testutil.NewRequest(http.MethodPost, "/logout"), testutil.MemberUser()))
	rec.AssertStatus(t, http.StatusOK)

	for _, c := range rec.Result().Cookies() {
		if c.Name == "test-session" && c.MaxAge >= 0 {
			t.Errorf("session cookie MaxAge = %d, want expired", c.MaxAge)
		}
	}
}

func TestHandleRegister(t *testing.T) {
	h := newHandler(t, nil)
	rec := testutil.NewRecorder()
	h.HandleRegister(rec, testutil.JSONRequest(t, http.MethodPost, "/register", map[string]string{
		"full_name": "Sam", "email": "sam@example.org", "password": "short",
	}))
	rec.AssertStatus(t, http.StatusBadRequest)

	db := testutil.SetupTestDB(t)
	testutil.EnsureIndexes(t, db)
	h = newHandler(t, db)

	body := map[string]string{"full_name": "Sam Reyes", "email": "Sam@Example.org", "password": "long-enough-pass"}
	rec = testutil.NewRecorder()
	h.HandleRegister(rec, testutil.JSONRequest(t, http.MethodPost, "/register", body))
	rec.AssertStatus(t, http.StatusCreated)
	rec.AssertContains(t, `"status":"pending"`)
	rec.AssertContains(t, `"email":"sam@example.org"`)

	rec = testutil.NewRecorder()
	h.HandleRegister(rec, testutil.JSONRequest(t, http.MethodPost, "/register", body))
	rec.AssertStatus(t, http.StatusConflict)
}
