package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

const testKey = "test-session-key-for-testing-only-0123456789"
const testSecret = "test-token-secret-for-testing-only-0123456789"

type fakeFetcher struct {
	users map[string]*SessionUser
	calls int
}

func (f *fakeFetcher) FetchUser(_ context.Context, id string) (*SessionUser, error) {
	f.calls++
	u, ok := f.users[id]
	if !ok {
		return nil, ErrUserGone
	}
	return u, nil
}

func newTestManager(t *testing.T) *SessionManager {
	t.Helper()
	sm, err := NewSessionManager(testKey, "", "", 24*time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	return sm
}

func captureUser(got **SessionUser) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u, ok := CurrentUser(r); ok {
			*got = u
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestNewSessionManager_EmptyKey(t *testing.T) {
	if _, err := NewSessionManager("", "", "", time.Hour, false, zap.NewNop()); err == nil {
		t.Error("expected error for empty session key")
	}
}

func TestSignIn_CookieLoadsUser(t *testing.T) {
	sm := newTestManager(t)
	fetcher := &fakeFetcher{users: map[string]*SessionUser{
		"m1": {ID: "m1", Name: "Ana", Role: "board", Status: "active"},
	}}
	sm.SetUserFetcher(fetcher)

	// Sign in and capture the cookie.
	rec := httptest.NewRecorder()
	if err := sm.SignIn(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", nil), "m1"); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("expected a session cookie")
	}
	if cookies[0].Name != DefaultSessionName {
		t.Errorf("cookie name: got %q, want %q", cookies[0].Name, DefaultSessionName)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(cookies[0])
	var got *SessionUser
	sm.LoadSessionUser(captureUser(&got)).ServeHTTP(httptest.NewRecorder(), req)

	if got == nil || got.Role != "board" {
		t.Fatalf("expected fresh user with role board, got %+v", got)
	}
	if fetcher.calls != 1 {
		t.Errorf("fetcher calls: got %d, want 1", fetcher.calls)
	}
}

func TestLoadSessionUser_BearerToken(t *testing.T) {
	sm := newTestManager(t)
	issuer, err := NewTokenIssuer(testSecret, "rotaract-portal", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}
	sm.SetTokenIssuer(issuer)
	sm.SetUserFetcher(&fakeFetcher{users: map[string]*SessionUser{
		"m2": {ID: "m2", Role: "treasurer", Status: "active"},
	}})

	tok, _, err := issuer.Issue("m2", "treasurer")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/finance/expenses", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	var got *SessionUser
	sm.LoadSessionUser(captureUser(&got)).ServeHTTP(httptest.NewRecorder(), req)
	if got == nil || got.ID != "m2" {
		t.Fatalf("expected user m2, got %+v", got)
	}
}

func TestLoadSessionUser_DeletedMemberIsVisitor(t *testing.T) {
	sm := newTestManager(t)
	issuer, _ := NewTokenIssuer(testSecret, "rotaract-portal", time.Hour)
	sm.SetTokenIssuer(issuer)
	sm.SetUserFetcher(&fakeFetcher{users: map[string]*SessionUser{}})

	tok, _, _ := issuer.Issue("gone", "member")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	var got *SessionUser
	sm.LoadSessionUser(captureUser(&got)).ServeHTTP(httptest.NewRecorder(), req)
	if got != nil {
		t.Errorf("expected no user, got %+v", got)
	}
}

func TestTokenIssuer_RejectsBadTokens(t *testing.T) {
	issuer, _ := NewTokenIssuer(testSecret, "rotaract-portal", time.Hour)
	other, _ := NewTokenIssuer("another-secret-that-is-long-enough-000000", "rotaract-portal", time.Hour)

	forged, _, _ := other.Issue("m1", "president")
	if _, err := issuer.Parse(forged); err == nil {
		t.Error("expected token signed with another secret to be rejected")
	}

	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	stale, _, _ := issuer.Issue("m1", "member")
	issuer.now = time.Now
	if _, err := issuer.Parse(stale); err == nil {
		t.Error("expected expired token to be rejected")
	}

	if _, err := NewTokenIssuer("short", "x", time.Hour); err == nil {
		t.Error("expected short secret to be rejected")
	}
}

func TestRequireRole(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	h := RequireRole("president")(ok)

	tests := []struct {
		name string
		user *SessionUser
		want int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"wrong role", &SessionUser{ID: "a", Role: "treasurer"}, http.StatusForbidden},
		{"president", &SessionUser{ID: "b", Role: "President"}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			if tt.user != nil {
				req = WithTestUser(req, tt.user)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status: got %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestRequireActive(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	h := RequireActive(ok)

	req := WithTestUser(httptest.NewRequest(http.MethodPost, "/", nil), &SessionUser{ID: "a", Status: "pending"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("pending member: got %d, want 403", rec.Code)
	}

	req = WithTestUser(httptest.NewRequest(http.MethodPost, "/", nil), &SessionUser{ID: "a", Status: "active"})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("active member: got %d, want 200", rec.Code)
	}
}
