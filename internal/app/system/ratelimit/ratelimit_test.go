package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLimiterBurstThenDeny(t *testing.T) {
	l := New(3, time.Hour)
	defer l.Close()

	for i := 0; i < 3; i++ {
		if !l.Allow("a") {
			t.Fatalf("request %d should pass", i+1)
		}
	}
	if l.Allow("a") {
		t.Fatal("fourth request should be limited")
	}
	if !l.Allow("b") {
		t.Fatal("other keys are independent")
	}
	if got := l.Remaining("a"); got != 0 {
		t.Fatalf("Remaining = %d, want 0", got)
	}

	l.Reset("a")
	if got := l.Remaining("a"); got != 3 {
		t.Fatalf("Remaining after reset = %d, want 3", got)
	}
}

func TestClientIP(t *testing.T) {
	cases := []struct {
		name   string
		header map[string]string
		remote string
		want   string
	}{
		{"forwarded", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, "10.0.0.1:80", "203.0.113.7"},
		{"real ip", map[string]string{"X-Real-IP": " 198.51.100.2 "}, "10.0.0.1:80", "198.51.100.2"},
		{"remote", nil, "192.0.2.1:5555", "192.0.2.1"},
		{"remote no port", nil, "192.0.2.1", "192.0.2.1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tc.remote
			for k, v := range tc.header {
				r.Header.Set(k, v)
			}
			if got := ClientIP(r); got != tc.want {
				t.Fatalf("ClientIP = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestLoginLimiterPerEmail(t *testing.T) {
	ll := NewLoginLimiterWithConfig(100, time.Minute, 2, time.Hour)
	defer ll.Close()
	r := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)

	for i := 0; i < 2; i++ {
		if ok, _ := ll.Check(r, "Pat@Example.org"); !ok {
			t.Fatalf("attempt %d should pass", i+1)
		}
	}
	if ok, reason := ll.Check(r, " pat@example.org"); ok || reason == "" {
		t.Fatal("email key should be normalized and limited")
	}
	ll.ResetEmail("PAT@example.org")
	if ok, _ := ll.Check(r, "pat@example.org"); !ok {
		t.Fatal("reset should restore attempts")
	}
}

func TestMiddleware(t *testing.T) {
	l := New(1, time.Hour)
	defer l.Close()
	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/messages", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("first = %d", rec.Code)
	}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/messages", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second = %d, want 429", rec.Code)
	}
}
