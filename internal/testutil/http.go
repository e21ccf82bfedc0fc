package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/rotaractportal/internal/app/system/auth"
	"github.com/dalemusser/rotaractportal/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TestUser is the signed-in member injected into handler tests.
type TestUser struct {
	ID     string
	Name   string
	Email  string
	Role   string
	Status string
}

func user(role, name string) TestUser {
	return TestUser{
		ID:     primitive.NewObjectID().Hex(),
		Name:   name,
		Email:  strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@example.org",
		Role:   role,
		Status: models.MemberActive,
	}
}

func MemberUser() TestUser    { return user(models.RoleMember, "Test Member") }
func BoardUser() TestUser     { return user(models.RoleBoard, "Test Board") }
func TreasurerUser() TestUser { return user(models.RoleTreasurer, "Test Treasurer") }
func PresidentUser() TestUser { return user(models.RolePresident, "Test President") }

// InactiveMemberUser returns a member whose status is not active.
func InactiveMemberUser() TestUser {
	u := MemberUser()
	u.Status = models.MemberInactive
	return u
}

// OID parses the user's hex id.
func (u TestUser) OID() primitive.ObjectID {
	id, _ := primitive.ObjectIDFromHex(u.ID)
	return id
}

// WithUser puts user on the request context, bypassing session middleware.
func WithUser(r *http.Request, u TestUser) *http.Request {
	return auth.WithTestUser(r, &auth.SessionUser{
		ID:     u.ID,
		Name:   u.Name,
		Email:  u.Email,
		Role:   u.Role,
		Status: u.Status,
	})
}

// WithChiURLParam adds a chi URL parameter to the request context.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
		r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	}
	rctx.URLParams.Add(key, value)
	return r
}

// NewRequest creates a request with no body.
func NewRequest(method, target string) *http.Request {
	return httptest.NewRequest(method, target, nil)
}

// JSONRequest creates a request whose body is body encoded as JSON.
func JSONRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request body: %v", err)
		}
	}
	r := httptest.NewRequest(method, target, &buf)
	r.Header.Set("Content-Type", "application/json")
	return r
}

// ResponseRecorder wraps httptest.ResponseRecorder with assertions.
type ResponseRecorder struct {
	*httptest.ResponseRecorder
}

func NewRecorder() *ResponseRecorder {
	return &ResponseRecorder{httptest.NewRecorder()}
}

// AssertStatus checks the status code, printing the body on mismatch.
func (r *ResponseRecorder) AssertStatus(t testing.TB, want int) {
	t.Helper()
	if r.Code != want {
		t.Errorf("status code: got %d, want %d (body: %s)", r.Code, want, r.Body.String())
	}
}

// AssertContains checks the body contains substr.
func (r *ResponseRecorder) AssertContains(t testing.TB, substr string) {
	t.Helper()
	if !strings.Contains(r.Body.String(), substr) {
		t.Errorf("response body %q does not contain %q", r.Body.String(), substr)
	}
}

// DecodeJSON decodes the response body into dst.
func (r *ResponseRecorder) DecodeJSON(t testing.TB, dst any) {
	t.Helper()
	if err := json.Unmarshal(r.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response %q: %v", r.Body.String(), err)
	}
}
