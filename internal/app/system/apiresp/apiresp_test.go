package apiresp

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/rotaractportal/internal/domain/errs"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	return body["error"]
}

func TestFail_StatusMapping(t *testing.T) {
	el := NewErrorLogger(zap.NewNop())
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"invalid", errs.Invalid("amount must be positive"), http.StatusBadRequest, "amount must be positive"},
		{"not found", fmt.Errorf("load: %w", errs.NotFound("activity")), http.StatusNotFound, "activity not found"},
		{"conflict", errs.Conflict("already a member"), http.StatusConflict, "already a member"},
		{"forbidden", errs.Forbidden("treasurer only"), http.StatusForbidden, "treasurer only"},
		{"no documents", fmt.Errorf("get: %w", mongo.ErrNoDocuments), http.StatusNotFound, "not found"},
		{"unknown", errors.New("socket closed"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/x", nil)
			rec := httptest.NewRecorder()
			el.Fail(rec, req, "op failed", tt.err)
			if rec.Code != tt.status {
				t.Errorf("status: got %d, want %d", rec.Code, tt.status)
			}
			if got := decodeError(t, rec); got != tt.message {
				t.Errorf("error: got %q, want %q", got, tt.message)
			}
		})
	}
}

func TestDecode(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	t.Run("valid", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Ana"}`))
		var p payload
		if err := Decode(httptest.NewRecorder(), req, &p); err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if p.Name != "Ana" {
			t.Errorf("Name = %q", p.Name)
		}
	})

	t.Run("unknown field", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"nme":"Ana"}`))
		var p payload
		err := Decode(httptest.NewRecorder(), req, &p)
		if errs.KindOf(err) != errs.KindInvalid {
			t.Errorf("expected invalid error, got %v", err)
		}
	})

	t.Run("empty body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
		var p payload
		if err := Decode(httptest.NewRecorder(), req, &p); err != nil {
			t.Errorf("empty body should decode to zero value, got %v", err)
		}
	})
}

func TestJSON_ContentType(t *testing.T) {
	rec := httptest.NewRecorder()
	Created(rec, map[string]string{"id": "x"})
	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
}
