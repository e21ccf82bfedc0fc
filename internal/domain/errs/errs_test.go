package errs

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, 0},
		{"plain", errors.New("boom"), 0},
		{"not found", NotFound("committee"), KindNotFound},
		{"wrapped conflict", fmt.Errorf("join: %w", Conflict("already a member")), KindConflict},
		{"forbidden", Forbidden("president only"), KindForbidden},
		{"invalid", Invalid("amount must be positive"), KindInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIs_MatchesSentinel(t *testing.T) {
	sentinel := Conflict("already on the waitlist")
	wrapped := fmt.Errorf("committee join: %w", Conflict("already on the waitlist"))
	if !errors.Is(wrapped, sentinel) {
		t.Error("expected wrapped error to match sentinel with same kind and message")
	}
	if errors.Is(wrapped, Conflict("something else")) {
		t.Error("expected different message not to match")
	}
}

func TestMessage(t *testing.T) {
	err := fmt.Errorf("load: %w", NotFound("event"))
	if got := Message(err); got != "event not found" {
		t.Errorf("Message() = %q", got)
	}
	if got := Message(errors.New("raw")); got != "" {
		t.Errorf("Message() on raw error = %q, want empty", got)
	}
}
