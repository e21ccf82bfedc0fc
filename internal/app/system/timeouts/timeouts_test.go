package timeouts

import (
	"testing"
	"time"
)

func TestConfigureKeepsZeroFields(t *testing.T) {
	t.Cleanup(Reset)

	Configure(Config{Short: 7 * time.Second})
	if got := Short(); got != 7*time.Second {
		t.Fatalf("Short = %v, want 7s", got)
	}
	if got := Medium(); got != DefaultMedium {
		t.Fatalf("Medium = %v, want default", got)
	}
}

func TestConfigureFromEnv(t *testing.T) {
	t.Cleanup(Reset)
	t.Setenv("ROTARACT_TIMEOUT_LONG", "45s")
	t.Setenv("ROTARACT_TIMEOUT_PING", "bogus")
	t.Setenv("ROTARACT_TIMEOUT_SHORT", "-1s")

	if n := ConfigureFromEnv(); n != 1 {
		t.Fatalf("applied %d values, want 1", n)
	}
	if Long() != 45*time.Second {
		t.Fatalf("Long = %v", Long())
	}
	if Ping() != DefaultPing || Short() != DefaultShort {
		t.Fatal("invalid values should be ignored")
	}
}
