package workers

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/rotaractportal/internal/app/system/mailer"
	"go.uber.org/zap"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []mailer.Email
	gate chan struct{}
}

func (s *recordingSender) Send(_ context.Context, e mailer.Email) error {
	if s.gate != nil {
		<-s.gate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, e)
	return nil
}

func (s *recordingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func TestMailDispatchSendsQueuedEmail(t *testing.T) {
	s := &recordingSender{}
	d := NewMailDispatch(s, zap.NewNop(), 4, time.Second)
	d.Start()

	for _, to := range []string{"a@example.org", "b@example.org"} {
		if !d.Enqueue(mailer.Email{To: to, Subject: "hi"}) {
			t.Fatalf("enqueue %s failed", to)
		}
	}
	d.Stop()

	if got := s.count(); got != 2 {
		t.Fatalf("sent %d emails, want 2", got)
	}
	if d.Enqueue(mailer.Email{To: "late@example.org"}) {
		t.Fatal("enqueue after stop should fail")
	}
}

func TestMailDispatchDropsWhenFull(t *testing.T) {
	s := &recordingSender{gate: make(chan struct{})}
	d := NewMailDispatch(s, zap.NewNop(), 1, time.Second)
	// Not started: the queue holds exactly one email.
	if !d.Enqueue(mailer.Email{To: "a@example.org"}) {
		t.Fatal("first enqueue should fit")
	}
	if d.Enqueue(mailer.Email{To: "b@example.org"}) {
		t.Fatal("second enqueue should be dropped")
	}
	close(s.gate)
	d.Start()
	d.Stop()
	if got := s.count(); got != 1 {
		t.Fatalf("sent %d, want 1", got)
	}
}
