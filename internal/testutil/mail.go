package testutil

import (
	"sync"

	"github.com/dalemusser/rotaractportal/internal/app/system/mailer"
)

// MailQueue records queued email in place of the mail dispatcher.
type MailQueue struct {
	mu   sync.Mutex
	sent []mailer.Email
}

func (q *MailQueue) Enqueue(e mailer.Email) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.sent = append(q.sent, e)
	return true
}

// Sent returns a copy of everything queued so far.
func (q *MailQueue) Sent() []mailer.Email {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]mailer.Email(nil), q.sent...)
}

// Recipients lists the To address of each queued email, in order.
func (q *MailQueue) Recipients() []string {
	sent := q.Sent()
	out := make([]string, len(sent))
	for i, e := range sent {
		out[i] = e.To
	}
	return out
}
