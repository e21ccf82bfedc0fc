// Package notify turns domain events into queued emails.
package notify

import (
	"github.com/dalemusser/rotaractportal/internal/app/system/mailer"
	"github.com/dalemusser/rotaractportal/internal/app/system/metrics"
	"github.com/dalemusser/rotaractportal/internal/app/system/money"
	"go.uber.org/zap"
)

// Queue accepts email for background delivery. workers.MailDispatch
// implements it.
type Queue interface {
	Enqueue(e mailer.Email) bool
}

// Config holds the values stamped into every message.
type Config struct {
	SiteName  string
	PortalURL string
	Currency  string
}

// Notifier builds and queues notification emails. A nil Notifier drops
// everything, which keeps handler tests free of mail plumbing.
type Notifier struct {
	queue   Queue
	metrics *metrics.Metrics
	cfg     Config
	log     *zap.Logger
}

func New(q Queue, m *metrics.Metrics, cfg Config, log *zap.Logger) *Notifier {
	if cfg.SiteName == "" {
		cfg.SiteName = "Rotaract Club"
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Notifier{queue: q, metrics: m, cfg: cfg, log: log}
}

func (n *Notifier) send(template string, e mailer.Email) bool {
	if n == nil || n.queue == nil {
		return false
	}
	if e.To == "" {
		n.log.Debug("notification skipped: no recipient", zap.String("template", template))
		return false
	}
	ok := n.queue.Enqueue(e)
	n.metrics.Mail(template, ok)
	return ok
}

// Promoted tells a member they moved from a committee waitlist to a seat.
func (n *Notifier) Promoted(email, name, committee string) bool {
	if n == nil {
		return false
	}
	return n.send("promotion", mailer.BuildPromotionEmail(email, mailer.PromotionData{
		SiteName:      n.cfg.SiteName,
		MemberName:    name,
		CommitteeName: committee,
		PortalURL:     n.cfg.PortalURL,
	}))
}

// ExpenseDecision tells a submitter how the treasurer ruled.
func (n *Notifier) ExpenseDecision(email, name, activity string, amount int64, approved bool, reason string) bool {
	if n == nil {
		return false
	}
	return n.send("expense_decision", mailer.BuildExpenseDecisionEmail(email, mailer.ExpenseDecisionData{
		SiteName:      n.cfg.SiteName,
		MemberName:    name,
		ActivityTitle: activity,
		Amount:        money.Display(amount, n.cfg.Currency),
		Approved:      approved,
		Reason:        reason,
	}))
}

// Receipt confirms a completed payment.
func (n *Notifier) Receipt(email, name, description string, amount int64, reference string) bool {
	if n == nil {
		return false
	}
	if name == "" {
		name = "there"
	}
	return n.send("receipt", mailer.BuildReceiptEmail(email, mailer.ReceiptData{
		SiteName:    n.cfg.SiteName,
		Name:        name,
		Description: description,
		Amount:      money.Display(amount, n.cfg.Currency),
		Reference:   reference,
	}))
}
