// Package metrics exposes workflow counters for Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the application's collectors on a private registry.
type Metrics struct {
	reg *prometheus.Registry

	WaitlistPromotions *prometheus.CounterVec
	FinanceDecisions   *prometheus.CounterVec
	CheckoutSessions   *prometheus.CounterVec
	StripeWebhooks     *prometheus.CounterVec
	Reconciled         *prometheus.CounterVec
	MailEnqueued       *prometheus.CounterVec
}

// New builds and registers the collectors, plus Go runtime and process
// collectors.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		WaitlistPromotions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rotaract",
			Name:      "waitlist_promotions_total",
			Help:      "Members promoted from a committee waitlist.",
		}, []string{"trigger"}),
		FinanceDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rotaract",
			Name:      "finance_decisions_total",
			Help:      "Budget, expense and offline payment reviews.",
		}, []string{"kind", "decision"}),
		CheckoutSessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rotaract",
			Name:      "checkout_sessions_total",
			Help:      "Checkout sessions created, and free RSVPs recorded without one.",
		}, []string{"kind"}),
		StripeWebhooks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rotaract",
			Name:      "stripe_webhooks_total",
			Help:      "Stripe webhook deliveries by event type and outcome.",
		}, []string{"type", "result"}),
		Reconciled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rotaract",
			Name:      "checkouts_reconciled_total",
			Help:      "Open checkouts settled by the reconciliation sweep.",
		}, []string{"outcome"}),
		MailEnqueued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rotaract",
			Name:      "mail_enqueued_total",
			Help:      "Notification email handed to the dispatcher.",
		}, []string{"template", "result"}),
	}
	m.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.WaitlistPromotions,
		m.FinanceDecisions,
		m.CheckoutSessions,
		m.StripeWebhooks,
		m.Reconciled,
		m.MailEnqueued,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// Registry is exposed for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// The helpers below are safe on a nil *Metrics so handlers built without
// metrics (tests) need no guards.

func (m *Metrics) Promoted(trigger string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.WaitlistPromotions.WithLabelValues(trigger).Add(float64(n))
}

func (m *Metrics) Decision(kind, decision string) {
	if m != nil {
		m.FinanceDecisions.WithLabelValues(kind, decision).Inc()
	}
}

func (m *Metrics) Checkout(kind string) {
	if m != nil {
		m.CheckoutSessions.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) Webhook(eventType, result string) {
	if m != nil {
		m.StripeWebhooks.WithLabelValues(eventType, result).Inc()
	}
}

func (m *Metrics) Reconcile(outcome string) {
	if m != nil {
		m.Reconciled.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) Mail(template string, queued bool) {
	if m == nil {
		return
	}
	result := "queued"
	if !queued {
		result = "dropped"
	}
	m.MailEnqueued.WithLabelValues(template, result).Inc()
}
