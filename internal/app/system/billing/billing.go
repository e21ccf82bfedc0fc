// Package billing settles checkout sessions: it marks RSVPs and member dues
// paid or released when Stripe reports a session completed or expired. The
// webhook handler and the reconciliation sweep both go through Reconciler so
// a session is settled the same way whichever path sees it first.
package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/rotaractportal/internal/app/store/audit"
	checkoutstore "github.com/dalemusser/rotaractportal/internal/app/store/checkouts"
	memberduesstore "github.com/dalemusser/rotaractportal/internal/app/store/memberdues"
	rsvpstore "github.com/dalemusser/rotaractportal/internal/app/store/rsvps"
	"github.com/dalemusser/rotaractportal/internal/app/system/auditlog"
	"github.com/dalemusser/rotaractportal/internal/app/system/metrics"
	"github.com/dalemusser/rotaractportal/internal/app/system/notify"
	"github.com/dalemusser/rotaractportal/internal/app/system/payments"
	"github.com/dalemusser/rotaractportal/internal/app/system/txn"
	"github.com/dalemusser/rotaractportal/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Outcomes reported by Apply*, HandleEvent and Sweep.
const (
	OutcomeCompleted = "completed"
	OutcomeExpired   = "expired"
	OutcomeUnpaid    = "unpaid"    // session complete but money not collected yet
	OutcomeNoop      = "noop"      // already settled
	OutcomeUnknown   = "unknown"   // no checkout, RSVP or dues record for the session
	OutcomeIgnored   = "ignored"   // event type we do not act on
	OutcomeDuplicate = "duplicate" // event id already applied
	OutcomeOpen      = "open"      // sweep: session still open at Stripe
	OutcomeFailed    = "failed"
)

// Sources passed to the audit log.
const (
	SourceWebhook  = "webhook"
	SourceSweep    = "sweep"
	SourceCheckout = "checkout"
)

type Reconciler struct {
	db      *mongo.Database
	log     *zap.Logger
	audit   *auditlog.Logger
	notify  *notify.Notifier
	metrics *metrics.Metrics
}

func New(db *mongo.Database, log *zap.Logger, audit *auditlog.Logger, n *notify.Notifier, m *metrics.Metrics) *Reconciler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reconciler{db: db, log: log, audit: audit, notify: n, metrics: m}
}

// lookup returns the checkout record for sessionID and whether it exists.
func (r *Reconciler) lookup(ctx context.Context, sessionID string) (models.Checkout, bool, error) {
	rec, err := checkoutstore.New(r.db).GetBySession(ctx, sessionID)
	if errors.Is(err, checkoutstore.ErrNotFound) {
		return models.Checkout{}, false, nil
	}
	if err != nil {
		return models.Checkout{}, false, err
	}
	return rec, true, nil
}

func kindOf(s payments.Session, rec models.Checkout, known bool) string {
	if k := s.Metadata[payments.MetaKind]; k != "" {
		return k
	}
	if known {
		return rec.Kind
	}
	return ""
}

// duesOwner resolves the member and cycle a dues session pays for, from the
// checkout record when there is one and from session metadata otherwise.
func duesOwner(s payments.Session, rec models.Checkout, known bool) (member, cycle primitive.ObjectID, ok bool) {
	if known && rec.MemberID != nil && !rec.RelatedID.IsZero() {
		return *rec.MemberID, rec.RelatedID, true
	}
	m, err := primitive.ObjectIDFromHex(s.Metadata[payments.MetaMemberID])
	if err != nil {
		return member, cycle, false
	}
	c, err := primitive.ObjectIDFromHex(s.Metadata[payments.MetaRelatedID])
	if err != nil {
		return member, cycle, false
	}
	return m, c, true
}

func describe(kind string) string {
	if kind == models.PaymentForDues {
		return "membership dues"
	}
	return "event tickets"
}

// ApplyCompleted settles a completed, paid session.
func (r *Reconciler) ApplyCompleted(ctx context.Context, s payments.Session, source string) (string, error) {
	if !s.Paid() {
		return OutcomeUnpaid, nil
	}
	rec, known, err := r.lookup(ctx, s.ID)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("load checkout %s: %w", s.ID, err)
	}
	kind := kindOf(s, rec, known)
	now := time.Now().UTC()

	outcome := OutcomeNoop
	err = txn.Run(ctx, r.db, r.log, func(ctx context.Context) error {
		outcome = OutcomeNoop
		changed := false
		if known {
			c, err := checkoutstore.New(r.db).Complete(ctx, s.ID, s.AmountTotal, now)
			if err != nil {
				return err
			}
			changed = c
		}
		if known && !changed {
			return nil
		}
		var (
			found bool
			err   error
		)
		switch kind {
		case models.PaymentForDues:
			dues := memberduesstore.New(r.db)
			found, err = dues.MarkPaidBySession(ctx, s.ID, now)
			if err == nil && !found {
				if member, cycle, ok := duesOwner(s, rec, known); ok {
					err = dues.MarkPaidForMember(ctx, member, cycle, s.AmountTotal, s.ID, now)
					found = err == nil
				}
			}
		case models.PaymentForEvent:
			found, err = rsvpstore.New(r.db).MarkPaidBySession(ctx, s.ID, now)
		}
		if err != nil {
			return err
		}
		switch {
		case found || changed:
			outcome = OutcomeCompleted
		default:
			outcome = OutcomeUnknown
		}
		return nil
	})
	if err != nil {
		return OutcomeFailed, fmt.Errorf("complete checkout %s: %w", s.ID, err)
	}

	if outcome == OutcomeCompleted {
		r.audit.Checkout(ctx, audit.EventCheckoutCompleted, s.ID, kind, source, s.AmountTotal)
		email := s.CustomerEmail
		if email == "" && known {
			email = rec.Email
		}
		r.notify.Receipt(email, "", describe(kind), s.AmountTotal, s.ID)
	}
	if outcome == OutcomeUnknown {
		r.log.Warn("completed checkout matches no record",
			zap.String("session_id", s.ID), zap.String("kind", kind))
	}
	return outcome, nil
}

// ApplyExpired releases what an abandoned session was holding: pending RSVPs
// give their seats back and pending dues return to unpaid.
func (r *Reconciler) ApplyExpired(ctx context.Context, s payments.Session, source string) (string, error) {
	rec, known, err := r.lookup(ctx, s.ID)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("load checkout %s: %w", s.ID, err)
	}
	kind := kindOf(s, rec, known)

	outcome := OutcomeNoop
	err = txn.Run(ctx, r.db, r.log, func(ctx context.Context) error {
		outcome = OutcomeNoop
		changed := false
		if known {
			c, err := checkoutstore.New(r.db).Expire(ctx, s.ID)
			if err != nil {
				return err
			}
			changed = c
		}
		if known && !changed {
			return nil
		}
		var (
			released bool
			err      error
		)
		switch kind {
		case models.PaymentForDues:
			released, err = memberduesstore.New(r.db).ResetBySession(ctx, s.ID)
		case models.PaymentForEvent:
			released, err = rsvpstore.New(r.db).ReleaseBySession(ctx, s.ID)
		}
		if err != nil {
			return err
		}
		if changed || released {
			outcome = OutcomeExpired
		} else if !known {
			outcome = OutcomeUnknown
		}
		return nil
	})
	if err != nil {
		return OutcomeFailed, fmt.Errorf("expire checkout %s: %w", s.ID, err)
	}
	if outcome == OutcomeExpired {
		r.audit.Checkout(ctx, audit.EventCheckoutExpired, s.ID, kind, source, s.AmountTotal)
	}
	return outcome, nil
}

// HandleEvent applies a verified webhook event at most once per event id.
// The event id is recorded only after the change is committed, so a failed
// delivery is retried in full.
func (r *Reconciler) HandleEvent(ctx context.Context, ev payments.Event) (string, error) {
	if ev.Session == nil || (ev.Type != payments.EventCheckoutCompleted && ev.Type != payments.EventCheckoutExpired) {
		return OutcomeIgnored, nil
	}
	events := checkoutstore.New(r.db)
	seen, err := events.SeenEvent(ctx, ev.ID)
	if err != nil {
		return OutcomeFailed, err
	}
	if seen {
		return OutcomeDuplicate, nil
	}

	var outcome string
	if ev.Type == payments.EventCheckoutCompleted {
		outcome, err = r.ApplyCompleted(ctx, *ev.Session, SourceWebhook)
	} else {
		outcome, err = r.ApplyExpired(ctx, *ev.Session, SourceWebhook)
	}
	if err != nil {
		return outcome, err
	}
	if _, err := events.RecordEvent(ctx, ev.ID, ev.Type); err != nil {
		return OutcomeFailed, fmt.Errorf("record event %s: %w", ev.ID, err)
	}
	return outcome, nil
}

// SweepResult counts what one sweep did.
type SweepResult struct {
	Checked   int
	Completed int
	Expired   int
	Open      int
	Failed    int
}

// Sweep re-checks checkouts still open after olderThan against the gateway
// and settles the ones Stripe has finished. It covers webhooks that were
// never delivered.
func (r *Reconciler) Sweep(ctx context.Context, gw payments.Gateway, olderThan time.Duration, limit int64) (SweepResult, error) {
	var res SweepResult
	if gw == nil {
		return res, nil
	}
	stale, err := checkoutstore.New(r.db).ListStale(ctx, time.Now().Add(-olderThan), limit)
	if err != nil {
		return res, err
	}
	for _, rec := range stale {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Checked++
		s, err := gw.GetCheckout(ctx, rec.SessionID)
		if err != nil {
			res.Failed++
			r.metrics.Reconcile(OutcomeFailed)
			r.log.Warn("sweep: fetch session failed", zap.String("session_id", rec.SessionID), zap.Error(err))
			continue
		}
		if s.Metadata == nil {
			s.Metadata = map[string]string{}
		}
		if s.Metadata[payments.MetaKind] == "" {
			s.Metadata[payments.MetaKind] = rec.Kind
		}

		var outcome string
		switch s.Status {
		case payments.SessionComplete:
			outcome, err = r.ApplyCompleted(ctx, s, SourceSweep)
		case payments.SessionExpired:
			outcome, err = r.ApplyExpired(ctx, s, SourceSweep)
		default:
			outcome = OutcomeOpen
		}
		if err != nil {
			res.Failed++
			r.metrics.Reconcile(OutcomeFailed)
			r.log.Warn("sweep: settle session failed", zap.String("session_id", rec.SessionID), zap.Error(err))
			continue
		}
		switch outcome {
		case OutcomeCompleted:
			res.Completed++
		case OutcomeExpired:
			res.Expired++
		default:
			res.Open++
		}
		r.metrics.Reconcile(outcome)
	}
	return res, nil
}
