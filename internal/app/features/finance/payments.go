// internal/app/features/finance/payments.go
package finance

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/rotaractportal/internal/app/policy/financepolicy"
	"github.com/dalemusser/rotaractportal/internal/app/store/audit"
	duescyclestore "github.com/dalemusser/rotaractportal/internal/app/store/duescycles"
	eventstore "github.com/dalemusser/rotaractportal/internal/app/store/events"
	memberduesstore "github.com/dalemusser/rotaractportal/internal/app/store/memberdues"
	memberstore "github.com/dalemusser/rotaractportal/internal/app/store/members"
	offlinepaymentstore "github.com/dalemusser/rotaractportal/internal/app/store/offlinepayments"
	rsvpstore "github.com/dalemusser/rotaractportal/internal/app/store/rsvps"
	"github.com/dalemusser/rotaractportal/internal/app/system/apiresp"
	"github.com/dalemusser/rotaractportal/internal/app/system/authz"
	"github.com/dalemusser/rotaractportal/internal/app/system/inputval"
	"github.com/dalemusser/rotaractportal/internal/app/system/money"
	"github.com/dalemusser/rotaractportal/internal/app/system/timeouts"
	"github.com/dalemusser/rotaractportal/internal/app/system/txn"
	"github.com/dalemusser/rotaractportal/internal/domain/errs"
	"github.com/dalemusser/rotaractportal/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// HandleReportPayment lets an active member report a cash, check or
// transfer payment for a dues cycle or an event.
func (h *Handler) HandleReportPayment(w http.ResponseWriter, r *http.Request) {
	_, _, uid, ok := authz.UserCtx(r)
	if !ok {
		apiresp.Unauthorized(w)
		return
	}
	if !authz.IsActiveMember(r) {
		apiresp.Forbidden(w, "only active members can report payments")
		return
	}
	var in offlinePaymentInput
	if err := apiresp.Decode(w, r, &in); err != nil {
		h.ErrLog.Fail(w, r, "decode offline payment", err)
		return
	}
	in.Type = strings.ToLower(strings.TrimSpace(in.Type))
	in.Method = strings.ToLower(strings.TrimSpace(in.Method))
	if res := inputval.Validate(in); res.HasErrors() {
		apiresp.BadRequest(w, res.First())
		return
	}
	relatedID, _ := primitive.ObjectIDFromHex(in.RelatedID)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	switch in.Type {
	case models.PaymentForDues:
		if _, err := duescyclestore.New(h.DB).GetByID(ctx, relatedID); err != nil {
			h.ErrLog.Fail(w, r, "get dues cycle failed", err)
			return
		}
	case models.PaymentForEvent:
		if _, err := eventstore.New(h.DB).GetByID(ctx, relatedID); err != nil {
			h.ErrLog.Fail(w, r, "get event failed", err)
			return
		}
	}

	p, err := offlinepaymentstore.New(h.DB).Create(ctx, models.OfflinePayment{
		Type:      in.Type,
		RelatedID: relatedID,
		MemberID:  uid,
		Amount:    int64(in.Amount),
		Method:    in.Method,
		Reference: in.Reference,
	})
	if err != nil {
		h.ErrLog.Fail(w, r, "report offline payment failed", err)
		return
	}
	h.AuditLog.Finance(ctx, r, audit.EventOfflinePaymentReported, uid, p.ID, map[string]string{
		"type":   p.Type,
		"method": p.Method,
		"amount": money.Format(p.Amount),
	})
	apiresp.Created(w, map[string]any{"payment": p})
}

// ServePayments lists offline payments for the treasurer and president.
func (h *Handler) ServePayments(w http.ResponseWriter, r *http.Request) {
	if err := financepolicy.CanListPayments(r); err != nil {
		h.ErrLog.Fail(w, r, "list offline payments", err)
		return
	}
	status := strings.TrimSpace(r.URL.Query().Get("status"))

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	list, err := offlinepaymentstore.New(h.DB).List(ctx, status)
	if err != nil {
		h.ErrLog.ServerError(w, r, "list offline payments failed", err)
		return
	}
	apiresp.OK(w, map[string]any{"payments": list})
}

func (h *Handler) HandleApprovePayment(w http.ResponseWriter, r *http.Request) {
	h.reviewPayment(w, r, true)
}

func (h *Handler) HandleRejectPayment(w http.ResponseWriter, r *http.Request) {
	h.reviewPayment(w, r, false)
}

// reviewPayment records the treasurer's decision. An approval marks the
// member's dues or event RSVP as paid in the same transaction.
func (h *Handler) reviewPayment(w http.ResponseWriter, r *http.Request, approve bool) {
	if err := financepolicy.CanReview(r); err != nil {
		h.ErrLog.Fail(w, r, "review offline payment", err)
		return
	}
	_, _, uid, _ := authz.UserCtx(r)
	id, err := pathID(r)
	if err != nil {
		h.ErrLog.Fail(w, r, "offline payment id", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	var (
		reviewed models.OfflinePayment
		payer    models.Member
	)
	err = txn.Run(ctx, h.DB, h.Log, func(ctx context.Context) error {
		var err error
		reviewed, err = offlinepaymentstore.New(h.DB).Review(ctx, id, uid, approve)
		if err != nil || !approve {
			return err
		}
		switch reviewed.Type {
		case models.PaymentForDues:
			return memberduesstore.New(h.DB).MarkPaidOffline(ctx, reviewed.MemberID, reviewed.RelatedID, reviewed.Amount)
		case models.PaymentForEvent:
			payer, err = memberstore.New(h.DB).GetByID(ctx, reviewed.MemberID)
			if err != nil {
				return err
			}
			return rsvpstore.New(h.DB).UpsertOfflinePaid(ctx, reviewed.RelatedID, payer, reviewed.Amount)
		}
		return errs.Invalid("unknown payment type %q", reviewed.Type)
	})
	if err != nil {
		h.ErrLog.Fail(w, r, "review offline payment failed", err)
		return
	}

	decision, event := models.ReviewRejected, audit.EventOfflinePaymentRejected
	if approve {
		decision, event = models.ReviewApproved, audit.EventOfflinePaymentApproved
	}
	h.Metrics.Decision("offline_payment", decision)
	h.AuditLog.Finance(ctx, r, event, uid, reviewed.ID, map[string]string{
		"type":       reviewed.Type,
		"related_id": reviewed.RelatedID.Hex(),
		"member_id":  reviewed.MemberID.Hex(),
		"amount":     money.Format(reviewed.Amount),
	})
	if approve {
		h.sendReceipt(ctx, reviewed, payer)
	}
	apiresp.OK(w, map[string]any{"payment": reviewed})
}

func (h *Handler) sendReceipt(ctx context.Context, p models.OfflinePayment, payer models.Member) {
	if h.Notify == nil {
		return
	}
	if payer.ID.IsZero() {
		m, err := memberstore.New(h.DB).GetByID(ctx, p.MemberID)
		if err != nil {
			h.Log.Warn("load payer for receipt failed", zap.Error(err), zap.String("payment_id", p.ID.Hex()))
			return
		}
		payer = m
	}
	desc := "Event ticket"
	if p.Type == models.PaymentForDues {
		desc = "Membership dues"
	}
	h.Notify.Receipt(payer.Email, payer.FullName, desc, p.Amount, p.ID.Hex())
}
