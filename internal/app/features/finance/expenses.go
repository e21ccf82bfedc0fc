// internal/app/features/finance/expenses.go
package finance

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/rotaractportal/internal/app/policy/financepolicy"
	activitystore "github.com/dalemusser/rotaractportal/internal/app/store/activities"
	"github.com/dalemusser/rotaractportal/internal/app/store/audit"
	expensestore "github.com/dalemusser/rotaractportal/internal/app/store/expenses"
	memberstore "github.com/dalemusser/rotaractportal/internal/app/store/members"
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

// ServeExpenses lists expenses, optionally for one activity and status.
// Officers see all; everyone else sees only what they submitted.
func (h *Handler) ServeExpenses(w http.ResponseWriter, r *http.Request) {
	_, _, uid, ok := authz.UserCtx(r)
	if !ok {
		apiresp.Unauthorized(w)
		return
	}
	q := r.URL.Query()
	f := expensestore.Filter{Status: strings.TrimSpace(q.Get("status"))}
	if raw := q.Get("activity_id"); raw != "" {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			apiresp.BadRequest(w, "invalid activity_id")
			return
		}
		f.ActivityID = id
	}
	if !authz.IsOfficer(r) {
		f.SubmittedBy = uid
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	list, err := expensestore.New(h.DB).List(ctx, f)
	if err != nil {
		h.ErrLog.ServerError(w, r, "list expenses failed", err)
		return
	}
	apiresp.OK(w, map[string]any{"expenses": list})
}

// HandleCreateExpense files an expense against an approved activity.
func (h *Handler) HandleCreateExpense(w http.ResponseWriter, r *http.Request) {
	_, _, uid, ok := authz.UserCtx(r)
	if !ok {
		apiresp.Unauthorized(w)
		return
	}
	var in expenseInput
	if err := apiresp.Decode(w, r, &in); err != nil {
		h.ErrLog.Fail(w, r, "decode expense", err)
		return
	}
	in.Description = strings.TrimSpace(in.Description)
	if res := inputval.Validate(in); res.HasErrors() {
		apiresp.BadRequest(w, res.First())
		return
	}
	if in.Amount <= 0 {
		h.ErrLog.Fail(w, r, "create expense", expensestore.ErrInvalidAmount)
		return
	}
	activityID, _ := primitive.ObjectIDFromHex(in.ActivityID)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	a, err := activitystore.New(h.DB).GetByID(ctx, activityID)
	if err != nil {
		h.ErrLog.Fail(w, r, "get activity failed", err)
		return
	}
	if err := financepolicy.CanSubmitExpense(r, a); err != nil {
		h.ErrLog.Fail(w, r, "create expense", err)
		return
	}

	e, err := expensestore.New(h.DB).Create(ctx, models.Expense{
		ActivityID:  a.ID,
		Amount:      int64(in.Amount),
		Description: in.Description,
		Vendor:      strings.TrimSpace(in.Vendor),
		ReceiptURL:  strings.TrimSpace(in.ReceiptURL),
		SubmittedBy: uid,
	})
	if err != nil {
		h.ErrLog.Fail(w, r, "create expense failed", err)
		return
	}
	h.AuditLog.Finance(ctx, r, audit.EventExpenseSubmitted, uid, e.ID, map[string]string{
		"activity_id": a.ID.Hex(),
		"amount":      money.Format(e.Amount),
	})
	apiresp.Created(w, map[string]any{"expense": e})
}

// HandleApproveExpense approves a pending expense and recomputes the
// activity's total spend from every approved expense.
func (h *Handler) HandleApproveExpense(w http.ResponseWriter, r *http.Request) {
	h.reviewExpense(w, r, true)
}

func (h *Handler) HandleRejectExpense(w http.ResponseWriter, r *http.Request) {
	h.reviewExpense(w, r, false)
}

func (h *Handler) reviewExpense(w http.ResponseWriter, r *http.Request, approve bool) {
	if err := financepolicy.CanReview(r); err != nil {
		h.ErrLog.Fail(w, r, "review expense", err)
		return
	}
	_, _, uid, _ := authz.UserCtx(r)
	id, err := pathID(r)
	if err != nil {
		h.ErrLog.Fail(w, r, "expense id", err)
		return
	}
	var in expenseRejectInput
	if !approve {
		if err := apiresp.Decode(w, r, &in); err != nil {
			h.ErrLog.Fail(w, r, "decode expense review", err)
			return
		}
		in.Reason = strings.TrimSpace(in.Reason)
		if res := inputval.Validate(in); res.HasErrors() {
			apiresp.BadRequest(w, res.First())
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	var (
		reviewed models.Expense
		total    int64
	)
	err = txn.Run(ctx, h.DB, h.Log, func(ctx context.Context) error {
		var err error
		reviewed, err = expensestore.New(h.DB).Review(ctx, id, uid, approve, in.Reason)
		if err != nil || !approve {
			return err
		}
		total, err = expensestore.New(h.DB).SumApproved(ctx, reviewed.ActivityID)
		if err != nil {
			return err
		}
		return activitystore.New(h.DB).SetTotalSpent(ctx, reviewed.ActivityID, total)
	})
	if err != nil {
		h.ErrLog.Fail(w, r, "review expense failed", err)
		return
	}

	decision, event := models.ReviewRejected, audit.EventExpenseRejected
	if approve {
		decision, event = models.ReviewApproved, audit.EventExpenseApproved
	}
	h.Metrics.Decision("expense", decision)
	details := map[string]string{
		"activity_id": reviewed.ActivityID.Hex(),
		"amount":      money.Format(reviewed.Amount),
	}
	if approve {
		details["total_spent"] = money.Format(total)
	}
	h.AuditLog.Finance(ctx, r, event, uid, reviewed.ID, details)
	h.notifySubmitter(ctx, reviewed, approve)

	body := map[string]any{"expense": reviewed}
	if approve {
		body["activity_total_spent"] = total
	}
	apiresp.OK(w, body)
}

// notifySubmitter queues the decision email. Failures are logged only; the
// decision itself is already committed.
func (h *Handler) notifySubmitter(ctx context.Context, e models.Expense, approved bool) {
	if h.Notify == nil {
		return
	}
	contacts, err := memberstore.New(h.DB).Contacts(ctx, []primitive.ObjectID{e.SubmittedBy})
	if err != nil {
		h.Log.Warn("load submitter contact failed", zap.Error(err), zap.String("expense_id", e.ID.Hex()))
		return
	}
	ct, ok := contacts[e.SubmittedBy]
	if !ok {
		return
	}
	title := ""
	if a, err := activitystore.New(h.DB).GetByID(ctx, e.ActivityID); err == nil {
		title = a.Title
	} else if errs.KindOf(err) != errs.KindNotFound {
		h.Log.Warn("load activity for decision email failed", zap.Error(err))
	}
	h.Notify.ExpenseDecision(ct.Email, ct.Name, title, e.Amount, approved, e.RejectionReason)
}
