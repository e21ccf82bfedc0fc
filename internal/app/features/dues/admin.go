// internal/app/features/dues/admin.go
package dues

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dalemusser/rotaractportal/internal/app/store/audit"
	duescyclestore "github.com/dalemusser/rotaractportal/internal/app/store/duescycles"
	memberduesstore "github.com/dalemusser/rotaractportal/internal/app/store/memberdues"
	memberstore "github.com/dalemusser/rotaractportal/internal/app/store/members"
	"github.com/dalemusser/rotaractportal/internal/app/system/apiresp"
	"github.com/dalemusser/rotaractportal/internal/app/system/authz"
	"github.com/dalemusser/rotaractportal/internal/app/system/inputval"
	"github.com/dalemusser/rotaractportal/internal/app/system/money"
	"github.com/dalemusser/rotaractportal/internal/app/system/timeouts"
	"github.com/dalemusser/rotaractportal/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// HandleCreateCycle opens a new dues period.
func (h *Handler) HandleCreateCycle(w http.ResponseWriter, r *http.Request) {
	_, _, uid, _ := authz.UserCtx(r)
	var in cycleInput
	if err := apiresp.Decode(w, r, &in); err != nil {
		h.ErrLog.Fail(w, r, "decode dues cycle", err)
		return
	}
	if res := inputval.Validate(in); res.HasErrors() {
		apiresp.BadRequest(w, res.First())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	c, err := duescyclestore.New(h.DB).Create(ctx, models.DuesCycle{
		Name:     in.Name,
		Amount:   int64(in.Amount),
		StartsAt: in.StartsAt,
		EndsAt:   in.EndsAt,
		Active:   in.Active,
	})
	if err != nil {
		h.ErrLog.Fail(w, r, "create dues cycle failed", err)
		return
	}
	h.AuditLog.Finance(ctx, r, audit.EventDuesCycleCreated, uid, c.ID, map[string]string{
		"name":   c.Name,
		"amount": money.Format(c.Amount),
	})
	apiresp.Created(w, map[string]any{"cycle": c})
}

// HandleSetActive opens or closes a cycle for payment.
func (h *Handler) HandleSetActive(w http.ResponseWriter, r *http.Request) {
	_, _, uid, _ := authz.UserCtx(r)
	id, err := pathID(r)
	if err != nil {
		h.ErrLog.Fail(w, r, "dues cycle id", err)
		return
	}
	var in activeInput
	if err := apiresp.Decode(w, r, &in); err != nil {
		h.ErrLog.Fail(w, r, "decode dues cycle", err)
		return
	}
	if res := inputval.Validate(in); res.HasErrors() {
		apiresp.BadRequest(w, res.First())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	store := duescyclestore.New(h.DB)
	if err := store.SetActive(ctx, id, *in.Active); err != nil {
		h.ErrLog.Fail(w, r, "set dues cycle active failed", err)
		return
	}
	h.AuditLog.Finance(ctx, r, audit.EventDuesCycleUpdated, uid, id, map[string]string{
		"active": strconv.FormatBool(*in.Active),
	})
	c, err := store.GetByID(ctx, id)
	if err != nil {
		h.ErrLog.Fail(w, r, "get dues cycle failed", err)
		return
	}
	apiresp.OK(w, map[string]any{"cycle": c})
}

type paymentRow struct {
	models.MemberDues
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ServeCyclePayments lists every member's dues record for one cycle, with
// paid and pending totals.
func (h *Handler) ServeCyclePayments(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.ErrLog.Fail(w, r, "dues cycle id", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	cycle, err := duescyclestore.New(h.DB).GetByID(ctx, id)
	if err != nil {
		h.ErrLog.Fail(w, r, "get dues cycle failed", err)
		return
	}
	records, err := memberduesstore.New(h.DB).ListByCycle(ctx, id)
	if err != nil {
		h.ErrLog.ServerError(w, r, "list member dues failed", err)
		return
	}
	ids := make([]primitive.ObjectID, 0, len(records))
	for _, d := range records {
		ids = append(ids, d.MemberID)
	}
	contacts, err := memberstore.New(h.DB).Contacts(ctx, ids)
	if err != nil {
		h.ErrLog.ServerError(w, r, "load member contacts failed", err)
		return
	}

	var paid, pending int64
	rows := make([]paymentRow, 0, len(records))
	for _, d := range records {
		ct := contacts[d.MemberID]
		rows = append(rows, paymentRow{MemberDues: d, Name: ct.Name, Email: ct.Email})
		switch d.Status {
		case models.PaymentPaid:
			paid += d.Amount
		case models.PaymentPending:
			pending += d.Amount
		}
	}
	apiresp.OK(w, map[string]any{
		"cycle":         cycle,
		"payments":      rows,
		"total_paid":    paid,
		"total_pending": pending,
	})
}
