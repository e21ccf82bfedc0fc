// internal/app/features/finance/activities.go
package finance

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/rotaractportal/internal/app/policy/financepolicy"
	activitystore "github.com/dalemusser/rotaractportal/internal/app/store/activities"
	"github.com/dalemusser/rotaractportal/internal/app/store/audit"
	"github.com/dalemusser/rotaractportal/internal/app/system/apiresp"
	"github.com/dalemusser/rotaractportal/internal/app/system/authz"
	"github.com/dalemusser/rotaractportal/internal/app/system/inputval"
	"github.com/dalemusser/rotaractportal/internal/app/system/money"
	"github.com/dalemusser/rotaractportal/internal/app/system/timeouts"
	"github.com/dalemusser/rotaractportal/internal/domain/models"
	"go.uber.org/zap"
)

// ServeActivities lists activities. Officers see every activity; other
// members see only the approved ones they may file expenses against.
func (h *Handler) ServeActivities(w http.ResponseWriter, r *http.Request) {
	_, _, _, ok := authz.UserCtx(r)
	if !ok {
		apiresp.Unauthorized(w)
		return
	}
	status := strings.TrimSpace(r.URL.Query().Get("status"))

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	list, err := activitystore.New(h.DB).List(ctx, status)
	if err != nil {
		h.ErrLog.ServerError(w, r, "list activities failed", err)
		return
	}
	if !authz.IsOfficer(r) {
		visible := list[:0]
		for _, a := range list {
			if financepolicy.CanSubmitExpense(r, a) == nil {
				visible = append(visible, a)
			}
		}
		list = visible
	}
	apiresp.OK(w, map[string]any{"activities": list})
}

func (h *Handler) ServeActivity(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.ErrLog.Fail(w, r, "activity id", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	a, err := activitystore.New(h.DB).GetByID(ctx, id)
	if err != nil {
		h.ErrLog.Fail(w, r, "get activity failed", err)
		return
	}
	if !authz.IsOfficer(r) && financepolicy.CanSubmitExpense(r, a) != nil {
		apiresp.NotFound(w, "activity not found")
		return
	}
	apiresp.OK(w, map[string]any{"activity": a})
}

func (h *Handler) decodeActivity(w http.ResponseWriter, r *http.Request) (activityInput, bool) {
	var in activityInput
	if err := apiresp.Decode(w, r, &in); err != nil {
		h.ErrLog.Fail(w, r, "decode activity", err)
		return in, false
	}
	if res := inputval.Validate(in); res.HasErrors() {
		apiresp.BadRequest(w, res.First())
		return in, false
	}
	if in.BudgetAmount != nil && *in.BudgetAmount < 0 {
		apiresp.BadRequest(w, "budget amount must not be negative")
		return in, false
	}
	return in, true
}

// HandleCreateActivity records a new draft budget.
func (h *Handler) HandleCreateActivity(w http.ResponseWriter, r *http.Request) {
	if err := financepolicy.CanManageActivities(r); err != nil {
		h.ErrLog.Fail(w, r, "create activity", err)
		return
	}
	_, _, uid, _ := authz.UserCtx(r)
	in, ok := h.decodeActivity(w, r)
	if !ok {
		return
	}
	if in.Title == nil || strings.TrimSpace(*in.Title) == "" {
		apiresp.BadRequest(w, "title is required")
		return
	}

	a := models.Activity{
		Title:                    strings.TrimSpace(*in.Title),
		AllowedExpenseSubmitters: parseIDs(in.AllowedExpenseSubmitters),
		CreatedBy:                uid,
	}
	if in.Description != nil {
		a.Description = *in.Description
	}
	if in.BudgetAmount != nil {
		a.Budget.Amount = int64(*in.BudgetAmount)
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	created, err := activitystore.New(h.DB).Create(ctx, a)
	if err != nil {
		h.ErrLog.Fail(w, r, "create activity failed", err)
		return
	}
	h.AuditLog.Finance(ctx, r, audit.EventActivityCreated, uid, created.ID, map[string]string{
		"title":  created.Title,
		"budget": money.Format(created.Budget.Amount),
	})
	apiresp.Created(w, map[string]any{"activity": created})
}

// HandleUpdateActivity edits a draft.
func (h *Handler) HandleUpdateActivity(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.ErrLog.Fail(w, r, "activity id", err)
		return
	}
	if err := financepolicy.CanManageActivities(r); err != nil {
		h.ErrLog.Fail(w, r, "update activity", err)
		return
	}
	in, ok := h.decodeActivity(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	store := activitystore.New(h.DB)
	a, err := store.GetByID(ctx, id)
	if err != nil {
		h.ErrLog.Fail(w, r, "get activity failed", err)
		return
	}
	if err := financepolicy.CanEditActivity(r, a); err != nil {
		h.ErrLog.Fail(w, r, "update activity", err)
		return
	}

	patch := activitystore.Patch{Title: in.Title, Description: in.Description}
	if in.BudgetAmount != nil {
		cents := int64(*in.BudgetAmount)
		patch.BudgetAmount = &cents
	}
	if in.AllowedExpenseSubmitters != nil {
		patch.AllowedExpenseSubmitters = parseIDs(in.AllowedExpenseSubmitters)
	}
	updated, err := store.UpdateDraft(ctx, id, patch)
	if err != nil {
		h.ErrLog.Fail(w, r, "update activity failed", err)
		return
	}
	apiresp.OK(w, map[string]any{"activity": updated})
}

// HandleSubmitActivity sends a draft to the president.
func (h *Handler) HandleSubmitActivity(w http.ResponseWriter, r *http.Request) {
	if err := financepolicy.CanManageActivities(r); err != nil {
		h.ErrLog.Fail(w, r, "submit activity", err)
		return
	}
	_, _, uid, _ := authz.UserCtx(r)
	id, err := pathID(r)
	if err != nil {
		h.ErrLog.Fail(w, r, "activity id", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	a, err := activitystore.New(h.DB).Submit(ctx, id)
	if err != nil {
		h.ErrLog.Fail(w, r, "submit activity failed", err)
		return
	}
	h.AuditLog.Finance(ctx, r, audit.EventActivitySubmitted, uid, a.ID, nil)
	apiresp.OK(w, map[string]any{"activity": a})
}

// HandleApproveActivity is the president's approval.
func (h *Handler) HandleApproveActivity(w http.ResponseWriter, r *http.Request) {
	if err := financepolicy.CanDecideBudget(r); err != nil {
		h.ErrLog.Fail(w, r, "approve activity", err)
		return
	}
	_, _, uid, _ := authz.UserCtx(r)
	id, err := pathID(r)
	if err != nil {
		h.ErrLog.Fail(w, r, "activity id", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	a, err := activitystore.New(h.DB).Approve(ctx, id, uid)
	if err != nil {
		h.ErrLog.Fail(w, r, "approve activity failed", err)
		return
	}
	h.Metrics.Decision("activity", "approved")
	h.AuditLog.Finance(ctx, r, audit.EventActivityApproved, uid, a.ID, map[string]string{
		"budget": money.Format(a.Budget.Amount),
	})
	h.Log.Info("activity budget approved", zap.String("activity_id", a.ID.Hex()))
	apiresp.OK(w, map[string]any{"activity": a})
}

// HandleRejectActivity returns a pending budget to draft with a reason.
func (h *Handler) HandleRejectActivity(w http.ResponseWriter, r *http.Request) {
	if err := financepolicy.CanDecideBudget(r); err != nil {
		h.ErrLog.Fail(w, r, "reject activity", err)
		return
	}
	_, _, uid, _ := authz.UserCtx(r)
	id, err := pathID(r)
	if err != nil {
		h.ErrLog.Fail(w, r, "activity id", err)
		return
	}
	var in rejectInput
	if err := apiresp.Decode(w, r, &in); err != nil {
		h.ErrLog.Fail(w, r, "decode reject", err)
		return
	}
	in.Reason = strings.TrimSpace(in.Reason)
	if res := inputval.Validate(in); res.HasErrors() {
		apiresp.BadRequest(w, res.First())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	a, err := activitystore.New(h.DB).Reject(ctx, id, uid, in.Reason)
	if err != nil {
		h.ErrLog.Fail(w, r, "reject activity failed", err)
		return
	}
	h.Metrics.Decision("activity", "rejected")
	h.AuditLog.Finance(ctx, r, audit.EventActivityRejected, uid, a.ID, map[string]string{
		"reason": in.Reason,
	})
	apiresp.OK(w, map[string]any{"activity": a})
}
