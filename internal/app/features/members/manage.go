// internal/app/features/members/manage.go
package members

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/rotaractportal/internal/app/policy/memberpolicy"
	memberstore "github.com/dalemusser/rotaractportal/internal/app/store/members"
	"github.com/dalemusser/rotaractportal/internal/app/system/apiresp"
	"github.com/dalemusser/rotaractportal/internal/app/system/authz"
	"github.com/dalemusser/rotaractportal/internal/app/system/inputval"
	"github.com/dalemusser/rotaractportal/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// HandleSetRole changes a member's role. President only.
func (h *Handler) HandleSetRole(w http.ResponseWriter, r *http.Request) {
	if !authz.IsPresident(r) {
		h.ErrLog.Fail(w, r, "set role", memberpolicy.ErrPresidentOnly)
		return
	}
	_, _, actor, _ := authz.UserCtx(r)
	id, err := pathID(r)
	if err != nil {
		h.ErrLog.Fail(w, r, "member id", err)
		return
	}
	var in roleInput
	if err := apiresp.Decode(w, r, &in); err != nil {
		h.ErrLog.Fail(w, r, "decode role", err)
		return
	}
	in.Role = strings.ToLower(strings.TrimSpace(in.Role))
	if res := inputval.Validate(in); res.HasErrors() {
		apiresp.BadRequest(w, res.First())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	store := memberstore.New(h.DB)
	m, err := store.GetByID(ctx, id)
	if err != nil {
		h.ErrLog.Fail(w, r, "get member failed", err)
		return
	}
	if err := memberpolicy.CanChangeRole(r, m); err != nil {
		h.ErrLog.Fail(w, r, "set role", err)
		return
	}
	if m.Role != in.Role {
		if err := store.SetRole(ctx, id, in.Role); err != nil {
			h.ErrLog.Fail(w, r, "set role failed", err)
			return
		}
		h.AuditLog.RoleChanged(ctx, r, actor, id, m.Role, in.Role)
		h.Log.Info("member role changed",
			zap.String("member_id", id.Hex()),
			zap.String("from", m.Role),
			zap.String("to", in.Role))
		m.Role = in.Role
	}
	apiresp.OK(w, map[string]any{"member": toRow(m)})
}

// HandleSetStatus changes a member's status. Officers only.
func (h *Handler) HandleSetStatus(w http.ResponseWriter, r *http.Request) {
	if err := memberpolicy.CanListMembers(r); err != nil {
		h.ErrLog.Fail(w, r, "set status", err)
		return
	}
	_, _, actor, _ := authz.UserCtx(r)
	id, err := pathID(r)
	if err != nil {
		h.ErrLog.Fail(w, r, "member id", err)
		return
	}
	var in statusInput
	if err := apiresp.Decode(w, r, &in); err != nil {
		h.ErrLog.Fail(w, r, "decode status", err)
		return
	}
	in.Status = strings.ToLower(strings.TrimSpace(in.Status))
	if res := inputval.Validate(in); res.HasErrors() {
		apiresp.BadRequest(w, res.First())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	store := memberstore.New(h.DB)
	m, err := store.GetByID(ctx, id)
	if err != nil {
		h.ErrLog.Fail(w, r, "get member failed", err)
		return
	}
	if err := memberpolicy.CanChangeStatus(r, m); err != nil {
		h.ErrLog.Fail(w, r, "set status", err)
		return
	}
	if m.Status != in.Status {
		if err := store.SetStatus(ctx, id, in.Status); err != nil {
			h.ErrLog.Fail(w, r, "set status failed", err)
			return
		}
		h.AuditLog.StatusChanged(ctx, r, actor, id, m.Status, in.Status)
		if updated, err := store.GetByID(ctx, id); err == nil {
			m = updated
		} else {
			m.Status = in.Status
		}
	}
	apiresp.OK(w, map[string]any{"member": toRow(m)})
}
