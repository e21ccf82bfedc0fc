// internal/app/features/committees/admin.go
package committees

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/dalemusser/rotaractportal/internal/app/policy/committeepolicy"
	"github.com/dalemusser/rotaractportal/internal/app/store/audit"
	committeestore "github.com/dalemusser/rotaractportal/internal/app/store/committees"
	"github.com/dalemusser/rotaractportal/internal/app/system/apiresp"
	"github.com/dalemusser/rotaractportal/internal/app/system/authz"
	"github.com/dalemusser/rotaractportal/internal/app/system/inputval"
	"github.com/dalemusser/rotaractportal/internal/app/system/timeouts"
	"github.com/dalemusser/rotaractportal/internal/domain/errs"
	"github.com/dalemusser/rotaractportal/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// leaderID parses an optional chair or co-chair id. An empty string clears.
func leaderID(raw *string, label string) (id *primitive.ObjectID, cleared bool, err error) {
	if raw == nil {
		return nil, false, nil
	}
	s := strings.TrimSpace(*raw)
	if s == "" {
		return nil, true, nil
	}
	oid, perr := primitive.ObjectIDFromHex(s)
	if perr != nil {
		return nil, false, errs.Invalid("invalid %s id", label)
	}
	return &oid, false, nil
}

func (h *Handler) decodeAdmin(w http.ResponseWriter, r *http.Request) (adminInput, bool) {
	var in adminInput
	if err := apiresp.Decode(w, r, &in); err != nil {
		h.ErrLog.Fail(w, r, "decode committee", err)
		return in, false
	}
	if res := inputval.Validate(in); res.HasErrors() {
		apiresp.BadRequest(w, res.First())
		return in, false
	}
	return in, true
}

// HandleCreate adds a committee with an empty roster.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if err := committeepolicy.CanAdminister(r); err != nil {
		h.ErrLog.Fail(w, r, "create committee", err)
		return
	}
	_, _, uid, _ := authz.UserCtx(r)
	in, ok := h.decodeAdmin(w, r)
	if !ok {
		return
	}
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		apiresp.BadRequest(w, "name is required")
		return
	}
	c := models.Committee{Name: *in.Name}
	if in.Description != nil {
		c.Description = strings.TrimSpace(*in.Description)
	}
	if in.Capacity != nil {
		c.Capacity = *in.Capacity
	}
	var err error
	if c.ChairID, _, err = leaderID(in.ChairID, "chair"); err != nil {
		h.ErrLog.Fail(w, r, "create committee", err)
		return
	}
	if c.CoChairID, _, err = leaderID(in.CoChairID, "co-chair"); err != nil {
		h.ErrLog.Fail(w, r, "create committee", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	created, err := committeestore.New(h.DB).Create(ctx, c)
	if err != nil {
		h.ErrLog.Fail(w, r, "create committee failed", err)
		return
	}
	h.AuditLog.Admin(ctx, r, audit.EventCommitteeCreated, uid, created.ID, map[string]string{
		"name":     created.Name,
		"capacity": strconv.Itoa(created.Capacity),
	})
	apiresp.Created(w, map[string]any{"committee": toView(created, uid)})
}

// HandleUpdate edits a committee. Raising the capacity promotes waitlisted
// members in order until the committee is full.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	if err := committeepolicy.CanAdminister(r); err != nil {
		h.ErrLog.Fail(w, r, "update committee", err)
		return
	}
	_, _, uid, _ := authz.UserCtx(r)
	id, err := pathID(r, "id")
	if err != nil {
		h.ErrLog.Fail(w, r, "committee id", err)
		return
	}
	in, ok := h.decodeAdmin(w, r)
	if !ok {
		return
	}

	settings := committeestore.Settings{Name: in.Name, Description: in.Description, Capacity: in.Capacity}
	if settings.ChairID, settings.ClearChair, err = leaderID(in.ChairID, "chair"); err != nil {
		h.ErrLog.Fail(w, r, "update committee", err)
		return
	}
	if settings.CoChairID, settings.ClearCoChair, err = leaderID(in.CoChairID, "co-chair"); err != nil {
		h.ErrLog.Fail(w, r, "update committee", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	c, promoted, err := committeestore.New(h.DB).UpdateSettings(ctx, id, settings)
	if err != nil {
		h.ErrLog.Fail(w, r, "update committee failed", err)
		return
	}
	h.AuditLog.Admin(ctx, r, audit.EventCommitteeUpdated, uid, c.ID, map[string]string{
		"capacity": strconv.Itoa(c.Capacity),
		"promoted": strconv.Itoa(len(promoted)),
	})
	h.announcePromotions(ctx, r, c, promoted, uid, triggerCapacity)

	ids := make([]string, len(promoted))
	for i, p := range promoted {
		ids[i] = p.Hex()
	}
	apiresp.OK(w, map[string]any{
		"committee":           toView(c, uid),
		"promoted_member_ids": ids,
	})
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := committeepolicy.CanAdminister(r); err != nil {
		h.ErrLog.Fail(w, r, "delete committee", err)
		return
	}
	_, _, uid, _ := authz.UserCtx(r)
	id, err := pathID(r, "id")
	if err != nil {
		h.ErrLog.Fail(w, r, "committee id", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := committeestore.New(h.DB).Delete(ctx, id); err != nil {
		h.ErrLog.Fail(w, r, "delete committee failed", err)
		return
	}
	h.AuditLog.Admin(ctx, r, audit.EventCommitteeDeleted, uid, id, nil)
	w.WriteHeader(http.StatusNoContent)
}
