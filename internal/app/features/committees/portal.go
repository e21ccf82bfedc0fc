// internal/app/features/committees/portal.go
package committees

import (
	"context"
	"net/http"

	"github.com/dalemusser/rotaractportal/internal/app/policy/committeepolicy"
	"github.com/dalemusser/rotaractportal/internal/app/store/audit"
	committeestore "github.com/dalemusser/rotaractportal/internal/app/store/committees"
	memberstore "github.com/dalemusser/rotaractportal/internal/app/store/members"
	"github.com/dalemusser/rotaractportal/internal/app/system/apiresp"
	"github.com/dalemusser/rotaractportal/internal/app/system/authz"
	"github.com/dalemusser/rotaractportal/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ServeList returns every committee with seat counts and the caller's place.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	_, _, uid, ok := authz.UserCtx(r)
	if !ok {
		apiresp.Unauthorized(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	list, err := committeestore.New(h.DB).List(ctx)
	if err != nil {
		h.ErrLog.ServerError(w, r, "list committees failed", err)
		return
	}
	out := make([]committeeView, 0, len(list))
	for _, c := range list {
		out = append(out, toView(c, uid))
	}
	apiresp.OK(w, map[string]any{"committees": out})
}

// ServeGet returns one committee. Officers and the committee's leaders also
// see the roster and waitlist in order.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	_, _, uid, ok := authz.UserCtx(r)
	if !ok {
		apiresp.Unauthorized(w)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		h.ErrLog.Fail(w, r, "committee id", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	c, err := committeestore.New(h.DB).GetByID(ctx, id)
	if err != nil {
		h.ErrLog.Fail(w, r, "get committee failed", err)
		return
	}
	v := toView(c, uid)
	if authz.IsOfficer(r) || c.IsLeader(uid) {
		ids := append(append([]primitive.ObjectID{}, c.MemberIDs...), c.WaitlistIDs...)
		contacts, err := memberstore.New(h.DB).Contacts(ctx, ids)
		if err != nil {
			h.ErrLog.ServerError(w, r, "load roster contacts failed", err)
			return
		}
		v.Members = roster(c.MemberIDs, contacts)
		v.Waitlist = roster(c.WaitlistIDs, contacts)
	}
	apiresp.OK(w, map[string]any{"committee": v})
}

// HandleJoin seats the caller, or appends them to the waitlist when full.
func (h *Handler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	if err := committeepolicy.CanJoin(r); err != nil {
		h.ErrLog.Fail(w, r, "join committee", err)
		return
	}
	_, _, uid, _ := authz.UserCtx(r)
	id, err := pathID(r, "id")
	if err != nil {
		h.ErrLog.Fail(w, r, "committee id", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	res, err := committeestore.New(h.DB).Join(ctx, id, uid)
	if err != nil {
		h.ErrLog.Fail(w, r, "join committee failed", err)
		return
	}
	h.Log.Info("committee join",
		zap.String("committee_id", res.Committee.ID.Hex()),
		zap.String("member_id", uid.Hex()),
		zap.String("placement", string(res.Placement)))

	apiresp.OK(w, map[string]any{
		"placement": res.Placement,
		"position":  res.Position,
		"committee": toView(res.Committee, uid),
	})
}

// HandleLeave removes the caller. Any signed-in member may leave, whatever
// their status. Leaving a seat promotes the waitlist head; leaving the
// waitlist promotes no one.
func (h *Handler) HandleLeave(w http.ResponseWriter, r *http.Request) {
	_, _, uid, ok := authz.UserCtx(r)
	if !ok {
		apiresp.Unauthorized(w)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		h.ErrLog.Fail(w, r, "committee id", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	res, err := committeestore.New(h.DB).Leave(ctx, id, uid)
	if err != nil {
		h.ErrLog.Fail(w, r, "leave committee failed", err)
		return
	}
	h.announcePromotions(ctx, r, res.Committee, promotedIDs(res), uid, triggerLeave)
	apiresp.OK(w, removalBody(res, uid))
}

// HandleRemoveMember removes a seated member on behalf of an officer or the
// committee chair/co-chair.
func (h *Handler) HandleRemoveMember(w http.ResponseWriter, r *http.Request) {
	_, _, uid, ok := authz.UserCtx(r)
	if !ok {
		apiresp.Unauthorized(w)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		h.ErrLog.Fail(w, r, "committee id", err)
		return
	}
	memberID, err := pathID(r, "memberID")
	if err != nil {
		h.ErrLog.Fail(w, r, "member id", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	store := committeestore.New(h.DB)
	c, err := store.GetByID(ctx, id)
	if err != nil {
		h.ErrLog.Fail(w, r, "get committee failed", err)
		return
	}
	if err := committeepolicy.CanRemoveMember(r, c); err != nil {
		h.ErrLog.Fail(w, r, "remove committee member", err)
		return
	}

	res, err := store.RemoveMember(ctx, id, memberID)
	if err != nil {
		h.ErrLog.Fail(w, r, "remove committee member failed", err)
		return
	}
	h.AuditLog.Admin(ctx, r, audit.EventCommitteeRemoval, uid, memberID, map[string]string{
		"committee_id": c.ID.Hex(),
	})
	h.announcePromotions(ctx, r, res.Committee, promotedIDs(res), uid, triggerRemove)
	apiresp.OK(w, removalBody(res, uid))
}

func promotedIDs(res committeestore.RemovalResult) []primitive.ObjectID {
	if res.Promoted == nil {
		return nil
	}
	return []primitive.ObjectID{*res.Promoted}
}

func removalBody(res committeestore.RemovalResult, caller primitive.ObjectID) map[string]any {
	body := map[string]any{
		"was_member": res.WasMember,
		"committee":  toView(res.Committee, caller),
	}
	if res.Promoted != nil {
		body["promoted_member_id"] = res.Promoted.Hex()
	}
	return body
}
