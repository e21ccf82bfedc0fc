// internal/app/features/members/list.go
package members

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/rotaractportal/internal/app/policy/memberpolicy"
	memberstore "github.com/dalemusser/rotaractportal/internal/app/store/members"
	"github.com/dalemusser/rotaractportal/internal/app/system/apiresp"
	"github.com/dalemusser/rotaractportal/internal/app/system/paging"
	"github.com/dalemusser/rotaractportal/internal/app/system/timeouts"
	"github.com/dalemusser/rotaractportal/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ServeList returns one page of the member directory, filtered by role,
// status and a name prefix (q). Pages are keyset cursors passed back as
// ?after= or ?before=.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	if err := memberpolicy.CanListMembers(r); err != nil {
		h.ErrLog.Fail(w, r, "list members", err)
		return
	}
	f := memberstore.Filter{
		Role:   strings.TrimSpace(query.Get(r, "role")),
		Status: strings.TrimSpace(query.Get(r, "status")),
		Search: strings.TrimSpace(query.Get(r, "q")),
	}
	if f.Role != "" && !models.ValidRole(f.Role) {
		apiresp.BadRequest(w, "unknown role filter")
		return
	}
	if f.Status != "" && !models.ValidMemberStatus(f.Status) {
		apiresp.BadRequest(w, "unknown status filter")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	before, after := paging.Cursors(r)
	cfg := paging.ConfigureKeyset(before, after)
	list, err := memberstore.New(h.DB).ListPage(ctx, f, cfg)
	if err != nil {
		h.ErrLog.ServerError(w, r, "list members failed", err)
		return
	}
	page := paging.TrimPage(&list, before, after)
	if cfg.Direction == paging.Backward {
		paging.Reverse(list)
	}
	prev, next := paging.BuildCursors(list,
		func(m models.Member) string { return m.FullNameCI },
		func(m models.Member) primitive.ObjectID { return m.ID })

	rows := make([]memberRow, 0, len(list))
	for _, m := range list {
		rows = append(rows, toRow(m))
	}
	body := map[string]any{"members": rows}
	if page.HasPrev {
		body["prev_cursor"] = prev
	}
	if page.HasNext {
		body["next_cursor"] = next
	}
	apiresp.OK(w, body)
}

func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	if err := memberpolicy.CanListMembers(r); err != nil {
		h.ErrLog.Fail(w, r, "get member", err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		h.ErrLog.Fail(w, r, "member id", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	m, err := memberstore.New(h.DB).GetByID(ctx, id)
	if err != nil {
		h.ErrLog.Fail(w, r, "get member failed", err)
		return
	}
	apiresp.OK(w, map[string]any{"member": toRow(m)})
}
