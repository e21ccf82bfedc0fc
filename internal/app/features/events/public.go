// internal/app/features/events/public.go
package events

import (
	"context"
	"net/http"
	"time"

	eventstore "github.com/dalemusser/rotaractportal/internal/app/store/events"
	rsvpstore "github.com/dalemusser/rotaractportal/internal/app/store/rsvps"
	"github.com/dalemusser/rotaractportal/internal/app/system/apiresp"
	"github.com/dalemusser/rotaractportal/internal/app/system/auth"
	"github.com/dalemusser/rotaractportal/internal/app/system/authz"
	"github.com/dalemusser/rotaractportal/internal/app/system/pricing"
	"github.com/dalemusser/rotaractportal/internal/app/system/timeouts"
	"github.com/dalemusser/rotaractportal/internal/domain/models"
)

// buyer describes the caller for price resolution.
func buyer(r *http.Request) pricing.Buyer {
	u, ok := auth.CurrentUser(r)
	if !ok {
		return pricing.Buyer{}
	}
	return pricing.Buyer{Member: true, Active: u.IsActive()}
}

// visible reports whether the caller may see e at all. Drafts and
// cancelled events stay hidden from non-officers; members-only events need
// an active member.
func visible(r *http.Request, e models.Event) bool {
	if authz.IsOfficer(r) {
		return true
	}
	if e.Status != models.EventPublished {
		return false
	}
	return e.Visibility == models.VisibilityPublic || authz.IsActiveMember(r)
}

// ServeList returns upcoming published events the caller can see.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	from := time.Now().UTC().Add(-12 * time.Hour)
	f := eventstore.Filter{PublishedOnly: true, From: &from, PublicOnly: !authz.IsActiveMember(r)}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	list, err := eventstore.New(h.DB).List(ctx, f)
	if err != nil {
		h.ErrLog.ServerError(w, r, "list events failed", err)
		return
	}
	b := buyer(r)
	now := time.Now()
	out := make([]eventView, 0, len(list))
	for _, e := range list {
		out = append(out, eventView{Event: e, Quote: pricing.Resolve(e.Pricing, b, now)})
	}
	apiresp.OK(w, map[string]any{"events": out})
}

// ServeGet returns one event with seats left and the caller's price.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.ErrLog.Fail(w, r, "event id", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	e, err := eventstore.New(h.DB).GetByID(ctx, id)
	if err != nil {
		h.ErrLog.Fail(w, r, "get event failed", err)
		return
	}
	if !visible(r, e) {
		apiresp.NotFound(w, "event not found")
		return
	}
	view := eventView{Event: e, Quote: pricing.Resolve(e.Pricing, buyer(r), time.Now())}
	if e.Capacity > 0 {
		held, err := rsvpstore.New(h.DB).TicketsHeld(ctx, e.ID)
		if err != nil {
			h.ErrLog.ServerError(w, r, "count tickets failed", err)
			return
		}
		left := e.Capacity - held
		if left < 0 {
			left = 0
		}
		view.SeatsLeft = &left
	}
	apiresp.OK(w, map[string]any{"event": view})
}
