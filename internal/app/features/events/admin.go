// internal/app/features/events/admin.go
package events

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/rotaractportal/internal/app/store/audit"
	eventstore "github.com/dalemusser/rotaractportal/internal/app/store/events"
	rsvpstore "github.com/dalemusser/rotaractportal/internal/app/store/rsvps"
	"github.com/dalemusser/rotaractportal/internal/app/system/apiresp"
	"github.com/dalemusser/rotaractportal/internal/app/system/authz"
	"github.com/dalemusser/rotaractportal/internal/app/system/htmlsanitize"
	"github.com/dalemusser/rotaractportal/internal/app/system/inputval"
	"github.com/dalemusser/rotaractportal/internal/app/system/timeouts"
	"github.com/dalemusser/rotaractportal/internal/domain/models"
)

func (h *Handler) decodeEvent(w http.ResponseWriter, r *http.Request) (eventInput, bool) {
	var in eventInput
	if err := apiresp.Decode(w, r, &in); err != nil {
		h.ErrLog.Fail(w, r, "decode event", err)
		return in, false
	}
	if res := inputval.Validate(in); res.HasErrors() {
		apiresp.BadRequest(w, res.First())
		return in, false
	}
	if in.Description != nil {
		clean := htmlsanitize.Sanitize(*in.Description)
		in.Description = &clean
	}
	return in, true
}

// ServeAdminList returns every event, drafts and cancelled ones included.
func (h *Handler) ServeAdminList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	list, err := eventstore.New(h.DB).List(ctx, eventstore.Filter{})
	if err != nil {
		h.ErrLog.ServerError(w, r, "list events failed", err)
		return
	}
	apiresp.OK(w, map[string]any{"events": list})
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	_, _, uid, _ := authz.UserCtx(r)
	in, ok := h.decodeEvent(w, r)
	if !ok {
		return
	}
	if in.Title == nil || strings.TrimSpace(*in.Title) == "" {
		apiresp.BadRequest(w, "title is required")
		return
	}
	if in.StartsAt == nil {
		apiresp.BadRequest(w, "start time is required")
		return
	}

	e := models.Event{
		Title:    *in.Title,
		StartsAt: in.StartsAt.UTC(),
		Pricing:  in.Pricing.model(),
	}
	if in.Description != nil {
		e.Description = *in.Description
	}
	if in.Location != nil {
		e.Location = *in.Location
	}
	if in.Capacity != nil {
		e.Capacity = *in.Capacity
	}
	if in.Visibility != nil {
		e.Visibility = *in.Visibility
	}
	if in.Status != nil {
		e.Status = *in.Status
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	created, err := eventstore.New(h.DB).Create(ctx, e)
	if err != nil {
		h.ErrLog.Fail(w, r, "create event failed", err)
		return
	}
	h.AuditLog.Admin(ctx, r, audit.EventEventCreated, uid, created.ID, map[string]string{"title": created.Title})
	apiresp.Created(w, map[string]any{"event": created})
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	_, _, uid, _ := authz.UserCtx(r)
	id, err := pathID(r)
	if err != nil {
		h.ErrLog.Fail(w, r, "event id", err)
		return
	}
	in, ok := h.decodeEvent(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	updated, err := eventstore.New(h.DB).Update(ctx, id, eventstore.Patch{
		Title:        in.Title,
		Description:  in.Description,
		Location:     in.Location,
		StartsAt:     in.StartsAt,
		Capacity:     in.Capacity,
		Visibility:   in.Visibility,
		Status:       in.Status,
		Pricing:      in.Pricing.model(),
		ClearPricing: in.ClearPricing,
	})
	if err != nil {
		h.ErrLog.Fail(w, r, "update event failed", err)
		return
	}
	h.AuditLog.Admin(ctx, r, audit.EventEventUpdated, uid, id, map[string]string{"status": updated.Status})
	apiresp.OK(w, map[string]any{"event": updated})
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	_, _, uid, _ := authz.UserCtx(r)
	id, err := pathID(r)
	if err != nil {
		h.ErrLog.Fail(w, r, "event id", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := eventstore.New(h.DB).Delete(ctx, id); err != nil {
		h.ErrLog.Fail(w, r, "delete event failed", err)
		return
	}
	h.AuditLog.Admin(ctx, r, audit.EventEventDeleted, uid, id, nil)
	w.WriteHeader(http.StatusNoContent)
}

// ServeRSVPs lists the attendance records for one event.
func (h *Handler) ServeRSVPs(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.ErrLog.Fail(w, r, "event id", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if _, err := eventstore.New(h.DB).GetByID(ctx, id); err != nil {
		h.ErrLog.Fail(w, r, "get event failed", err)
		return
	}
	list, err := rsvpstore.New(h.DB).ListByEvent(ctx, id)
	if err != nil {
		h.ErrLog.ServerError(w, r, "list rsvps failed", err)
		return
	}
	tickets := 0
	for _, v := range list {
		if v.PaymentStatus != models.PaymentUnpaid {
			tickets += v.Tickets
		}
	}
	apiresp.OK(w, map[string]any{"rsvps": list, "tickets_held": tickets})
}
