// internal/app/features/events/routes.go
package events

import (
	"github.com/dalemusser/rotaractportal/internal/app/system/auth"
	"github.com/dalemusser/rotaractportal/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// Routes mounts under /api/events. Listing and registration are open to
// guests; members-only events need an active member.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeList)
	r.Get("/{id}", h.ServeGet)
	r.Post("/{id}/rsvp", h.HandleRSVP)
	r.Post("/{id}/checkout", h.HandleCheckout)
	r.With(auth.RequireRole(authz.OfficerRoles()...)).Get("/{id}/rsvps", h.ServeRSVPs)
	return r
}

// AdminRoutes mounts under /api/admin/events.
func AdminRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireRole(authz.OfficerRoles()...))
	r.Get("/", h.ServeAdminList)
	r.Post("/", h.HandleCreate)
	r.Patch("/{id}", h.HandleUpdate)
	r.Delete("/{id}", h.HandleDelete)
	return r
}
