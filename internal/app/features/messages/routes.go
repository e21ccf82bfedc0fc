// internal/app/features/messages/routes.go
package messages

import (
	"github.com/dalemusser/rotaractportal/internal/app/system/auth"
	"github.com/dalemusser/rotaractportal/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the public contact form under /api/messages.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	if h.Limiter != nil {
		r.Use(h.Limiter.Middleware)
	}
	r.Post("/", h.HandleSubmit)
	return r
}

// AdminRoutes mounts under /api/admin/messages.
func AdminRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireRole(authz.OfficerRoles()...))
	r.Get("/", h.ServeList)
	r.Post("/{id}/handled", h.HandleMarkHandled)
	return r
}
