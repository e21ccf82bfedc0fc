// internal/app/features/members/routes.go
package members

import (
	"github.com/dalemusser/rotaractportal/internal/app/system/auth"
	"github.com/dalemusser/rotaractportal/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// Routes mounts under /api/admin/members.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireRole(authz.OfficerRoles()...))
	r.Get("/", h.ServeList)
	r.Post("/import", h.HandleImport)
	r.Get("/{id}", h.ServeGet)
	r.Patch("/{id}/role", h.HandleSetRole)
	r.Patch("/{id}/status", h.HandleSetStatus)
	return r
}
