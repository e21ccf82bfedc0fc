// internal/app/features/committees/routes.go
package committees

import (
	"github.com/dalemusser/rotaractportal/internal/app/system/auth"
	"github.com/dalemusser/rotaractportal/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// Routes mounts under /api/portal/committees. Joining additionally requires
// an active membership, checked by the policy.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)
	r.Get("/", h.ServeList)
	r.Get("/{id}", h.ServeGet)
	r.Post("/{id}/join", h.HandleJoin)
	r.Post("/{id}/leave", h.HandleLeave)
	r.Post("/{id}/members/{memberID}/remove", h.HandleRemoveMember)
	return r
}

// AdminRoutes mounts under /api/admin/committees.
func AdminRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireRole(authz.OfficerRoles()...))
	r.Post("/", h.HandleCreate)
	r.Patch("/{id}", h.HandleUpdate)
	r.Delete("/{id}", h.HandleDelete)
	return r
}
