// internal/app/features/auditlog/routes.go
package auditlog

import (
	"github.com/dalemusser/rotaractportal/internal/app/system/auth"
	"github.com/dalemusser/rotaractportal/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the audit log viewer, typically at /api/admin/audit.
// Only the president and treasurer may read it.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireRole(models.RolePresident, models.RoleTreasurer))
	r.Get("/", h.ServeList)
	return r
}
