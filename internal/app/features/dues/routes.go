// internal/app/features/dues/routes.go
package dues

import (
	"github.com/dalemusser/rotaractportal/internal/app/system/auth"
	"github.com/dalemusser/rotaractportal/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts under /api/dues.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)
	r.Get("/cycles", h.ServeCycles)
	r.Get("/me", h.ServeMine)
	r.Post("/checkout", h.HandleCheckout)
	return r
}

// AdminRoutes mounts under /api/admin/dues and is limited to the treasurer
// and president.
func AdminRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireRole(models.RoleTreasurer, models.RolePresident))
	r.Post("/cycles", h.HandleCreateCycle)
	r.Patch("/cycles/{id}", h.HandleSetActive)
	r.Get("/cycles/{id}/payments", h.ServeCyclePayments)
	return r
}
