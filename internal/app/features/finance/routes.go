// internal/app/features/finance/routes.go
package finance

import (
	"github.com/dalemusser/rotaractportal/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts under /api/finance. Role checks live in financepolicy so
// each handler can report the specific rule that refused the caller.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)

	r.Route("/activities", func(r chi.Router) {
		r.Get("/", h.ServeActivities)
		r.Post("/", h.HandleCreateActivity)
		r.Get("/{id}", h.ServeActivity)
		r.Patch("/{id}", h.HandleUpdateActivity)
		r.Post("/{id}/submit", h.HandleSubmitActivity)
		r.Post("/{id}/approve", h.HandleApproveActivity)
		r.Post("/{id}/reject", h.HandleRejectActivity)
	})

	r.Route("/expenses", func(r chi.Router) {
		r.Get("/", h.ServeExpenses)
		r.Post("/", h.HandleCreateExpense)
		r.Post("/{id}/approve", h.HandleApproveExpense)
		r.Post("/{id}/reject", h.HandleRejectExpense)
	})

	r.Route("/offline-payments", func(r chi.Router) {
		r.Get("/", h.ServePayments)
		r.Post("/", h.HandleReportPayment)
		r.Post("/{id}/approve", h.HandleApprovePayment)
		r.Post("/{id}/reject", h.HandleRejectPayment)
	})

	r.Get("/summary", h.ServeSummary)
	return r
}
