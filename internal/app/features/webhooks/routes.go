// internal/app/features/webhooks/routes.go
package webhooks

import "github.com/go-chi/chi/v5"

// Routes mounts under /api/webhooks. No session or CSRF: Stripe
// authenticates with the signature header.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/stripe", h.HandleStripe)
	return r
}
