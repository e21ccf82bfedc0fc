// internal/app/features/login/routes.go
package login

import (
	"github.com/dalemusser/rotaractportal/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts under /api/auth.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/login", h.HandleLogin)
	r.Post("/register", h.HandleRegister)
	r.Post("/logout", h.HandleLogout)
	r.With(auth.RequireSignedIn).Get("/me", h.ServeMe)
	r.With(auth.RequireSignedIn).Post("/token", h.HandleToken)
	return r
}
