package auth

import (
	"net/http"
	"strings"

	"github.com/dalemusser/rotaractportal/internal/app/system/apiresp"
)

// RequireSignedIn ensures there is a user in context (set by LoadSessionUser).
// API callers get a JSON 401.
func (sm *SessionManager) RequireSignedIn(next http.Handler) http.Handler {
	return RequireSignedIn(next)
}

// RequireSignedIn is the package-level form, usable without a manager.
func RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); !ok {
			apiresp.Error(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole ensures a signed-in user holding one of the allowed roles.
// Not signed in → 401; wrong role → 403.
func RequireRole(allowed ...string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		set[strings.ToLower(strings.TrimSpace(role))] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := CurrentUser(r)
			if !ok {
				apiresp.Error(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if _, has := set[strings.ToLower(u.Role)]; !has {
				apiresp.Error(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireActive rejects members whose status is not active.
func RequireActive(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := CurrentUser(r)
		if !ok {
			apiresp.Error(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if !u.IsActive() {
			apiresp.Error(w, http.StatusForbidden, "membership is not active")
			return
		}
		next.ServeHTTP(w, r)
	})
}
