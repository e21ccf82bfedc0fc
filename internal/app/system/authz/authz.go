// internal/app/system/authz/authz.go
package authz

import (
	"net/http"
	"strings"

	"github.com/dalemusser/rotaractportal/internal/app/system/auth"
	"github.com/dalemusser/rotaractportal/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Officer roles may administer content and membership.
var officerRoles = []string{models.RoleBoard, models.RoleTreasurer, models.RolePresident}

// UserCtx returns the user's role (lowercased), name, member ObjectID, and a found flag.
// If no user is present in context or the user ID is malformed, it returns
// "visitor", "", NilObjectID, false so ok=true always means a usable id.
func UserCtx(r *http.Request) (role string, name string, userID primitive.ObjectID, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return "visitor", "", primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		// Malformed id in session; fail closed.
		return "visitor", "", primitive.NilObjectID, false
	}
	return strings.ToLower(user.Role), user.Name, userID, true
}

// HasAnyRole reports whether the current request's user has any of the given roles.
func HasAnyRole(r *http.Request, roles ...string) bool {
	role, _, _, ok := UserCtx(r)
	if !ok {
		return false
	}
	for _, want := range roles {
		if role == strings.ToLower(strings.TrimSpace(want)) {
			return true
		}
	}
	return false
}

// IsPresident reports whether the current user is the president.
func IsPresident(r *http.Request) bool { return HasAnyRole(r, models.RolePresident) }

// IsTreasurer reports whether the current user is the treasurer.
func IsTreasurer(r *http.Request) bool { return HasAnyRole(r, models.RoleTreasurer) }

// IsOfficer reports whether the current user is board, treasurer or president.
func IsOfficer(r *http.Request) bool { return HasAnyRole(r, officerRoles...) }

// IsActiveMember reports whether the current user is signed in with status active.
func IsActiveMember(r *http.Request) bool {
	u, ok := auth.CurrentUser(r)
	return ok && u.IsActive()
}

// OfficerRoles returns the roles allowed on admin routes.
func OfficerRoles() []string {
	out := make([]string, len(officerRoles))
	copy(out, officerRoles)
	return out
}
