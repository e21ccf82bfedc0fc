// Package committeepolicy decides who may change committee rosters.
//
// Authorization rules:
//   - Any active member may join or leave a committee
//   - Officers (board, treasurer, president) may remove any member and
//     administer committees
//   - A committee's chair or co-chair may remove members of that committee
package committeepolicy

import (
	"net/http"

	"github.com/dalemusser/rotaractportal/internal/app/system/authz"
	"github.com/dalemusser/rotaractportal/internal/domain/errs"
	"github.com/dalemusser/rotaractportal/internal/domain/models"
)

var (
	ErrInactive   = errs.Forbidden("membership is not active")
	ErrNotLeader  = errs.Forbidden("only officers or the committee chair can remove members")
	ErrNotOfficer = errs.Forbidden("only officers can manage committees")
)

// CanJoin returns nil when the caller may join or leave committees.
func CanJoin(r *http.Request) error {
	if !authz.IsActiveMember(r) {
		return ErrInactive
	}
	return nil
}

// CanRemoveMember returns nil when the caller may remove members from c.
func CanRemoveMember(r *http.Request, c models.Committee) error {
	if authz.IsOfficer(r) {
		return nil
	}
	_, _, uid, ok := authz.UserCtx(r)
	if ok && c.IsLeader(uid) {
		return nil
	}
	return ErrNotLeader
}

// CanAdminister returns nil when the caller may create, edit or delete
// committees.
func CanAdminister(r *http.Request) error {
	if !authz.IsOfficer(r) {
		return ErrNotOfficer
	}
	return nil
}
