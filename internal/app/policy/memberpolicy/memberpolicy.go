// Package memberpolicy provides authorization policies for member administration.
//
// Authorization rules:
//   - Officers (board, treasurer, president) can list members and change status
//   - Only the president can change roles
//   - Nobody changes their own role or status through the admin API
//   - Board members and the treasurer cannot change the president's status
package memberpolicy

import (
	"net/http"

	"github.com/dalemusser/rotaractportal/internal/app/system/authz"
	"github.com/dalemusser/rotaractportal/internal/domain/errs"
	"github.com/dalemusser/rotaractportal/internal/domain/models"
)

var (
	ErrOfficersOnly  = errs.Forbidden("only officers can manage members")
	ErrPresidentOnly = errs.Forbidden("only the president can change roles")
	ErrSelf          = errs.Conflict("you cannot change your own role or status")
	ErrOutranked     = errs.Forbidden("only the president can change the president's status")
)

// CanListMembers reports whether the caller may browse the member directory.
func CanListMembers(r *http.Request) error {
	if !authz.IsOfficer(r) {
		return ErrOfficersOnly
	}
	return nil
}

// CanChangeRole checks a role change against the target member.
func CanChangeRole(r *http.Request, target models.Member) error {
	if !authz.IsPresident(r) {
		return ErrPresidentOnly
	}
	if isSelf(r, target) {
		return ErrSelf
	}
	return nil
}

// CanChangeStatus checks a status change against the target member.
func CanChangeStatus(r *http.Request, target models.Member) error {
	if err := CanListMembers(r); err != nil {
		return err
	}
	if isSelf(r, target) {
		return ErrSelf
	}
	if target.Role == models.RolePresident && !authz.IsPresident(r) {
		return ErrOutranked
	}
	return nil
}

func isSelf(r *http.Request, target models.Member) bool {
	_, _, uid, ok := authz.UserCtx(r)
	return ok && uid == target.ID
}
