// Package financepolicy holds the role rules of the finance workflow.
//
// Authorization rules:
//   - Officers create, edit and submit activity budgets
//   - Only the president approves or rejects a budget
//   - Expenses may be filed by the treasurer, the president, or a member
//     listed in the activity's allowed_expense_submitters, and only against
//     an approved activity
//   - Only the treasurer reviews expenses and offline payments
//   - The treasurer and president can list offline payments
package financepolicy

import (
	"net/http"

	"github.com/dalemusser/rotaractportal/internal/app/system/authz"
	"github.com/dalemusser/rotaractportal/internal/domain/errs"
	"github.com/dalemusser/rotaractportal/internal/domain/models"
)

var (
	ErrOfficersOnly       = errs.Forbidden("only officers can manage activity budgets")
	ErrPresidentOnly      = errs.Forbidden("only the president can approve or reject budgets")
	ErrTreasurerOnly      = errs.Forbidden("only the treasurer can review this")
	ErrFinanceOfficers    = errs.Forbidden("only the treasurer or president can view this")
	ErrNotSubmitter       = errs.Forbidden("you are not allowed to submit expenses for this activity")
	ErrNotDraft           = errs.Conflict("activity can only be changed while in draft")
	ErrActivityUnapproved = errs.Conflict("expenses can only be filed against an approved activity")
)

func CanManageActivities(r *http.Request) error {
	if !authz.IsOfficer(r) {
		return ErrOfficersOnly
	}
	return nil
}

// CanEditActivity allows officers to change an activity while it is a draft.
func CanEditActivity(r *http.Request, a models.Activity) error {
	if err := CanManageActivities(r); err != nil {
		return err
	}
	if a.Status != models.ActivityDraft {
		return ErrNotDraft
	}
	return nil
}

// CanDecideBudget is the only gate out of pending_approval.
func CanDecideBudget(r *http.Request) error {
	if !authz.IsPresident(r) {
		return ErrPresidentOnly
	}
	return nil
}

// CanSubmitExpense checks both the caller and the activity's state.
func CanSubmitExpense(r *http.Request, a models.Activity) error {
	_, _, uid, ok := authz.UserCtx(r)
	if !ok {
		return ErrNotSubmitter
	}
	allowed := authz.HasAnyRole(r, models.RoleTreasurer, models.RolePresident)
	if !allowed {
		for _, id := range a.AllowedExpenseSubmitters {
			if id == uid {
				allowed = true
				break
			}
		}
	}
	if !allowed {
		return ErrNotSubmitter
	}
	if a.Status != models.ActivityApproved {
		return ErrActivityUnapproved
	}
	return nil
}

// CanReview gates expense and offline payment decisions.
func CanReview(r *http.Request) error {
	if !authz.IsTreasurer(r) {
		return ErrTreasurerOnly
	}
	return nil
}

func CanListPayments(r *http.Request) error {
	if !authz.HasAnyRole(r, models.RoleTreasurer, models.RolePresident) {
		return ErrFinanceOfficers
	}
	return nil
}

// CanViewSummary allows all officers to see budget versus actual.
func CanViewSummary(r *http.Request) error {
	return CanManageActivities(r)
}
