// internal/domain/models/activity.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Activity (budget) statuses.
const (
	ActivityDraft           = "draft"
	ActivityPendingApproval = "pending_approval"
	ActivityApproved        = "approved"
)

// Activity is a budgeted club activity. Expenses are filed against it once
// the president has approved the budget.
type Activity struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Status      string             `bson:"status" json:"status"`
	Budget      ActivityBudget     `bson:"budget" json:"budget"`
	Approvals   ActivityApprovals  `bson:"approvals" json:"approvals"`
	Actual      ActivityActual     `bson:"actual" json:"actual"`

	// AllowedExpenseSubmitters lists non-officers who may file expenses.
	AllowedExpenseSubmitters []primitive.ObjectID `bson:"allowed_expense_submitters" json:"allowed_expense_submitters"`

	CreatedBy primitive.ObjectID `bson:"created_by" json:"created_by"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

// ActivityBudget holds the requested amount in cents.
type ActivityBudget struct {
	Amount int64 `bson:"amount" json:"amount"`
}

// ActivityApprovals records the president's decision.
type ActivityApprovals struct {
	PresidentApproved   bool                `bson:"president_approved" json:"president_approved"`
	PresidentApprovedAt *time.Time          `bson:"president_approved_at,omitempty" json:"president_approved_at,omitempty"`
	PresidentID         *primitive.ObjectID `bson:"president_id,omitempty" json:"president_id,omitempty"`
	RejectionReason     string              `bson:"rejection_reason,omitempty" json:"rejection_reason,omitempty"`
}

// ActivityActual holds recomputed spend in cents.
type ActivityActual struct {
	TotalSpent int64 `bson:"total_spent" json:"total_spent"`
}
