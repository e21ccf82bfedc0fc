// internal/domain/models/expense.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Review statuses shared by expenses and offline payments.
const (
	ReviewPending  = "pending"
	ReviewApproved = "approved"
	ReviewRejected = "rejected"
)

// Expense is a spend filed against an approved activity. Amount is in cents.
type Expense struct {
	ID              primitive.ObjectID  `bson:"_id" json:"id"`
	ActivityID      primitive.ObjectID  `bson:"activity_id" json:"activity_id"`
	Amount          int64               `bson:"amount" json:"amount"`
	Description     string              `bson:"description" json:"description"`
	Vendor          string              `bson:"vendor,omitempty" json:"vendor,omitempty"`
	ReceiptURL      string              `bson:"receipt_url,omitempty" json:"receipt_url,omitempty"`
	Status          string              `bson:"status" json:"status"`
	SubmittedBy     primitive.ObjectID  `bson:"submitted_by" json:"submitted_by"`
	ReviewedBy      *primitive.ObjectID `bson:"reviewed_by,omitempty" json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time          `bson:"reviewed_at,omitempty" json:"reviewed_at,omitempty"`
	RejectionReason string              `bson:"rejection_reason,omitempty" json:"rejection_reason,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
