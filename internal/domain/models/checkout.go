// internal/domain/models/checkout.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Checkout record statuses.
const (
	CheckoutOpen      = "open"
	CheckoutCompleted = "completed"
	CheckoutExpired   = "expired"
)

// Checkout mirrors a Stripe Checkout Session we created. Records still open
// long after creation are picked up by the reconciliation sweep.
type Checkout struct {
	ID          primitive.ObjectID  `bson:"_id" json:"id"`
	SessionID   string              `bson:"session_id" json:"session_id"`
	Kind        string              `bson:"kind" json:"kind"` // dues | event
	RelatedID   primitive.ObjectID  `bson:"related_id" json:"related_id"`
	MemberID    *primitive.ObjectID `bson:"member_id,omitempty" json:"member_id,omitempty"`
	Email       string              `bson:"email" json:"email"`
	AmountTotal int64               `bson:"amount_total" json:"amount_total"`
	Status      string              `bson:"status" json:"status"`
	CompletedAt *time.Time          `bson:"completed_at,omitempty" json:"completed_at,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
