// internal/domain/models/dues.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DuesCycle is a membership-fee period (typically one Rotary year).
type DuesCycle struct {
	ID       primitive.ObjectID `bson:"_id" json:"id"`
	Name     string             `bson:"name" json:"name"`
	Amount   int64              `bson:"amount" json:"amount"`
	StartsAt time.Time          `bson:"starts_at" json:"starts_at"`
	EndsAt   time.Time          `bson:"ends_at" json:"ends_at"`
	Active   bool               `bson:"active" json:"active"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// MemberDues tracks one member's payment for one cycle.
// Exactly one document per (member_id, cycle_id).
type MemberDues struct {
	ID                primitive.ObjectID `bson:"_id" json:"id"`
	MemberID          primitive.ObjectID `bson:"member_id" json:"member_id"`
	CycleID           primitive.ObjectID `bson:"cycle_id" json:"cycle_id"`
	Amount            int64              `bson:"amount" json:"amount"`
	Status            string             `bson:"status" json:"status"` // unpaid | pending | paid
	PaymentMethod     string             `bson:"payment_method,omitempty" json:"payment_method,omitempty"`
	CheckoutSessionID string             `bson:"checkout_session_id,omitempty" json:"-"`
	PaidAt            *time.Time         `bson:"paid_at,omitempty" json:"paid_at,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
