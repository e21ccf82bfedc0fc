// internal/domain/models/rsvp.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Price tiers resolved at checkout.
const (
	TierEarlyBird = "early_bird"
	TierMember    = "member"
	TierGuest     = "guest"
	TierFree      = "free"
)

// Payment statuses for RSVPs and member dues.
const (
	PaymentFree    = "free"
	PaymentUnpaid  = "unpaid"
	PaymentPending = "pending"
	PaymentPaid    = "paid"
)

// Payment methods.
const (
	MethodStripe  = "stripe"
	MethodOffline = "offline"
)

// RSVP is an attendance record. MemberID is nil for guests.
type RSVP struct {
	ID                primitive.ObjectID  `bson:"_id" json:"id"`
	EventID           primitive.ObjectID  `bson:"event_id" json:"event_id"`
	MemberID          *primitive.ObjectID `bson:"member_id,omitempty" json:"member_id,omitempty"`
	Name              string              `bson:"name" json:"name"`
	Email             string              `bson:"email" json:"email"`
	Tickets           int                 `bson:"tickets" json:"tickets"`
	Tier              string              `bson:"tier" json:"tier"`
	UnitPrice         int64               `bson:"unit_price" json:"unit_price"`
	PaymentStatus     string              `bson:"payment_status" json:"payment_status"`
	PaymentMethod     string              `bson:"payment_method,omitempty" json:"payment_method,omitempty"`
	CheckoutSessionID string              `bson:"checkout_session_id,omitempty" json:"-"`
	PaidAt            *time.Time          `bson:"paid_at,omitempty" json:"paid_at,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
