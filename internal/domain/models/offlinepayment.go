// internal/domain/models/offlinepayment.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Offline payment kinds. RelatedID points at a dues cycle or an event.
const (
	PaymentForDues  = "dues"
	PaymentForEvent = "event"
)

// OfflinePayment is a cash/check/transfer payment reported by a member and
// confirmed by the treasurer.
type OfflinePayment struct {
	ID         primitive.ObjectID  `bson:"_id" json:"id"`
	Type       string              `bson:"type" json:"type"`
	RelatedID  primitive.ObjectID  `bson:"related_id" json:"related_id"`
	MemberID   primitive.ObjectID  `bson:"member_id" json:"member_id"`
	Amount     int64               `bson:"amount" json:"amount"`
	Method     string              `bson:"method" json:"method"` // cash | check | transfer
	Reference  string              `bson:"reference,omitempty" json:"reference,omitempty"`
	Status     string              `bson:"status" json:"status"`
	ReviewedBy *primitive.ObjectID `bson:"reviewed_by,omitempty" json:"reviewed_by,omitempty"`
	ReviewedAt *time.Time          `bson:"reviewed_at,omitempty" json:"reviewed_at,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
