// internal/domain/models/event.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Event statuses.
const (
	EventDraft     = "draft"
	EventPublished = "published"
	EventCancelled = "cancelled"
)

// Event visibility.
const (
	VisibilityPublic  = "public"
	VisibilityMembers = "members"
)

// Event is a club event. A nil Pricing means the event is free.
type Event struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Location    string             `bson:"location" json:"location"`
	StartsAt    time.Time          `bson:"starts_at" json:"starts_at"`
	Capacity    int                `bson:"capacity" json:"capacity"` // 0 = unlimited
	Visibility  string             `bson:"visibility" json:"visibility"`
	Status      string             `bson:"status" json:"status"`
	Pricing     *EventPricing      `bson:"pricing,omitempty" json:"pricing,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// EventPricing holds ticket prices in cents. EarlyBirdPrice applies only when
// both it and EarlyBirdDeadline are set.
type EventPricing struct {
	MemberPrice       int64      `bson:"member_price" json:"member_price"`
	GuestPrice        int64      `bson:"guest_price" json:"guest_price"`
	EarlyBirdPrice    *int64     `bson:"early_bird_price,omitempty" json:"early_bird_price,omitempty"`
	EarlyBirdDeadline *time.Time `bson:"early_bird_deadline,omitempty" json:"early_bird_deadline,omitempty"`
}
