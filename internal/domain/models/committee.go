// internal/domain/models/committee.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Committee is a member working group with an optional seat limit.
//
// NOTE:
//   - Capacity 0 means unlimited.
//   - WaitlistIDs is FIFO by index; the head is promoted first.
//   - RosterVersion is bumped on every roster write and guards concurrent
//     join/leave/remove requests against lost updates.
type Committee struct {
	ID            primitive.ObjectID   `bson:"_id" json:"id"`
	Name          string               `bson:"name" json:"name"`
	NameCI        string               `bson:"name_ci" json:"-"`
	Description   string               `bson:"description" json:"description"`
	Capacity      int                  `bson:"capacity" json:"capacity"`
	MemberIDs     []primitive.ObjectID `bson:"member_ids" json:"member_ids"`
	WaitlistIDs   []primitive.ObjectID `bson:"waitlist_ids" json:"waitlist_ids"`
	ChairID       *primitive.ObjectID  `bson:"chair_id,omitempty" json:"chair_id,omitempty"`
	CoChairID     *primitive.ObjectID  `bson:"co_chair_id,omitempty" json:"co_chair_id,omitempty"`
	RosterVersion int64                `bson:"roster_version" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// IsLeader reports whether id is the chair or co-chair.
func (c Committee) IsLeader(id primitive.ObjectID) bool {
	return (c.ChairID != nil && *c.ChairID == id) || (c.CoChairID != nil && *c.CoChairID == id)
}
