// internal/app/features/committees/types.go
package committees

import (
	"time"

	memberstore "github.com/dalemusser/rotaractportal/internal/app/store/members"
	"github.com/dalemusser/rotaractportal/internal/app/system/waitlist"
	"github.com/dalemusser/rotaractportal/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Caller positions reported on committee views.
const (
	statusMember     = "member"
	statusWaitlisted = "waitlisted"
	statusNone       = "none"
)

type committeeView struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	Capacity       int       `json:"capacity"`
	SeatsTaken     int       `json:"seats_taken"`
	SeatsOpen      *int      `json:"seats_open,omitempty"` // nil when unlimited
	WaitlistLength int       `json:"waitlist_length"`
	ChairID        string    `json:"chair_id,omitempty"`
	CoChairID      string    `json:"co_chair_id,omitempty"`
	MyStatus       string    `json:"my_status"`
	MyPosition     int       `json:"my_position,omitempty"` // 1-based waitlist position
	UpdatedAt      time.Time `json:"updated_at"`

	// Roster detail is only shown to officers and committee leaders.
	Members  []rosterEntry `json:"members,omitempty"`
	Waitlist []rosterEntry `json:"waitlist,omitempty"`
}

type rosterEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func hexOrEmpty(id *primitive.ObjectID) string {
	if id == nil {
		return ""
	}
	return id.Hex()
}

func toView(c models.Committee, caller primitive.ObjectID) committeeView {
	v := committeeView{
		ID:             c.ID.Hex(),
		Name:           c.Name,
		Description:    c.Description,
		Capacity:       c.Capacity,
		SeatsTaken:     len(c.MemberIDs),
		WaitlistLength: len(c.WaitlistIDs),
		ChairID:        hexOrEmpty(c.ChairID),
		CoChairID:      hexOrEmpty(c.CoChairID),
		MyStatus:       statusNone,
		UpdatedAt:      c.UpdatedAt,
	}
	if c.Capacity > 0 {
		open := c.Capacity - len(c.MemberIDs)
		if open < 0 {
			open = 0
		}
		v.SeatsOpen = &open
	}
	r := waitlist.Roster{Capacity: c.Capacity, Members: c.MemberIDs, Waitlist: c.WaitlistIDs}
	switch member, pos := r.Position(caller); {
	case member:
		v.MyStatus = statusMember
	case pos > 0:
		v.MyStatus = statusWaitlisted
		v.MyPosition = pos
	}
	return v
}

func roster(ids []primitive.ObjectID, contacts map[primitive.ObjectID]memberstore.Contact) []rosterEntry {
	out := make([]rosterEntry, 0, len(ids))
	for _, id := range ids {
		out = append(out, rosterEntry{ID: id.Hex(), Name: contacts[id].Name})
	}
	return out
}

// adminInput is shared by create and update. Pointer fields distinguish
// "unchanged" from "cleared" on update.
type adminInput struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=120"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Capacity    *int    `json:"capacity" validate:"omitempty,min=0,max=1000"`
	ChairID     *string `json:"chair_id"`    // "" clears
	CoChairID   *string `json:"co_chair_id"` // "" clears
}
