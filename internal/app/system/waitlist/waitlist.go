// Package waitlist plans committee roster changes: joining, leaving and
// first-in-first-out promotion from the waitlist. It is pure; the committee
// store commits a planned Roster with a version guard.
package waitlist

import (
	"github.com/dalemusser/rotaractportal/internal/domain/errs"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrAlreadyMember     = errs.Conflict("already a member of this committee")
	ErrAlreadyWaitlisted = errs.Conflict("already on this committee's waitlist")
	ErrNotOnRoster       = errs.Conflict("not a member of this committee or its waitlist")
	ErrNotMember         = errs.Conflict("not a member of this committee")
)

// Roster is the seat state of one committee. Capacity 0 means unlimited.
type Roster struct {
	Capacity int
	Members  []primitive.ObjectID
	Waitlist []primitive.ObjectID
}

// HasSeat reports whether another member fits.
func (r Roster) HasSeat() bool {
	return r.Capacity <= 0 || len(r.Members) < r.Capacity
}

// Placement says where a joining member landed.
type Placement string

const (
	PlacedMember   Placement = "member"
	PlacedWaitlist Placement = "waitlist"
)

// Position returns whether id is a member and, if waitlisted, its 1-based
// waitlist position (0 when not waitlisted).
func (r Roster) Position(id primitive.ObjectID) (member bool, waitPos int) {
	if indexOf(r.Members, id) >= 0 {
		return true, 0
	}
	return false, indexOf(r.Waitlist, id) + 1
}

// Join seats id if a seat is free, otherwise appends it to the waitlist tail.
func Join(r Roster, id primitive.ObjectID) (Roster, Placement, error) {
	if indexOf(r.Members, id) >= 0 {
		return r, "", ErrAlreadyMember
	}
	if indexOf(r.Waitlist, id) >= 0 {
		return r, "", ErrAlreadyWaitlisted
	}
	out := r.clone()
	if out.HasSeat() {
		out.Members = append(out.Members, id)
		return out, PlacedMember, nil
	}
	out.Waitlist = append(out.Waitlist, id)
	return out, PlacedWaitlist, nil
}

// Change is the result of a removal.
type Change struct {
	Roster Roster
	// WasMember is true when id held a seat (false: it was only waitlisted).
	WasMember bool
	// Promoted is the waitlisted member moved into the freed seat, if any.
	Promoted *primitive.ObjectID
}

// Leave removes id from the seats or the waitlist. Freeing a seat promotes at
// most one member: the waitlist head, and only if the committee is then
// below capacity.
func Leave(r Roster, id primitive.ObjectID) (Change, error) {
	out := r.clone()
	if i := indexOf(out.Members, id); i >= 0 {
		out.Members = removeAt(out.Members, i)
		ch := Change{Roster: out, WasMember: true}
		if out.HasSeat() && len(out.Waitlist) > 0 {
			head := out.Waitlist[0]
			ch.Roster.Waitlist = out.Waitlist[1:]
			ch.Roster.Members = append(ch.Roster.Members, head)
			ch.Promoted = &head
		}
		return ch, nil
	}
	if i := indexOf(out.Waitlist, id); i >= 0 {
		out.Waitlist = removeAt(out.Waitlist, i)
		return Change{Roster: out}, nil
	}
	return Change{Roster: r}, ErrNotOnRoster
}

// Remove is Leave restricted to seated members, used by board removal.
func Remove(r Roster, id primitive.ObjectID) (Change, error) {
	if indexOf(r.Members, id) < 0 {
		return Change{Roster: r}, ErrNotMember
	}
	return Leave(r, id)
}

// Fill promotes waitlisted members FIFO until the roster is full or the
// waitlist is empty. Used after a capacity increase.
func Fill(r Roster) (Roster, []primitive.ObjectID) {
	out := r.clone()
	var promoted []primitive.ObjectID
	for out.HasSeat() && len(out.Waitlist) > 0 {
		head := out.Waitlist[0]
		out.Waitlist = out.Waitlist[1:]
		out.Members = append(out.Members, head)
		promoted = append(promoted, head)
	}
	return out, promoted
}

func (r Roster) clone() Roster {
	return Roster{
		Capacity: r.Capacity,
		Members:  append(make([]primitive.ObjectID, 0, len(r.Members)+1), r.Members...),
		Waitlist: append(make([]primitive.ObjectID, 0, len(r.Waitlist)+1), r.Waitlist...),
	}
}

func indexOf(ids []primitive.ObjectID, id primitive.ObjectID) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

func removeAt(ids []primitive.ObjectID, i int) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(ids)-1)
	out = append(out, ids[:i]...)
	return append(out, ids[i+1:]...)
}
