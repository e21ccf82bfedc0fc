package committeestore

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/rotaractportal/internal/app/system/waitlist"
	"github.com/dalemusser/rotaractportal/internal/domain/errs"
	"github.com/dalemusser/rotaractportal/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// maxAttempts bounds re-planning after ErrRosterChanged.
const maxAttempts = 5

// JoinResult reports where the member landed.
type JoinResult struct {
	Committee models.Committee
	Placement waitlist.Placement
	Position  int // 1-based waitlist position when waitlisted
}

// RemovalResult reports a leave or removal.
type RemovalResult struct {
	Committee models.Committee
	WasMember bool
	Promoted  *primitive.ObjectID
}

func rosterOf(c models.Committee) waitlist.Roster {
	return waitlist.Roster{Capacity: c.Capacity, Members: c.MemberIDs, Waitlist: c.WaitlistIDs}
}

func applyRoster(c models.Committee, r waitlist.Roster) models.Committee {
	c.MemberIDs = r.Members
	c.WaitlistIDs = r.Waitlist
	c.RosterVersion++
	return c
}

// retry runs fn until it succeeds, fails with something other than
// ErrRosterChanged, or attempts run out.
func retry(ctx context.Context, fn func() error) error {
	var err error
	for i := 0; i < maxAttempts; i++ {
		if err = fn(); !errors.Is(err, ErrRosterChanged) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return err
}

// Join seats memberID, or appends it to the waitlist when the committee is
// full.
func (s *Store) Join(ctx context.Context, committeeID, memberID primitive.ObjectID) (JoinResult, error) {
	var out JoinResult
	err := retry(ctx, func() error {
		c, err := s.GetByID(ctx, committeeID)
		if err != nil {
			return err
		}
		next, placement, err := waitlist.Join(rosterOf(c), memberID)
		if err != nil {
			return err
		}
		if err := s.write(ctx, c, bson.M{"member_ids": next.Members, "waitlist_ids": next.Waitlist}, nil); err != nil {
			return err
		}
		out = JoinResult{Committee: applyRoster(c, next), Placement: placement}
		_, out.Position = next.Position(memberID)
		return nil
	})
	return out, err
}

// Leave removes memberID from the seats or the waitlist. A freed seat goes
// to the waitlist head.
func (s *Store) Leave(ctx context.Context, committeeID, memberID primitive.ObjectID) (RemovalResult, error) {
	return s.remove(ctx, committeeID, memberID, waitlist.Leave)
}

// RemoveMember removes a seated member on an officer's or chair's behalf.
func (s *Store) RemoveMember(ctx context.Context, committeeID, memberID primitive.ObjectID) (RemovalResult, error) {
	return s.remove(ctx, committeeID, memberID, waitlist.Remove)
}

func (s *Store) remove(ctx context.Context, committeeID, memberID primitive.ObjectID, plan func(waitlist.Roster, primitive.ObjectID) (waitlist.Change, error)) (RemovalResult, error) {
	var out RemovalResult
	err := retry(ctx, func() error {
		c, err := s.GetByID(ctx, committeeID)
		if err != nil {
			return err
		}
		ch, err := plan(rosterOf(c), memberID)
		if err != nil {
			return err
		}
		unset := bson.M{}
		if c.ChairID != nil && *c.ChairID == memberID {
			unset["chair_id"] = ""
		}
		if c.CoChairID != nil && *c.CoChairID == memberID {
			unset["co_chair_id"] = ""
		}
		if err := s.write(ctx, c, bson.M{"member_ids": ch.Roster.Members, "waitlist_ids": ch.Roster.Waitlist}, unset); err != nil {
			return err
		}
		updated := applyRoster(c, ch.Roster)
		if _, ok := unset["chair_id"]; ok {
			updated.ChairID = nil
		}
		if _, ok := unset["co_chair_id"]; ok {
			updated.CoChairID = nil
		}
		out = RemovalResult{Committee: updated, WasMember: ch.WasMember, Promoted: ch.Promoted}
		return nil
	})
	return out, err
}

// Settings is an admin edit. Nil fields are left unchanged; ClearChair and
// ClearCoChair remove the leader fields.
type Settings struct {
	Name         *string
	Description  *string
	Capacity     *int
	ChairID      *primitive.ObjectID
	CoChairID    *primitive.ObjectID
	ClearChair   bool
	ClearCoChair bool
}

// UpdateSettings applies an admin edit. When capacity rises, waitlisted
// members are promoted FIFO until the committee is full; their ids are
// returned in promotion order.
func (s *Store) UpdateSettings(ctx context.Context, id primitive.ObjectID, in Settings) (models.Committee, []primitive.ObjectID, error) {
	if in.Capacity != nil && *in.Capacity < 0 {
		return models.Committee{}, nil, errs.Invalid("capacity must not be negative")
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return models.Committee{}, nil, errs.Invalid("name is required")
	}
	var (
		out      models.Committee
		promoted []primitive.ObjectID
	)
	err := retry(ctx, func() error {
		c, err := s.GetByID(ctx, id)
		if err != nil {
			return err
		}
		set := bson.M{}
		unset := bson.M{}
		if in.Name != nil {
			c.Name = strings.TrimSpace(*in.Name)
			c.NameCI = text.Fold(c.Name)
			set["name"], set["name_ci"] = c.Name, c.NameCI
		}
		if in.Description != nil {
			c.Description = *in.Description
			set["description"] = c.Description
		}
		switch {
		case in.ClearChair:
			c.ChairID = nil
			unset["chair_id"] = ""
		case in.ChairID != nil:
			c.ChairID = in.ChairID
			set["chair_id"] = *in.ChairID
		}
		switch {
		case in.ClearCoChair:
			c.CoChairID = nil
			unset["co_chair_id"] = ""
		case in.CoChairID != nil:
			c.CoChairID = in.CoChairID
			set["co_chair_id"] = *in.CoChairID
		}
		var filled []primitive.ObjectID
		if in.Capacity != nil {
			c.Capacity = *in.Capacity
			set["capacity"] = c.Capacity
			var next waitlist.Roster
			next, filled = waitlist.Fill(rosterOf(c))
			if len(filled) > 0 {
				c.MemberIDs, c.WaitlistIDs = next.Members, next.Waitlist
				set["member_ids"], set["waitlist_ids"] = next.Members, next.Waitlist
			}
		}
		if err := s.write(ctx, c, set, unset); err != nil {
			return err
		}
		c.RosterVersion++
		out, promoted = c, filled
		return nil
	})
	return out, promoted, err
}
