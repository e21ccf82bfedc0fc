package committeestore

import (
	"errors"
	"sync"
	"testing"

	"github.com/dalemusser/rotaractportal/internal/app/system/waitlist"
	"github.com/dalemusser/rotaractportal/internal/domain/models"
	"github.com/dalemusser/rotaractportal/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newIDs(n int) []primitive.ObjectID {
	out := make([]primitive.ObjectID, n)
	for i := range out {
		out[i] = primitive.NewObjectID()
	}
	return out
}

func TestCreateAndDuplicateName(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	testutil.EnsureIndexes(t, db)
	s := New(db)

	c, err := s.Create(ctx, models.Committee{Name: " Service Projects ", Capacity: 3})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if c.Name != "Service Projects" || c.MemberIDs == nil || c.WaitlistIDs == nil {
		t.Fatalf("committee = %+v", c)
	}
	if _, err := s.Create(ctx, models.Committee{Name: "service projects"}); !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("err = %v, want ErrDuplicateName", err)
	}
	if _, err := s.Create(ctx, models.Committee{Name: "Bad", Capacity: -1}); err == nil {
		t.Fatal("negative capacity should fail")
	}
}

func TestJoinFillsThenWaitlists(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	s := New(db)

	c, err := s.Create(ctx, models.Committee{Name: "Fundraising", Capacity: 1})
	if err != nil {
		t.Fatal(err)
	}
	people := newIDs(3)

	res, err := s.Join(ctx, c.ID, people[0])
	if err != nil || res.Placement != waitlist.PlacedMember {
		t.Fatalf("join 1: %+v, %v", res, err)
	}
	res, err = s.Join(ctx, c.ID, people[1])
	if err != nil || res.Placement != waitlist.PlacedWaitlist || res.Position != 1 {
		t.Fatalf("join 2: %+v, %v", res, err)
	}
	res, err = s.Join(ctx, c.ID, people[2])
	if err != nil || res.Position != 2 {
		t.Fatalf("join 3: %+v, %v", res, err)
	}
	if _, err := s.Join(ctx, c.ID, people[1]); !errors.Is(err, waitlist.ErrAlreadyWaitlisted) {
		t.Fatalf("duplicate join err = %v", err)
	}

	got, err := s.GetByID(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.RosterVersion != 3 || len(got.MemberIDs) != 1 || len(got.WaitlistIDs) != 2 {
		t.Fatalf("stored = %+v", got)
	}
}

func TestLeavePromotesExactlyOne(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	s := New(db)

	members := newIDs(2)
	waiting := newIDs(2)
	c, err := s.Create(ctx, models.Committee{Name: "Social", Capacity: 2, MemberIDs: members, WaitlistIDs: waiting})
	if err != nil {
		t.Fatal(err)
	}

	res, err := s.Leave(ctx, c.ID, members[0])
	if err != nil {
		t.Fatalf("Leave: %v", err)
	}
	if res.Promoted == nil || *res.Promoted != waiting[0] {
		t.Fatalf("promoted = %v, want %v", res.Promoted, waiting[0])
	}

	got, _ := s.GetByID(ctx, c.ID)
	if len(got.MemberIDs) != 2 || got.MemberIDs[1] != waiting[0] {
		t.Fatalf("members = %v", got.MemberIDs)
	}
	if len(got.WaitlistIDs) != 1 || got.WaitlistIDs[0] != waiting[1] {
		t.Fatalf("waitlist = %v", got.WaitlistIDs)
	}

	// Leaving from the waitlist promotes nobody.
	res, err = s.Leave(ctx, c.ID, waiting[1])
	if err != nil || res.Promoted != nil || res.WasMember {
		t.Fatalf("waitlist leave: %+v, %v", res, err)
	}
}

func TestConcurrentLeavesPromoteOncePerSeat(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	s := New(db)

	members := newIDs(4)
	waiting := newIDs(4)
	c, err := s.Create(ctx, models.Committee{Name: "Concurrency", Capacity: 4, MemberIDs: members, WaitlistIDs: waiting})
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for _, id := range members[:2] {
		wg.Add(1)
		go func(id primitive.ObjectID) {
			defer wg.Done()
			if _, err := s.Leave(ctx, c.ID, id); err != nil {
				t.Errorf("Leave: %v", err)
			}
		}(id)
	}
	wg.Wait()

	got, _ := s.GetByID(ctx, c.ID)
	if len(got.MemberIDs) != 4 {
		t.Fatalf("members = %d, want 4", len(got.MemberIDs))
	}
	if len(got.WaitlistIDs) != 2 || got.WaitlistIDs[0] != waiting[2] {
		t.Fatalf("waitlist = %v", got.WaitlistIDs)
	}
}

func TestRemoveMemberClearsChair(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	s := New(db)

	members := newIDs(2)
	c, err := s.Create(ctx, models.Committee{Name: "Board Liaison", MemberIDs: members, ChairID: &members[0], CoChairID: &members[1]})
	if err != nil {
		t.Fatal(err)
	}
	res, err := s.RemoveMember(ctx, c.ID, members[0])
	if err != nil {
		t.Fatal(err)
	}
	if res.Committee.ChairID != nil || res.Committee.CoChairID == nil {
		t.Fatalf("result leaders: chair=%v co=%v", res.Committee.ChairID, res.Committee.CoChairID)
	}
	got, _ := s.GetByID(ctx, c.ID)
	if got.ChairID != nil || got.CoChairID == nil || *got.CoChairID != members[1] {
		t.Fatalf("stored leaders: chair=%v co=%v", got.ChairID, got.CoChairID)
	}

	if _, err := s.RemoveMember(ctx, c.ID, primitive.NewObjectID()); !errors.Is(err, waitlist.ErrNotMember) {
		t.Fatalf("err = %v", err)
	}
	if _, err := s.RemoveMember(ctx, primitive.NewObjectID(), members[1]); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestCapacityRaisePromotesMinOfRaiseAndWaitlist(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	s := New(db)

	waiting := newIDs(3)
	c, err := s.Create(ctx, models.Committee{Name: "Youth", Capacity: 2, MemberIDs: newIDs(2), WaitlistIDs: waiting})
	if err != nil {
		t.Fatal(err)
	}

	four := 4
	updated, promoted, err := s.UpdateSettings(ctx, c.ID, Settings{Capacity: &four})
	if err != nil {
		t.Fatal(err)
	}
	if len(promoted) != 2 || promoted[0] != waiting[0] || promoted[1] != waiting[1] {
		t.Fatalf("promoted = %v", promoted)
	}
	if len(updated.MemberIDs) != 4 || len(updated.WaitlistIDs) != 1 {
		t.Fatalf("updated = %+v", updated)
	}

	unlimited := 0
	_, promoted, err = s.UpdateSettings(ctx, c.ID, Settings{Capacity: &unlimited})
	if err != nil || len(promoted) != 1 || promoted[0] != waiting[2] {
		t.Fatalf("unlimited: promoted = %v, err = %v", promoted, err)
	}
}

func TestStaleWriteIsRejected(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	s := New(db)

	c, err := s.Create(ctx, models.Committee{Name: "Stale", Capacity: 5})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Join(ctx, c.ID, primitive.NewObjectID()); err != nil {
		t.Fatal(err)
	}
	// c still carries roster_version 0.
	err = s.write(ctx, c, bson.M{"member_ids": []primitive.ObjectID{}}, nil)
	if !errors.Is(err, ErrRosterChanged) {
		t.Fatalf("err = %v, want ErrRosterChanged", err)
	}
}
