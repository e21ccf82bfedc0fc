package eventstore

import (
	"errors"
	"testing"
	"time"

	"github.com/dalemusser/rotaractportal/internal/domain/models"
	"github.com/dalemusser/rotaractportal/internal/testutil"
)

func TestCreateDefaultsAndValidation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	s := New(db)

	e, err := s.Create(ctx, models.Event{Title: " Gala ", StartsAt: time.Now().Add(48 * time.Hour)})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if e.Title != "Gala" || e.Status != models.EventDraft || e.Visibility != models.VisibilityPublic {
		t.Fatalf("created = %+v", e)
	}

	if _, err := s.Create(ctx, models.Event{Title: "x", Visibility: "secret"}); !errors.Is(err, ErrInvalidVisibility) {
		t.Errorf("visibility: %v", err)
	}
	if _, err := s.Create(ctx, models.Event{Title: "x", Capacity: -1}); !errors.Is(err, ErrInvalidCapacity) {
		t.Errorf("capacity: %v", err)
	}
	neg := int64(-1)
	if _, err := s.Create(ctx, models.Event{Title: "x", Pricing: &models.EventPricing{EarlyBirdPrice: &neg}}); !errors.Is(err, ErrInvalidPricing) {
		t.Errorf("pricing: %v", err)
	}
}

func TestUpdateAndList(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	s := New(db)

	now := time.Now().UTC()
	pub, _ := s.Create(ctx, models.Event{Title: "Public", StartsAt: now.Add(time.Hour), Status: models.EventPublished})
	_, _ = s.Create(ctx, models.Event{Title: "Members", StartsAt: now.Add(2 * time.Hour), Status: models.EventPublished, Visibility: models.VisibilityMembers})
	_, _ = s.Create(ctx, models.Event{Title: "Draft", StartsAt: now.Add(3 * time.Hour)})

	public, err := s.List(ctx, Filter{PublishedOnly: true, PublicOnly: true})
	if err != nil || len(public) != 1 || public[0].ID != pub.ID {
		t.Fatalf("public = %v, %v", public, err)
	}
	published, _ := s.List(ctx, Filter{PublishedOnly: true})
	if len(published) != 2 {
		t.Fatalf("published = %d, want 2", len(published))
	}

	pricing := &models.EventPricing{MemberPrice: 1000, GuestPrice: 1500}
	cancelled := models.EventCancelled
	got, err := s.Update(ctx, pub.ID, Patch{Pricing: pricing, Status: &cancelled})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Status != models.EventCancelled || got.Pricing == nil || got.Pricing.GuestPrice != 1500 {
		t.Fatalf("updated = %+v", got)
	}

	got, err = s.Update(ctx, pub.ID, Patch{ClearPricing: true})
	if err != nil {
		t.Fatal(err)
	}
	reread, _ := s.GetByID(ctx, pub.ID)
	if got.Pricing != nil || reread.Pricing != nil {
		t.Fatalf("pricing not cleared: %+v", reread.Pricing)
	}

	bad := "nope"
	if _, err := s.Update(ctx, pub.ID, Patch{Status: &bad}); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("bad status: %v", err)
	}
	if err := s.Delete(ctx, pub.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetByID(ctx, pub.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("after delete: %v", err)
	}
}
