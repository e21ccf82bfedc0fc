package memberstore

import (
	"errors"
	"testing"

	"github.com/dalemusser/rotaractportal/internal/app/system/auth"
	"github.com/dalemusser/rotaractportal/internal/domain/models"
	"github.com/dalemusser/rotaractportal/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCreateDefaultsAndDuplicateEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.EnsureIndexes(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	s := New(db)

	m, err := s.Create(ctx, models.Member{FullName: " Ana Ruiz ", Email: "Ana@Example.org"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if m.Role != models.RoleMember || m.Status != models.MemberPending || m.AuthMethod != models.AuthPassword {
		t.Fatalf("defaults = %+v", m)
	}
	if m.EmailCI != "ana@example.org" || m.FullName != "Ana Ruiz" {
		t.Fatalf("normalized = %+v", m)
	}

	_, err = s.Create(ctx, models.Member{FullName: "Other", Email: "ANA@example.org"})
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("err = %v, want ErrDuplicateEmail", err)
	}

	got, err := s.GetByEmail(ctx, " ana@EXAMPLE.org")
	if err != nil || got.ID != m.ID {
		t.Fatalf("GetByEmail = %v, %v", got.ID, err)
	}
}

func TestSetRoleAndStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	s := New(db)

	m, err := s.Create(ctx, models.Member{FullName: "Bo", Email: "bo@example.org"})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SetRole(ctx, m.ID, models.RoleTreasurer); err != nil {
		t.Fatal(err)
	}
	if err := s.SetRole(ctx, m.ID, "emperor"); err == nil {
		t.Fatal("unknown role should fail")
	}
	if err := s.SetStatus(ctx, m.ID, models.MemberActive); err != nil {
		t.Fatal(err)
	}
	got, _ := s.GetByID(ctx, m.ID)
	if got.Role != models.RoleTreasurer || got.Status != models.MemberActive || got.JoinedAt == nil {
		t.Fatalf("member = %+v", got)
	}
	if err := s.SetStatus(ctx, primitive.NewObjectID(), models.MemberActive); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestListFilters(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	s := New(db)

	for _, m := range []models.Member{
		{FullName: "Cara", Email: "c@example.org", Status: models.MemberActive},
		{FullName: "Abe", Email: "a@example.org", Status: models.MemberActive, Role: models.RoleBoard},
		{FullName: "Ben", Email: "b@example.org"},
	} {
		if _, err := s.Create(ctx, m); err != nil {
			t.Fatal(err)
		}
	}

	all, err := s.List(ctx, Filter{})
	if err != nil || len(all) != 3 || all[0].FullName != "Abe" {
		t.Fatalf("List all = %v, %v", all, err)
	}
	active, _ := s.List(ctx, Filter{Status: models.MemberActive})
	if len(active) != 2 {
		t.Fatalf("active = %d", len(active))
	}
	board, _ := s.List(ctx, Filter{Role: models.RoleBoard})
	if len(board) != 1 || board[0].FullName != "Abe" {
		t.Fatalf("board = %v", board)
	}
	search, _ := s.List(ctx, Filter{Search: "b"})
	if len(search) != 1 || search[0].FullName != "Ben" {
		t.Fatalf("search = %v", search)
	}
}

func TestEnsurePresident(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	s := New(db)

	changed, err := s.EnsurePresident(ctx, "pres@example.org", "Pat President")
	if err != nil || !changed {
		t.Fatalf("first = %v, %v", changed, err)
	}
	changed, err = s.EnsurePresident(ctx, "PRES@example.org", "")
	if err != nil || changed {
		t.Fatalf("second = %v, %v", changed, err)
	}
	m, _ := s.GetByEmail(ctx, "pres@example.org")
	if m.Role != models.RolePresident || m.Status != models.MemberActive {
		t.Fatalf("member = %+v", m)
	}
}

func TestFetcher(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	s := New(db)
	f := NewFetcher(db)

	m, err := s.Create(ctx, models.Member{FullName: "Dee", Email: "dee@example.org", Status: models.MemberActive})
	if err != nil {
		t.Fatal(err)
	}
	u, err := f.FetchUser(ctx, m.ID.Hex())
	if err != nil || u.Name != "Dee" || !u.IsActive() {
		t.Fatalf("FetchUser = %+v, %v", u, err)
	}
	if _, err := f.FetchUser(ctx, primitive.NewObjectID().Hex()); !errors.Is(err, auth.ErrUserGone) {
		t.Fatalf("missing member err = %v", err)
	}
	if _, err := f.FetchUser(ctx, "nope"); !errors.Is(err, auth.ErrUserGone) {
		t.Fatalf("bad id err = %v", err)
	}
}

func TestContacts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	s := New(db)

	m, _ := s.Create(ctx, models.Member{FullName: "Eve", Email: "eve@example.org"})
	got, err := s.Contacts(ctx, []primitive.ObjectID{m.ID, primitive.NewObjectID()})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[m.ID].Email != "eve@example.org" {
		t.Fatalf("contacts = %v", got)
	}
}
