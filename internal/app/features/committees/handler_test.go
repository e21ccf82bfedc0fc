package committees_test

import (
	"net/http"
	"testing"

	"github.com/dalemusser/rotaractportal/internal/app/features/committees"
	committeestore "github.com/dalemusser/rotaractportal/internal/app/store/committees"
	"github.com/dalemusser/rotaractportal/internal/app/system/notify"
	"github.com/dalemusser/rotaractportal/internal/domain/models"
	"github.com/dalemusser/rotaractportal/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newHandler(db *mongo.Database) (*committees.Handler, *testutil.MailQueue) {
	q := &testutil.MailQueue{}
	n := notify.New(q, nil, notify.Config{SiteName: "Rotaract Test"}, zap.NewNop())
	return committees.NewHandler(db, nil, n, nil, zap.NewNop()), q
}

// asUser builds a TestUser for an existing member document.
func asUser(m models.Member) testutil.TestUser {
	return testutil.TestUser{ID: m.ID.Hex(), Name: m.FullName, Email: m.Email, Role: m.Role, Status: m.Status}
}

func TestRoutes_RequireSignIn(t *testing.T) {
	h, _ := newHandler(nil)
	id := primitive.NewObjectID().Hex()

	rec := testutil.NewRecorder()
	committees.Routes(h).ServeHTTP(rec, testutil.NewRequest(http.MethodGet, "/"))
	rec.AssertStatus(t, http.StatusUnauthorized)

	rec = testutil.NewRecorder()
	req := testutil.WithUser(testutil.NewRequest(http.MethodPost, "/"), testutil.MemberUser())
	committees.AdminRoutes(h).ServeHTTP(rec, req)
	rec.AssertStatus(t, http.StatusForbidden)

	rec = testutil.NewRecorder()
	req = testutil.WithUser(testutil.NewRequest(http.MethodPost, "/"+id+"/join"), testutil.InactiveMemberUser())
	committees.Routes(h).ServeHTTP(rec, req)
	rec.AssertStatus(t, http.StatusForbidden)

	rec = testutil.NewRecorder()
	req = testutil.WithUser(testutil.NewRequest(http.MethodPost, "/not-an-id/join"), testutil.MemberUser())
	committees.Routes(h).ServeHTTP(rec, req)
	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestJoinThenLeavePromotesWaitlistHead(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	h, mail := newHandler(db)
	router := committees.Routes(h)

	ana := fx.CreateActiveMember(ctx, "Ana", "ana@example.org")
	ben := fx.CreateActiveMember(ctx, "Ben", "ben@example.org")
	cam := fx.CreateActiveMember(ctx, "Cam", "cam@example.org")
	c := fx.CreateCommittee(ctx, "Service", 1, nil, nil)
	base := "/" + c.ID.Hex()

	for i, m := range []models.Member{ana, ben, cam} {
		rec := testutil.NewRecorder()
		router.ServeHTTP(rec, testutil.WithUser(testutil.NewRequest(http.MethodPost, base+"/join"), asUser(m)))
		rec.AssertStatus(t, http.StatusOK)
		var out struct {
			Placement string `json:"placement"`
			Position  int    `json:"position"`
		}
		rec.DecodeJSON(t, &out)
		switch i {
		case 0:
			if out.Placement != "member" {
				t.Errorf("first join placement = %q, want member", out.Placement)
			}
		default:
			if out.Placement != "waitlist" || out.Position != i {
				t.Errorf("join %d = %s/%d, want waitlist/%d", i, out.Placement, out.Position, i)
			}
		}
	}

	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.WithUser(testutil.NewRequest(http.MethodPost, base+"/join"), asUser(ben)))
	rec.AssertStatus(t, http.StatusConflict)

	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.WithUser(testutil.NewRequest(http.MethodPost, base+"/leave"), asUser(ana)))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, ben.ID.Hex())

	got, err := committeestore.New(db).GetByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if len(got.MemberIDs) != 1 || got.MemberIDs[0] != ben.ID {
		t.Errorf("members = %v, want [ben]", got.MemberIDs)
	}
	if len(got.WaitlistIDs) != 1 || got.WaitlistIDs[0] != cam.ID {
		t.Errorf("waitlist = %v, want [cam]", got.WaitlistIDs)
	}
	if rcpt := mail.Recipients(); len(rcpt) != 1 || rcpt[0] != ben.Email {
		t.Errorf("promotion emails = %v, want [%s]", rcpt, ben.Email)
	}
}

func TestLeave_LapsedMemberFreesSeat(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	h, mail := newHandler(db)
	router := committees.Routes(h)

	lapsed := fx.CreateMember(ctx, "Lee Lapsed", "lee@example.org", models.RoleMember, models.MemberInactive)
	alum := fx.CreateMember(ctx, "Al Alum", "al@example.org", models.RoleMember, models.MemberAlumni)
	next := fx.CreateActiveMember(ctx, "Nia Next", "nia@example.org")
	c := fx.CreateCommittee(ctx, "Outreach", 2, []primitive.ObjectID{lapsed.ID, alum.ID}, []primitive.ObjectID{next.ID})
	base := "/" + c.ID.Hex()

	// Lapsed members cannot join, but can still step down.
	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.WithUser(testutil.NewRequest(http.MethodPost, base+"/join"), asUser(lapsed)))
	rec.AssertStatus(t, http.StatusForbidden)

	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.WithUser(testutil.NewRequest(http.MethodPost, base+"/leave"), asUser(lapsed)))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, next.ID.Hex())

	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.WithUser(testutil.NewRequest(http.MethodPost, base+"/leave"), asUser(alum)))
	rec.AssertStatus(t, http.StatusOK)

	got, err := committeestore.New(db).GetByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if len(got.MemberIDs) != 1 || got.MemberIDs[0] != next.ID || len(got.WaitlistIDs) != 0 {
		t.Errorf("members=%v waitlist=%v, want [nia] []", got.MemberIDs, got.WaitlistIDs)
	}
	if rcpt := mail.Recipients(); len(rcpt) != 1 || rcpt[0] != next.Email {
		t.Errorf("promotion emails = %v, want [%s]", rcpt, next.Email)
	}

	rec = testutil.NewRecorder()
	committees.Routes(h).ServeHTTP(rec, testutil.NewRequest(http.MethodPost, base+"/leave"))
	rec.AssertStatus(t, http.StatusUnauthorized)
}

func TestRemoveMember_PolicyAndPromotion(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	h, mail := newHandler(db)
	router := committees.Routes(h)

	chair := fx.CreateActiveMember(ctx, "Chair", "chair@example.org")
	seat := fx.CreateActiveMember(ctx, "Seat", "seat@example.org")
	wait := fx.CreateActiveMember(ctx, "Wait", "wait@example.org")
	c := fx.CreateCommittee(ctx, "Events", 2, []primitive.ObjectID{chair.ID, seat.ID}, []primitive.ObjectID{wait.ID})
	if _, _, err := committeestore.New(db).UpdateSettings(ctx, c.ID, committeestore.Settings{ChairID: &chair.ID}); err != nil {
		t.Fatalf("set chair: %v", err)
	}
	target := "/" + c.ID.Hex() + "/members/" + seat.ID.Hex() + "/remove"

	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.WithUser(testutil.NewRequest(http.MethodPost, target), asUser(wait)))
	rec.AssertStatus(t, http.StatusForbidden)

	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.WithUser(testutil.NewRequest(http.MethodPost, target), asUser(chair)))
	rec.AssertStatus(t, http.StatusOK)

	got, _ := committeestore.New(db).GetByID(ctx, c.ID)
	if len(got.MemberIDs) != 2 || len(got.WaitlistIDs) != 0 {
		t.Errorf("after removal members=%v waitlist=%v", got.MemberIDs, got.WaitlistIDs)
	}
	if rcpt := mail.Recipients(); len(rcpt) != 1 || rcpt[0] != wait.Email {
		t.Errorf("promotion emails = %v", rcpt)
	}

	// Removing someone no longer seated is a conflict, not a second promotion.
	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.WithUser(testutil.NewRequest(http.MethodPost, target), asUser(chair)))
	rec.AssertStatus(t, http.StatusConflict)
	if n := len(mail.Recipients()); n != 1 {
		t.Errorf("emails after repeat removal = %d, want 1", n)
	}
}

func TestAdminCapacityRaisePromotes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.EnsureIndexes(t, db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	h, mail := newHandler(db)
	admin := committees.AdminRoutes(h)
	board := testutil.BoardUser()

	rec := testutil.NewRecorder()
	admin.ServeHTTP(rec, testutil.WithUser(testutil.JSONRequest(t, http.MethodPost, "/", map[string]any{"capacity": 1}), board))
	rec.AssertStatus(t, http.StatusBadRequest)

	var waiting []primitive.ObjectID
	for _, name := range []string{"w1", "w2", "w3"} {
		waiting = append(waiting, fx.CreateActiveMember(ctx, name, name+"@example.org").ID)
	}
	seated := fx.CreateActiveMember(ctx, "s1", "s1@example.org")
	c := fx.CreateCommittee(ctx, "Fundraising", 1, []primitive.ObjectID{seated.ID}, waiting)

	rec = testutil.NewRecorder()
	admin.ServeHTTP(rec, testutil.WithUser(testutil.JSONRequest(t, http.MethodPatch, "/"+c.ID.Hex(), map[string]any{"capacity": 3}), board))
	rec.AssertStatus(t, http.StatusOK)

	var out struct {
		Promoted []string `json:"promoted_member_ids"`
	}
	rec.DecodeJSON(t, &out)
	if len(out.Promoted) != 2 || out.Promoted[0] != waiting[0].Hex() || out.Promoted[1] != waiting[1].Hex() {
		t.Errorf("promoted = %v, want first two waitlisted in order", out.Promoted)
	}
	if n := len(mail.Recipients()); n != 2 {
		t.Errorf("promotion emails = %d, want 2", n)
	}

	rec = testutil.NewRecorder()
	admin.ServeHTTP(rec, testutil.WithUser(testutil.NewRequest(http.MethodDelete, "/"+c.ID.Hex()), board))
	rec.AssertStatus(t, http.StatusNoContent)
}
