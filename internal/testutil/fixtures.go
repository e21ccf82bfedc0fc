package testutil

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/rotaractportal/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// Fixtures provides helper methods for creating test data. Documents are
// written straight to their collections so store packages can use fixtures
// in their own tests.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

func (f *Fixtures) insert(ctx context.Context, coll string, doc any) {
	f.t.Helper()
	if _, err := f.db.Collection(coll).InsertOne(ctx, doc); err != nil {
		f.t.Fatalf("insert into %s: %v", coll, err)
	}
}

// CreateMember inserts a member with the given role and status.
func (f *Fixtures) CreateMember(ctx context.Context, fullName, email, role, status string) models.Member {
	f.t.Helper()
	now := time.Now().UTC()
	m := models.Member{
		ID:         primitive.NewObjectID(),
		FullName:   fullName,
		FullNameCI: text.Fold(fullName),
		Email:      email,
		EmailCI:    strings.ToLower(strings.TrimSpace(email)),
		AuthMethod: models.AuthPassword,
		Role:       role,
		Status:     status,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	f.insert(ctx, "members", m)
	return m
}

// CreateActiveMember inserts an active member with the member role.
func (f *Fixtures) CreateActiveMember(ctx context.Context, fullName, email string) models.Member {
	f.t.Helper()
	return f.CreateMember(ctx, fullName, email, models.RoleMember, models.MemberActive)
}

// CreateMemberWithPassword inserts an active member who signs in with password.
func (f *Fixtures) CreateMemberWithPassword(ctx context.Context, fullName, email, role, status, password string) models.Member {
	f.t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		f.t.Fatalf("hash password: %v", err)
	}
	now := time.Now().UTC()
	m := models.Member{
		ID:           primitive.NewObjectID(),
		FullName:     fullName,
		FullNameCI:   text.Fold(fullName),
		Email:        email,
		EmailCI:      strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: string(hash),
		AuthMethod:   models.AuthPassword,
		Role:         role,
		Status:       status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	f.insert(ctx, "members", m)
	return m
}

// CreateCommittee inserts a committee with the given roster.
func (f *Fixtures) CreateCommittee(ctx context.Context, name string, capacity int, members, waitlist []primitive.ObjectID) models.Committee {
	f.t.Helper()
	if members == nil {
		members = []primitive.ObjectID{}
	}
	if waitlist == nil {
		waitlist = []primitive.ObjectID{}
	}
	now := time.Now().UTC()
	c := models.Committee{
		ID:          primitive.NewObjectID(),
		Name:        name,
		NameCI:      text.Fold(name),
		Capacity:    capacity,
		MemberIDs:   members,
		WaitlistIDs: waitlist,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	f.insert(ctx, "committees", c)
	return c
}

// CreateActivity inserts an activity in the given status.
func (f *Fixtures) CreateActivity(ctx context.Context, title, status string, budget int64, createdBy primitive.ObjectID, submitters ...primitive.ObjectID) models.Activity {
	f.t.Helper()
	if submitters == nil {
		submitters = []primitive.ObjectID{}
	}
	now := time.Now().UTC()
	a := models.Activity{
		ID:                       primitive.NewObjectID(),
		Title:                    title,
		Status:                   status,
		Budget:                   models.ActivityBudget{Amount: budget},
		AllowedExpenseSubmitters: submitters,
		CreatedBy:                createdBy,
		CreatedAt:                now,
		UpdatedAt:                now,
	}
	if status == models.ActivityApproved {
		a.Approvals.PresidentApproved = true
		a.Approvals.PresidentApprovedAt = &now
	}
	f.insert(ctx, "activities", a)
	return a
}

// CreateExpense inserts an expense in the given review status.
func (f *Fixtures) CreateExpense(ctx context.Context, activityID, submittedBy primitive.ObjectID, amount int64, status string) models.Expense {
	f.t.Helper()
	now := time.Now().UTC()
	e := models.Expense{
		ID:          primitive.NewObjectID(),
		ActivityID:  activityID,
		Amount:      amount,
		Description: "supplies",
		Status:      status,
		SubmittedBy: submittedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	f.insert(ctx, "expenses", e)
	return e
}

// CreateEvent inserts a published public event. A nil pricing makes it free.
func (f *Fixtures) CreateEvent(ctx context.Context, title string, capacity int, pricing *models.EventPricing) models.Event {
	f.t.Helper()
	now := time.Now().UTC()
	e := models.Event{
		ID:         primitive.NewObjectID(),
		Title:      title,
		StartsAt:   now.Add(14 * 24 * time.Hour),
		Capacity:   capacity,
		Visibility: models.VisibilityPublic,
		Status:     models.EventPublished,
		Pricing:    pricing,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	f.insert(ctx, "events", e)
	return e
}

// CreateDuesCycle inserts an active dues cycle covering the current year.
func (f *Fixtures) CreateDuesCycle(ctx context.Context, name string, amount int64) models.DuesCycle {
	f.t.Helper()
	now := time.Now().UTC()
	c := models.DuesCycle{
		ID:        primitive.NewObjectID(),
		Name:      name,
		Amount:    amount,
		StartsAt:  now.AddDate(0, -1, 0),
		EndsAt:    now.AddDate(1, -1, 0),
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.insert(ctx, "duesCycles", c)
	return c
}

// CreateOfflinePayment inserts a pending offline payment report.
func (f *Fixtures) CreateOfflinePayment(ctx context.Context, kind string, relatedID, memberID primitive.ObjectID, amount int64) models.OfflinePayment {
	f.t.Helper()
	now := time.Now().UTC()
	p := models.OfflinePayment{
		ID:        primitive.NewObjectID(),
		Type:      kind,
		RelatedID: relatedID,
		MemberID:  memberID,
		Amount:    amount,
		Method:    "cash",
		Status:    models.ReviewPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.insert(ctx, "offlinePayments", p)
	return p
}
