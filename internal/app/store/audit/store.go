// internal/app/store/audit/store.go
package audit

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const Collection = "audit_logs"

// Event categories
const (
	CategoryAuth     = "auth"
	CategoryAdmin    = "admin"
	CategoryFinance  = "finance"
	CategoryPayments = "payments"
)

// Auth event types
const (
	EventLoginSuccess             = "login_success"
	EventLoginFailedUserNotFound  = "login_failed_user_not_found"
	EventLoginFailedWrongPassword = "login_failed_wrong_password"
	EventLoginFailedInactive      = "login_failed_inactive"
	EventLoginFailedRateLimit     = "login_failed_rate_limit"
	EventLogout                   = "logout"
	EventRegistered               = "registered"
	EventTokenIssued              = "token_issued"
)

// Admin event types
const (
	EventRoleChanged       = "role_changed"
	EventStatusChanged     = "status_changed"
	EventMembersImported   = "members_imported"
	EventCommitteeCreated  = "committee_created"
	EventCommitteeUpdated  = "committee_updated"
	EventCommitteeDeleted  = "committee_deleted"
	EventCommitteeRemoval  = "committee_member_removed"
	EventWaitlistPromotion = "waitlist_promotion"
	EventEventCreated      = "event_created"
	EventEventUpdated      = "event_updated"
	EventEventDeleted      = "event_deleted"
	EventPostCreated       = "post_created"
	EventPostUpdated       = "post_updated"
	EventPostDeleted       = "post_deleted"
)

// Finance event types
const (
	EventActivityCreated        = "activity_created"
	EventActivitySubmitted      = "activity_submitted"
	EventActivityApproved       = "activity_approved"
	EventActivityRejected       = "activity_rejected"
	EventExpenseSubmitted       = "expense_submitted"
	EventExpenseApproved        = "expense_approved"
	EventExpenseRejected        = "expense_rejected"
	EventOfflinePaymentReported = "offline_payment_reported"
	EventOfflinePaymentApproved = "offline_payment_approved"
	EventOfflinePaymentRejected = "offline_payment_rejected"
	EventDuesCycleCreated       = "dues_cycle_created"
	EventDuesCycleUpdated       = "dues_cycle_updated"
)

// Payment event types
const (
	EventCheckoutCreated   = "checkout_created"
	EventCheckoutCompleted = "checkout_completed"
	EventCheckoutExpired   = "checkout_expired"
)

// Event is one audit record.
type Event struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Timestamp time.Time          `bson:"timestamp"`

	Category  string `bson:"category"`
	EventType string `bson:"event_type"`

	// ActorID performed the action; SubjectID is the member it affected.
	ActorID   *primitive.ObjectID `bson:"actor_id,omitempty"`
	SubjectID *primitive.ObjectID `bson:"subject_id,omitempty"`

	IP        string `bson:"ip,omitempty"`
	UserAgent string `bson:"user_agent,omitempty"`

	Success       bool   `bson:"success"`
	FailureReason string `bson:"failure_reason,omitempty"`

	Details map[string]string `bson:"details,omitempty"`
}

// QueryFilter narrows Query. Zero values match everything.
type QueryFilter struct {
	ActorID   *primitive.ObjectID
	SubjectID *primitive.ObjectID
	Category  string
	EventType string
	StartTime *time.Time
	EndTime   *time.Time
	Limit     int64
	Offset    int64
}

// Store manages audit event records.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// Log records an audit event.
func (s *Store) Log(ctx context.Context, event Event) error {
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, event)
	return err
}

func (f QueryFilter) query() bson.M {
	q := bson.M{}
	if f.ActorID != nil {
		q["actor_id"] = *f.ActorID
	}
	if f.SubjectID != nil {
		q["subject_id"] = *f.SubjectID
	}
	if f.Category != "" {
		q["category"] = f.Category
	}
	if f.EventType != "" {
		q["event_type"] = f.EventType
	}
	if f.StartTime != nil || f.EndTime != nil {
		tq := bson.M{}
		if f.StartTime != nil {
			tq["$gte"] = *f.StartTime
		}
		if f.EndTime != nil {
			tq["$lte"] = *f.EndTime
		}
		q["timestamp"] = tq
	}
	return q
}

// Query returns matching events newest first. Limit defaults to 100.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit).
		SetSkip(filter.Offset)

	cursor, err := s.c.Find(ctx, filter.query(), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	events := []Event{}
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// CountByFilter returns the number of matching events.
func (s *Store) CountByFilter(ctx context.Context, filter QueryFilter) (int64, error) {
	return s.c.CountDocuments(ctx, filter.query())
}
