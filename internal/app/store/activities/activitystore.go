// internal/app/store/activities/activitystore.go
package activitystore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/rotaractportal/internal/domain/errs"
	"github.com/dalemusser/rotaractportal/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const Collection = "activities"

var (
	ErrNotFound = errs.NotFound("activity")
	// ErrInvalidTransition means the activity was not in the status the
	// transition starts from (including a concurrent transition winning).
	ErrInvalidTransition = errs.Conflict("activity is not in a state that allows this change")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Activity, error) {
	var a models.Activity
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Activity{}, ErrNotFound
		}
		return models.Activity{}, err
	}
	return a, nil
}

// List returns activities newest first, optionally restricted to one status.
func (s *Store) List(ctx context.Context, status string) ([]models.Activity, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.Activity{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create inserts a new draft activity.
func (s *Store) Create(ctx context.Context, a models.Activity) (models.Activity, error) {
	now := time.Now().UTC()
	a.ID = primitive.NewObjectID()
	a.Title = strings.TrimSpace(a.Title)
	a.Status = models.ActivityDraft
	a.Approvals = models.ActivityApprovals{}
	a.Actual = models.ActivityActual{}
	if a.AllowedExpenseSubmitters == nil {
		a.AllowedExpenseSubmitters = []primitive.ObjectID{}
	}
	a.CreatedAt = now
	a.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, a); err != nil {
		return models.Activity{}, err
	}
	return a, nil
}

// Patch is a partial update of a draft activity. Nil fields are left alone.
type Patch struct {
	Title                    *string
	Description              *string
	BudgetAmount             *int64
	AllowedExpenseSubmitters []primitive.ObjectID
}

// UpdateDraft applies p while the activity is still a draft.
func (s *Store) UpdateDraft(ctx context.Context, id primitive.ObjectID, p Patch) (models.Activity, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if p.Title != nil {
		set["title"] = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		set["description"] = *p.Description
	}
	if p.BudgetAmount != nil {
		set["budget.amount"] = *p.BudgetAmount
	}
	if p.AllowedExpenseSubmitters != nil {
		set["allowed_expense_submitters"] = p.AllowedExpenseSubmitters
	}
	return s.transition(ctx, id, models.ActivityDraft, set, nil)
}

// Submit moves a draft to pending_approval.
func (s *Store) Submit(ctx context.Context, id primitive.ObjectID) (models.Activity, error) {
	return s.transition(ctx, id, models.ActivityDraft, bson.M{
		"status":     models.ActivityPendingApproval,
		"updated_at": time.Now().UTC(),
	}, bson.M{"approvals.rejection_reason": ""})
}

// Approve records the president's approval.
func (s *Store) Approve(ctx context.Context, id, presidentID primitive.ObjectID) (models.Activity, error) {
	now := time.Now().UTC()
	return s.transition(ctx, id, models.ActivityPendingApproval, bson.M{
		"status":                          models.ActivityApproved,
		"approvals.president_approved":    true,
		"approvals.president_approved_at": now,
		"approvals.president_id":          presidentID,
		"updated_at":                      now,
	}, bson.M{"approvals.rejection_reason": ""})
}

// Reject sends the budget back to draft with the president's reason.
func (s *Store) Reject(ctx context.Context, id, presidentID primitive.ObjectID, reason string) (models.Activity, error) {
	return s.transition(ctx, id, models.ActivityPendingApproval, bson.M{
		"status":                       models.ActivityDraft,
		"approvals.president_approved": false,
		"approvals.president_id":       presidentID,
		"approvals.rejection_reason":   strings.TrimSpace(reason),
		"updated_at":                   time.Now().UTC(),
	}, nil)
}

// transition applies set (and unset) only while the activity has status from.
func (s *Store) transition(ctx context.Context, id primitive.ObjectID, from string, set, unset bson.M) (models.Activity, error) {
	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var a models.Activity
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id, "status": from}, update, opts).Decode(&a)
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return models.Activity{}, err
	}
	if _, gerr := s.GetByID(ctx, id); gerr != nil {
		return models.Activity{}, gerr
	}
	return models.Activity{}, ErrInvalidTransition
}

// SetTotalSpent overwrites actual.total_spent.
func (s *Store) SetTotalSpent(ctx context.Context, id primitive.ObjectID, cents int64) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"actual.total_spent": cents,
		"updated_at":         time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a draft activity.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id, "status": models.ActivityDraft})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		if _, gerr := s.GetByID(ctx, id); gerr != nil {
			return gerr
		}
		return ErrInvalidTransition
	}
	return nil
}
