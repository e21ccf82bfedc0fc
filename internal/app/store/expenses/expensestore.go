// internal/app/store/expenses/expensestore.go
package expensestore

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

const Collection = "expenses"

var (
	ErrNotFound      = errs.NotFound("expense")
	ErrNotPending    = errs.Conflict("expense has already been reviewed")
	ErrInvalidAmount = errs.Invalid("amount must be greater than zero")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Expense, error) {
	var e models.Expense
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&e); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Expense{}, ErrNotFound
		}
		return models.Expense{}, err
	}
	return e, nil
}

// Filter narrows List. Zero values match everything.
type Filter struct {
	ActivityID  primitive.ObjectID
	Status      string
	SubmittedBy primitive.ObjectID
}

// List returns matching expenses newest first.
func (s *Store) List(ctx context.Context, f Filter) ([]models.Expense, error) {
	filter := bson.M{}
	if !f.ActivityID.IsZero() {
		filter["activity_id"] = f.ActivityID
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if !f.SubmittedBy.IsZero() {
		filter["submitted_by"] = f.SubmittedBy
	}
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.Expense{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create files a pending expense.
func (s *Store) Create(ctx context.Context, e models.Expense) (models.Expense, error) {
	if e.Amount <= 0 {
		return models.Expense{}, ErrInvalidAmount
	}
	now := time.Now().UTC()
	e.ID = primitive.NewObjectID()
	e.Description = strings.TrimSpace(e.Description)
	e.Vendor = strings.TrimSpace(e.Vendor)
	e.Status = models.ReviewPending
	e.ReviewedBy = nil
	e.ReviewedAt = nil
	e.RejectionReason = ""
	e.CreatedAt = now
	e.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, e); err != nil {
		return models.Expense{}, err
	}
	return e, nil
}

// Review moves a pending expense to approved or rejected. Only one reviewer
// can win; later calls get ErrNotPending.
func (s *Store) Review(ctx context.Context, id, reviewer primitive.ObjectID, approve bool, reason string) (models.Expense, error) {
	now := time.Now().UTC()
	set := bson.M{
		"reviewed_by": reviewer,
		"reviewed_at": now,
		"updated_at":  now,
	}
	if approve {
		set["status"] = models.ReviewApproved
	} else {
		set["status"] = models.ReviewRejected
		set["rejection_reason"] = strings.TrimSpace(reason)
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var e models.Expense
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id, "status": models.ReviewPending}, bson.M{"$set": set}, opts).Decode(&e)
	if err == nil {
		return e, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return models.Expense{}, err
	}
	if _, gerr := s.GetByID(ctx, id); gerr != nil {
		return models.Expense{}, gerr
	}
	return models.Expense{}, ErrNotPending
}

// SumApproved totals the approved expenses for an activity in cents.
func (s *Store) SumApproved(ctx context.Context, activityID primitive.ObjectID) (int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"activity_id": activityID, "status": models.ReviewApproved}}},
		{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": "$amount"}}}},
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	defer cur.Close(ctx)
	var rows []struct {
		Total int64 `bson:"total"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Total, nil
}

// SumApprovedByActivity totals approved expenses for every activity that has any.
func (s *Store) SumApprovedByActivity(ctx context.Context) (map[primitive.ObjectID]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"status": models.ReviewApproved}}},
		{{Key: "$group", Value: bson.M{"_id": "$activity_id", "total": bson.M{"$sum": "$amount"}}}},
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var rows []struct {
		ID    primitive.ObjectID `bson:"_id"`
		Total int64              `bson:"total"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	out := make(map[primitive.ObjectID]int64, len(rows))
	for _, r := range rows {
		out[r.ID] = r.Total
	}
	return out, nil
}
