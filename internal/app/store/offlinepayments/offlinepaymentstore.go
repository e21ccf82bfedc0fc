// internal/app/store/offlinepayments/offlinepaymentstore.go
package offlinepaymentstore

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

const Collection = "offlinePayments"

var (
	ErrNotFound      = errs.NotFound("offline payment")
	ErrNotPending    = errs.Conflict("offline payment has already been reviewed")
	ErrInvalidType   = errs.Invalid("type must be dues or event")
	ErrInvalidMethod = errs.Invalid("method must be cash, check or transfer")
	ErrInvalidAmount = errs.Invalid("amount must be greater than zero")
)

// Methods lists the accepted offline payment methods.
var Methods = []string{"cash", "check", "transfer"}

func validMethod(m string) bool {
	for _, v := range Methods {
		if v == m {
			return true
		}
	}
	return false
}

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.OfflinePayment, error) {
	var p models.OfflinePayment
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.OfflinePayment{}, ErrNotFound
		}
		return models.OfflinePayment{}, err
	}
	return p, nil
}

// List returns offline payments newest first, optionally by status.
func (s *Store) List(ctx context.Context, status string) ([]models.OfflinePayment, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.OfflinePayment{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create records a member-reported payment awaiting treasurer review.
func (s *Store) Create(ctx context.Context, p models.OfflinePayment) (models.OfflinePayment, error) {
	if p.Type != models.PaymentForDues && p.Type != models.PaymentForEvent {
		return models.OfflinePayment{}, ErrInvalidType
	}
	p.Method = strings.ToLower(strings.TrimSpace(p.Method))
	if !validMethod(p.Method) {
		return models.OfflinePayment{}, ErrInvalidMethod
	}
	if p.Amount <= 0 {
		return models.OfflinePayment{}, ErrInvalidAmount
	}
	now := time.Now().UTC()
	p.ID = primitive.NewObjectID()
	p.Reference = strings.TrimSpace(p.Reference)
	p.Status = models.ReviewPending
	p.ReviewedBy = nil
	p.ReviewedAt = nil
	p.CreatedAt = now
	p.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, p); err != nil {
		return models.OfflinePayment{}, err
	}
	return p, nil
}

// Review moves a pending payment to approved or rejected.
func (s *Store) Review(ctx context.Context, id, reviewer primitive.ObjectID, approve bool) (models.OfflinePayment, error) {
	now := time.Now().UTC()
	status := models.ReviewRejected
	if approve {
		status = models.ReviewApproved
	}
	update := bson.M{"$set": bson.M{
		"status":      status,
		"reviewed_by": reviewer,
		"reviewed_at": now,
		"updated_at":  now,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var p models.OfflinePayment
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id, "status": models.ReviewPending}, update, opts).Decode(&p)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return models.OfflinePayment{}, err
	}
	if _, gerr := s.GetByID(ctx, id); gerr != nil {
		return models.OfflinePayment{}, gerr
	}
	return models.OfflinePayment{}, ErrNotPending
}
