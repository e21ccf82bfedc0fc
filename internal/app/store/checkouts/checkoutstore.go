// internal/app/store/checkouts/checkoutstore.go
package checkoutstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/rotaractportal/internal/domain/errs"
	"github.com/dalemusser/rotaractportal/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	Collection       = "checkouts"
	EventsCollection = "stripeEvents"
)

var ErrNotFound = errs.NotFound("checkout")

type Store struct {
	c      *mongo.Collection
	events *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		c:      db.Collection(Collection),
		events: db.Collection(EventsCollection),
	}
}

// Create records a newly created checkout session as open.
func (s *Store) Create(ctx context.Context, c models.Checkout) (models.Checkout, error) {
	now := time.Now().UTC()
	c.ID = primitive.NewObjectID()
	c.Status = models.CheckoutOpen
	c.CompletedAt = nil
	c.CreatedAt = now
	c.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, c); err != nil {
		return models.Checkout{}, err
	}
	return c, nil
}

func (s *Store) GetBySession(ctx context.Context, sessionID string) (models.Checkout, error) {
	var c models.Checkout
	if err := s.c.FindOne(ctx, bson.M{"session_id": sessionID}).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Checkout{}, ErrNotFound
		}
		return models.Checkout{}, err
	}
	return c, nil
}

// Complete marks an open checkout completed. changed is false when the
// record was already closed or unknown.
func (s *Store) Complete(ctx context.Context, sessionID string, amountTotal int64, at time.Time) (changed bool, err error) {
	set := bson.M{
		"status":       models.CheckoutCompleted,
		"completed_at": at.UTC(),
		"updated_at":   time.Now().UTC(),
	}
	if amountTotal > 0 {
		set["amount_total"] = amountTotal
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"session_id": sessionID, "status": models.CheckoutOpen}, bson.M{"$set": set})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// Expire marks an open checkout expired.
func (s *Store) Expire(ctx context.Context, sessionID string) (changed bool, err error) {
	res, err := s.c.UpdateOne(ctx, bson.M{"session_id": sessionID, "status": models.CheckoutOpen}, bson.M{"$set": bson.M{
		"status":     models.CheckoutExpired,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// ListStale returns open checkouts created before cutoff, oldest first.
func (s *Store) ListStale(ctx context.Context, cutoff time.Time, limit int64) ([]models.Checkout, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := s.c.Find(ctx, bson.M{
		"status":     models.CheckoutOpen,
		"created_at": bson.M{"$lt": cutoff.UTC()},
	}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.Checkout{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// processedEvent is a Stripe webhook event we have applied.
type processedEvent struct {
	EventID     string    `bson:"event_id"`
	Type        string    `bson:"type"`
	ProcessedAt time.Time `bson:"processed_at"`
}

// SeenEvent reports whether a Stripe event id has already been applied.
func (s *Store) SeenEvent(ctx context.Context, eventID string) (bool, error) {
	n, err := s.events.CountDocuments(ctx, bson.M{"event_id": eventID})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// RecordEvent marks a Stripe event id as applied. first is false when another
// delivery recorded it first.
func (s *Store) RecordEvent(ctx context.Context, eventID, eventType string) (first bool, err error) {
	_, err = s.events.InsertOne(ctx, processedEvent{
		EventID:     eventID,
		Type:        eventType,
		ProcessedAt: time.Now().UTC(),
	})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
