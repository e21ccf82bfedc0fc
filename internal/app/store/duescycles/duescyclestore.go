// internal/app/store/duescycles/duescyclestore.go
package duescyclestore

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

const Collection = "duesCycles"

var (
	ErrNotFound      = errs.NotFound("dues cycle")
	ErrInactive      = errs.Conflict("dues cycle is not open for payment")
	ErrInvalidAmount = errs.Invalid("amount must be greater than zero")
	ErrInvalidRange  = errs.Invalid("ends_at must be after starts_at")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.DuesCycle, error) {
	var c models.DuesCycle
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.DuesCycle{}, ErrNotFound
		}
		return models.DuesCycle{}, err
	}
	return c, nil
}

// List returns cycles, most recent first.
func (s *Store) List(ctx context.Context, activeOnly bool) ([]models.DuesCycle, error) {
	filter := bson.M{}
	if activeOnly {
		filter["active"] = true
	}
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "starts_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.DuesCycle{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) Create(ctx context.Context, c models.DuesCycle) (models.DuesCycle, error) {
	if c.Amount <= 0 {
		return models.DuesCycle{}, ErrInvalidAmount
	}
	if !c.EndsAt.After(c.StartsAt) {
		return models.DuesCycle{}, ErrInvalidRange
	}
	now := time.Now().UTC()
	c.ID = primitive.NewObjectID()
	c.Name = strings.TrimSpace(c.Name)
	c.StartsAt = c.StartsAt.UTC()
	c.EndsAt = c.EndsAt.UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, c); err != nil {
		return models.DuesCycle{}, err
	}
	return c, nil
}

// SetActive opens or closes a cycle for payment.
func (s *Store) SetActive(ctx context.Context, id primitive.ObjectID, active bool) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"active":     active,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
