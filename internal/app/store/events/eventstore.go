// internal/app/store/events/eventstore.go
package eventstore

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

const Collection = "events"

var (
	ErrNotFound          = errs.NotFound("event")
	ErrInvalidVisibility = errs.Invalid("visibility must be public or members")
	ErrInvalidStatus     = errs.Invalid("status must be draft, published or cancelled")
	ErrInvalidCapacity   = errs.Invalid("capacity must not be negative")
	ErrInvalidPricing    = errs.Invalid("prices must not be negative")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Event, error) {
	var e models.Event
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&e); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Event{}, ErrNotFound
		}
		return models.Event{}, err
	}
	return e, nil
}

// Filter narrows List.
type Filter struct {
	// PublishedOnly hides drafts and cancelled events.
	PublishedOnly bool
	// PublicOnly hides members-only events.
	PublicOnly bool
	// From, when set, hides events starting before it.
	From *time.Time
}

// List returns events in start order.
func (s *Store) List(ctx context.Context, f Filter) ([]models.Event, error) {
	filter := bson.M{}
	if f.PublishedOnly {
		filter["status"] = models.EventPublished
	}
	if f.PublicOnly {
		filter["visibility"] = models.VisibilityPublic
	}
	if f.From != nil {
		filter["starts_at"] = bson.M{"$gte": *f.From}
	}
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "starts_at", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.Event{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func validate(e models.Event) error {
	if e.Visibility != models.VisibilityPublic && e.Visibility != models.VisibilityMembers {
		return ErrInvalidVisibility
	}
	switch e.Status {
	case models.EventDraft, models.EventPublished, models.EventCancelled:
	default:
		return ErrInvalidStatus
	}
	if e.Capacity < 0 {
		return ErrInvalidCapacity
	}
	if p := e.Pricing; p != nil {
		if p.MemberPrice < 0 || p.GuestPrice < 0 || (p.EarlyBirdPrice != nil && *p.EarlyBirdPrice < 0) {
			return ErrInvalidPricing
		}
	}
	return nil
}

// Create inserts an event. Empty visibility defaults to public and empty
// status to draft.
func (s *Store) Create(ctx context.Context, e models.Event) (models.Event, error) {
	e.Title = strings.TrimSpace(e.Title)
	e.Location = strings.TrimSpace(e.Location)
	if e.Visibility == "" {
		e.Visibility = models.VisibilityPublic
	}
	if e.Status == "" {
		e.Status = models.EventDraft
	}
	if err := validate(e); err != nil {
		return models.Event{}, err
	}
	now := time.Now().UTC()
	e.ID = primitive.NewObjectID()
	e.CreatedAt = now
	e.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, e); err != nil {
		return models.Event{}, err
	}
	return e, nil
}

// Patch is a partial event update. Nil fields are left alone.
type Patch struct {
	Title        *string
	Description  *string
	Location     *string
	StartsAt     *time.Time
	Capacity     *int
	Visibility   *string
	Status       *string
	Pricing      *models.EventPricing
	ClearPricing bool
}

// Update applies p and returns the updated event.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, p Patch) (models.Event, error) {
	cur, err := s.GetByID(ctx, id)
	if err != nil {
		return models.Event{}, err
	}
	if p.Title != nil {
		cur.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		cur.Description = *p.Description
	}
	if p.Location != nil {
		cur.Location = strings.TrimSpace(*p.Location)
	}
	if p.StartsAt != nil {
		cur.StartsAt = p.StartsAt.UTC()
	}
	if p.Capacity != nil {
		cur.Capacity = *p.Capacity
	}
	if p.Visibility != nil {
		cur.Visibility = *p.Visibility
	}
	if p.Status != nil {
		cur.Status = *p.Status
	}
	if p.Pricing != nil {
		cur.Pricing = p.Pricing
	}
	if p.ClearPricing {
		cur.Pricing = nil
	}
	if err := validate(cur); err != nil {
		return models.Event{}, err
	}
	cur.UpdatedAt = time.Now().UTC()

	set := bson.M{
		"title":       cur.Title,
		"description": cur.Description,
		"location":    cur.Location,
		"starts_at":   cur.StartsAt,
		"capacity":    cur.Capacity,
		"visibility":  cur.Visibility,
		"status":      cur.Status,
		"updated_at":  cur.UpdatedAt,
	}
	update := bson.M{"$set": set}
	if cur.Pricing != nil {
		set["pricing"] = cur.Pricing
	} else {
		update["$unset"] = bson.M{"pricing": ""}
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return models.Event{}, err
	}
	if res.MatchedCount == 0 {
		return models.Event{}, ErrNotFound
	}
	return cur, nil
}

func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
