// internal/app/store/committees/committeestore.go
package committeestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/rotaractportal/internal/domain/errs"
	"github.com/dalemusser/rotaractportal/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const Collection = "committees"

var (
	ErrNotFound      = errs.NotFound("committee")
	ErrDuplicateName = errs.Conflict("a committee with this name already exists")
	// ErrRosterChanged means another request changed the roster between our
	// read and write. Callers re-read and re-plan.
	ErrRosterChanged = errs.Conflict("committee roster changed, try again")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Committee, error) {
	var c models.Committee
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Committee{}, ErrNotFound
		}
		return models.Committee{}, err
	}
	return c, nil
}

// List returns all committees sorted by name.
func (s *Store) List(ctx context.Context) ([]models.Committee, error) {
	cur, err := s.c.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.Committee{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListForMember returns the committees id sits on or waits for.
func (s *Store) ListForMember(ctx context.Context, id primitive.ObjectID) ([]models.Committee, error) {
	filter := bson.M{"$or": []bson.M{{"member_ids": id}, {"waitlist_ids": id}}}
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.Committee{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) Create(ctx context.Context, c models.Committee) (models.Committee, error) {
	now := time.Now().UTC()
	c.ID = primitive.NewObjectID()
	c.Name = strings.TrimSpace(c.Name)
	c.NameCI = text.Fold(c.Name)
	if c.Capacity < 0 {
		return models.Committee{}, errs.Invalid("capacity must not be negative")
	}
	if c.MemberIDs == nil {
		c.MemberIDs = []primitive.ObjectID{}
	}
	if c.WaitlistIDs == nil {
		c.WaitlistIDs = []primitive.ObjectID{}
	}
	c.RosterVersion = 0
	c.CreatedAt = now
	c.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, c); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Committee{}, ErrDuplicateName
		}
		return models.Committee{}, err
	}
	return c, nil
}

// Delete removes a committee. Returns ErrNotFound if nothing was deleted.
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

// write commits a new state for c guarded by the roster version it was read
// at. set must not be empty; unset may be nil.
func (s *Store) write(ctx context.Context, c models.Committee, set, unset bson.M) error {
	set["updated_at"] = time.Now().UTC()
	update := bson.M{
		"$set": set,
		"$inc": bson.M{"roster_version": 1},
	}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": c.ID, "roster_version": c.RosterVersion}, update)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateName
		}
		return err
	}
	if res.MatchedCount == 0 {
		// Either deleted or concurrently modified.
		n, err := s.c.CountDocuments(ctx, bson.M{"_id": c.ID})
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		return ErrRosterChanged
	}
	return nil
}
