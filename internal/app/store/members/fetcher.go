package memberstore

import (
	"context"
	"errors"

	"github.com/dalemusser/rotaractportal/internal/app/system/auth"
	"github.com/dalemusser/rotaractportal/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Fetcher implements auth.UserFetcher, reloading the member on every request
// so role and status changes apply immediately.
type Fetcher struct {
	c *mongo.Collection
}

func NewFetcher(db *mongo.Database) *Fetcher {
	return &Fetcher{c: db.Collection(Collection)}
}

func (f *Fetcher) FetchUser(ctx context.Context, id string) (*auth.SessionUser, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, auth.ErrUserGone
	}
	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	var m struct {
		FullName string `bson:"full_name"`
		Email    string `bson:"email"`
		Role     string `bson:"role"`
		Status   string `bson:"status"`
	}
	proj := options.FindOne().SetProjection(bson.M{"full_name": 1, "email": 1, "role": 1, "status": 1})
	if err := f.c.FindOne(ctx, bson.M{"_id": oid}, proj).Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, auth.ErrUserGone
		}
		return nil, err
	}
	return &auth.SessionUser{
		ID:     id,
		Name:   m.FullName,
		Email:  m.Email,
		Role:   m.Role,
		Status: m.Status,
	}, nil
}
