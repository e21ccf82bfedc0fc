// internal/app/store/posts/poststore.go
package poststore

import (
	"context"
	"errors"
	"regexp"
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

const Collection = "posts"

var (
	ErrNotFound      = errs.NotFound("post")
	ErrDuplicateSlug = errs.Conflict("a post with this slug already exists")
	ErrEmptySlug     = errs.Invalid("slug must contain at least one letter or digit")
)

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify derives a URL slug from a title.
func Slugify(s string) string {
	s = nonSlug.ReplaceAllString(text.Fold(s), "-")
	return strings.Trim(s, "-")
}

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Post, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// GetBySlug returns a post by slug. When publishedOnly is set drafts are
// reported as not found.
func (s *Store) GetBySlug(ctx context.Context, slug string, publishedOnly bool) (models.Post, error) {
	filter := bson.M{"slug": slug}
	if publishedOnly {
		filter["published"] = true
	}
	return s.findOne(ctx, filter)
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (models.Post, error) {
	var p models.Post
	if err := s.c.FindOne(ctx, filter).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Post{}, ErrNotFound
		}
		return models.Post{}, err
	}
	return p, nil
}

// List returns posts, newest published first.
func (s *Store) List(ctx context.Context, publishedOnly bool, limit int64) ([]models.Post, error) {
	filter := bson.M{}
	if publishedOnly {
		filter["published"] = true
	}
	opts := options.Find().SetSort(bson.D{{Key: "published_at", Value: -1}, {Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.Post{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create inserts a post. The slug is derived from the title when empty.
// Body must already be sanitized.
func (s *Store) Create(ctx context.Context, p models.Post) (models.Post, error) {
	now := time.Now().UTC()
	p.ID = primitive.NewObjectID()
	p.Title = strings.TrimSpace(p.Title)
	if p.Slug == "" {
		p.Slug = p.Title
	}
	p.Slug = Slugify(p.Slug)
	if p.Slug == "" {
		return models.Post{}, ErrEmptySlug
	}
	if p.Published {
		p.PublishedAt = &now
	} else {
		p.PublishedAt = nil
	}
	p.CreatedAt = now
	p.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, p); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Post{}, ErrDuplicateSlug
		}
		return models.Post{}, err
	}
	return p, nil
}

// Patch is a partial post update. Nil fields are left alone.
type Patch struct {
	Title     *string
	Slug      *string
	Body      *string
	Published *bool
}

// Update applies p. Publishing a draft stamps published_at once.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, p Patch) (models.Post, error) {
	cur, err := s.GetByID(ctx, id)
	if err != nil {
		return models.Post{}, err
	}
	now := time.Now().UTC()
	set := bson.M{"updated_at": now}
	if p.Title != nil {
		set["title"] = strings.TrimSpace(*p.Title)
	}
	if p.Slug != nil {
		slug := Slugify(*p.Slug)
		if slug == "" {
			return models.Post{}, ErrEmptySlug
		}
		set["slug"] = slug
	}
	if p.Body != nil {
		set["body"] = *p.Body
	}
	if p.Published != nil {
		set["published"] = *p.Published
		if *p.Published && cur.PublishedAt == nil {
			set["published_at"] = now
		}
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var out models.Post
	if err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&out); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Post{}, ErrDuplicateSlug
		}
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Post{}, ErrNotFound
		}
		return models.Post{}, err
	}
	return out, nil
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
