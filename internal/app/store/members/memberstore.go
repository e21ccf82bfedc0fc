// internal/app/store/members/memberstore.go
package memberstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/rotaractportal/internal/app/system/paging"
	"github.com/dalemusser/rotaractportal/internal/domain/errs"
	"github.com/dalemusser/rotaractportal/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const Collection = "members"

var (
	ErrNotFound       = errs.NotFound("member")
	ErrDuplicateEmail = errs.Conflict("a member with this email already exists")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// NormalizeEmail trims and lowercases an address for lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (models.Member, error) {
	var m models.Member
	if err := s.c.FindOne(ctx, filter).Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Member{}, ErrNotFound
		}
		return models.Member{}, err
	}
	return m, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Member, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// GetByEmail matches case-insensitively.
func (s *Store) GetByEmail(ctx context.Context, email string) (models.Member, error) {
	return s.findOne(ctx, bson.M{"email_ci": NormalizeEmail(email)})
}

func (s *Store) GetByGoogleID(ctx context.Context, googleID string) (models.Member, error) {
	if googleID == "" {
		return models.Member{}, ErrNotFound
	}
	return s.findOne(ctx, bson.M{"google_id": googleID})
}

// Create inserts a member. Role defaults to member and status to pending.
func (s *Store) Create(ctx context.Context, m models.Member) (models.Member, error) {
	now := time.Now().UTC()
	m.ID = primitive.NewObjectID()
	m.FullName = strings.TrimSpace(m.FullName)
	m.FullNameCI = text.Fold(m.FullName)
	m.Email = strings.TrimSpace(m.Email)
	m.EmailCI = NormalizeEmail(m.Email)
	if m.Role == "" {
		m.Role = models.RoleMember
	}
	if m.Status == "" {
		m.Status = models.MemberPending
	}
	if m.AuthMethod == "" {
		m.AuthMethod = models.AuthPassword
	}
	if !models.ValidRole(m.Role) || !models.ValidMemberStatus(m.Status) {
		return models.Member{}, errs.Invalid("invalid role or status")
	}
	m.CreatedAt = now
	m.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, m); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Member{}, ErrDuplicateEmail
		}
		return models.Member{}, err
	}
	return m, nil
}

// Filter narrows List. Empty fields match everything.
type Filter struct {
	Role   string
	Status string
	Search string // prefix of the folded full name
}

// List returns members sorted by name.
func (s *Store) List(ctx context.Context, f Filter) ([]models.Member, error) {
	opts := options.Find().SetSort(bson.D{{Key: "full_name_ci", Value: 1}, {Key: "_id", Value: 1}})
	return s.find(ctx, f.query(), opts)
}

// ListPage returns one keyset page of the directory, sorted by name. It
// fetches one extra row so the caller can detect a following page.
func (s *Store) ListPage(ctx context.Context, f Filter, cfg paging.KeysetConfig) ([]models.Member, error) {
	q := f.query()
	if ks := cfg.KeysetWindow("full_name_ci"); ks != nil {
		q = bson.M{"$and": []bson.M{q, ks}}
	}
	opts := options.Find()
	cfg.ApplyToFind(opts, "full_name_ci")
	return s.find(ctx, q, opts)
}

func (f Filter) query() bson.M {
	q := bson.M{}
	if f.Role != "" {
		q["role"] = f.Role
	}
	if f.Status != "" {
		q["status"] = f.Status
	}
	if f.Search != "" {
		q["full_name_ci"] = bson.M{"$regex": "^" + regexQuote(text.Fold(f.Search))}
	}
	return q
}

func (s *Store) find(ctx context.Context, q bson.M, opts *options.FindOptions) ([]models.Member, error) {
	cur, err := s.c.Find(ctx, q, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.Member{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) set(ctx context.Context, id primitive.ObjectID, set bson.M) error {
	set["updated_at"] = time.Now().UTC()
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) SetRole(ctx context.Context, id primitive.ObjectID, role string) error {
	if !models.ValidRole(role) {
		return errs.Invalid("unknown role %q", role)
	}
	return s.set(ctx, id, bson.M{"role": role})
}

// SetStatus changes the member's status. The first move to active stamps
// joined_at.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, status string) error {
	if !models.ValidMemberStatus(status) {
		return errs.Invalid("unknown status %q", status)
	}
	if err := s.set(ctx, id, bson.M{"status": status}); err != nil {
		return err
	}
	if status == models.MemberActive {
		_, err := s.c.UpdateOne(ctx,
			bson.M{"_id": id, "joined_at": bson.M{"$exists": false}},
			bson.M{"$set": bson.M{"joined_at": time.Now().UTC()}})
		return err
	}
	return nil
}

// LinkGoogle records the Google subject id on first Google sign-in.
func (s *Store) LinkGoogle(ctx context.Context, id primitive.ObjectID, googleID string) error {
	return s.set(ctx, id, bson.M{"google_id": googleID})
}

// Contact is the name and address used for notifications.
type Contact struct {
	ID    primitive.ObjectID `bson:"_id"`
	Name  string             `bson:"full_name"`
	Email string             `bson:"email"`
}

// Contacts loads names and emails for ids. Unknown ids are absent.
func (s *Store) Contacts(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]Contact, error) {
	out := make(map[primitive.ObjectID]Contact, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	opts := options.Find().SetProjection(bson.M{"full_name": 1, "email": 1})
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var c Contact
		if err := cur.Decode(&c); err != nil {
			return nil, err
		}
		out[c.ID] = c
	}
	return out, cur.Err()
}

// EnsurePresident makes sure the member with email exists, is active, and
// holds the president role. It reports whether anything changed.
func (s *Store) EnsurePresident(ctx context.Context, email, fullName string) (bool, error) {
	m, err := s.GetByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		if fullName == "" {
			fullName = email
		}
		_, err = s.Create(ctx, models.Member{
			FullName: fullName,
			Email:    email,
			Role:     models.RolePresident,
			Status:   models.MemberActive,
		})
		return err == nil, err
	}
	if err != nil {
		return false, err
	}
	if m.Role == models.RolePresident && m.Status == models.MemberActive {
		return false, nil
	}
	if err := s.SetRole(ctx, m.ID, models.RolePresident); err != nil {
		return false, err
	}
	return true, s.SetStatus(ctx, m.ID, models.MemberActive)
}

func regexQuote(s string) string {
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(`\.+*?()|[]{}^$`, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
