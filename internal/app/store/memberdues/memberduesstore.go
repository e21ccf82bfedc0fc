// internal/app/store/memberdues/memberduesstore.go
package memberduesstore

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

const Collection = "memberDues"

var (
	ErrNotFound    = errs.NotFound("member dues")
	ErrAlreadyPaid = errs.Conflict("dues for this cycle are already paid")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// Get returns the record for (member, cycle).
func (s *Store) Get(ctx context.Context, memberID, cycleID primitive.ObjectID) (models.MemberDues, error) {
	var d models.MemberDues
	if err := s.c.FindOne(ctx, bson.M{"member_id": memberID, "cycle_id": cycleID}).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.MemberDues{}, ErrNotFound
		}
		return models.MemberDues{}, err
	}
	return d, nil
}

// ListForMember returns a member's dues records, newest first.
func (s *Store) ListForMember(ctx context.Context, memberID primitive.ObjectID) ([]models.MemberDues, error) {
	return s.find(ctx, bson.M{"member_id": memberID})
}

// ListByCycle returns all records for a cycle.
func (s *Store) ListByCycle(ctx context.Context, cycleID primitive.ObjectID) ([]models.MemberDues, error) {
	return s.find(ctx, bson.M{"cycle_id": cycleID})
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.MemberDues, error) {
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.MemberDues{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MarkPending records a started checkout for (member, cycle). A record that
// is already paid is never touched: the upsert's filter excludes it, so the
// insert attempt collides with the unique (member_id, cycle_id) index.
func (s *Store) MarkPending(ctx context.Context, memberID, cycleID primitive.ObjectID, amount int64, sessionID string) error {
	now := time.Now().UTC()
	filter := bson.M{
		"member_id": memberID,
		"cycle_id":  cycleID,
		"status":    bson.M{"$ne": models.PaymentPaid},
	}
	update := bson.M{
		"$set": bson.M{
			"amount":              amount,
			"status":              models.PaymentPending,
			"payment_method":      models.MethodStripe,
			"checkout_session_id": sessionID,
			"updated_at":          now,
		},
		"$setOnInsert": bson.M{
			"_id":        primitive.NewObjectID(),
			"created_at": now,
		},
	}
	_, err := s.c.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrAlreadyPaid
		}
		return err
	}
	return nil
}

// MarkPaidBySession marks the dues record for sessionID paid via Stripe.
func (s *Store) MarkPaidBySession(ctx context.Context, sessionID string, paidAt time.Time) (found bool, err error) {
	res, err := s.c.UpdateOne(ctx, bson.M{"checkout_session_id": sessionID}, bson.M{"$set": bson.M{
		"status":         models.PaymentPaid,
		"payment_method": models.MethodStripe,
		"paid_at":        paidAt.UTC(),
		"updated_at":     time.Now().UTC(),
	}})
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

// MarkPaidForMember settles (member, cycle) from a paid session whose id is
// no longer the one on the record, as happens when a second checkout was
// started before the first was paid.
func (s *Store) MarkPaidForMember(ctx context.Context, memberID, cycleID primitive.ObjectID, amount int64, sessionID string, paidAt time.Time) error {
	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"amount":              amount,
			"status":              models.PaymentPaid,
			"payment_method":      models.MethodStripe,
			"checkout_session_id": sessionID,
			"paid_at":             paidAt.UTC(),
			"updated_at":          now,
		},
		"$setOnInsert": bson.M{
			"_id":        primitive.NewObjectID(),
			"created_at": now,
		},
	}
	filter := bson.M{
		"member_id": memberID,
		"cycle_id":  cycleID,
		"status":    bson.M{"$ne": models.PaymentPaid},
	}
	_, err := s.c.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil && wafflemongo.IsDup(err) {
		// Already paid by another route.
		return nil
	}
	return err
}

// ResetBySession puts a pending record back to unpaid after its checkout
// expired.
func (s *Store) ResetBySession(ctx context.Context, sessionID string) (bool, error) {
	res, err := s.c.UpdateOne(ctx, bson.M{
		"checkout_session_id": sessionID,
		"status":              models.PaymentPending,
	}, bson.M{
		"$set":   bson.M{"status": models.PaymentUnpaid, "updated_at": time.Now().UTC()},
		"$unset": bson.M{"checkout_session_id": ""},
	})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// MarkPaidOffline records an approved offline dues payment.
func (s *Store) MarkPaidOffline(ctx context.Context, memberID, cycleID primitive.ObjectID, amount int64) error {
	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"amount":         amount,
			"status":         models.PaymentPaid,
			"payment_method": models.MethodOffline,
			"paid_at":        now,
			"updated_at":     now,
		},
		"$unset": bson.M{"checkout_session_id": ""},
		"$setOnInsert": bson.M{
			"_id":        primitive.NewObjectID(),
			"created_at": now,
		},
	}
	_, err := s.c.UpdateOne(ctx, bson.M{"member_id": memberID, "cycle_id": cycleID}, update, options.Update().SetUpsert(true))
	return err
}
