// internal/app/store/rsvps/rsvpstore.go
package rsvpstore

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

const Collection = "rsvps"

var (
	ErrNotFound       = errs.NotFound("rsvp")
	ErrAlreadyRSVPed  = errs.Conflict("you already have an RSVP for this event")
	ErrInvalidTickets = errs.Invalid("tickets must be at least 1")
)

// holding lists the payment states that hold seats.
var holding = []string{models.PaymentFree, models.PaymentPending, models.PaymentPaid}

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.RSVP, error) {
	var r models.RSVP
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&r); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.RSVP{}, ErrNotFound
		}
		return models.RSVP{}, err
	}
	return r, nil
}

// GetBySession returns the RSVP created for a checkout session.
func (s *Store) GetBySession(ctx context.Context, sessionID string) (models.RSVP, error) {
	var r models.RSVP
	if err := s.c.FindOne(ctx, bson.M{"checkout_session_id": sessionID}).Decode(&r); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.RSVP{}, ErrNotFound
		}
		return models.RSVP{}, err
	}
	return r, nil
}

// PendingCheckout returns the newest RSVP for the event that is still waiting
// on a checkout session. Members are matched by id, guests by email.
func (s *Store) PendingCheckout(ctx context.Context, eventID primitive.ObjectID, memberID *primitive.ObjectID, email string) (models.RSVP, error) {
	filter := bson.M{
		"event_id":            eventID,
		"payment_status":      models.PaymentPending,
		"checkout_session_id": bson.M{"$exists": true, "$ne": ""},
	}
	if memberID != nil {
		filter["member_id"] = *memberID
	} else {
		filter["member_id"] = nil
		filter["email"] = strings.ToLower(strings.TrimSpace(email))
	}
	var r models.RSVP
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if err := s.c.FindOne(ctx, filter, opts).Decode(&r); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.RSVP{}, ErrNotFound
		}
		return models.RSVP{}, err
	}
	return r, nil
}

// ListByEvent returns an event's RSVPs in arrival order.
func (s *Store) ListByEvent(ctx context.Context, eventID primitive.ObjectID) ([]models.RSVP, error) {
	return s.find(ctx, bson.M{"event_id": eventID}, bson.D{{Key: "created_at", Value: 1}})
}

// ListForMember returns a member's RSVPs newest first.
func (s *Store) ListForMember(ctx context.Context, memberID primitive.ObjectID) ([]models.RSVP, error) {
	return s.find(ctx, bson.M{"member_id": memberID}, bson.D{{Key: "created_at", Value: -1}})
}

func (s *Store) find(ctx context.Context, filter bson.M, sort bson.D) ([]models.RSVP, error) {
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.RSVP{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// TicketsHeld sums tickets on RSVPs that hold seats (free, pending or paid).
func (s *Store) TicketsHeld(ctx context.Context, eventID primitive.ObjectID) (int, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"event_id": eventID, "payment_status": bson.M{"$in": holding}}}},
		{{Key: "$group", Value: bson.M{"_id": nil, "n": bson.M{"$sum": "$tickets"}}}},
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	defer cur.Close(ctx)
	var rows []struct {
		N int `bson:"n"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].N, nil
}

// Create inserts an RSVP. A member may hold only one seat-holding RSVP per
// event; guests are not deduplicated.
func (s *Store) Create(ctx context.Context, r models.RSVP) (models.RSVP, error) {
	if r.Tickets < 1 {
		return models.RSVP{}, ErrInvalidTickets
	}
	if r.MemberID != nil {
		n, err := s.c.CountDocuments(ctx, bson.M{
			"event_id":       r.EventID,
			"member_id":      *r.MemberID,
			"payment_status": bson.M{"$in": holding},
		})
		if err != nil {
			return models.RSVP{}, err
		}
		if n > 0 {
			return models.RSVP{}, ErrAlreadyRSVPed
		}
	}
	now := time.Now().UTC()
	r.ID = primitive.NewObjectID()
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.CreatedAt = now
	r.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, r); err != nil {
		return models.RSVP{}, err
	}
	return r, nil
}

// MarkPaidBySession marks the RSVP for sessionID paid via Stripe. found is
// false when no RSVP references the session.
func (s *Store) MarkPaidBySession(ctx context.Context, sessionID string, paidAt time.Time) (found bool, err error) {
	res, err := s.c.UpdateOne(ctx, bson.M{"checkout_session_id": sessionID}, bson.M{"$set": bson.M{
		"payment_status": models.PaymentPaid,
		"payment_method": models.MethodStripe,
		"paid_at":        paidAt.UTC(),
		"updated_at":     time.Now().UTC(),
	}})
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

// ReleaseBySession frees the seats of a still-pending RSVP whose checkout
// expired. Paid RSVPs are left alone.
func (s *Store) ReleaseBySession(ctx context.Context, sessionID string) (bool, error) {
	res, err := s.c.UpdateOne(ctx, bson.M{
		"checkout_session_id": sessionID,
		"payment_status":      models.PaymentPending,
	}, bson.M{"$set": bson.M{
		"payment_status": models.PaymentUnpaid,
		"updated_at":     time.Now().UTC(),
	}})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// UpsertOfflinePaid records an approved offline payment against the member's
// RSVP for the event, creating one ticket when the member had none.
func (s *Store) UpsertOfflinePaid(ctx context.Context, eventID primitive.ObjectID, m models.Member, amount int64) error {
	now := time.Now().UTC()
	filter := bson.M{"event_id": eventID, "member_id": m.ID}
	update := bson.M{
		"$set": bson.M{
			"payment_status": models.PaymentPaid,
			"payment_method": models.MethodOffline,
			"paid_at":        now,
			"updated_at":     now,
		},
		"$setOnInsert": bson.M{
			"_id":        primitive.NewObjectID(),
			"name":       m.FullName,
			"email":      m.Email,
			"tickets":    1,
			"tier":       models.TierMember,
			"unit_price": amount,
			"created_at": now,
		},
	}
	_, err := s.c.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

// AttachSession links a pending RSVP to the checkout session paying for it.
func (s *Store) AttachSession(ctx context.Context, id primitive.ObjectID, sessionID string) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"checkout_session_id": sessionID,
		"updated_at":          time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an RSVP. Used to back out a pending RSVP whose checkout
// session could not be created.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	return err
}
