// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	activitystore "github.com/dalemusser/rotaractportal/internal/app/store/activities"
	checkoutstore "github.com/dalemusser/rotaractportal/internal/app/store/checkouts"
	committeestore "github.com/dalemusser/rotaractportal/internal/app/store/committees"
	"github.com/dalemusser/rotaractportal/internal/app/store/duescycles"
	eventstore "github.com/dalemusser/rotaractportal/internal/app/store/events"
	expensestore "github.com/dalemusser/rotaractportal/internal/app/store/expenses"
	"github.com/dalemusser/rotaractportal/internal/app/store/memberdues"
	memberstore "github.com/dalemusser/rotaractportal/internal/app/store/members"
	"github.com/dalemusser/rotaractportal/internal/app/store/offlinepayments"
	rsvpstore "github.com/dalemusser/rotaractportal/internal/app/store/rsvps"
	"github.com/dalemusser/rotaractportal/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates collections (if missing) and tries to attach JSON-Schema
// validators. On servers that don't support collMod/validators (e.g. some
// DocumentDB versions), we log and skip gracefully.
func EnsureAll(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	var problems []string

	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll, logger); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			if isNoSuchCommand(err) || isNotImplemented(err) {
				logger.Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
			return
		}
		logger.Debug("validator ensured", zap.String("collection", coll))
	}

	ensure(memberstore.Collection, membersSchema())
	ensure(committeestore.Collection, committeesSchema())

	// Finance
	ensure(activitystore.Collection, activitiesSchema())
	ensure(expensestore.Collection, expensesSchema())
	ensure(offlinepayments.Collection, offlinePaymentsSchema())

	// Payments
	ensure(duescycles.Collection, nil)
	ensure(memberdues.Collection, memberDuesSchema())
	ensure(eventstore.Collection, nil)
	ensure(rsvpstore.Collection, rsvpsSchema())
	ensure(checkoutstore.Collection, checkoutsSchema())
	ensure(checkoutstore.EventsCollection, nil)

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers ---------------------- */

// collectionExists returns true when <name> already exists.
func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{"name": name})
	if err != nil {
		return false, err
	}
	return len(names) > 0, nil
}

// ensureCollection idempotently makes sure <name> exists.
// Returns created==true only if we actually created it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string, logger *zap.Logger) (created bool, err error) {
	exists, listErr := collectionExists(ctx, db, name)
	if listErr == nil && exists {
		return false, nil
	}
	// If listing failed, fall back to create-and-handle-race.
	if err := db.CreateCollection(ctx, name); err != nil {
		if isNamespaceExistsErr(err) {
			return false, nil
		}
		logger.Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	logger.Info("created collection", zap.String("collection", name))
	return true, nil
}

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	return db.RunCommand(ctx, cmd).Decode(&out)
}

/* ------------------------- error helpers ------------------------- */

func isNamespaceExistsErr(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 48 || strings.Contains(strings.ToLower(ce.Message), "already exists")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "already exists") || strings.Contains(s, "namespace exists")
}

func isNoSuchCommand(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 59 || strings.Contains(strings.ToLower(ce.Message), "no such command")) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such command")
}

func isNotImplemented(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 115 ||
		strings.Contains(strings.ToLower(ce.Message), "not implemented") ||
		strings.Contains(strings.ToLower(ce.Message), "not supported")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "not implemented") || strings.Contains(s, "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

var nonBlank = bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"}

func enum(vals ...string) bson.M {
	a := bson.A{}
	for _, v := range vals {
		a = append(a, v)
	}
	return bson.M{"enum": a}
}

var nonNegative = bson.M{"bsonType": bson.A{"long", "int"}, "minimum": 0}

func membersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"full_name", "email", "email_ci", "role", "status", "auth_method"},
			"properties": bson.M{
				"full_name":    nonBlank,
				"full_name_ci": nonBlank,
				"email":        nonBlank,
				"email_ci":     nonBlank,
				"role":         enum(models.Roles...),
				"status":       enum(models.MemberStatuses...),
				"auth_method":  enum(models.AuthPassword, models.AuthGoogle),
			},
		},
	}
}

func committeesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "name_ci", "capacity", "member_ids", "waitlist_ids"},
			"properties": bson.M{
				"name":         nonBlank,
				"name_ci":      nonBlank,
				"capacity":     nonNegative,
				"member_ids":   bson.M{"bsonType": "array", "uniqueItems": true, "items": bson.M{"bsonType": "objectId"}},
				"waitlist_ids": bson.M{"bsonType": "array", "uniqueItems": true, "items": bson.M{"bsonType": "objectId"}},
			},
		},
	}
}

func activitiesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"title", "status", "budget"},
			"properties": bson.M{
				"title":  nonBlank,
				"status": enum(models.ActivityDraft, models.ActivityPendingApproval, models.ActivityApproved),
				"budget": bson.M{
					"bsonType":   "object",
					"properties": bson.M{"amount": nonNegative},
				},
			},
		},
	}
}

func expensesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"activity_id", "amount", "description", "status", "submitted_by"},
			"properties": bson.M{
				"activity_id":  bson.M{"bsonType": "objectId"},
				"amount":       bson.M{"bsonType": bson.A{"long", "int"}, "minimum": 1},
				"description":  nonBlank,
				"status":       enum(models.ReviewPending, models.ReviewApproved, models.ReviewRejected),
				"submitted_by": bson.M{"bsonType": "objectId"},
			},
		},
	}
}

func offlinePaymentsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"type", "related_id", "member_id", "amount", "status"},
			"properties": bson.M{
				"type":       enum(models.PaymentForDues, models.PaymentForEvent),
				"related_id": bson.M{"bsonType": "objectId"},
				"member_id":  bson.M{"bsonType": "objectId"},
				"amount":     nonNegative,
				"status":     enum(models.ReviewPending, models.ReviewApproved, models.ReviewRejected),
			},
		},
	}
}

func memberDuesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"member_id", "cycle_id", "amount", "status"},
			"properties": bson.M{
				"member_id": bson.M{"bsonType": "objectId"},
				"cycle_id":  bson.M{"bsonType": "objectId"},
				"amount":    nonNegative,
				"status":    enum(models.PaymentUnpaid, models.PaymentPending, models.PaymentPaid),
			},
		},
	}
}

func rsvpsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"event_id", "email", "tickets", "tier", "payment_status"},
			"properties": bson.M{
				"event_id":       bson.M{"bsonType": "objectId"},
				"email":          nonBlank,
				"tickets":        bson.M{"bsonType": bson.A{"long", "int"}, "minimum": 1},
				"tier":           enum(models.TierEarlyBird, models.TierMember, models.TierGuest, models.TierFree),
				"payment_status": enum(models.PaymentFree, models.PaymentUnpaid, models.PaymentPending, models.PaymentPaid),
			},
		},
	}
}

func checkoutsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"session_id", "kind", "related_id", "status"},
			"properties": bson.M{
				"session_id": nonBlank,
				"kind":       enum(models.PaymentForDues, models.PaymentForEvent),
				"related_id": bson.M{"bsonType": "objectId"},
				"status":     enum(models.CheckoutOpen, models.CheckoutCompleted, models.CheckoutExpired),
			},
		},
	}
}
