// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Every collection's index set is reconciled
idempotently; problems are aggregated so startup fails with the full list.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string
	for _, spec := range collections() {
		if err := ensureIndexSet(ctx, db.Collection(spec.name), spec.models); err != nil {
			problems = append(problems, spec.name+": "+err.Error())
		}
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

type collectionIndexes struct {
	name   string
	models []mongo.IndexModel
}

func idx(name string, keys bson.D) mongo.IndexModel {
	return mongo.IndexModel{Keys: keys, Options: options.Index().SetName(name)}
}

func uniq(name string, keys bson.D) mongo.IndexModel {
	return mongo.IndexModel{Keys: keys, Options: options.Index().SetName(name).SetUnique(true)}
}

func asc(fields ...string) bson.D {
	d := make(bson.D, 0, len(fields))
	for _, f := range fields {
		if strings.HasPrefix(f, "-") {
			d = append(d, bson.E{Key: f[1:], Value: -1})
			continue
		}
		d = append(d, bson.E{Key: f, Value: 1})
	}
	return d
}

func collections() []collectionIndexes {
	return []collectionIndexes{
		{"members", []mongo.IndexModel{
			uniq("uniq_members_emailci", asc("email_ci")),
			// Sparse: only Google-linked members carry google_id.
			{Keys: asc("google_id"), Options: options.Index().SetName("uniq_members_googleid").SetUnique(true).SetSparse(true)},
			idx("idx_members_role_status_nameci", asc("role", "status", "full_name_ci", "_id")),
			idx("idx_members_status_nameci", asc("status", "full_name_ci", "_id")),
		}},
		{"committees", []mongo.IndexModel{
			uniq("uniq_committees_nameci", asc("name_ci")),
			idx("idx_committees_members", asc("member_ids")),
		}},
		{"activities", []mongo.IndexModel{
			idx("idx_activities_status_created", asc("status", "-created_at")),
		}},
		{"expenses", []mongo.IndexModel{
			// total_spent recompute sums approved expenses per activity.
			idx("idx_expenses_activity_status", asc("activity_id", "status")),
			idx("idx_expenses_status_created", asc("status", "-created_at")),
		}},
		{"offlinePayments", []mongo.IndexModel{
			idx("idx_offlinepayments_status_created", asc("status", "-created_at")),
			idx("idx_offlinepayments_member", asc("member_id", "-created_at")),
		}},
		{"events", []mongo.IndexModel{
			idx("idx_events_status_starts", asc("status", "starts_at")),
		}},
		{"rsvps", []mongo.IndexModel{
			idx("idx_rsvps_event_created", asc("event_id", "created_at")),
			idx("idx_rsvps_event_member", asc("event_id", "member_id")),
			idx("idx_rsvps_checkout", asc("checkout_session_id")),
			idx("idx_rsvps_member_created", asc("member_id", "-created_at")),
		}},
		{"duesCycles", []mongo.IndexModel{
			idx("idx_duescycles_active_starts", asc("active", "-starts_at")),
		}},
		{"memberDues", []mongo.IndexModel{
			uniq("uniq_memberdues_member_cycle", asc("member_id", "cycle_id")),
			idx("idx_memberdues_cycle_status", asc("cycle_id", "status")),
			idx("idx_memberdues_checkout", asc("checkout_session_id")),
		}},
		{"checkouts", []mongo.IndexModel{
			uniq("uniq_checkouts_session", asc("session_id")),
			idx("idx_checkouts_status_created", asc("status", "created_at")),
		}},
		{"stripeEvents", []mongo.IndexModel{
			uniq("uniq_stripeevents_eventid", asc("event_id")),
		}},
		{"posts", []mongo.IndexModel{
			uniq("uniq_posts_slug", asc("slug")),
			idx("idx_posts_published_at", asc("published", "-published_at")),
		}},
		{"messages", []mongo.IndexModel{
			idx("idx_messages_handled_created", asc("handled", "-created_at")),
		}},
		{"audit_logs", []mongo.IndexModel{
			idx("idx_audit_timestamp", asc("-timestamp")),
			idx("idx_audit_category_type_timestamp", asc("category", "event_type", "-timestamp")),
			idx("idx_audit_actor_timestamp", asc("actor_id", "-timestamp")),
			idx("idx_audit_subject_timestamp", asc("subject_id", "-timestamp")),
		}},
		{"oauth_states", []mongo.IndexModel{
			uniq("uniq_oauthstates_state", asc("state")),
			{Keys: asc("expires_at"), Options: options.Index().SetName("ttl_oauthstates_expires").SetExpireAfterSeconds(0)},
		}},
	}
}

/* -------------------------------------------------------------------------- */
/* Reconcile one collection's desired indexes                                 */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func boolOf(b *bool) bool { return b != nil && *b }

func isDuplicateKeyErr(err error) bool {
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	return err != nil && strings.Contains(err.Error(), "E11000")
}

func listExisting(ctx context.Context, coll *mongo.Collection) (map[string]existingIndex, error) {
	out := map[string]existingIndex{}
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return out, err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var ix existingIndex
		if err := cur.Decode(&ix); err != nil {
			continue
		}
		out[keySig(ix.Key)] = ix
	}
	return out, cur.Err()
}

// ensureIndexSet creates missing indexes, renames ones whose keys match but
// whose name differs, and rebuilds ones whose uniqueness differs.
func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	existing, err := listExisting(ctx, coll)
	if err != nil {
		// A missing collection lists nothing; creation below will make it.
		zap.L().Debug("list indexes failed", zap.String("collection", coll.Name()), zap.Error(err))
	}

	var problems []string
	for _, m := range models {
		name := *m.Options.Name
		unique := boolOf(m.Options.Unique)
		sig := keySig(m.Keys.(bson.D))
		start := time.Now()
		log := zap.L().With(zap.String("collection", coll.Name()), zap.String("name", name), zap.String("keys", sig))

		if ex, ok := existing[sig]; ok {
			if boolOf(ex.Unique) == unique && ex.Name == name {
				log.Debug("reusing existing index")
				continue
			}
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				problems = append(problems, fmt.Sprintf("%s: drop %s: %v", name, ex.Name, err))
				continue
			}
			log.Info("dropped index for rebuild", zap.String("old_name", ex.Name))
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			if unique && isDuplicateKeyErr(err) {
				problems = append(problems, fmt.Sprintf("%s: cannot create unique index, duplicates present on (%s)", name, sig))
			} else {
				problems = append(problems, fmt.Sprintf("%s: %v", name, err))
			}
			log.Warn("index ensure failed", zap.Error(err))
			continue
		}
		log.Info("index ensured", zap.Bool("unique", unique), zap.Duration("took", time.Since(start)))
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}
