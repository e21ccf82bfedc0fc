package indexes_test

import (
	"testing"

	"github.com/dalemusser/rotaractportal/internal/app/system/indexes"
	"github.com/dalemusser/rotaractportal/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("first EnsureAll: %v", err)
	}
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("second EnsureAll: %v", err)
	}
}

func TestEnsureAll_CreatesNamedIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}

	want := map[string]string{
		"members":      "uniq_members_emailci",
		"memberDues":   "uniq_memberdues_member_cycle",
		"stripeEvents": "uniq_stripeevents_eventid",
		"checkouts":    "uniq_checkouts_session",
		"oauth_states": "ttl_oauthstates_expires",
	}
	for coll, name := range want {
		cur, err := db.Collection(coll).Indexes().List(ctx)
		if err != nil {
			t.Fatalf("list %s: %v", coll, err)
		}
		found := false
		for cur.Next(ctx) {
			var ix bson.M
			if err := cur.Decode(&ix); err == nil && ix["name"] == name {
				found = true
			}
		}
		cur.Close(ctx)
		if !found {
			t.Errorf("%s: index %s missing", coll, name)
		}
	}
}

func TestEnsureAll_RenamesMismatchedIndex(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// Pre-create the same keys under another name.
	if _, err := db.Collection("posts").Indexes().CreateOne(ctx, indexModel("slug_1_old")); err != nil {
		t.Fatalf("seed index: %v", err)
	}
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}
	cur, err := db.Collection("posts").Indexes().List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var ix bson.M
		_ = cur.Decode(&ix)
		if ix["name"] == "slug_1_old" {
			t.Fatal("old index name should have been replaced")
		}
	}
}

func indexModel(name string) mongo.IndexModel {
	return mongo.IndexModel{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetName(name)}
}
