package audit_test

import (
	"testing"
	"time"

	"github.com/dalemusser/rotaractportal/internal/app/store/audit"
	"github.com/dalemusser/rotaractportal/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Log(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	actor := primitive.NewObjectID()
	err := store.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		ActorID:   &actor,
		IP:        "192.168.1.1",
		UserAgent: "TestBrowser/1.0",
		Success:   true,
	})
	if err != nil {
		t.Fatalf("Log failed: %v", err)
	}

	events, err := store.Query(ctx, audit.QueryFilter{ActorID: &actor})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].ID.IsZero() {
		t.Error("expected generated ID")
	}
	if events[0].Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}
}

func TestStore_Log_WithDetails(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	subject := primitive.NewObjectID()
	err := store.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventWaitlistPromotion,
		SubjectID: &subject,
		Success:   true,
		Details:   map[string]string{"committee": "Fundraising"},
	})
	if err != nil {
		t.Fatalf("Log failed: %v", err)
	}

	events, err := store.Query(ctx, audit.QueryFilter{SubjectID: &subject})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 1 || events[0].Details["committee"] != "Fundraising" {
		t.Fatalf("events = %+v", events)
	}
}

func TestStore_Query_ByCategoryAndType(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logs := []audit.Event{
		{Category: audit.CategoryAuth, EventType: audit.EventLoginSuccess, Success: true},
		{Category: audit.CategoryFinance, EventType: audit.EventExpenseApproved, Success: true},
		{Category: audit.CategoryFinance, EventType: audit.EventExpenseRejected, Success: true},
	}
	for _, e := range logs {
		if err := store.Log(ctx, e); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	tests := []struct {
		name   string
		filter audit.QueryFilter
		want   int
	}{
		{"all", audit.QueryFilter{}, 3},
		{"finance", audit.QueryFilter{Category: audit.CategoryFinance}, 2},
		{"approved", audit.QueryFilter{EventType: audit.EventExpenseApproved}, 1},
		{"none", audit.QueryFilter{Category: audit.CategoryPayments}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := store.Query(ctx, tt.filter)
			if err != nil {
				t.Fatalf("Query failed: %v", err)
			}
			if len(events) != tt.want {
				t.Errorf("got %d events, want %d", len(events), tt.want)
			}
			n, err := store.CountByFilter(ctx, tt.filter)
			if err != nil {
				t.Fatalf("CountByFilter failed: %v", err)
			}
			if n != int64(tt.want) {
				t.Errorf("count = %d, want %d", n, tt.want)
			}
		})
	}
}

func TestStore_Query_ByTimeRange(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	now := time.Now()
	oneHourAgo := now.Add(-time.Hour)

	for _, ts := range []time.Time{now.Add(-2 * time.Hour), now} {
		err := store.Log(ctx, audit.Event{
			Category:  audit.CategoryAuth,
			EventType: audit.EventLoginSuccess,
			Timestamp: ts,
			Success:   true,
		})
		if err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	events, err := store.Query(ctx, audit.QueryFilter{StartTime: &oneHourAgo})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 1 {
		t.Errorf("expected 1 recent event, got %d", len(events))
	}
}

func TestStore_Query_WithOffset(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for i := 0; i < 5; i++ {
		err := store.Log(ctx, audit.Event{
			Category:  audit.CategoryAuth,
			EventType: audit.EventLoginSuccess,
			Success:   true,
		})
		if err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	events, err := store.Query(ctx, audit.QueryFilter{Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 2 {
		t.Errorf("expected 2 events, got %d", len(events))
	}
}
