package auditlog_test

import (
	"net/http"
	"testing"

	"github.com/dalemusser/rotaractportal/internal/app/features/auditlog"
	"github.com/dalemusser/rotaractportal/internal/app/store/audit"
	"github.com/dalemusser/rotaractportal/internal/testutil"
	"go.uber.org/zap"
)

func TestServeList_Gates(t *testing.T) {
	router := auditlog.Routes(auditlog.NewHandler(nil, zap.NewNop()))

	tests := []struct {
		name string
		req  *http.Request
		want int
	}{
		{"anonymous", testutil.NewRequest(http.MethodGet, "/"), http.StatusUnauthorized},
		{"board", testutil.WithUser(testutil.NewRequest(http.MethodGet, "/"), testutil.BoardUser()), http.StatusForbidden},
		{"unknown category", testutil.WithUser(testutil.NewRequest(http.MethodGet, "/?category=groups"), testutil.PresidentUser()), http.StatusBadRequest},
		{"bad date", testutil.WithUser(testutil.NewRequest(http.MethodGet, "/?start_date=yesterday"), testutil.TreasurerUser()), http.StatusBadRequest},
		{"bad member", testutil.WithUser(testutil.NewRequest(http.MethodGet, "/?member=42"), testutil.PresidentUser()), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			router.ServeHTTP(rec, tt.req)
			rec.AssertStatus(t, tt.want)
		})
	}
}

func TestServeList_ResolvesNames(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	actor := fx.CreateActiveMember(ctx, "Pat President", "pat@example.org")
	subject := fx.CreateActiveMember(ctx, "Sam Member", "sam@example.org")
	store := audit.New(db)
	for _, e := range []audit.Event{
		{Category: audit.CategoryAdmin, EventType: audit.EventRoleChanged, ActorID: &actor.ID, SubjectID: &subject.ID, Success: true},
		{Category: audit.CategoryFinance, EventType: audit.EventExpenseApproved, ActorID: &actor.ID, Success: true},
	} {
		if err := store.Log(ctx, e); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}

	rec := testutil.NewRecorder()
	req := testutil.WithUser(testutil.NewRequest(http.MethodGet, "/?category=admin"), testutil.PresidentUser())
	auditlog.Routes(auditlog.NewHandler(db, zap.NewNop())).ServeHTTP(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	var out struct {
		Events []struct {
			EventType   string `json:"event_type"`
			ActorName   string `json:"actor_name"`
			SubjectName string `json:"subject_name"`
		} `json:"events"`
		Total int64 `json:"total"`
	}
	rec.DecodeJSON(t, &out)
	if out.Total != 1 || len(out.Events) != 1 {
		t.Fatalf("total=%d events=%d, want 1", out.Total, len(out.Events))
	}
	e := out.Events[0]
	if e.EventType != audit.EventRoleChanged || e.ActorName != "Pat President" || e.SubjectName != "Sam Member" {
		t.Errorf("event = %+v", e)
	}
}
