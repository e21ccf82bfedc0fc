package activitystore

import (
	"errors"
	"testing"

	"github.com/dalemusser/rotaractportal/internal/domain/models"
	"github.com/dalemusser/rotaractportal/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestLifecycle(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	s := New(db)

	a, err := s.Create(ctx, models.Activity{
		Title:     " Beach Cleanup ",
		Budget:    models.ActivityBudget{Amount: 50000},
		Status:    models.ActivityApproved, // ignored
		CreatedBy: primitive.NewObjectID(),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if a.Status != models.ActivityDraft || a.Title != "Beach Cleanup" || a.AllowedExpenseSubmitters == nil {
		t.Fatalf("created = %+v", a)
	}

	title := "Beach Cleanup 2026"
	amount := int64(60000)
	a, err = s.UpdateDraft(ctx, a.ID, Patch{Title: &title, BudgetAmount: &amount})
	if err != nil {
		t.Fatalf("UpdateDraft: %v", err)
	}
	if a.Title != title || a.Budget.Amount != amount {
		t.Fatalf("updated = %+v", a)
	}

	president := primitive.NewObjectID()
	if _, err := s.Approve(ctx, a.ID, president); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("approve draft: err = %v, want ErrInvalidTransition", err)
	}

	if a, err = s.Submit(ctx, a.ID); err != nil || a.Status != models.ActivityPendingApproval {
		t.Fatalf("Submit: %+v, %v", a, err)
	}
	if _, err := s.UpdateDraft(ctx, a.ID, Patch{Title: &title}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("edit pending: err = %v", err)
	}

	a, err = s.Reject(ctx, a.ID, president, "too expensive")
	if err != nil || a.Status != models.ActivityDraft || a.Approvals.RejectionReason != "too expensive" {
		t.Fatalf("Reject: %+v, %v", a, err)
	}

	if _, err := s.Submit(ctx, a.ID); err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	a, err = s.Approve(ctx, a.ID, president)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if a.Status != models.ActivityApproved || !a.Approvals.PresidentApproved || a.Approvals.PresidentApprovedAt == nil {
		t.Fatalf("approved = %+v", a)
	}
	if a.Approvals.RejectionReason != "" {
		t.Errorf("rejection reason should be cleared, got %q", a.Approvals.RejectionReason)
	}
	if _, err := s.Approve(ctx, a.ID, president); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("double approve: err = %v", err)
	}
}

func TestTransitionUnknown(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	s := New(db)

	if _, err := s.Submit(ctx, primitive.NewObjectID()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if err := s.SetTotalSpent(ctx, primitive.NewObjectID(), 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestListAndDelete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	s := New(db)

	a1, _ := s.Create(ctx, models.Activity{Title: "One"})
	a2, _ := s.Create(ctx, models.Activity{Title: "Two"})
	if _, err := s.Submit(ctx, a2.ID); err != nil {
		t.Fatal(err)
	}

	drafts, err := s.List(ctx, models.ActivityDraft)
	if err != nil || len(drafts) != 1 || drafts[0].ID != a1.ID {
		t.Fatalf("drafts = %v, %v", drafts, err)
	}
	all, _ := s.List(ctx, "")
	if len(all) != 2 {
		t.Fatalf("all = %d", len(all))
	}

	if err := s.Delete(ctx, a2.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("delete submitted: %v", err)
	}
	if err := s.Delete(ctx, a1.ID); err != nil {
		t.Fatalf("delete draft: %v", err)
	}
}
