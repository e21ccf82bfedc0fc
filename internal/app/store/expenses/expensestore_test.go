package expensestore

import (
	"errors"
	"testing"

	"github.com/dalemusser/rotaractportal/internal/domain/models"
	"github.com/dalemusser/rotaractportal/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCreateRejectsNonPositive(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	s := New(db)

	for _, amt := range []int64{0, -5} {
		if _, err := s.Create(ctx, models.Expense{ActivityID: primitive.NewObjectID(), Amount: amt}); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("amount %d: err = %v", amt, err)
		}
	}
}

func TestReviewAndSum(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	s := New(db)

	activity := primitive.NewObjectID()
	other := primitive.NewObjectID()
	treasurer := primitive.NewObjectID()

	var ids []primitive.ObjectID
	for _, amt := range []int64{1000, 2550, 499} {
		e, err := s.Create(ctx, models.Expense{ActivityID: activity, Amount: amt, Description: "supplies"})
		if err != nil {
			t.Fatal(err)
		}
		if e.Status != models.ReviewPending {
			t.Fatalf("status = %q", e.Status)
		}
		ids = append(ids, e.ID)
	}
	if _, err := s.Create(ctx, models.Expense{ActivityID: other, Amount: 9999}); err != nil {
		t.Fatal(err)
	}

	if total, err := s.SumApproved(ctx, activity); err != nil || total != 0 {
		t.Fatalf("initial total = %d, %v", total, err)
	}

	if _, err := s.Review(ctx, ids[0], treasurer, true, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Review(ctx, ids[1], treasurer, true, ""); err != nil {
		t.Fatal(err)
	}
	rej, err := s.Review(ctx, ids[2], treasurer, false, " no receipt ")
	if err != nil {
		t.Fatal(err)
	}
	if rej.Status != models.ReviewRejected || rej.RejectionReason != "no receipt" || rej.ReviewedBy == nil {
		t.Fatalf("rejected = %+v", rej)
	}

	if _, err := s.Review(ctx, ids[0], treasurer, false, "changed mind"); !errors.Is(err, ErrNotPending) {
		t.Fatalf("re-review: err = %v, want ErrNotPending", err)
	}
	if _, err := s.Review(ctx, primitive.NewObjectID(), treasurer, true, ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown: err = %v", err)
	}

	total, err := s.SumApproved(ctx, activity)
	if err != nil {
		t.Fatal(err)
	}
	if total != 3550 {
		t.Errorf("total = %d, want 3550", total)
	}

	byActivity, err := s.SumApprovedByActivity(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if byActivity[activity] != 3550 || byActivity[other] != 0 {
		t.Errorf("byActivity = %v", byActivity)
	}

	pending, err := s.List(ctx, Filter{ActivityID: activity, Status: models.ReviewApproved})
	if err != nil || len(pending) != 2 {
		t.Fatalf("approved list = %d, %v", len(pending), err)
	}
}
