package offlinepaymentstore

import (
	"errors"
	"testing"

	"github.com/dalemusser/rotaractportal/internal/domain/models"
	"github.com/dalemusser/rotaractportal/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCreateValidation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	s := New(db)

	base := models.OfflinePayment{
		Type:      models.PaymentForDues,
		RelatedID: primitive.NewObjectID(),
		MemberID:  primitive.NewObjectID(),
		Amount:    5000,
		Method:    "cash",
	}
	tests := []struct {
		name   string
		mutate func(p *models.OfflinePayment)
		want   error
	}{
		{"bad type", func(p *models.OfflinePayment) { p.Type = "donation" }, ErrInvalidType},
		{"bad method", func(p *models.OfflinePayment) { p.Method = "bitcoin" }, ErrInvalidMethod},
		{"zero amount", func(p *models.OfflinePayment) { p.Amount = 0 }, ErrInvalidAmount},
		{"ok upper method", func(p *models.OfflinePayment) { p.Method = " Check " }, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := base
			tt.mutate(&p)
			got, err := s.Create(ctx, p)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if err == nil && (got.Status != models.ReviewPending || got.Method != "check") {
				t.Errorf("created = %+v", got)
			}
		})
	}
}

func TestReviewOnce(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	s := New(db)

	p, err := s.Create(ctx, models.OfflinePayment{
		Type:      models.PaymentForEvent,
		RelatedID: primitive.NewObjectID(),
		MemberID:  primitive.NewObjectID(),
		Amount:    1500,
		Method:    "transfer",
	})
	if err != nil {
		t.Fatal(err)
	}
	treasurer := primitive.NewObjectID()
	got, err := s.Review(ctx, p.ID, treasurer, true)
	if err != nil || got.Status != models.ReviewApproved || got.ReviewedAt == nil {
		t.Fatalf("Review: %+v, %v", got, err)
	}
	if _, err := s.Review(ctx, p.ID, treasurer, false); !errors.Is(err, ErrNotPending) {
		t.Fatalf("second review: %v", err)
	}

	pending, _ := s.List(ctx, models.ReviewPending)
	approved, _ := s.List(ctx, models.ReviewApproved)
	if len(pending) != 0 || len(approved) != 1 {
		t.Errorf("pending=%d approved=%d", len(pending), len(approved))
	}
}
