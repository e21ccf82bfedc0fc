package pricing

import (
	"testing"
	"time"

	"github.com/dalemusser/rotaractportal/internal/domain/models"
	"github.com/stretchr/testify/assert"
)

func ptr[T any](v T) *T { return &v }

func TestResolve(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	full := &models.EventPricing{
		MemberPrice:       1500,
		GuestPrice:        2500,
		EarlyBirdPrice:    ptr(int64(1000)),
		EarlyBirdDeadline: ptr(now.Add(time.Hour)),
	}
	expired := &models.EventPricing{
		MemberPrice:       1500,
		GuestPrice:        2500,
		EarlyBirdPrice:    ptr(int64(1000)),
		EarlyBirdDeadline: ptr(now),
	}
	noDeadline := &models.EventPricing{MemberPrice: 1500, GuestPrice: 2500, EarlyBirdPrice: ptr(int64(1000))}

	active := Buyer{Member: true, Active: true}
	inactive := Buyer{Member: true, Active: false}
	guest := Buyer{}

	tests := []struct {
		name    string
		pricing *models.EventPricing
		buyer   Buyer
		want    Quote
	}{
		{"no pricing is free", nil, active, Quote{Tier: models.TierFree}},
		{"early bird beats member", full, active, Quote{models.TierEarlyBird, 1000}},
		{"early bird for guests too", full, guest, Quote{models.TierEarlyBird, 1000}},
		{"deadline is exclusive", expired, active, Quote{models.TierMember, 1500}},
		{"early bird needs deadline", noDeadline, guest, Quote{models.TierGuest, 2500}},
		{"inactive member pays guest", expired, inactive, Quote{models.TierGuest, 2500}},
		{"guest", expired, guest, Quote{models.TierGuest, 2500}},
		{"zero member price is free", &models.EventPricing{GuestPrice: 500}, active, Quote{Tier: models.TierFree}},
		{"zero early bird is free", &models.EventPricing{GuestPrice: 500, EarlyBirdPrice: ptr(int64(0)), EarlyBirdDeadline: ptr(now.Add(time.Minute))}, guest, Quote{Tier: models.TierFree}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.pricing, tt.buyer, now)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want.Tier == models.TierFree, got.Free())
		})
	}
}
