// Package pricing resolves the ticket price a buyer pays for an event.
package pricing

import (
	"time"

	"github.com/dalemusser/rotaractportal/internal/domain/models"
)

// Buyer describes who is checking out. A guest has Member false.
type Buyer struct {
	Member bool
	Active bool
}

// Quote is a resolved unit price and the tier it came from.
type Quote struct {
	Tier      string `json:"tier"`
	UnitPrice int64  `json:"unit_price"`
}

// Free reports whether no payment is needed.
func (q Quote) Free() bool { return q.Tier == models.TierFree }

// Resolve picks the unit price for one ticket:
//
//  1. early-bird price, when both it and its deadline are set and now is
//     strictly before the deadline
//  2. member price, for a member whose status is active
//  3. guest price, for everyone else
//
// An event without pricing, or a resolved price of zero, is free.
func Resolve(p *models.EventPricing, b Buyer, now time.Time) Quote {
	if p == nil {
		return Quote{Tier: models.TierFree}
	}
	q := Quote{Tier: models.TierGuest, UnitPrice: p.GuestPrice}
	switch {
	case p.EarlyBirdPrice != nil && p.EarlyBirdDeadline != nil && now.Before(*p.EarlyBirdDeadline):
		q = Quote{Tier: models.TierEarlyBird, UnitPrice: *p.EarlyBirdPrice}
	case b.Member && b.Active:
		q = Quote{Tier: models.TierMember, UnitPrice: p.MemberPrice}
	}
	if q.UnitPrice <= 0 {
		return Quote{Tier: models.TierFree}
	}
	return q
}
