// internal/app/features/events/types.go
package events

import (
	"time"

	"github.com/dalemusser/rotaractportal/internal/app/system/money"
	"github.com/dalemusser/rotaractportal/internal/app/system/pricing"
	"github.com/dalemusser/rotaractportal/internal/domain/models"
)

// eventView adds seat availability and the caller's price to an event.
type eventView struct {
	models.Event
	SeatsLeft *int          `json:"seats_left,omitempty"`
	Quote     pricing.Quote `json:"quote"`
}

type registerInput struct {
	Tickets int    `json:"tickets" validate:"omitempty,min=1,max=20"`
	Name    string `json:"name" validate:"omitempty,max=200"`
	Email   string `json:"email" validate:"omitempty,email,max=254"`
}

type pricingInput struct {
	MemberPrice       money.Cents  `json:"member_price"`
	GuestPrice        money.Cents  `json:"guest_price"`
	EarlyBirdPrice    *money.Cents `json:"early_bird_price"`
	EarlyBirdDeadline *time.Time   `json:"early_bird_deadline"`
}

func (p *pricingInput) model() *models.EventPricing {
	if p == nil {
		return nil
	}
	out := &models.EventPricing{
		MemberPrice:       int64(p.MemberPrice),
		GuestPrice:        int64(p.GuestPrice),
		EarlyBirdDeadline: p.EarlyBirdDeadline,
	}
	if p.EarlyBirdPrice != nil {
		v := int64(*p.EarlyBirdPrice)
		out.EarlyBirdPrice = &v
	}
	return out
}

type eventInput struct {
	Title        *string       `json:"title" validate:"omitempty,min=1,max=200"`
	Description  *string       `json:"description" validate:"omitempty,max=10000"`
	Location     *string       `json:"location" validate:"omitempty,max=300"`
	StartsAt     *time.Time    `json:"starts_at" label:"start time"`
	Capacity     *int          `json:"capacity" validate:"omitempty,min=0"`
	Visibility   *string       `json:"visibility" validate:"omitempty,oneof=public members"`
	Status       *string       `json:"status" validate:"omitempty,oneof=draft published cancelled"`
	Pricing      *pricingInput `json:"pricing"`
	ClearPricing bool          `json:"clear_pricing"`
}
