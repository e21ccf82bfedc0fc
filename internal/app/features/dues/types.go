// internal/app/features/dues/types.go
package dues

import (
	"time"

	"github.com/dalemusser/rotaractportal/internal/app/system/money"
	"github.com/dalemusser/rotaractportal/internal/domain/models"
)

type checkoutInput struct {
	CycleID string `json:"cycle_id" validate:"required,objectid" label:"dues cycle"`
}

type cycleInput struct {
	Name     string      `json:"name" validate:"required,max=100"`
	Amount   money.Cents `json:"amount"`
	StartsAt time.Time   `json:"starts_at" validate:"required" label:"start date"`
	EndsAt   time.Time   `json:"ends_at" validate:"required" label:"end date"`
	Active   bool        `json:"active"`
}

type activeInput struct {
	Active *bool `json:"active" validate:"required"`
}

// cycleStatus pairs a cycle with the caller's payment record for it.
type cycleStatus struct {
	Cycle  models.DuesCycle `json:"cycle"`
	Status string           `json:"status"`
	PaidAt *time.Time       `json:"paid_at,omitempty"`
	Method string           `json:"payment_method,omitempty"`
}
