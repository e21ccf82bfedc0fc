// internal/app/features/finance/summary.go
package finance

import (
	"context"
	"net/http"

	"github.com/dalemusser/rotaractportal/internal/app/policy/financepolicy"
	activitystore "github.com/dalemusser/rotaractportal/internal/app/store/activities"
	expensestore "github.com/dalemusser/rotaractportal/internal/app/store/expenses"
	"github.com/dalemusser/rotaractportal/internal/app/system/apiresp"
	"github.com/dalemusser/rotaractportal/internal/app/system/money"
	"github.com/dalemusser/rotaractportal/internal/app/system/timeouts"
	"github.com/dalemusser/rotaractportal/internal/domain/models"
)

// ServeSummary reports budget versus actual spend for every approved
// activity, with club-wide totals.
func (h *Handler) ServeSummary(w http.ResponseWriter, r *http.Request) {
	if err := financepolicy.CanViewSummary(r); err != nil {
		h.ErrLog.Fail(w, r, "finance summary", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	activities, err := activitystore.New(h.DB).List(ctx, models.ActivityApproved)
	if err != nil {
		h.ErrLog.ServerError(w, r, "list activities failed", err)
		return
	}
	spent, err := expensestore.New(h.DB).SumApprovedByActivity(ctx)
	if err != nil {
		h.ErrLog.ServerError(w, r, "sum expenses failed", err)
		return
	}

	lines := make([]summaryLine, 0, len(activities))
	var totals summaryTotals
	for _, a := range activities {
		s := spent[a.ID]
		lines = append(lines, summaryLine{
			ActivityID:  a.ID.Hex(),
			Title:       a.Title,
			Budget:      a.Budget.Amount,
			Spent:       s,
			Remaining:   a.Budget.Amount - s,
			PercentUsed: money.Percent(s, a.Budget.Amount),
			OverBudget:  s > a.Budget.Amount,
			Display:     money.Display(s, h.Currency) + " of " + money.Display(a.Budget.Amount, h.Currency),
		})
		totals.Budget += a.Budget.Amount
		totals.Spent += s
	}
	totals.Remaining = totals.Budget - totals.Spent
	totals.PercentUsed = money.Percent(totals.Spent, totals.Budget)

	apiresp.OK(w, map[string]any{
		"currency":   h.Currency,
		"activities": lines,
		"totals":     totals,
	})
}
