// internal/app/features/finance/types.go
package finance

import (
	"github.com/dalemusser/rotaractportal/internal/app/system/money"
)

type activityInput struct {
	Title                    *string      `json:"title" validate:"omitempty,min=1,max=200"`
	Description              *string      `json:"description" validate:"omitempty,max=5000"`
	BudgetAmount             *money.Cents `json:"budget_amount" label:"budget amount"`
	AllowedExpenseSubmitters []string     `json:"allowed_expense_submitters" validate:"omitempty,dive,objectid" label:"allowed expense submitters"`
}

type rejectInput struct {
	Reason string `json:"reason" validate:"required,max=1000"`
}

type expenseInput struct {
	ActivityID  string      `json:"activity_id" validate:"required,objectid" label:"activity"`
	Amount      money.Cents `json:"amount"`
	Description string      `json:"description" validate:"required,max=1000"`
	Vendor      string      `json:"vendor" validate:"omitempty,max=200"`
	ReceiptURL  string      `json:"receipt_url" validate:"omitempty,httpurl" label:"receipt URL"`
}

type expenseRejectInput struct {
	Reason string `json:"reason" validate:"omitempty,max=1000"`
}

type offlinePaymentInput struct {
	Type      string      `json:"type" validate:"required,oneof=dues event"`
	RelatedID string      `json:"related_id" validate:"required,objectid" label:"related id"`
	Amount    money.Cents `json:"amount"`
	Method    string      `json:"method" validate:"required,oneof=cash check transfer" label:"payment method"`
	Reference string      `json:"reference" validate:"omitempty,max=200"`
}

type summaryLine struct {
	ActivityID  string  `json:"activity_id"`
	Title       string  `json:"title"`
	Budget      int64   `json:"budget"`
	Spent       int64   `json:"spent"`
	Remaining   int64   `json:"remaining"`
	PercentUsed float64 `json:"percent_used"`
	OverBudget  bool    `json:"over_budget"`
	Display     string  `json:"display"`
}

type summaryTotals struct {
	Budget      int64   `json:"budget"`
	Spent       int64   `json:"spent"`
	Remaining   int64   `json:"remaining"`
	PercentUsed float64 `json:"percent_used"`
}
