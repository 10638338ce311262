package backend

import (
	"context"
	"net/http"
)

// BudgetLimit is the configured limit of a budget.
type BudgetLimit struct {
	Amount float64 `json:"amount"`
	Unit   string  `json:"unit"`
}

// CalculatedSpend is the actual spend measured against a budget.
type CalculatedSpend struct {
	ActualSpend float64 `json:"actual_spend"`
	Unit        string  `json:"unit"`
}

// BudgetDeviation compares one budget with its actual spend.
type BudgetDeviation struct {
	BudgetName      string          `json:"budget_name"`
	TimeUnit        string          `json:"time_unit"`
	BudgetLimit     BudgetLimit     `json:"budget_limit"`
	CalculatedSpend CalculatedSpend `json:"calculated_spend"`
	Deviation       float64         `json:"deviation"`
}

// OverBudget reports whether spend exceeds the limit. Deviation is the
// remaining headroom, so overspend is negative.
func (d BudgetDeviation) OverBudget() bool {
	return d.Deviation < 0
}

// UsedPercent is actual spend as a percentage of the limit.
func (d BudgetDeviation) UsedPercent() float64 {
	if d.BudgetLimit.Amount == 0 {
		return 0
	}
	return d.CalculatedSpend.ActualSpend / d.BudgetLimit.Amount * 100
}

// BudgetDeviationsResponse lists budget deviations at a point in time.
type BudgetDeviationsResponse struct {
	Budgets        []BudgetDeviation `json:"budgets"`
	TotalBudgets   int               `json:"total_budgets"`
	QueryTimestamp string            `json:"query_timestamp"`
}

type budgetRequest struct {
	UserID string `json:"user_id"`
	ConvID string `json:"conv_id"`
}

// BudgetDeviations fetches the user's budgets and their deviations.
func (c *Client) BudgetDeviations(ctx context.Context, userID, convID string) (*BudgetDeviationsResponse, error) {
	var out BudgetDeviationsResponse
	if err := c.do(ctx, http.MethodPost, "/api/chat/budgets-structured", budgetRequest{UserID: userID, ConvID: convID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
