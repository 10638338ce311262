package mockapi

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/costwise/costwise/pkg/backend"
)

type budgetRequest struct {
	UserID string `json:"user_id"`
	ConvID string `json:"conv_id"`
}

// cannedBudgets mixes budgets under and over their limits.
var cannedBudgets = []backend.BudgetDeviation{
	{
		BudgetName:      "EC2 monthly",
		TimeUnit:        "MONTHLY",
		BudgetLimit:     backend.BudgetLimit{Amount: 1000, Unit: "USD"},
		CalculatedSpend: backend.CalculatedSpend{ActualSpend: 1240.5, Unit: "USD"},
		Deviation:       -240.5,
	},
	{
		BudgetName:      "S3 storage",
		TimeUnit:        "MONTHLY",
		BudgetLimit:     backend.BudgetLimit{Amount: 400, Unit: "USD"},
		CalculatedSpend: backend.CalculatedSpend{ActualSpend: 312.1, Unit: "USD"},
		Deviation:       87.9,
	},
	{
		BudgetName:      "Data transfer",
		TimeUnit:        "QUARTERLY",
		BudgetLimit:     backend.BudgetLimit{Amount: 600, Unit: "USD"},
		CalculatedSpend: backend.CalculatedSpend{ActualSpend: 655, Unit: "USD"},
		Deviation:       -55,
	},
}

func (s *Server) handleBudgets(c *fiber.Ctx) error {
	var req budgetRequest
	if err := c.BodyParser(&req); err != nil || req.UserID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Detail: "user_id required"})
	}

	budgets := make([]backend.BudgetDeviation, len(cannedBudgets))
	copy(budgets, cannedBudgets)

	return c.JSON(backend.BudgetDeviationsResponse{
		Budgets:        budgets,
		TotalBudgets:   len(budgets),
		QueryTimestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
