package cliui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/costwise/costwise/pkg/backend"
)

var (
	overStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	underStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	cellStyle  = lipgloss.NewStyle().Padding(0, 1)
)

// FormatMoney renders an amount with its unit, e.g. "1,234.50 USD".
func FormatMoney(amount float64, unit string) string {
	s := formatThousands(amount)
	if unit == "" {
		return s
	}
	return s + " " + unit
}

func formatThousands(amount float64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}

	raw := fmt.Sprintf("%.2f", amount)
	whole, frac := raw[:len(raw)-3], raw[len(raw)-3:]

	var out []byte
	for i, c := range []byte(whole) {
		if i > 0 && (len(whole)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, c)
	}
	return sign + string(out) + frac
}

// BudgetTable renders budget deviations as a bordered table. Rows that are
// over budget are highlighted.
func BudgetTable(resp *backend.BudgetDeviationsResponse) string {
	headers := []string{"Budget", "Period", "Limit", "Actual", "Deviation", "Used"}

	rows := make([][]string, 0, len(resp.Budgets))
	for _, b := range resp.Budgets {
		rows = append(rows, []string{
			b.BudgetName,
			b.TimeUnit,
			FormatMoney(b.BudgetLimit.Amount, b.BudgetLimit.Unit),
			FormatMoney(b.CalculatedSpend.ActualSpend, b.CalculatedSpend.Unit),
			FormatMoney(b.Deviation, b.BudgetLimit.Unit),
			fmt.Sprintf("%.0f%%", b.UsedPercent()),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(DimStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return KeyStyle.Padding(0, 1)
			}
			if col == 4 && row >= 0 && row < len(resp.Budgets) {
				if resp.Budgets[row].OverBudget() {
					return overStyle.Padding(0, 1)
				}
				return underStyle.Padding(0, 1)
			}
			return cellStyle
		})

	return t.String()
}
