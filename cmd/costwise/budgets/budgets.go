// Package budgetscmder provides the budgets command.
package budgetscmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/costwise/costwise/cmd/costwise/cmdenv"
	"github.com/costwise/costwise/pkg/backend"
	"github.com/costwise/costwise/pkg/cliui"
	"github.com/costwise/costwise/pkg/config"
)

type budgetsCommander struct {
	apiURL string
	userID string
	token  string
	convID string
}

var flags = []string{config.FlagAPIURL, config.FlagUserID, config.FlagToken}

const budgetsLongDesc string = `Show budget deviations for the configured user.

Each AWS budget is listed with its limit, the spend calculated so far and the
remaining headroom. Negative deviations are over budget.`

func NewBudgetsCmd() *cobra.Command {
	cmder := &budgetsCommander{}

	cmd := &cobra.Command{
		Use:   "budgets",
		Short: "Show budget deviations",
		Long:  budgetsLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := cmdenv.Load(cmd, flags...)
			if err != nil {
				return err
			}
			return cmder.run(cmd, env)
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPIURL, &cmder.apiURL)
	config.AddStringFlag(cmd, config.Flags, config.FlagUserID, &cmder.userID)
	config.AddStringFlag(cmd, config.Flags, config.FlagToken, &cmder.token)
	cmd.Flags().StringVar(&cmder.convID, "conv-id", "", "Conversation to attribute the query to")

	return cmd
}

func (c *budgetsCommander) run(cmd *cobra.Command, env *cmdenv.Env) error {
	userID, err := env.UserID()
	if err != nil {
		return err
	}
	tokens, err := env.Tokens()
	if err != nil {
		return err
	}

	convID := c.convID
	if convID == "" {
		convID = backend.NewConversationID()
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out)

	var res *backend.BudgetDeviationsResponse
	err = cliui.Step(out, "Fetching budget deviations", func() error {
		var err error
		res, err = env.Backend(tokens).BudgetDeviations(cmd.Context(), userID, convID)
		return err
	})
	if err != nil {
		return fmt.Errorf("fetching budgets: %w", err)
	}

	fmt.Fprintln(out)
	if len(res.Budgets) == 0 {
		fmt.Fprintf(out, "  %s\n\n", cliui.DimStyle.Render("No budgets found."))
		return nil
	}

	fmt.Fprintln(out, cliui.BudgetTable(res))

	over := 0
	for _, b := range res.Budgets {
		if b.OverBudget() {
			over++
		}
	}
	fmt.Fprintf(out, "\n  %s %s  %s %s\n",
		cliui.KeyStyle.Render("Budgets:"), cliui.ValueStyle.Render(fmt.Sprint(res.TotalBudgets)),
		cliui.KeyStyle.Render("Over budget:"), cliui.ValueStyle.Render(fmt.Sprint(over)),
	)
	if res.QueryTimestamp != "" {
		fmt.Fprintf(out, "  %s\n", cliui.DimStyle.Render("as of "+res.QueryTimestamp))
	}
	fmt.Fprintln(out)
	return nil
}
