// Package costwisecmder assembles the costwise command tree.
package costwisecmder

import (
	"github.com/spf13/cobra"

	budgetscmder "github.com/costwise/costwise/cmd/costwise/budgets"
	chatcmder "github.com/costwise/costwise/cmd/costwise/chat"
	configcmder "github.com/costwise/costwise/cmd/costwise/config"
	convcmder "github.com/costwise/costwise/cmd/costwise/conv"
	servecmder "github.com/costwise/costwise/cmd/costwise/serve"
	versioncmder "github.com/costwise/costwise/cmd/costwise/version"
)

const costwiseLongDesc string = `costwise is a terminal client for the AWS cost assistant.

  costwise chat           Chat about your AWS costs
  costwise budgets        Show budget deviations
  costwise conv           Manage conversations
  costwise config         Manage persistent configuration
  costwise serve mock     Run a local mock of the cost backend`

const costwiseShortDesc string = "costwise - AWS cost assistant"

func NewCostwiseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "costwise",
		Short:        costwiseShortDesc,
		Long:         costwiseLongDesc,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Directory holding config.toml and chat state (default: ./.costwise or ~/.costwise)")

	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(budgetscmder.NewBudgetsCmd())
	cmd.AddCommand(convcmder.NewConvCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
