// Package convcmder provides commands for managing conversations on the
// backend and in the local turn store.
package convcmder

import (
	"github.com/spf13/cobra"

	"github.com/costwise/costwise/pkg/config"
)

const convLongDesc string = `Manage conversations.

  costwise conv list                  List conversations stored locally
  costwise conv history <id>          Print a conversation from the backend
  costwise conv title <id> <title>    Rename a conversation
  costwise conv delete <id>           Delete a conversation everywhere`

const convShortDesc string = "Manage conversations"

// remoteFlags are registered by subcommands that call the backend.
var remoteFlags = []string{config.FlagAPIURL, config.FlagToken}

func NewConvCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "conv",
		Short: convShortDesc,
		Long:  convLongDesc,
	}

	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newHistoryCmd())
	cmd.AddCommand(newTitleCmd())
	cmd.AddCommand(newDeleteCmd())

	return cmd
}

func addRemoteFlags(cmd *cobra.Command) {
	var apiURL, token string
	config.AddStringFlag(cmd, config.Flags, config.FlagAPIURL, &apiURL)
	config.AddStringFlag(cmd, config.Flags, config.FlagToken, &token)
}
