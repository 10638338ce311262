package convcmder

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/costwise/costwise/cmd/costwise/cmdenv"
	"github.com/costwise/costwise/pkg/cliui"
)

func newTitleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "title <conv-id> <title>",
		Short: "Rename a conversation",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cmdenv.Load(cmd, remoteFlags...)
			if err != nil {
				return err
			}
			tokens, err := env.Tokens()
			if err != nil {
				return err
			}

			title := strings.Join(args[1:], " ")
			if err := env.Backend(tokens).UpdateTitle(cmd.Context(), args[0], title); err != nil {
				return fmt.Errorf("updating title: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\n  %s Renamed %s to %s\n\n",
				cliui.SuccessMark, cliui.KeyStyle.Render(args[0]), cliui.ValueStyle.Render(title))
			return nil
		},
	}

	addRemoteFlags(cmd)
	return cmd
}
