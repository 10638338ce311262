package convcmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/costwise/costwise/cmd/costwise/cmdenv"
	"github.com/costwise/costwise/pkg/cliui"
	"github.com/costwise/costwise/pkg/transcript"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history <conv-id>",
		Short: "Print a conversation from the backend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cmdenv.Load(cmd, remoteFlags...)
			if err != nil {
				return err
			}
			tokens, err := env.Tokens()
			if err != nil {
				return err
			}

			res, err := env.Backend(tokens).History(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("fetching history: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out)
			if res.ConversationType != "" {
				fmt.Fprintf(out, "  %s %s\n\n", cliui.KeyStyle.Render("Type:"), cliui.ValueStyle.Render(res.ConversationType))
			}

			r := cliui.Renderer{}
			for _, h := range res.History {
				role := transcript.RoleAssistant
				if h.Role == string(transcript.RoleUser) {
					role = transcript.RoleUser
				}
				fmt.Fprint(out, r.Render(transcript.Message{Role: role, Content: h.Content}))
			}
			fmt.Fprintln(out)
			return nil
		},
	}

	addRemoteFlags(cmd)
	return cmd
}
