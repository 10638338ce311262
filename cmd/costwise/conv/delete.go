package convcmder

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/costwise/costwise/cmd/costwise/cmdenv"
	"github.com/costwise/costwise/pkg/cliui"
	"github.com/costwise/costwise/pkg/config"
	"github.com/costwise/costwise/pkg/dotdir"
	"github.com/costwise/costwise/pkg/storage"
)

func newDeleteCmd() *cobra.Command {
	var sqlitePath string

	cmd := &cobra.Command{
		Use:   "delete <conv-id>",
		Short: "Delete a conversation on the backend and locally",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cmdenv.Load(cmd, append(remoteFlags, config.FlagSQLite)...)
			if err != nil {
				return err
			}
			tokens, err := env.Tokens()
			if err != nil {
				return err
			}

			convID := args[0]
			out := cmd.OutOrStdout()
			fmt.Fprintln(out)

			err = cliui.Step(out, "Deleting on backend", func() error {
				return env.Backend(tokens).DeleteConversation(cmd.Context(), convID)
			})
			if err != nil {
				return fmt.Errorf("deleting conversation: %w", err)
			}

			if env.Config.Storage.SQLitePath != "" {
				err = cliui.Step(out, "Deleting stored turns", func() error {
					driver, err := env.StorageDriver(cmd.Context())
					if err != nil {
						return err
					}
					defer driver.Close()

					err = driver.DeleteConversation(cmd.Context(), convID)
					var notFound storage.NotFoundError
					if errors.As(err, &notFound) {
						return nil
					}
					return err
				})
				if err != nil {
					return err
				}
			}

			// Forget the conversation if chat would resume it.
			ddm := dotdir.NewManager()
			if state, err := ddm.LoadChatState(env.ConfigDir); err == nil && state != nil && state.ConversationID == convID {
				if err := ddm.ClearChatState(env.ConfigDir); err != nil {
					env.Logger.Warn("could not clear chat state", "error", err)
				}
			}

			fmt.Fprintln(out)
			return nil
		},
	}

	addRemoteFlags(cmd)
	config.AddStringFlag(cmd, config.Flags, config.FlagSQLite, &sqlitePath)
	return cmd
}
