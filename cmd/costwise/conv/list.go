package convcmder

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/costwise/costwise/cmd/costwise/cmdenv"
	"github.com/costwise/costwise/pkg/cliui"
	"github.com/costwise/costwise/pkg/config"
)

func newListCmd() *cobra.Command {
	var sqlitePath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List conversations stored locally",
		Long: `List conversations whose turns were stored in the local SQLite database,
most recent first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := cmdenv.Load(cmd, config.FlagSQLite)
			if err != nil {
				return err
			}
			if env.Config.Storage.SQLitePath == "" {
				return fmt.Errorf("no local store configured: pass --sqlite or set storage.sqlite_path")
			}

			driver, err := env.StorageDriver(cmd.Context())
			if err != nil {
				return err
			}
			defer driver.Close()

			convs, err := driver.Conversations(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(convs) == 0 {
				fmt.Fprintf(out, "\n  %s\n\n", cliui.DimStyle.Render("No stored conversations."))
				return nil
			}

			fmt.Fprintln(out)
			for _, c := range convs {
				fmt.Fprintf(out, "  %s  %s  %s\n",
					cliui.KeyStyle.Render(c.ID),
					cliui.ValueStyle.Render(fmt.Sprintf("%3d messages", c.Messages)),
					cliui.DimStyle.Render(c.LastActivity.Local().Format(time.DateTime)),
				)
			}
			fmt.Fprintln(out)
			return nil
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagSQLite, &sqlitePath)
	return cmd
}
