package configcmder

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/costwise/costwise/pkg/cliui"
	"github.com/costwise/costwise/pkg/config"
)

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Long: `Get a configuration value from config.toml, or its default when unset.

Examples:
  costwise config get api.base_url
  costwise config get chat.clean_mode`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeKeys,
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runGet(cmd.OutOrStdout(), args[0], configDir)
		},
	}
}

func runGet(out io.Writer, key, configDir string) error {
	if err := checkKey(key); err != nil {
		return err
	}

	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	value, err := cfger.GetConfigValue(key)
	if err != nil {
		return err
	}

	if value == "" {
		fmt.Fprintf(out, "%s  %s\n", cliui.KeyStyle.Render(key), cliui.DimStyle.Render("<not set>"))
		return nil
	}
	fmt.Fprintf(out, "%s  %s\n", cliui.KeyStyle.Render(key), cliui.ValueStyle.Render(value))
	return nil
}
