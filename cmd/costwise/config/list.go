package configcmder

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/costwise/costwise/pkg/config"
)

func newListCmd() *cobra.Command {
	var reveal bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all configuration values",
		Long: `List every configuration key with its value from config.toml or its
default. Secrets are masked unless --reveal is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runList(cmd.OutOrStdout(), configDir, reveal)
		},
	}

	cmd.Flags().BoolVar(&reveal, "reveal", false, "Show secret values")
	return cmd
}

func runList(out io.Writer, configDir string, reveal bool) error {
	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	values, err := cfger.ListConfigValues(reveal)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Using config file: %s\n\n", cfger.GetTarget())

	maxLen := 0
	for _, kv := range values {
		maxLen = max(maxLen, len(kv.Key))
	}

	for _, kv := range values {
		if kv.Value == "" {
			fmt.Fprintf(out, "%-*s = <not set>\n", maxLen, kv.Key)
		} else {
			fmt.Fprintf(out, "%-*s = %q\n", maxLen, kv.Key, kv.Value)
		}
	}
	return nil
}
