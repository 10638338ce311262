// Package configcmder provides the config command for managing persistent
// costwise configuration stored in the .costwise/ directory.
package configcmder

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/costwise/costwise/pkg/config"
)

const configLongDesc string = `Manage persistent costwise configuration.

Configuration is stored as config.toml in the .costwise/ directory and
provides default values for command flags. Precedence, highest first:
flags, COSTWISE_* environment variables (a .env file is loaded too),
config.toml, built-in defaults.

Keys use dotted notation matching the TOML section structure:
  api.base_url,
  auth.keycloak_url, auth.realm, auth.client_id, auth.client_secret, auth.token,
  user.id, chat.clean_mode, storage.sqlite_path,
  eventstream.kafka_brokers, eventstream.topic,
  mock.listen, mock.frame_delay

Examples:
  costwise config set user.id alice
  costwise config set eventstream.kafka_brokers broker1:9092,broker2:9092
  costwise config get api.base_url
  costwise config list`

const configShortDesc string = "Manage persistent costwise configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

func completeKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

func checkKey(key string) error {
	if !config.IsValidConfigKey(key) {
		return fmt.Errorf("unknown config key: %q\n\nValid keys: %s",
			key, strings.Join(config.ValidConfigKeys(), ", "))
	}
	return nil
}
