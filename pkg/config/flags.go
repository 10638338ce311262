package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline, so the same logical flag
// (e.g. --api-url on "chat", "conv" and "budgets") cannot drift.
type Flag struct {
	// Name is the long flag name (e.g. "api-url").
	Name string

	// Shorthand is the one-letter short flag (e.g. "u"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "api.base_url").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of flag names to Flag structs that hold their name,
// shorthand, viper key, etc.
type FlagSet map[string]Flag

// Flag registry keys.
// Use these constants when calling AddStringFlag, AddBoolFlag,
// and BindRegisteredFlags to avoid typos or drift from one command to another.
const (
	FlagAPIURL       = "api-url"
	FlagUserID       = "user"
	FlagToken        = "token"
	FlagKeycloakURL  = "keycloak-url"
	FlagRealm        = "realm"
	FlagClientID     = "client-id"
	FlagSQLite       = "sqlite"
	FlagKafkaBrokers = "kafka-brokers"
	FlagKafkaTopic   = "kafka-topic"
	FlagClean        = "clean"
	FlagMockListen   = "listen"
	FlagFrameDelay   = "frame-delay"
)

// Flags is the registry shared by every command.
var Flags = FlagSet{
	FlagAPIURL: {
		Name:        "api-url",
		ViperKey:    "api.base_url",
		Description: "Cost backend base URL",
	},
	FlagUserID: {
		Name:        "user",
		Shorthand:   "u",
		ViperKey:    "user.id",
		Description: "User ID conversations belong to",
	},
	FlagToken: {
		Name:        "token",
		ViperKey:    "auth.token",
		Description: "Static bearer token (skips Keycloak)",
	},
	FlagKeycloakURL: {
		Name:        "keycloak-url",
		ViperKey:    "auth.keycloak_url",
		Description: "Keycloak base URL",
	},
	FlagRealm: {
		Name:        "realm",
		ViperKey:    "auth.realm",
		Description: "Keycloak realm",
	},
	FlagClientID: {
		Name:        "client-id",
		ViperKey:    "auth.client_id",
		Description: "Keycloak client ID",
	},
	FlagSQLite: {
		Name:        "sqlite",
		Shorthand:   "s",
		ViperKey:    "storage.sqlite_path",
		Description: "Path to SQLite database for turn history (default: in-memory)",
	},
	FlagKafkaBrokers: {
		Name:        "kafka-brokers",
		ViperKey:    "eventstream.kafka_brokers",
		Description: "Comma separated Kafka brokers for turn events (default: disabled)",
	},
	FlagKafkaTopic: {
		Name:        "kafka-topic",
		ViperKey:    "eventstream.topic",
		Description: "Kafka topic for turn events",
	},
	FlagClean: {
		Name:        "clean",
		ViperKey:    "chat.clean_mode",
		Description: "Start with a shorter greeting and no tool output",
	},
	FlagMockListen: {
		Name:        "listen",
		Shorthand:   "l",
		ViperKey:    "mock.listen",
		Description: "Address for the mock backend to listen on",
	},
	FlagFrameDelay: {
		Name:        "frame-delay",
		ViperKey:    "mock.frame_delay",
		Description: "Delay between streamed frames of the mock backend",
	},
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultString(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddBoolFlag registers a bool flag on cmd from the given FlagSet.
func AddBoolFlag(cmd *cobra.Command, fs FlagSet, key string, target *bool) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultBool(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().BoolVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().BoolVar(target, def.Name, defaultVal, def.Description)
	}
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

// defaultString returns the default string value for a viper key from NewDefaultConfig.
func defaultString(viperKey string) string {
	v := viper.New()
	setViperDefaults(v)
	return v.GetString(viperKey)
}

// defaultBool returns the default bool value for a viper key from NewDefaultConfig.
func defaultBool(viperKey string) bool {
	v := viper.New()
	setViperDefaults(v)
	return v.GetBool(viperKey)
}
