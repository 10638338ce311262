package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/costwise/costwise/pkg/dotdir"
)

// EnvPrefix prefixes every environment variable read by InitViper.
const EnvPrefix = "COSTWISE"

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), loads .env files, reads the
// config.toml file (if found via dotdir resolution), and binds environment
// variables with the COSTWISE_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (COSTWISE_API_BASE_URL, COSTWISE_USER_ID, etc.),
//     including those loaded from .env
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	setViperDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	envFiles := []string{".env"}
	if target != "" {
		v.AddConfigPath(target)
		envFiles = append(envFiles, filepath.Join(target, ".env"))
	}

	if err := loadDotEnv(envFiles...); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// loadDotEnv loads each existing file into the process environment.
// Variables already set are never overridden, so earlier files win.
func loadDotEnv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	v.SetDefault("api.base_url", d.API.BaseURL)

	v.SetDefault("auth.keycloak_url", d.Auth.KeycloakURL)
	v.SetDefault("auth.realm", d.Auth.Realm)
	v.SetDefault("auth.client_id", d.Auth.ClientID)
	v.SetDefault("auth.client_secret", d.Auth.ClientSecret)
	v.SetDefault("auth.token", d.Auth.Token)

	v.SetDefault("user.id", d.User.ID)

	v.SetDefault("chat.clean_mode", d.Chat.CleanMode)

	v.SetDefault("storage.sqlite_path", d.Storage.SQLitePath)

	v.SetDefault("eventstream.kafka_brokers", strings.Join(d.EventStream.KafkaBrokers, ","))
	v.SetDefault("eventstream.topic", d.EventStream.Topic)

	v.SetDefault("mock.listen", d.Mock.Listen)
	v.SetDefault("mock.frame_delay", d.Mock.FrameDelay)
}

// FromViper materializes the effective configuration after flags, env,
// file and defaults have been merged.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Version: v.GetInt("version"),
		API: APIConfig{
			BaseURL: v.GetString("api.base_url"),
		},
		Auth: AuthConfig{
			KeycloakURL:  v.GetString("auth.keycloak_url"),
			Realm:        v.GetString("auth.realm"),
			ClientID:     v.GetString("auth.client_id"),
			ClientSecret: v.GetString("auth.client_secret"),
			Token:        v.GetString("auth.token"),
		},
		User: UserConfig{
			ID: v.GetString("user.id"),
		},
		Chat: ChatConfig{
			CleanMode: v.GetBool("chat.clean_mode"),
		},
		Storage: StorageConfig{
			SQLitePath: v.GetString("storage.sqlite_path"),
		},
		EventStream: EventStreamConfig{
			// A TOML array and a comma separated env value both land here.
			KafkaBrokers: SplitList(v.GetStringSlice("eventstream.kafka_brokers")...),
			Topic:        v.GetString("eventstream.topic"),
		},
		Mock: MockConfig{
			Listen:     v.GetString("mock.listen"),
			FrameDelay: v.GetString("mock.frame_delay"),
		},
	}
}

// FrameDelayDuration parses the mock frame delay, falling back to zero when unset.
func (m MockConfig) FrameDelayDuration() (time.Duration, error) {
	if m.FrameDelay == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(m.FrameDelay)
	if err != nil {
		return 0, fmt.Errorf("invalid mock.frame_delay %q: %w", m.FrameDelay, err)
	}
	return d, nil
}
