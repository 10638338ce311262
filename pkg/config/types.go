package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Config represents the persistent costwise configuration stored as
// config.toml in the .costwise/ directory. The TOML layout uses sections for
// logical grouping.
type Config struct {
	Version     int               `toml:"version"`
	API         APIConfig         `toml:"api"`
	Auth        AuthConfig        `toml:"auth"`
	User        UserConfig        `toml:"user"`
	Chat        ChatConfig        `toml:"chat"`
	Storage     StorageConfig     `toml:"storage"`
	EventStream EventStreamConfig `toml:"eventstream"`
	Mock        MockConfig        `toml:"mock"`
}

// APIConfig holds the cost backend location.
type APIConfig struct {
	BaseURL string `toml:"base_url,omitempty"`
}

// AuthConfig holds Keycloak client credentials. A static Token takes
// precedence over Keycloak when set.
type AuthConfig struct {
	KeycloakURL  string `toml:"keycloak_url,omitempty"`
	Realm        string `toml:"realm,omitempty"`
	ClientID     string `toml:"client_id,omitempty"`
	ClientSecret string `toml:"client_secret,omitempty"`
	Token        string `toml:"token,omitempty"`
}

// UserConfig identifies the user the backend attributes conversations to.
type UserConfig struct {
	ID string `toml:"id,omitempty"`
}

// ChatConfig holds interactive chat settings.
type ChatConfig struct {
	CleanMode bool `toml:"clean_mode,omitempty"`
}

// StorageConfig holds local turn persistence settings. An empty path keeps
// turns in memory only.
type StorageConfig struct {
	SQLitePath string `toml:"sqlite_path,omitempty"`
}

// EventStreamConfig holds turn event publishing settings. No brokers means
// publishing is disabled.
type EventStreamConfig struct {
	KafkaBrokers []string `toml:"kafka_brokers,omitempty"`
	Topic        string   `toml:"topic,omitempty"`
}

// MockConfig holds settings for the local mock backend.
type MockConfig struct {
	Listen     string `toml:"listen,omitempty"`
	FrameDelay string `toml:"frame_delay,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func stringKey(field func(c *Config) *string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error { *field(c) = v; return nil },
	}
}

// keyOrder lists every config key in TOML section order. It is what
// "costwise config list" prints.
var keyOrder = []string{
	"api.base_url",
	"auth.keycloak_url",
	"auth.realm",
	"auth.client_id",
	"auth.client_secret",
	"auth.token",
	"user.id",
	"chat.clean_mode",
	"storage.sqlite_path",
	"eventstream.kafka_brokers",
	"eventstream.topic",
	"mock.listen",
	"mock.frame_delay",
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"api.base_url":       stringKey(func(c *Config) *string { return &c.API.BaseURL }),
	"auth.keycloak_url":  stringKey(func(c *Config) *string { return &c.Auth.KeycloakURL }),
	"auth.realm":         stringKey(func(c *Config) *string { return &c.Auth.Realm }),
	"auth.client_id":     stringKey(func(c *Config) *string { return &c.Auth.ClientID }),
	"auth.client_secret": stringKey(func(c *Config) *string { return &c.Auth.ClientSecret }),
	"auth.token":         stringKey(func(c *Config) *string { return &c.Auth.Token }),
	"user.id":            stringKey(func(c *Config) *string { return &c.User.ID }),
	"chat.clean_mode": {
		get: func(c *Config) string { return strconv.FormatBool(c.Chat.CleanMode) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for chat.clean_mode: %w", err)
			}
			c.Chat.CleanMode = b
			return nil
		},
	},
	"storage.sqlite_path": stringKey(func(c *Config) *string { return &c.Storage.SQLitePath }),
	"eventstream.kafka_brokers": {
		get: func(c *Config) string { return strings.Join(c.EventStream.KafkaBrokers, ",") },
		set: func(c *Config, v string) error { c.EventStream.KafkaBrokers = SplitList(v); return nil },
	},
	"eventstream.topic": stringKey(func(c *Config) *string { return &c.EventStream.Topic }),
	"mock.listen":       stringKey(func(c *Config) *string { return &c.Mock.Listen }),
	"mock.frame_delay": {
		get: func(c *Config) string { return c.Mock.FrameDelay },
		set: func(c *Config, v string) error {
			if _, err := time.ParseDuration(v); err != nil {
				return fmt.Errorf("invalid value for mock.frame_delay: %w", err)
			}
			c.Mock.FrameDelay = v
			return nil
		},
	},
}

// SplitList splits comma separated values, dropping blanks.
func SplitList(values ...string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
