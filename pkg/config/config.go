package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/BurntSushi/toml"

	"github.com/costwise/costwise/pkg/dotdir"
)

const (
	configFile = "config.toml"

	// v0 is the alpha version of the config
	v0 = 0

	// CurrentV is the currently supported version, points to v0
	CurrentV = v0
)

// secretKeys are masked by ListConfigValues.
var secretKeys = map[string]bool{
	"auth.client_secret": true,
	"auth.token":         true,
}

// Configer reads and writes config.toml inside a resolved .costwise/ directory.
type Configer struct {
	ddm        *dotdir.Manager
	targetPath string
}

// KeyValue is one rendered entry of the effective config.
type KeyValue struct {
	Key   string
	Value string
}

func NewConfiger(override string) (*Configer, error) {
	ddm := dotdir.NewManager()
	target, err := ddm.Target(override)
	if err != nil {
		return nil, err
	}

	c := &Configer{ddm: ddm}

	// No .costwise/ resolved: LoadConfig yields defaults and SaveConfig errors.
	if target == "" {
		return c, nil
	}

	path := filepath.Join(target, configFile)
	if _, err := os.Stat(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	c.targetPath = path

	return c, nil
}

// ValidConfigKeys returns every supported key in TOML section order.
func ValidConfigKeys() []string {
	return slices.Clone(keyOrder)
}

// IsValidConfigKey returns true if the given key is a supported configuration key.
func IsValidConfigKey(key string) bool {
	_, ok := configKeys[key]
	return ok
}

func (c *Configer) GetTarget() string {
	return c.targetPath
}

// LoadConfig loads config.toml from the target .costwise/ directory.
// A missing file yields NewDefaultConfig(); fields left unset in the file
// are filled from the defaults.
func (c *Configer) LoadConfig() (*Config, error) {
	if c.targetPath == "" {
		return NewDefaultConfig(), nil
	}

	data, err := os.ReadFile(c.targetPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewDefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg, err := ParseConfigTOML(data)
	if err != nil {
		return nil, err
	}
	applyDefaults(cfg)

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	d := NewDefaultConfig()

	fill := func(dst *string, def string) {
		if *dst == "" {
			*dst = def
		}
	}

	if cfg.Version == 0 {
		cfg.Version = d.Version
	}
	fill(&cfg.API.BaseURL, d.API.BaseURL)
	fill(&cfg.Auth.KeycloakURL, d.Auth.KeycloakURL)
	fill(&cfg.Auth.Realm, d.Auth.Realm)
	fill(&cfg.Auth.ClientID, d.Auth.ClientID)
	fill(&cfg.EventStream.Topic, d.EventStream.Topic)
	fill(&cfg.Mock.Listen, d.Mock.Listen)
	fill(&cfg.Mock.FrameDelay, d.Mock.FrameDelay)
}

// SaveConfig writes cfg to config.toml in the target .costwise/ directory.
func (c *Configer) SaveConfig(cfg *Config) error {
	if cfg == nil {
		return errors.New("cannot save nil config")
	}
	if c.targetPath == "" {
		return errors.New("cannot save empty target path")
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	// The file may hold a client secret.
	if err := os.WriteFile(c.targetPath, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// SetConfigValue loads the config, sets key to value, and saves it.
func (c *Configer) SetConfigValue(key string, value string) error {
	info, ok := configKeys[key]
	if !ok {
		return fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return err
	}
	if err := info.set(cfg, value); err != nil {
		return err
	}

	return c.SaveConfig(cfg)
}

// GetConfigValue loads the config and returns the string form of key.
func (c *Configer) GetConfigValue(key string) (string, error) {
	info, ok := configKeys[key]
	if !ok {
		return "", fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return "", err
	}
	return info.get(cfg), nil
}

// ListConfigValues returns every key with its effective value. Secrets are
// masked unless reveal is set.
func (c *Configer) ListConfigValues(reveal bool) ([]KeyValue, error) {
	cfg, err := c.LoadConfig()
	if err != nil {
		return nil, err
	}

	out := make([]KeyValue, 0, len(keyOrder))
	for _, k := range keyOrder {
		v := configKeys[k].get(cfg)
		if secretKeys[k] && v != "" && !reveal {
			v = "********"
		}
		out = append(out, KeyValue{Key: k, Value: v})
	}
	return out, nil
}

// ParseConfigTOML parses raw TOML bytes into a Config.
// Returns an error if the version field is present and not equal to CurrentV.
func ParseConfigTOML(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config TOML: %w", err)
	}

	if cfg.Version != 0 && cfg.Version != CurrentV {
		return nil, fmt.Errorf("unsupported config version %d (expected %d)", cfg.Version, CurrentV)
	}

	return cfg, nil
}
