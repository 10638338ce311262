// Package cmdenv resolves configuration and builds the shared clients that
// costwise subcommands run on.
package cmdenv

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/costwise/costwise/pkg/auth"
	"github.com/costwise/costwise/pkg/backend"
	"github.com/costwise/costwise/pkg/chatstream"
	"github.com/costwise/costwise/pkg/config"
	"github.com/costwise/costwise/pkg/eventstream"
	"github.com/costwise/costwise/pkg/eventstream/kafka"
	"github.com/costwise/costwise/pkg/eventstream/nop"
	"github.com/costwise/costwise/pkg/logger"
	"github.com/costwise/costwise/pkg/storage"
	"github.com/costwise/costwise/pkg/storage/inmemory"
	"github.com/costwise/costwise/pkg/storage/sqlite"
)

// ErrNoUser is returned when a command needs a user ID and none is configured.
var ErrNoUser = errors.New("no user id configured: pass --user or run \"costwise config set user.id <id>\"")

// Env is the resolved configuration of one command invocation.
type Env struct {
	Config    *config.Config
	ConfigDir string
	Debug     bool
	Logger    *slog.Logger
}

// Load merges flags, environment, config.toml and defaults for cmd.
// flagKeys name the registry flags cmd registered.
func Load(cmd *cobra.Command, flagKeys ...string) (*Env, error) {
	configDir, _ := cmd.Flags().GetString("config-dir")
	debug, _ := cmd.Flags().GetBool("debug")

	v, err := config.InitViper(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	config.BindRegisteredFlags(v, cmd, config.Flags, flagKeys)

	return &Env{
		Config:    config.FromViper(v),
		ConfigDir: configDir,
		Debug:     debug,
		Logger: logger.New(
			logger.WithDebug(debug),
			logger.WithPretty(true),
			logger.WithWriter(cmd.ErrOrStderr()),
		),
	}, nil
}

// UserID returns the configured user or ErrNoUser.
func (e *Env) UserID() (string, error) {
	if e.Config.User.ID == "" {
		return "", ErrNoUser
	}
	return e.Config.User.ID, nil
}

// Tokens picks the token provider: a static token when one is configured,
// Keycloak client credentials when a client secret is configured, and no
// token otherwise.
func (e *Env) Tokens() (auth.TokenProvider, error) {
	a := e.Config.Auth

	switch {
	case a.Token != "":
		return auth.NewStatic(a.Token), nil

	case a.ClientSecret != "":
		kc, err := auth.NewKeycloak(auth.KeycloakConfig{
			URL:          a.KeycloakURL,
			Realm:        a.Realm,
			ClientID:     a.ClientID,
			ClientSecret: a.ClientSecret,
		}, nil)
		if err != nil {
			return nil, fmt.Errorf("configuring keycloak: %w", err)
		}
		e.Logger.Debug("using keycloak client credentials", "realm", a.Realm, "client_id", a.ClientID)
		return kc, nil

	default:
		e.Logger.Debug("no credentials configured, sending unauthenticated requests")
		return auth.NewStatic(""), nil
	}
}

// Backend creates the REST client for conversations and budgets.
func (e *Env) Backend(tokens auth.TokenProvider) *backend.Client {
	return backend.NewClient(backend.Config{
		BaseURL: e.Config.API.BaseURL,
		Tokens:  tokens,
		Logger:  e.Logger,
	})
}

// ChatClient creates the streaming chat client. A non-nil record receives
// the raw event stream.
func (e *Env) ChatClient(tokens auth.TokenProvider, record io.Writer) *chatstream.Client {
	return chatstream.NewClient(chatstream.Config{
		BaseURL: e.Config.API.BaseURL,
		Tokens:  tokens,
		Logger:  e.Logger,
		Record:  record,
	})
}

// StorageDriver opens the local turn store: SQLite when a path is
// configured, memory otherwise.
func (e *Env) StorageDriver(ctx context.Context) (storage.Driver, error) {
	path := e.Config.Storage.SQLitePath
	if path == "" {
		e.Logger.Debug("using in-memory turn storage")
		return inmemory.NewDriver(), nil
	}

	driver, err := sqlite.NewDriver(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("opening SQLite turn storage: %w", err)
	}
	e.Logger.Debug("using SQLite turn storage", "path", path)
	return driver, nil
}

// Publisher creates the turn event publisher: Kafka when brokers are
// configured, a no-op otherwise.
func (e *Env) Publisher() (eventstream.Publisher, error) {
	es := e.Config.EventStream
	if len(es.KafkaBrokers) == 0 {
		return nop.NewPublisher(e.Logger), nil
	}

	p, err := kafka.NewPublisher(kafka.Config{
		Brokers: es.KafkaBrokers,
		Topic:   es.Topic,
		Logger:  e.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating kafka publisher: %w", err)
	}
	e.Logger.Debug("publishing turn events", "brokers", es.KafkaBrokers, "topic", es.Topic)
	return p, nil
}
