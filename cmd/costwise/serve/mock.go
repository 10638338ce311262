package servecmder

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/costwise/costwise/cmd/costwise/cmdenv"
	"github.com/costwise/costwise/mockapi"
	"github.com/costwise/costwise/pkg/config"
)

type mockCommander struct {
	listen     string
	frameDelay string
	token      string
}

var mockFlags = []string{config.FlagMockListen, config.FlagFrameDelay, config.FlagToken}

const mockLongDesc string = `Run an in-memory mock of the cost backend.

The mock answers every chat with a scripted tool call and a streamed answer,
keeps conversation history in memory, and returns canned budget deviations.
With --token set, requests must carry that bearer token.

Examples:
  costwise serve mock
  costwise serve mock --listen :9000 --frame-delay 100ms`

func NewMockCmd() *cobra.Command {
	cmder := &mockCommander{}

	cmd := &cobra.Command{
		Use:   "mock",
		Short: "Run the mock cost backend",
		Long:  mockLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := cmdenv.Load(cmd, mockFlags...)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ln, err := net.Listen("tcp", env.Config.Mock.Listen)
			if err != nil {
				return fmt.Errorf("listening on %s: %w", env.Config.Mock.Listen, err)
			}
			return cmder.serve(ctx, env, ln)
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagMockListen, &cmder.listen)
	config.AddStringFlag(cmd, config.Flags, config.FlagFrameDelay, &cmder.frameDelay)
	config.AddStringFlag(cmd, config.Flags, config.FlagToken, &cmder.token)

	return cmd
}

// serve runs the mock on ln until ctx is done.
func (c *mockCommander) serve(ctx context.Context, env *cmdenv.Env, ln net.Listener) error {
	delay, err := env.Config.Mock.FrameDelayDuration()
	if err != nil {
		_ = ln.Close()
		return err
	}

	server := mockapi.NewServer(mockapi.Config{
		ListenAddr: ln.Addr().String(),
		FrameDelay: delay,
		Token:      env.Config.Auth.Token,
	}, env.Logger)

	env.Logger.Debug("mock backend settings",
		"frame_delay", delay,
		"require_token", env.Config.Auth.Token != "",
	)

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.RunWithListener(ln)
	}()

	select {
	case err := <-errChan:
		if err != nil && !errors.Is(err, net.ErrClosed) {
			return fmt.Errorf("mock backend: %w", err)
		}
		return nil

	case <-ctx.Done():
		env.Logger.Info("shutting down mock backend")
		if err := server.Shutdown(); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		return nil
	}
}
