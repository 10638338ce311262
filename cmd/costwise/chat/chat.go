// Package chatcmder provides the interactive chat command.
package chatcmder

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/costwise/costwise/cmd/costwise/cmdenv"
	"github.com/costwise/costwise/pkg/backend"
	"github.com/costwise/costwise/pkg/cliui"
	"github.com/costwise/costwise/pkg/config"
	"github.com/costwise/costwise/pkg/dotdir"
	"github.com/costwise/costwise/pkg/session"
	"github.com/costwise/costwise/pkg/worker"
)

type chatCommander struct {
	apiURL       string
	userID       string
	token        string
	sqlitePath   string
	kafkaBrokers string
	kafkaTopic   string
	clean        bool

	convID string
	fresh  bool
	record string

	env *cmdenv.Env
	ddm *dotdir.Manager
}

var flags = []string{
	config.FlagAPIURL,
	config.FlagUserID,
	config.FlagToken,
	config.FlagSQLite,
	config.FlagKafkaBrokers,
	config.FlagKafkaTopic,
	config.FlagClean,
}

const chatLongDesc string = `Start an interactive chat with the AWS cost assistant.

Answers stream in as the backend produces them. Tool calls the assistant makes
are shown as they happen unless --clean is set. Press Ctrl+C while an answer
is streaming to cancel it.

The last conversation is resumed unless --new or --conv-id is given.
Completed turns are stored locally (--sqlite) and optionally published to
Kafka (--kafka-brokers).

Commands inside the chat:
  /new       Start a new conversation
  /history   Reload the conversation from the backend
  /exit      Quit (Ctrl+D works too)

Examples:
  costwise chat --user alice
  costwise chat --new --clean
  costwise chat --conv-id 3f2a9c1e0b7d4e65 --record session.sse`

const chatShortDesc string = "Chat with the AWS cost assistant"

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{ddm: dotdir.NewManager()}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			env, err := cmdenv.Load(cmd, flags...)
			if err != nil {
				return err
			}
			cmder.env = env
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPIURL, &cmder.apiURL)
	config.AddStringFlag(cmd, config.Flags, config.FlagUserID, &cmder.userID)
	config.AddStringFlag(cmd, config.Flags, config.FlagToken, &cmder.token)
	config.AddStringFlag(cmd, config.Flags, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, config.Flags, config.FlagKafkaBrokers, &cmder.kafkaBrokers)
	config.AddStringFlag(cmd, config.Flags, config.FlagKafkaTopic, &cmder.kafkaTopic)
	config.AddBoolFlag(cmd, config.Flags, config.FlagClean, &cmder.clean)

	cmd.Flags().StringVar(&cmder.convID, "conv-id", "", "Conversation to open")
	cmd.Flags().BoolVar(&cmder.fresh, "new", false, "Start a new conversation instead of resuming")
	cmd.Flags().StringVar(&cmder.record, "record", "", "Write the raw event stream to this file")

	return cmd
}

func (c *chatCommander) run(ctx context.Context, in io.Reader, out io.Writer) error {
	env := c.env
	cfg := env.Config

	userID, err := env.UserID()
	if err != nil {
		return err
	}

	tokens, err := env.Tokens()
	if err != nil {
		return err
	}

	var record io.Writer
	if c.record != "" {
		f, err := os.Create(c.record)
		if err != nil {
			return fmt.Errorf("opening record file: %w", err)
		}
		defer f.Close()
		record = f
	}

	driver, err := env.StorageDriver(ctx)
	if err != nil {
		return err
	}
	defer driver.Close()

	publisher, err := env.Publisher()
	if err != nil {
		return err
	}
	defer publisher.Close()

	pool, err := worker.NewPool(&worker.Config{
		Driver:     driver,
		Publisher:  publisher,
		NumWorkers: 1,
		Logger:     env.Logger,
	})
	if err != nil {
		return fmt.Errorf("starting turn workers: %w", err)
	}
	// Drain queued turns before the driver and publisher close.
	defer pool.Close()

	api := env.Backend(tokens)
	p := newPrinter(out, c.renderer(out))

	convID, resumed, err := c.resolveConversation(userID)
	if err != nil {
		return err
	}

	ctrl := session.New(session.Config{
		Streamer:       env.ChatClient(tokens, record),
		API:            api,
		Sink:           pool,
		UserID:         userID,
		ConversationID: convID,
		Logger:         env.Logger,
		OnChange:       p.Update,
		OnConversationCreated: func(id string) {
			c.saveState(id, userID)
		},
	})

	fmt.Fprintln(out)
	if resumed {
		fmt.Fprintf(out, "  %s Resuming conversation %s\n\n", cliui.SuccessMark, cliui.KeyStyle.Render(convID))
		c.loadHistory(ctx, ctrl, out)
	} else {
		fmt.Fprintf(out, "  %s New conversation %s\n\n", cliui.DimStyle.Render("●"), cliui.DimStyle.Render(convID))
		ctrl.Seed(session.WelcomeMessage(cfg.Chat.CleanMode))
	}
	fmt.Fprintf(out, "  %s\n\n", cliui.DimStyle.Render("Type your message and press Enter. /exit or Ctrl+D to quit."))

	return c.repl(ctx, ctrl, p, userID, in, out)
}

func (c *chatCommander) repl(ctx context.Context, ctrl *session.Controller, p *printer, userID string, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for {
		fmt.Fprint(out, cliui.UserStyle.Render("you › "))
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		switch input {
		case "":
			continue

		case "/exit", "/quit":
			fmt.Fprintln(out)
			return nil

		case "/new":
			id := backend.NewConversationID()
			ctrl.SwitchConversation(id)
			p.Reset()
			ctrl.Seed(session.WelcomeMessage(c.env.Config.Chat.CleanMode))
			if err := c.ddm.ClearChatState(c.env.ConfigDir); err != nil {
				c.env.Logger.Warn("could not clear chat state", "error", err)
			}
			fmt.Fprintf(out, "\n  %s New conversation %s\n\n", cliui.DimStyle.Render("●"), cliui.DimStyle.Render(id))
			continue

		case "/history":
			p.Reset()
			c.loadHistory(ctx, ctrl, out)
			continue
		}

		// Ctrl+C cancels the in-flight answer instead of killing the process.
		turnCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
		state := ctrl.Send(turnCtx, input)
		stop()

		switch state {
		case session.StateCancelled:
			fmt.Fprintf(out, "\n  %s\n\n", cliui.WarnStyle.Render("(answer cancelled)"))
		case session.StateCompleted:
			c.saveState(ctrl.ConversationID(), userID)
			fmt.Fprintln(out)
		default:
			fmt.Fprintln(out)
		}

		if errors.Is(ctx.Err(), context.Canceled) {
			return nil
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	fmt.Fprintln(out)
	return nil
}

// resolveConversation picks the conversation to open: --conv-id, then the
// saved chat state of the same user, then a new ID.
func (c *chatCommander) resolveConversation(userID string) (string, bool, error) {
	if c.convID != "" {
		return c.convID, true, nil
	}

	if !c.fresh {
		state, err := c.ddm.LoadChatState(c.env.ConfigDir)
		if err != nil {
			return "", false, fmt.Errorf("loading chat state: %w", err)
		}
		if state != nil && state.UserID == userID {
			return state.ConversationID, true, nil
		}
	}

	return backend.NewConversationID(), false, nil
}

func (c *chatCommander) loadHistory(ctx context.Context, ctrl *session.Controller, out io.Writer) {
	if _, err := ctrl.LoadHistory(ctx); err != nil {
		c.env.Logger.Warn("could not load conversation history", "conv_id", ctrl.ConversationID(), "error", err)
		fmt.Fprintf(out, "  %s %s\n\n", cliui.FailMark, cliui.DimStyle.Render("History unavailable, starting from a greeting."))
		ctrl.Seed(session.WelcomeMessage(c.env.Config.Chat.CleanMode))
		return
	}
	if len(ctrl.Snapshot()) == 0 {
		ctrl.Seed(session.WelcomeMessage(c.env.Config.Chat.CleanMode))
	}
}

func (c *chatCommander) saveState(convID, userID string) {
	state := &dotdir.ChatState{ConversationID: convID, UserID: userID}
	if err := c.ddm.SaveChatState(state, c.env.ConfigDir); err != nil {
		c.env.Logger.Warn("could not save chat state", "error", err)
	}
}

// renderer enables markdown only when out is a terminal.
func (c *chatCommander) renderer(out io.Writer) cliui.Renderer {
	r := cliui.Renderer{HideTools: c.env.Config.Chat.CleanMode}

	f, ok := out.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return r
	}

	r.Markdown = true
	if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 4 {
		r.Width = w - 4
	}
	return r
}
