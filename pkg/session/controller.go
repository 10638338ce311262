// Package session folds chat streams into a conversation transcript and
// enforces at most one in-flight turn per conversation view.
//
// A turn starts by appending the user message, then consumes the stream:
// tool events are appended as they arrive, assistant deltas are accumulated
// privately and appended once when the stream completes. Canceled turns
// append nothing. Failed turns append a single fallback message.
package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/costwise/costwise/pkg/backend"
	"github.com/costwise/costwise/pkg/chatstream"
	"github.com/costwise/costwise/pkg/logger"
	"github.com/costwise/costwise/pkg/storage"
	"github.com/costwise/costwise/pkg/transcript"
	"github.com/costwise/costwise/pkg/utils"
	"github.com/costwise/costwise/pkg/worker"
)

// FallbackErrorText is shown in place of an answer when a turn fails.
const FallbackErrorText = "Sorry, something went wrong while processing your request. Please try again."

// titleLength is how many characters of the first message become the title.
const titleLength = 30

// Streamer opens chat streams. *chatstream.Client implements it.
type Streamer interface {
	Stream(ctx context.Context, req chatstream.Request) (*chatstream.Stream, error)
}

// ConversationAPI manages conversations on the backend. *backend.Client
// implements it.
type ConversationAPI interface {
	CreateConversation(ctx context.Context, userID, convID string) error
	UpdateTitle(ctx context.Context, convID, title string) error
	History(ctx context.Context, convID string) (*backend.HistoryResponse, error)
}

// TurnSink receives completed turns for persistence. *worker.Pool
// implements it.
type TurnSink interface {
	Enqueue(job worker.Job) bool
}

// Config configures a Controller.
type Config struct {
	Streamer Streamer

	// API is optional. Without it conversations are never created remotely
	// and history cannot be loaded.
	API ConversationAPI

	// Sink is optional.
	Sink TurnSink

	UserID         string
	ConversationID string

	Logger *slog.Logger

	// OnChange is called with a snapshot after every transcript mutation.
	// It runs on the goroutine that made the change and must not call back
	// into the controller's mutating methods.
	OnChange func([]transcript.Message)

	// OnConversationCreated is called after the backend accepted a new
	// conversation.
	OnConversationCreated func(convID string)
}

// turn is the state owned by one send.
type turn struct {
	generation uint64
	cancel     context.CancelFunc
	done       chan struct{}
	startedAt  time.Time

	// answer accumulates assistant deltas until the stream completes.
	answer strings.Builder

	// messages are the transcript entries this turn produced.
	messages []transcript.Message
}

// Controller owns the transcript of one conversation view.
type Controller struct {
	streamer  Streamer
	api       ConversationAPI
	sink      TurnSink
	userID    string
	logger    *slog.Logger
	onChange  func([]transcript.Message)
	onCreated func(string)

	// startMu serializes the start of sends so that a second send waits for
	// the first to be fully resolved before appending its user message.
	startMu sync.Mutex

	mu         sync.Mutex
	transcript *transcript.Transcript
	convID     string
	created    bool
	generation uint64
	active     *turn
	loading    bool
	state      State
	last       State
}

// New creates a Controller with an empty transcript.
func New(cfg Config) *Controller {
	return &Controller{
		streamer:   cfg.Streamer,
		api:        cfg.API,
		sink:       cfg.Sink,
		userID:     cfg.UserID,
		logger:     logger.OrNop(cfg.Logger),
		onChange:   cfg.OnChange,
		onCreated:  cfg.OnConversationCreated,
		transcript: transcript.New(),
		convID:     cfg.ConversationID,
	}
}

// Send runs one turn for text and returns how it ended. Any turn already in
// flight is canceled and fully resolved first. Blank text is ignored and
// reports StateIdle. Failures never escape: they end up as a fallback
// message in the transcript and StateErrored.
func (c *Controller) Send(ctx context.Context, text string) State {
	if strings.TrimSpace(text) == "" {
		return StateIdle
	}

	c.startMu.Lock()

	c.mu.Lock()
	prev := c.active
	c.mu.Unlock()
	if prev != nil {
		prev.cancel()
		<-prev.done
	}

	c.mu.Lock()
	gen := c.generation
	convID := c.convID
	c.mu.Unlock()

	c.bootstrap(ctx, gen, convID, text)

	turnCtx, cancel := context.WithCancel(ctx)
	userMsg := transcript.NewMessage(transcript.RoleUser, text)

	c.mu.Lock()
	if c.generation != gen {
		c.last = StateCancelled
		c.mu.Unlock()
		cancel()
		c.startMu.Unlock()
		c.logger.Debug("conversation switched before send started", "conv_id", convID)
		return StateCancelled
	}
	t := &turn{
		generation: gen,
		cancel:     cancel,
		done:       make(chan struct{}),
		startedAt:  time.Now().UTC(),
		messages:   []transcript.Message{userMsg},
	}
	c.transcript.Append(userMsg)
	c.active = t
	c.loading = true
	c.state = StateStreaming
	snapshot := c.transcript.Snapshot()
	c.mu.Unlock()

	c.notify(snapshot)
	c.startMu.Unlock()

	return c.run(turnCtx, t, convID, text)
}

// run consumes the stream of one turn. Every transcript mutation is
// conditional on t still owning the view.
func (c *Controller) run(ctx context.Context, t *turn, convID, text string) (final State) {
	final = StateErrored

	defer func() {
		c.mu.Lock()
		owned := c.owns(t)
		if owned {
			c.active = nil
			c.loading = false
			c.state = StateIdle
			c.last = final
		}
		snapshot := c.transcript.Snapshot()
		c.mu.Unlock()

		t.cancel()
		close(t.done)

		if owned {
			c.notify(snapshot)
		}
	}()

	stream, err := c.streamer.Stream(ctx, chatstream.Request{
		Message: text,
		UserID:  c.userID,
		ConvID:  convID,
	})
	if err != nil {
		return c.fail(t, err)
	}
	defer stream.Close()

	for {
		ev, err := stream.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return c.fail(t, err)
		}

		switch ev.Kind {
		case chatstream.KindAssistant:
			t.answer.WriteString(ev.Content)
		case chatstream.KindToolCall:
			c.appendOwned(t, transcript.NewMessage(transcript.RoleTool, transcript.FormatToolCall(ev.Payload)))
		case chatstream.KindToolMessage:
			c.appendOwned(t, transcript.NewMessage(transcript.RoleTool, transcript.FormatToolMessage(ev.Content)))
		case chatstream.KindDone:
		}
	}

	answer := t.answer.String()
	if strings.TrimSpace(answer) != "" {
		if !c.appendOwned(t, transcript.NewMessage(transcript.RoleAssistant, answer)) {
			return StateCancelled
		}
	}

	c.logger.Debug("turn completed",
		"conv_id", convID,
		"outcome", stream.Outcome().String(),
		"messages", len(t.messages),
	)
	c.persist(t, convID)

	return StateCompleted
}

// fail classifies a turn failure. Cancellation is silent; anything else is
// logged and replaced by the fallback message.
func (c *Controller) fail(t *turn, err error) State {
	if errors.Is(err, context.Canceled) {
		c.logger.Debug("turn canceled", "error", err)
		return StateCancelled
	}

	c.logger.Error("chat turn failed", "error", err)
	c.appendOwned(t, transcript.NewMessage(transcript.RoleAssistant, FallbackErrorText))
	return StateErrored
}

// appendOwned appends msg if t still owns the view. Stale turns are dropped.
func (c *Controller) appendOwned(t *turn, msg transcript.Message) bool {
	c.mu.Lock()
	if !c.owns(t) {
		c.mu.Unlock()
		c.logger.Debug("dropping event from stale turn", "role", string(msg.Role))
		return false
	}
	c.transcript.Append(msg)
	t.messages = append(t.messages, msg)
	snapshot := c.transcript.Snapshot()
	c.mu.Unlock()

	c.notify(snapshot)
	return true
}

// owns reports whether t is the active turn of the current generation.
// c.mu must be held.
func (c *Controller) owns(t *turn) bool {
	return c.active == t && t.generation == c.generation
}

// bootstrap creates the conversation remotely before its first message and
// titles it after that message. Failures are logged and otherwise ignored.
// Nothing is done for a conversation the view has already left.
func (c *Controller) bootstrap(ctx context.Context, gen uint64, convID, text string) {
	c.mu.Lock()
	needed := c.api != nil && c.generation == gen && !c.created && !c.transcript.HasRole(transcript.RoleUser)
	c.mu.Unlock()

	if !needed {
		return
	}

	if err := c.api.CreateConversation(ctx, c.userID, convID); err != nil {
		c.logger.Warn("could not create conversation", "conv_id", convID, "error", err)
		return
	}

	c.mu.Lock()
	current := c.generation == gen
	if current {
		c.created = true
	}
	c.mu.Unlock()

	if !current {
		return
	}

	if c.onCreated != nil {
		c.onCreated(convID)
	}

	if err := c.api.UpdateTitle(ctx, convID, utils.Truncate(text, titleLength)); err != nil {
		c.logger.Warn("could not update conversation title", "conv_id", convID, "error", err)
	}
}

func (c *Controller) persist(t *turn, convID string) {
	if c.sink == nil {
		return
	}

	job := worker.Job{Turn: &storage.Turn{
		ID:             t.messages[0].ID,
		ConversationID: convID,
		UserID:         c.userID,
		Messages:       append([]transcript.Message(nil), t.messages...),
		Outcome:        StateCompleted.String(),
		StartedAt:      t.startedAt,
		CompletedAt:    time.Now().UTC(),
	}}
	if !c.sink.Enqueue(job) {
		c.logger.Warn("turn not persisted, queue full", "conv_id", convID)
	}
}

func (c *Controller) notify(snapshot []transcript.Message) {
	if c.onChange != nil {
		c.onChange(snapshot)
	}
}

// Cancel aborts the in-flight turn, if any, without waiting for it.
func (c *Controller) Cancel() {
	c.mu.Lock()
	t := c.active
	c.mu.Unlock()

	if t != nil {
		t.cancel()
	}
}

// SwitchConversation points the controller at another conversation. The
// transcript is cleared and the in-flight turn is aborted; anything it still
// delivers is dropped.
func (c *Controller) SwitchConversation(convID string) {
	c.mu.Lock()
	t := c.active
	c.generation++
	c.active = nil
	c.loading = false
	c.state = StateIdle
	c.convID = convID
	c.created = false
	c.transcript.Reset()
	snapshot := c.transcript.Snapshot()
	c.mu.Unlock()

	if t != nil {
		t.cancel()
	}
	c.notify(snapshot)
}

// Seed replaces the transcript with msgs, e.g. a welcome message.
func (c *Controller) Seed(msgs ...transcript.Message) {
	c.mu.Lock()
	c.transcript.Reset(msgs...)
	snapshot := c.transcript.Snapshot()
	c.mu.Unlock()

	c.notify(snapshot)
}

// LoadHistory replaces the transcript with the conversation's stored
// history and marks the conversation as existing. It returns the
// conversation type reported by the backend. An empty history leaves the
// transcript untouched.
func (c *Controller) LoadHistory(ctx context.Context) (string, error) {
	if c.api == nil {
		return "", errors.New("no conversation API configured")
	}

	c.mu.Lock()
	convID := c.convID
	gen := c.generation
	c.mu.Unlock()

	res, err := c.api.History(ctx, convID)
	if err != nil {
		return "", err
	}
	if len(res.History) == 0 {
		return res.ConversationType, nil
	}

	msgs := make([]transcript.Message, len(res.History))
	now := time.Now().UTC()
	for i, h := range res.History {
		role := transcript.RoleAssistant
		if h.Role == string(transcript.RoleUser) {
			role = transcript.RoleUser
		}
		msgs[i] = transcript.Message{
			ID:        historyID(i),
			Content:   h.Content,
			Role:      role,
			CreatedAt: now,
		}
	}

	c.mu.Lock()
	if c.generation != gen {
		c.mu.Unlock()
		return "", errors.New("conversation switched while loading history")
	}
	c.transcript.Reset(msgs...)
	c.created = true
	snapshot := c.transcript.Snapshot()
	c.mu.Unlock()

	c.notify(snapshot)
	return res.ConversationType, nil
}

// Snapshot returns a copy of the transcript.
func (c *Controller) Snapshot() []transcript.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transcript.Snapshot()
}

// Loading reports whether a turn is in flight.
func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// State returns StateStreaming while a turn is in flight and StateIdle
// otherwise.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LastOutcome returns how the most recent owned turn ended, or StateIdle
// before any turn finished.
func (c *Controller) LastOutcome() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// ConversationID returns the current conversation.
func (c *Controller) ConversationID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.convID
}
