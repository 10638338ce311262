package chatstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/costwise/costwise/pkg/auth"
	"github.com/costwise/costwise/pkg/logger"
)

const chatPath = "/api/chat/"

// Request is the body of a chat request.
type Request struct {
	Message string `json:"message"`
	UserID  string `json:"user_id"`
	ConvID  string `json:"conv_id"`
}

// Config configures a Client.
type Config struct {
	// BaseURL is the backend root, e.g. http://localhost:8000.
	BaseURL string

	// HTTPClient defaults to a client without timeout: chat streams are
	// long-lived and bounded by the request context instead.
	HTTPClient *http.Client

	// Tokens supplies bearer tokens. Nil sends unauthenticated requests.
	Tokens auth.TokenProvider

	Logger *slog.Logger

	// Record receives the raw bytes of every response stream.
	Record io.Writer
}

// Client opens chat streams against the backend.
type Client struct {
	endpoint   string
	httpClient *http.Client
	tokens     auth.TokenProvider
	logger     *slog.Logger
	record     io.Writer
	recordMu   sync.Mutex
}

// NewClient creates a Client.
func NewClient(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Client{
		endpoint:   strings.TrimRight(cfg.BaseURL, "/") + chatPath,
		httpClient: httpClient,
		tokens:     cfg.Tokens,
		logger:     logger.OrNop(cfg.Logger),
		record:     cfg.Record,
	}
}

// Stream posts req and returns the event stream of the response. Errors
// returned here happen before any event: request construction, transport,
// or a *StatusError for non-2xx responses.
func (c *Client) Stream(ctx context.Context, req Request) (*Stream, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating chat request: %w", err)
	}
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Content-Type", "application/json")
	if token := auth.Bearer(ctx, c.tokens, c.logger); token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	c.logger.Debug("opening chat stream",
		"url", c.endpoint,
		"conv_id", req.ConvID,
		"user_id", req.UserID,
	)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, fmt.Errorf("%w: %w", ErrCanceled, ctx.Err())
		}
		return nil, fmt.Errorf("opening chat stream: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 || resp.Body == nil || resp.Body == http.NoBody {
		if resp.Body != nil {
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
		}
		return nil, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	opts := []StreamOption{WithLogger(c.logger)}
	if c.record != nil {
		opts = append(opts, WithRecorder(&lockedWriter{mu: &c.recordMu, w: c.record}))
	}

	return NewStream(ctx, resp.Body, opts...), nil
}

// lockedWriter serializes writes of concurrent streams to a shared recorder.
type lockedWriter struct {
	mu *sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

// CollectAssistantText opens a stream for req and concatenates every
// assistant delta until the stream terminates. Tool events are skipped.
func CollectAssistantText(ctx context.Context, c *Client, req Request) (string, error) {
	stream, err := c.Stream(ctx, req)
	if err != nil {
		return "", err
	}
	defer stream.Close()

	var b strings.Builder
	for {
		ev, err := stream.Next()
		if errors.Is(err, io.EOF) {
			return b.String(), nil
		}
		if err != nil {
			return b.String(), err
		}
		if ev.Kind == KindAssistant {
			b.WriteString(ev.Content)
		}
	}
}
