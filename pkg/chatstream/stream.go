package chatstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/costwise/costwise/pkg/logger"
	"github.com/costwise/costwise/pkg/sse"
)

// Outcome is how a stream terminated.
type Outcome int

const (
	// OutcomePending means the stream has not terminated yet.
	OutcomePending Outcome = iota

	// OutcomeDone means the [DONE] event was received.
	OutcomeDone

	// OutcomeClosed means the transport ended without a [DONE] event.
	OutcomeClosed

	// OutcomeCanceled means the stream's context was canceled.
	OutcomeCanceled

	// OutcomeErrored means a transport or decode failure, including an
	// expired deadline.
	OutcomeErrored
)

func (o Outcome) String() string {
	switch o {
	case OutcomePending:
		return "pending"
	case OutcomeDone:
		return "done"
	case OutcomeClosed:
		return "closed"
	case OutcomeCanceled:
		return "canceled"
	case OutcomeErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// StreamOption configures a Stream.
type StreamOption func(*Stream)

// WithLogger sets the logger used for discarded payloads.
func WithLogger(l *slog.Logger) StreamOption {
	return func(s *Stream) {
		s.logger = logger.OrNop(l)
	}
}

// WithRecorder copies every raw byte read from the body to w.
func WithRecorder(w io.Writer) StreamOption {
	return func(s *Stream) {
		s.record = w
	}
}

// Stream is a pull-based sequence of events for one chat turn.
// It is not safe for concurrent use; Close may be called from any goroutine.
type Stream struct {
	ctx    context.Context
	body   io.ReadCloser
	reader *sse.Reader
	record io.Writer
	logger *slog.Logger

	// pending holds data payloads of the current frame not yet classified.
	pending []string

	outcome Outcome
	err     error

	stop      func() bool
	closeOnce sync.Once
}

// NewStream returns a Stream reading SSE frames from body. Canceling ctx
// closes body so a blocked Next returns promptly.
func NewStream(ctx context.Context, body io.ReadCloser, opts ...StreamOption) *Stream {
	s := &Stream{
		ctx:    ctx,
		body:   body,
		logger: logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.reader = sse.NewTeeReader(body, s.record)
	s.stop = context.AfterFunc(ctx, s.closeBody)

	return s
}

// Next returns the next event. The Done event is returned once, after which
// Next returns io.EOF. A transport that ends without Done also yields io.EOF;
// use Outcome to tell the two apart. Once the context is canceled Next
// returns an error wrapping both ErrCanceled and context.Canceled.
func (s *Stream) Next() (Event, error) {
	if s.err != nil {
		return Event{}, s.err
	}

	for {
		if err := s.ctx.Err(); err != nil {
			return Event{}, s.fail(err)
		}

		if len(s.pending) > 0 {
			data := s.pending[0]
			s.pending = s.pending[1:]

			ev, ok := Classify(data)
			if !ok {
				s.logger.Debug("discarding chat stream payload", "data", data)
				continue
			}

			if ev.Kind == KindDone {
				s.finish(OutcomeDone, io.EOF)
			}

			return ev, nil
		}

		frame, err := s.reader.Next()
		if err != nil {
			if ctxErr := s.ctx.Err(); ctxErr != nil {
				return Event{}, s.fail(ctxErr)
			}

			if errors.Is(err, io.EOF) {
				s.finish(OutcomeClosed, io.EOF)
				return Event{}, io.EOF
			}

			return Event{}, s.fail(fmt.Errorf("reading chat stream: %w", err))
		}

		s.pending = frame.Data
	}
}

// Outcome reports how the stream terminated, or OutcomePending while it is
// still open.
func (s *Stream) Outcome() Outcome {
	return s.outcome
}

// Close releases the response body. It is safe to call more than once.
func (s *Stream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.stop()
		err = s.body.Close()
	})
	return err
}

func (s *Stream) closeBody() {
	_ = s.Close()
}

func (s *Stream) fail(err error) error {
	switch {
	case errors.Is(err, context.Canceled):
		s.finish(OutcomeCanceled, fmt.Errorf("%w: %w", ErrCanceled, err))
	default:
		s.finish(OutcomeErrored, err)
	}
	return s.err
}

func (s *Stream) finish(outcome Outcome, err error) {
	s.outcome = outcome
	s.err = err
	s.pending = nil
	_ = s.Close()
}
