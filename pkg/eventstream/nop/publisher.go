// Package nop provides the publisher used when no event stream is configured.
package nop

import (
	"context"
	"log/slog"

	"github.com/costwise/costwise/pkg/eventstream"
	"github.com/costwise/costwise/pkg/logger"
)

// Publisher drops every turn event after validating it.
type Publisher struct {
	logger *slog.Logger
}

// NewPublisher creates a publisher that logs dropped events at debug level.
// A nil logger discards them silently.
func NewPublisher(l *slog.Logger) *Publisher {
	return &Publisher{logger: logger.OrNop(l)}
}

// PublishTurn validates input and otherwise does nothing.
func (p *Publisher) PublishTurn(_ context.Context, event *eventstream.TurnCompletedEvent) error {
	if event == nil {
		return eventstream.ErrNilTurnEvent
	}

	p.logger.Debug("event stream disabled, dropping turn event",
		"event_id", event.EventID,
		"conv_id", event.Source.ConversationID,
	)
	return nil
}

// Close is a no-op.
func (p *Publisher) Close() error {
	return nil
}
