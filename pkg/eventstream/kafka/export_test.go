package kafka

import (
	"context"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"
)

// MessageWriter exposes the writer seam to external tests.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// NewPublisherWithWriter builds a publisher around a fake writer.
func NewPublisherWithWriter(w MessageWriter, topic string, timeout time.Duration, l *slog.Logger) *Publisher {
	return newPublisher(w, topic, timeout, l)
}
