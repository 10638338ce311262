package kafka_test

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/costwise/costwise/pkg/eventstream"
	"github.com/costwise/costwise/pkg/eventstream/kafka"
	"github.com/costwise/costwise/pkg/storage"
	"github.com/costwise/costwise/pkg/transcript"
)

type fakeWriter struct {
	messages []kafkago.Message
	err      error
	deadline bool
	closed   bool
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafkago.Message) error {
	_, f.deadline = ctx.Deadline()
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

var _ = Describe("Publisher", func() {
	var (
		writer *fakeWriter
		pub    *kafka.Publisher
		event  *eventstream.TurnCompletedEvent
	)

	BeforeEach(func() {
		writer = &fakeWriter{}
		pub = kafka.NewPublisherWithWriter(writer, "turns", time.Second, nil)
		now := time.Now().UTC()
		event = eventstream.NewTurnCompletedEvent(&storage.Turn{
			ID:             "turn-1",
			ConversationID: "conv-1",
			UserID:         "user-1",
			Messages:       []transcript.Message{transcript.NewMessage(transcript.RoleUser, "hi")},
			Outcome:        "completed",
			StartedAt:      now.Add(-time.Second),
			CompletedAt:    now,
		})
	})

	It("writes the event as JSON keyed by conversation", func() {
		Expect(pub.PublishTurn(context.Background(), event)).To(Succeed())
		Expect(writer.messages).To(HaveLen(1))

		msg := writer.messages[0]
		Expect(string(msg.Key)).To(Equal("conv-1"))
		Expect(msg.Headers).To(ContainElement(kafkago.Header{Key: "event_type", Value: []byte(eventstream.EventTypeTurnCompleted)}))

		var decoded eventstream.TurnCompletedEvent
		Expect(json.Unmarshal(msg.Value, &decoded)).To(Succeed())
		Expect(decoded.EventID).To(Equal(event.EventID))
		Expect(decoded.Turn.ID).To(Equal("turn-1"))
		Expect(decoded.Messages).To(HaveLen(1))
	})

	It("bounds every write with a deadline", func() {
		Expect(pub.PublishTurn(context.Background(), event)).To(Succeed())
		Expect(writer.deadline).To(BeTrue())
	})

	It("wraps writer failures", func() {
		writer.err = errors.New("broker unavailable")
		err := pub.PublishTurn(context.Background(), event)
		Expect(err).To(MatchError(ContainSubstring("broker unavailable")))
		Expect(err).To(MatchError(ContainSubstring("turns")))
	})

	It("rejects nil events", func() {
		Expect(pub.PublishTurn(context.Background(), nil)).To(MatchError(eventstream.ErrNilTurnEvent))
	})

	It("closes the writer", func() {
		Expect(pub.Close()).To(Succeed())
		Expect(writer.closed).To(BeTrue())
	})

	It("requires brokers", func() {
		_, err := kafka.NewPublisher(kafka.Config{})
		Expect(err).To(HaveOccurred())
	})
})
