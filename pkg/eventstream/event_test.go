package eventstream_test

import (
	"encoding/json"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/costwise/costwise/pkg/eventstream"
	"github.com/costwise/costwise/pkg/storage"
	"github.com/costwise/costwise/pkg/transcript"
)

var _ = Describe("Event", func() {
	It("builds a completed event from a turn", func() {
		now := time.Unix(1735689600, 0).UTC()
		turn := &storage.Turn{
			ID:             "turn-1",
			ConversationID: "conv-1",
			UserID:         "user-1",
			Messages: []transcript.Message{
				transcript.NewMessage(transcript.RoleUser, "How much did S3 cost?"),
				transcript.NewMessage(transcript.RoleAssistant, "About $12."),
			},
			Outcome:     "completed",
			StartedAt:   now.Add(-2 * time.Second),
			CompletedAt: now,
		}

		event := eventstream.NewTurnCompletedEvent(turn)
		Expect(event.SchemaVersion).To(Equal(eventstream.SchemaVersionV1))
		Expect(event.EventType).To(Equal("costwise.turn.completed"))
		Expect(event.EventID).NotTo(BeEmpty())
		Expect(event.Source.ConversationID).To(Equal("conv-1"))
		Expect(event.Turn.DurationMs).To(Equal(int64(2000)))

		payload, err := json.Marshal(event)
		Expect(err).NotTo(HaveOccurred())

		var got map[string]any
		Expect(json.Unmarshal(payload, &got)).To(Succeed())
		Expect(got).To(HaveKey("schema_version"))
		Expect(got).To(HaveKey("event_type"))
		Expect(got).To(HaveKey("event_id"))
		Expect(got).To(HaveKey("emitted_at"))
		Expect(got).To(HaveKey("source"))
		Expect(got).To(HaveKey("turn"))
		Expect(got).To(HaveKey("messages"))
	})

	It("provides ErrNilTurnEvent for nil payload validation", func() {
		Expect(eventstream.ErrNilTurnEvent).To(MatchError("nil turn event"))
	})
})
