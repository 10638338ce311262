package eventstream

import (
	"time"

	"github.com/google/uuid"

	"github.com/costwise/costwise/pkg/storage"
	"github.com/costwise/costwise/pkg/transcript"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeTurnCompleted is emitted after a chat turn is persisted.
	EventTypeTurnCompleted = "costwise.turn.completed"
)

// TurnCompletedEvent is a transport-neutral event payload for a completed turn.
type TurnCompletedEvent struct {
	SchemaVersion int                  `json:"schema_version"`
	EventType     string               `json:"event_type"`
	EventID       string               `json:"event_id"`
	EmittedAt     time.Time            `json:"emitted_at"`
	Source        EventSource          `json:"source"`
	Turn          TurnMeta             `json:"turn"`
	Messages      []transcript.Message `json:"messages"`
}

// EventSource identifies where the turn originated.
type EventSource struct {
	UserID         string `json:"user_id"`
	ConversationID string `json:"conversation_id"`
}

// TurnMeta captures turn lifecycle metadata.
type TurnMeta struct {
	ID          string    `json:"id"`
	Outcome     string    `json:"outcome"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	DurationMs  int64     `json:"duration_ms"`
}

// NewTurnCompletedEvent builds the event for a stored turn.
func NewTurnCompletedEvent(turn *storage.Turn) *TurnCompletedEvent {
	return &TurnCompletedEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeTurnCompleted,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		Source: EventSource{
			UserID:         turn.UserID,
			ConversationID: turn.ConversationID,
		},
		Turn: TurnMeta{
			ID:          turn.ID,
			Outcome:     turn.Outcome,
			StartedAt:   turn.StartedAt,
			CompletedAt: turn.CompletedAt,
			DurationMs:  turn.CompletedAt.Sub(turn.StartedAt).Milliseconds(),
		},
		Messages: turn.Messages,
	}
}
