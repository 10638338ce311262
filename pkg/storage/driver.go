// Package storage persists completed chat turns.
package storage

import (
	"context"
	"time"

	"github.com/costwise/costwise/pkg/transcript"
)

// Turn is one completed exchange: the user message plus everything the
// assistant and its tools produced in response.
type Turn struct {
	ID             string
	ConversationID string
	UserID         string
	Messages       []transcript.Message
	Outcome        string
	StartedAt      time.Time
	CompletedAt    time.Time
}

// Conversation summarizes the stored turns of one conversation.
type Conversation struct {
	ID           string
	UserID       string
	Messages     int
	LastActivity time.Time
}

// Driver defines the interface for persisting and retrieving chat turns.
type Driver interface {
	// SaveTurn stores a turn and its messages atomically.
	SaveTurn(ctx context.Context, turn *Turn) error

	// Messages returns every stored message of a conversation in the order
	// they were saved. Returns NotFoundError when nothing is stored.
	Messages(ctx context.Context, conversationID string) ([]transcript.Message, error)

	// Conversations lists stored conversations, most recent activity first.
	Conversations(ctx context.Context) ([]Conversation, error)

	// DeleteConversation removes every turn of a conversation.
	DeleteConversation(ctx context.Context, conversationID string) error

	// Close closes the store and releases any resources.
	Close() error
}
