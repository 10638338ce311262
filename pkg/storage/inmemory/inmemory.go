// Package inmemory provides a map-backed storage driver for tests and
// sessions that opt out of persistence.
package inmemory

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/costwise/costwise/pkg/storage"
	"github.com/costwise/costwise/pkg/transcript"
)

type conversation struct {
	userID       string
	messages     []transcript.Message
	lastActivity time.Time
}

// Driver implements storage.Driver using an in-memory map.
type Driver struct {
	mu            sync.RWMutex
	conversations map[string]*conversation
}

// NewDriver creates a new in-memory driver.
func NewDriver() *Driver {
	return &Driver{
		conversations: make(map[string]*conversation),
	}
}

// SaveTurn stores a turn.
func (d *Driver) SaveTurn(_ context.Context, turn *storage.Turn) error {
	if turn == nil {
		return errors.New("cannot store nil turn")
	}
	if turn.ConversationID == "" {
		return errors.New("turn has no conversation id")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	c, ok := d.conversations[turn.ConversationID]
	if !ok {
		c = &conversation{userID: turn.UserID}
		d.conversations[turn.ConversationID] = c
	}
	c.messages = append(c.messages, turn.Messages...)
	if turn.CompletedAt.After(c.lastActivity) {
		c.lastActivity = turn.CompletedAt
	}
	return nil
}

// Messages returns the stored messages of a conversation.
func (d *Driver) Messages(_ context.Context, conversationID string) ([]transcript.Message, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	c, ok := d.conversations[conversationID]
	if !ok || len(c.messages) == 0 {
		return nil, storage.NotFoundError{ConversationID: conversationID}
	}
	return slices.Clone(c.messages), nil
}

// Conversations lists stored conversations, most recent first.
func (d *Driver) Conversations(_ context.Context) ([]storage.Conversation, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]storage.Conversation, 0, len(d.conversations))
	for id, c := range d.conversations {
		out = append(out, storage.Conversation{
			ID:           id,
			UserID:       c.userID,
			Messages:     len(c.messages),
			LastActivity: c.lastActivity,
		})
	}
	slices.SortFunc(out, func(a, b storage.Conversation) int {
		if n := b.LastActivity.Compare(a.LastActivity); n != 0 {
			return n
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

// DeleteConversation removes a conversation.
func (d *Driver) DeleteConversation(_ context.Context, conversationID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.conversations[conversationID]; !ok {
		return storage.NotFoundError{ConversationID: conversationID}
	}
	delete(d.conversations, conversationID)
	return nil
}

// Close is a no-op for the in-memory driver.
func (d *Driver) Close() error {
	return nil
}
