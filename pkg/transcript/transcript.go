package transcript

import "sync"

// Transcript is an append-only message list that can be reset as a whole.
// Writes are expected from a single owner; reads may come from anywhere and
// always receive a copy.
type Transcript struct {
	mu       sync.RWMutex
	messages []Message
}

// New returns a transcript seeded with msgs.
func New(seed ...Message) *Transcript {
	t := &Transcript{}
	t.Reset(seed...)
	return t
}

// Append adds msg at the end.
func (t *Transcript) Append(msg Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = append(t.messages, msg)
}

// Reset replaces the whole list with seed.
func (t *Transcript) Reset(seed ...Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = append([]Message(nil), seed...)
}

// Snapshot returns a copy of the current messages.
func (t *Transcript) Snapshot() []Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// Len returns the number of messages.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.messages)
}

// HasRole reports whether any message has the given role.
func (t *Transcript) HasRole(role Role) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, m := range t.messages {
		if m.Role == role {
			return true
		}
	}
	return false
}
