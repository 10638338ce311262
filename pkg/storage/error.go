package storage

// NotFoundError is returned when a conversation has no stored turns.
type NotFoundError struct {
	ConversationID string
}

func (e NotFoundError) Error() string {
	if e.ConversationID == "" {
		return "conversation not found"
	}

	return "conversation not found: " + e.ConversationID
}
