// Package transcript holds the ordered message list of one conversation.
package transcript

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role is the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

const (
	// ToolCallPrefix starts the text of a message rendered from a tool call.
	ToolCallPrefix = "🔧 Tool call: "

	// ToolMessagePrefix starts the text of a message rendered from tool output.
	ToolMessagePrefix = "🧩 Tool message: "
)

// Message is one transcript entry. Messages are immutable once appended.
type Message struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// NewMessage returns a message with a fresh time-ordered ID.
func NewMessage(role Role, content string) Message {
	return Message{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Content:   content,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}
}

// FormatToolCall renders a tool call payload as message text.
func FormatToolCall(payload []byte) string {
	return ToolCallPrefix + string(payload)
}

// FormatToolMessage renders tool output as message text.
func FormatToolMessage(content string) string {
	return ToolMessagePrefix + content
}

// IsToolText reports whether content was rendered from a tool event.
func IsToolText(content string) bool {
	return strings.HasPrefix(content, ToolCallPrefix) || strings.HasPrefix(content, ToolMessagePrefix)
}
