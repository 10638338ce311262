// Package chatstream consumes the chat backend's Server-Sent Events stream
// and yields a typed sequence of events for one assistant turn.
//
// Wire payloads are "data:" lines carrying either the literal [DONE] token or
// a JSON object {"type": "assistant"|"tool_call"|"tool_message", "content": ...}.
// Unknown types and malformed JSON (heartbeats, log lines) are dropped
// without aborting the stream.
package chatstream

import "encoding/json"

// Kind identifies the variant of an Event.
type Kind int

const (
	// KindAssistant is an incremental text delta of the current assistant turn.
	KindAssistant Kind = iota + 1

	// KindToolCall notifies that the backend invoked a tool. The payload is
	// opaque JSON kept for display only.
	KindToolCall

	// KindToolMessage is free text emitted by a tool.
	KindToolMessage

	// KindDone marks normal completion. No further events follow.
	KindDone
)

func (k Kind) String() string {
	switch k {
	case KindAssistant:
		return "assistant"
	case KindToolCall:
		return "tool_call"
	case KindToolMessage:
		return "tool_message"
	case KindDone:
		return "done"
	default:
		return "unknown"
	}
}

// Event is one typed stream event.
type Event struct {
	Kind Kind

	// Content is the text of assistant and tool_message events.
	Content string

	// Payload is the compact JSON content of a tool_call event.
	Payload json.RawMessage
}

// Assistant returns an assistant delta event.
func Assistant(content string) Event {
	return Event{Kind: KindAssistant, Content: content}
}

// ToolCall returns a tool call event carrying payload.
func ToolCall(payload json.RawMessage) Event {
	return Event{Kind: KindToolCall, Payload: payload}
}

// ToolMessage returns a tool message event.
func ToolMessage(content string) Event {
	return Event{Kind: KindToolMessage, Content: content}
}

// Done returns the terminal event.
func Done() Event {
	return Event{Kind: KindDone}
}
