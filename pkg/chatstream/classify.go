package chatstream

import (
	"bytes"
	"encoding/json"
)

// DoneSentinel is the data payload terminating a stream.
const DoneSentinel = "[DONE]"

const (
	wireTypeAssistant   = "assistant"
	wireTypeToolCall    = "tool_call"
	wireTypeToolMessage = "tool_message"
)

var jsonNull = []byte("null")

// Classify turns one data payload into an Event. It reports false for
// payloads that must be ignored: unknown event types and anything that is
// not a JSON object. Keys are matched exactly, so "Type" or "CONTENT" do
// not count.
func Classify(data string) (Event, bool) {
	if data == DoneSentinel {
		return Done(), true
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(data), &fields); err != nil || fields == nil {
		return Event{}, false
	}

	var typ string
	if err := json.Unmarshal(fields["type"], &typ); err != nil {
		return Event{}, false
	}
	content := fields["content"]

	switch typ {
	case wireTypeAssistant:
		return Assistant(contentText(content)), true
	case wireTypeToolCall:
		return ToolCall(compactPayload(content)), true
	case wireTypeToolMessage:
		return ToolMessage(contentText(content)), true
	default:
		return Event{}, false
	}
}

// contentText coerces a content value to text: strings are unquoted, null or
// missing content becomes "", and any other JSON value is kept as its JSON
// text. Objects and arrays therefore read as JSON, not as the
// "[object Object]" a browser front-end would print.
func contentText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, jsonNull) {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	return string(raw)
}

// compactPayload normalizes a tool call payload to compact JSON. Missing
// content is represented as null.
func compactPayload(raw json.RawMessage) json.RawMessage {
	if len(bytes.TrimSpace(raw)) == 0 {
		return json.RawMessage(jsonNull)
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return raw
	}

	return buf.Bytes()
}
