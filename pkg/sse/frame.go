// Package sse provides a minimal, purpose-built SSE (Server-Sent Events)
// frame reader for consuming the chat backend's streaming responses.
//
// Frames are delimited by a blank line ("\n\n"). Within a frame only the
// "data:" lines are significant; "event:", "id:", "retry:" and comment lines
// are ignored.
//
// This package intentionally does NOT provide SSE writer or server
// capabilities.
//
// Framing follows the WHATWG event stream format:
// https://html.spec.whatwg.org/multipage/server-sent-events.html
package sse

import "strings"

const dataPrefix = "data:"

// Frame represents a single parsed SSE frame, delimited by a blank line
// in the upstream byte stream.
type Frame struct {
	// Data holds the payload of every "data:" line in the frame, in stream
	// order, with the prefix stripped and surrounding whitespace trimmed.
	// Lines with an empty payload are dropped.
	Data []string
}

// parseFrame extracts the data payloads from one raw frame.
func parseFrame(raw string) *Frame {
	frame := &Frame{}

	for _, line := range strings.Split(raw, "\n") {
		payload, ok := strings.CutPrefix(strings.TrimSpace(line), dataPrefix)
		if !ok {
			continue
		}

		payload = strings.TrimSpace(payload)
		if payload == "" {
			continue
		}

		frame.Data = append(frame.Data, payload)
	}

	return frame
}
