package mockapi

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/costwise/costwise/pkg/backend"
	"github.com/costwise/costwise/pkg/chatstream"
)

type chatRequest struct {
	Message string `json:"message"`
	UserID  string `json:"user_id"`
	ConvID  string `json:"conv_id"`
}

type wireEvent struct {
	Type    string `json:"type"`
	Content any    `json:"content"`
}

// toolCall is the payload of the scripted tool_call event.
type toolCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// scriptedAnswer is the assistant reply streamed for message.
func scriptedAnswer(message string) string {
	return fmt.Sprintf("Here is what I found for %q:\n\n"+
		"- **EC2**: $1,240.50 (over budget by $240.50)\n"+
		"- **S3**: $312.10\n"+
		"- **Data transfer**: $655.00\n\n"+
		"EC2 is the main driver of this month's growth.", message)
}

// script returns the raw SSE frames answering message: a tool call, its
// output, a keep-alive comment, the answer in word-sized deltas, then the
// done sentinel.
func script(message string) ([]string, error) {
	var frames []string

	add := func(ev wireEvent) error {
		payload, err := json.Marshal(ev)
		if err != nil {
			return err
		}
		frames = append(frames, "data: "+string(payload)+"\n\n")
		return nil
	}

	if err := add(wireEvent{Type: "tool_call", Content: toolCall{
		Name: "get_cost_and_usage",
		Args: map[string]any{"granularity": "MONTHLY", "group_by": "SERVICE"},
	}}); err != nil {
		return nil, err
	}
	if err := add(wireEvent{Type: "tool_message", Content: "Retrieved 3 cost groups from Cost Explorer"}); err != nil {
		return nil, err
	}
	frames = append(frames, ": keep-alive\n\n")

	for _, word := range strings.SplitAfter(scriptedAnswer(message), " ") {
		if err := add(wireEvent{Type: "assistant", Content: word}); err != nil {
			return nil, err
		}
	}

	frames = append(frames, "data: "+chatstream.DoneSentinel+"\n\n")
	return frames, nil
}

func (s *Server) handleChat(c *fiber.Ctx) error {
	var req chatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Detail: "invalid request body"})
	}
	if strings.TrimSpace(req.Message) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Detail: "message required"})
	}

	frames, err := script(req.Message)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Detail: "failed to build reply"})
	}

	s.logger.Debug("streaming chat reply",
		"conv_id", req.ConvID,
		"user_id", req.UserID,
		"frames", len(frames),
	)

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	// Same pattern as a streaming proxy: pw.Write blocks until fasthttp
	// consumes the chunk, so every frame reaches the socket on its own.
	pr, pw := io.Pipe()
	go s.writeFrames(pw, frames, req)

	c.Context().Response.SetBodyStream(pr, -1)
	return nil
}

// writeFrames streams frames and records the exchange once the client has
// received all of them. A client that disconnects early leaves no history.
func (s *Server) writeFrames(pw *io.PipeWriter, frames []string, req chatRequest) {
	defer pw.Close()

	for i, frame := range frames {
		if i > 0 && s.config.FrameDelay > 0 {
			time.Sleep(s.config.FrameDelay)
		}
		if _, err := io.WriteString(pw, frame); err != nil {
			s.logger.Debug("client went away mid-stream", "conv_id", req.ConvID, "error", err)
			return
		}
	}

	s.appendHistory(req.ConvID, req.UserID,
		backend.HistoryEntry{Role: "user", Content: req.Message},
		backend.HistoryEntry{Role: "assistant", Content: scriptedAnswer(req.Message)},
	)
}
