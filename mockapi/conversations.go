package mockapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/costwise/costwise/pkg/backend"
)

const defaultConversationType = "cost_analysis"

type titleRequest struct {
	Title string `json:"title"`
}

func (s *Server) handleCreateConversation(c *fiber.Ctx) error {
	userID := c.Params("user")
	convID := c.Query("conv_id")
	if convID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Detail: "conv_id query parameter required"})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conversations[convID]; ok {
		return c.Status(fiber.StatusConflict).JSON(errorResponse{Detail: "conversation already exists"})
	}
	s.conversations[convID] = &conversation{userID: userID, kind: defaultConversationType}

	s.logger.Debug("conversation created", "conv_id", convID, "user_id", userID)
	return c.JSON(fiber.Map{"conv_id": convID, "user_id": userID})
}

func (s *Server) handleHistory(c *fiber.Ctx) error {
	convID := c.Params("id")

	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[convID]
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(errorResponse{Detail: "conversation not found"})
	}

	history := make([]backend.HistoryEntry, len(conv.history))
	copy(history, conv.history)

	return c.JSON(backend.HistoryResponse{
		History:          history,
		ConversationType: conv.kind,
	})
}

func (s *Server) handleUpdateTitle(c *fiber.Ctx) error {
	convID := c.Params("id")

	var req titleRequest
	if err := c.BodyParser(&req); err != nil || req.Title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Detail: "title required"})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[convID]
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(errorResponse{Detail: "conversation not found"})
	}
	conv.title = req.Title

	return c.JSON(fiber.Map{"conv_id": convID, "title": req.Title})
}

func (s *Server) handleDeleteConversation(c *fiber.Ctx) error {
	convID := c.Params("id")

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conversations[convID]; !ok {
		return c.Status(fiber.StatusNotFound).JSON(errorResponse{Detail: "conversation not found"})
	}
	delete(s.conversations, convID)

	return c.JSON(fiber.Map{"deleted": convID})
}

// appendHistory records a finished exchange. Unknown conversations are
// created implicitly, as the real backend does for chats started without
// create_conv.
func (s *Server) appendHistory(convID, userID string, entries ...backend.HistoryEntry) {
	if convID == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[convID]
	if !ok {
		conv = &conversation{userID: userID, kind: defaultConversationType}
		s.conversations[convID] = conv
	}
	conv.history = append(conv.history, entries...)
}
