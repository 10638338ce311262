package mockapi

import (
	"log/slog"
	"net"
	"strings"
	"sync"

	"github.com/gofiber/fiber/v2"

	"github.com/costwise/costwise/pkg/backend"
	"github.com/costwise/costwise/pkg/logger"
)

// errorResponse is the JSON body of every error reply.
type errorResponse struct {
	Detail string `json:"detail"`
}

type conversation struct {
	userID  string
	title   string
	kind    string
	history []backend.HistoryEntry
}

// Server is the mock backend.
type Server struct {
	config Config
	logger *slog.Logger
	app    *fiber.App

	mu            sync.Mutex
	conversations map[string]*conversation
}

// NewServer creates a new mock server.
func NewServer(config Config, l *slog.Logger) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:        config,
		logger:        logger.OrNop(l),
		app:           app,
		conversations: make(map[string]*conversation),
	}

	app.Get("/ping", s.handlePing)

	chat := app.Group("/api/chat", s.requireToken)
	chat.Post("/", s.handleChat)
	chat.Post("/budgets-structured", s.handleBudgets)
	chat.Put("/create_conv/:user", s.handleCreateConversation)
	chat.Get("/:id/history", s.handleHistory)
	chat.Put("/:id/title", s.handleUpdateTitle)
	chat.Delete("/:id", s.handleDeleteConversation)

	return s
}

// Run starts the server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting mock backend", "listen", s.config.ListenAddr)
	return s.app.Listen(s.config.ListenAddr)
}

// RunWithListener starts the server using the provided listener.
func (s *Server) RunWithListener(listener net.Listener) error {
	s.logger.Info("starting mock backend", "listen", listener.Addr().String())
	return s.app.Listener(listener)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// requireToken rejects requests without the configured bearer token.
func (s *Server) requireToken(c *fiber.Ctx) error {
	if s.config.Token == "" {
		return c.Next()
	}

	token, ok := strings.CutPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
	if !ok || token != s.config.Token {
		return c.Status(fiber.StatusUnauthorized).JSON(errorResponse{Detail: "invalid or missing token"})
	}
	return c.Next()
}
