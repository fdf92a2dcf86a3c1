package api

import (
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/papercomputeco/glean/pkg/extract"
	"github.com/papercomputeco/glean/pkg/session"
)

// Server is the widget server. It holds one session per open widget.
type Server struct {
	config    Config
	completer session.Completer
	registry  *session.Registry
	logger    *slog.Logger
	app       *fiber.App

	stop     chan struct{}
	stopOnce sync.Once
}

// NewServer creates a new widget server sending its requests through
// completer.
func NewServer(config Config, completer session.Completer, logger *slog.Logger) (*Server, error) {
	if completer == nil {
		return nil, errors.New("completer must not be nil")
	}
	if config.QueryParam == "" {
		config.QueryParam = extract.DefaultQueryParam
	}
	if config.PageClient == nil {
		config.PageClient = http.DefaultClient
	}
	if !config.AllowPrivateTargets {
		config.PageClient = extract.PublicOnlyClient(config.PageClient)
	}
	if config.AllowOrigins == "" {
		config.AllowOrigins = "*"
	}
	if config.SessionIdleTTL <= 0 {
		config.SessionIdleTTL = DefaultSessionIdleTTL
	}
	if config.MaxSessions <= 0 {
		config.MaxSessions = DefaultMaxSessions
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: config.AllowOrigins,
		AllowMethods: "GET,POST,DELETE",
	}))

	registry := session.NewRegistry(
		session.WithIdleTTL(config.SessionIdleTTL),
		session.WithMaxSessions(config.MaxSessions),
	)

	s := &Server{
		config:    config,
		completer: completer,
		registry:  registry,
		logger:    logger,
		app:       app,
		stop:      make(chan struct{}),
	}

	app.Get("/ping", s.handlePing)
	app.Get("/summarize", s.handleSummarize)
	app.Get("/search", s.handleSearch)
	app.Post("/sessions/:id/ask", s.handleAsk)
	app.Post("/sessions/:id/condense", s.handleCondense)
	app.Delete("/sessions/:id", s.handleDeleteSession)

	return s, nil
}

// Run starts the widget server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting widget server", "listen", s.config.ListenAddr)
	go s.pruneSessions(s.config.SessionIdleTTL / 2)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown closes every open session and gracefully shuts down the server.
func (s *Server) Shutdown() error {
	s.stopOnce.Do(func() { close(s.stop) })
	s.registry.CloseAll()
	return s.app.Shutdown()
}

// pruneSessions drops idle sessions every interval until Shutdown.
func (s *Server) pruneSessions(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			if n := s.registry.Prune(); n > 0 {
				s.logger.Debug("dropped idle sessions", "count", n, "remaining", s.registry.Len())
			}
		}
	}
}
