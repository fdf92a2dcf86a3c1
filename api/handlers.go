package api

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/glean/pkg/extract"
	"github.com/papercomputeco/glean/pkg/session"
)

// ErrorResponse is the JSON body of failed non-streaming requests.
type ErrorResponse struct {
	Error string `json:"error"`
}

// AskRequest is the body of POST /sessions/:id/ask.
type AskRequest struct {
	Question string `json:"question"`
}

// CondenseResponse is the body of POST /sessions/:id/condense. Error is set
// when condensing failed and the full response is shown instead.
type CondenseResponse struct {
	session.View
	Error string `json:"error,omitempty"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleSummarize streams a summary of the page given by the url parameter.
func (s *Server) handleSummarize(c *fiber.Ctx) error {
	pageURL := strings.TrimSpace(c.Query("url"))
	if pageURL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "url parameter is required"})
	}

	src := extract.NewPage(pageURL,
		extract.WithHTTPClient(s.config.PageClient),
		extract.WithLogger(s.logger),
	)
	sess := s.newSession(s.config.SummaryMaxTokens)

	return s.streamSession(c, sess, func(ctx context.Context, sink session.Sink) error {
		sess.Attach(sink)
		_, err := sess.Summarize(ctx, src)
		s.discardFailed(sess, err)
		return err
	})
}

// handleSearch streams an answer to the query carried on the request URL.
func (s *Server) handleSearch(c *fiber.Ctx) error {
	src := extract.NewQuery(string(c.Request().URI().FullURI()), s.config.QueryParam)
	sess := s.newSession(s.config.SearchMaxTokens)

	return s.streamSession(c, sess, func(ctx context.Context, sink session.Sink) error {
		sess.Attach(sink)
		_, err := sess.Search(ctx, src)
		s.discardFailed(sess, err)
		return err
	})
}

// handleAsk streams the answer to a follow-up question.
func (s *Server) handleAsk(c *fiber.Ctx) error {
	sess, err := s.registry.Get(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "session not found"})
	}

	var req AskRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}
	if strings.TrimSpace(req.Question) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "question is required"})
	}

	return s.streamSession(c, sess, func(ctx context.Context, sink session.Sink) error {
		_, err := sess.AskTo(ctx, req.Question, sink)
		return err
	})
}

// handleCondense toggles the completed response between its full and its
// condensed view.
func (s *Server) handleCondense(c *fiber.Ctx) error {
	sess, err := s.registry.Get(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "session not found"})
	}

	view, err := sess.ToggleCondense(c.Context())
	view.Markup = sanitize(view.Markup)

	var condenseErr *session.CondenseError
	switch {
	case err == nil:
		return c.JSON(CondenseResponse{View: view})
	case errors.As(err, &condenseErr):
		s.logger.Warn("condense failed", "session", sess.ID(), "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(CondenseResponse{View: view, Error: err.Error()})
	case errors.Is(err, session.ErrSessionActive), errors.Is(err, session.ErrNothingToCondense):
		return c.Status(fiber.StatusConflict).JSON(ErrorResponse{Error: err.Error()})
	case errors.Is(err, session.ErrClosed):
		return c.Status(fiber.StatusGone).JSON(ErrorResponse{Error: err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to condense"})
	}
}

// handleDeleteSession closes a widget: the request in flight is aborted and
// the session is dropped.
func (s *Server) handleDeleteSession(c *fiber.Ctx) error {
	if err := s.registry.Delete(c.Params("id")); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "session not found"})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) newSession(maxTokens uint) *session.Session {
	sess := session.New(s.completer,
		session.WithMaxTokens(maxTokens),
		session.WithLogger(s.logger),
	)
	s.registry.Put(sess)
	return sess
}

// discardFailed drops a session whose first request failed. It holds no
// conversation, so the widget has nothing to follow up on or condense.
func (s *Server) discardFailed(sess *session.Session, err error) {
	if err == nil || len(sess.History()) > 0 {
		return
	}
	if s.registry.Delete(sess.ID()) == nil {
		s.logger.Debug("dropped failed session", "session", sess.ID())
	}
}

// streamSession runs fn with a sink writing to the response as an event
// stream. fn attaches the sink to sess. The stream ends when fn returns.
func (s *Server) streamSession(c *fiber.Ctx, sess *session.Session, fn func(context.Context, session.Sink) error) error {
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	// fasthttp recycles the RequestCtx once the handler returns, so the
	// run cannot be bound to it.
	ctx, cancel := context.WithCancel(context.Background())

	// io.Pipe over SetBodyStreamWriter: fasthttp closes the pipe reader when
	// the client goes away, which fails the next write and cancels the run.
	pr, pw := io.Pipe()
	sink := newEventSink(pw, sess.ID(), cancel, s.logger)

	go func() {
		defer cancel()
		defer pw.Close()
		defer sess.Detach(sink)

		sink.ShowSession()
		if err := fn(ctx, sink); err != nil {
			s.logger.Debug("widget request ended", "session", sess.ID(), "error", err)
		}
		s.registry.Touch(sess.ID())
	}()

	c.Context().Response.SetBodyStream(pr, -1)
	return nil
}
