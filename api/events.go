package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/papercomputeco/glean/pkg/session"
)

// Event names written to widget streams.
const (
	EventSession   = "session"
	EventLoading   = "loading"
	EventRender    = "render"
	EventFinal     = "final"
	EventCondensed = "condensed"
	EventError     = "error"
)

// MarkupEvent is the data of session, loading, render, final and condensed
// events.
type MarkupEvent struct {
	ID     string `json:"id"`
	Markup string `json:"markup,omitempty"`
}

// ErrorEvent is the data of error events.
type ErrorEvent struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// eventSink writes session output to a widget as server-sent events. The
// first failed write cancels the request, since the widget is gone.
type eventSink struct {
	mu     sync.Mutex
	w      io.Writer
	id     string
	cancel context.CancelFunc
	logger *slog.Logger
	failed bool
}

func newEventSink(w io.Writer, id string, cancel context.CancelFunc, logger *slog.Logger) *eventSink {
	return &eventSink{w: w, id: id, cancel: cancel, logger: logger}
}

func (e *eventSink) send(event string, data any) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.failed {
		return
	}

	payload, err := json.Marshal(data)
	if err != nil {
		e.logger.Error("encoding event", "event", event, "error", err)
		return
	}

	if _, err := fmt.Fprintf(e.w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		e.logger.Debug("widget stream closed", "session", e.id, "error", err)
		e.failed = true
		e.cancel()
	}
}

func (e *eventSink) markup(event, markup string) {
	e.send(event, MarkupEvent{ID: e.id, Markup: sanitize(markup)})
}

func (e *eventSink) ShowSession() {
	e.send(EventSession, MarkupEvent{ID: e.id})
}

func (e *eventSink) ShowLoading() {
	e.send(EventLoading, MarkupEvent{ID: e.id})
}

func (e *eventSink) ShowError(message string) {
	e.send(EventError, ErrorEvent{ID: e.id, Message: message})
}

func (e *eventSink) RenderIncremental(markup string) {
	e.markup(EventRender, markup)
}

// RenderFinal sends the final markup. The widget toggles the condensed
// view through POST /sessions/:id/condense.
func (e *eventSink) RenderFinal(markup string, _ session.CondenseToggler) {
	e.markup(EventFinal, markup)
}

func (e *eventSink) ShowCondensed(markup string) {
	e.markup(EventCondensed, markup)
}
