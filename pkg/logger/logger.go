// Package logger builds the *slog.Logger every glean component receives.
//
// The CLI logs through the charmbracelet/log handler on stderr. The widget
// server can add a JSON log file through Multi. Attributes that carry
// credentials are masked whichever handler is used.
package logger

import (
	"io"
	"log/slog"
	"os"

	charmlog "github.com/charmbracelet/log"
)

type config struct {
	level  slog.Level
	pretty bool
	json   bool
	writer io.Writer
}

// New creates a *slog.Logger configured by the given options.
// With no options it writes Info-level text logs to os.Stdout.
func New(opts ...Option) *slog.Logger {
	c := &config{
		level:  slog.LevelInfo,
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(c)
	}

	var h slog.Handler
	switch {
	case c.json:
		h = slog.NewJSONHandler(c.writer, &slog.HandlerOptions{Level: c.level})
	case c.pretty:
		h = charmlog.NewWithOptions(c.writer, charmlog.Options{
			Level:           charmlog.Level(c.level),
			ReportTimestamp: true,
		})
	default:
		h = slog.NewTextHandler(c.writer, &slog.HandlerOptions{Level: c.level})
	}

	return slog.New(&redactHandler{next: h})
}

// Nop returns a logger that discards everything.
func Nop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
