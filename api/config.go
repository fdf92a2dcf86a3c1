// Package api provides the HTTP server that browser widgets use to stream
// page summaries and search answers.
package api

import (
	"net/http"
	"time"
)

const (
	// DefaultSessionIdleTTL is how long a widget session may sit unused
	// before it is dropped.
	DefaultSessionIdleTTL = 30 * time.Minute

	// DefaultMaxSessions caps the sessions held at once.
	DefaultMaxSessions = 256
)

// Config is the widget server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., "127.0.0.1:8090")
	ListenAddr string

	// SummaryMaxTokens caps summary responses. Zero means no cap.
	SummaryMaxTokens uint

	// SearchMaxTokens caps search answers and follow-ups. Zero means no cap.
	SearchMaxTokens uint

	// QueryParam is the request parameter holding the search query.
	QueryParam string

	// PageClient fetches pages for /summarize. Defaults to http.DefaultClient.
	PageClient *http.Client

	// AllowPrivateTargets lets /summarize fetch pages from loopback and
	// private network addresses.
	AllowPrivateTargets bool

	// AllowOrigins is the CORS allow list for widget pages. Defaults to "*".
	AllowOrigins string

	// SessionIdleTTL drops sessions unused for this long. Defaults to
	// DefaultSessionIdleTTL.
	SessionIdleTTL time.Duration

	// MaxSessions caps the sessions held at once. Defaults to
	// DefaultMaxSessions.
	MaxSessions int
}
