package session

import "errors"

var (
	// ErrSuperseded is returned by a request that was replaced by a newer
	// one on the same session. It touched neither the sink nor the history.
	ErrSuperseded = errors.New("request superseded by a newer one")

	// ErrClosed is returned once the session has been closed.
	ErrClosed = errors.New("session closed")

	// ErrSessionActive is returned when condensing while a response is
	// still streaming.
	ErrSessionActive = errors.New("response is still streaming")

	// ErrNothingToCondense is returned when no response has completed yet.
	ErrNothingToCondense = errors.New("no completed response to condense")

	// ErrNoConversation is returned when asking a follow-up question before
	// any response has completed.
	ErrNoConversation = errors.New("no conversation to follow up on")

	// ErrNotFound is returned by the registry for unknown session IDs.
	ErrNotFound = errors.New("session not found")
)

// CondenseError wraps a failed condense request. The failure is not cached,
// so toggling again retries.
type CondenseError struct {
	Err error
}

func (e *CondenseError) Error() string {
	return "condensing summary: " + e.Err.Error()
}

func (e *CondenseError) Unwrap() error {
	return e.Err
}
