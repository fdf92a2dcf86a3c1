// Package sse provides a small line-oriented SSE (Server-Sent Events) reader
// for consuming streamed chat completions. It splits an upstream byte stream
// into lines, buffering partial lines across network reads, and optionally
// copies the raw bytes to a destination writer for transcript recording.
//
// Unlike a browser EventSource, the reader dispatches one Event per "data:"
// line instead of joining consecutive data lines. Chat completion APIs send
// exactly one JSON document per data line, and consumers need each of them
// as soon as the line is complete.
//
// See the SSE specification:
// https://html.spec.whatwg.org/multipage/server-sent-events.html
package sse

// Event is a single "data:" line together with the event fields in effect
// when it was read.
type Event struct {
	// Type is the SSE event type from the most recent "event:" field in the
	// current block. Empty means the default "message" type.
	Type string

	// Data is the payload of the data line with the field name and the
	// optional single leading space removed.
	Data string

	// ID is the most recent "id:" field in the current block, if present.
	ID string

	// Raw is the data line exactly as it appeared on the wire, without the
	// trailing newline.
	Raw string
}
