package sse

import (
	"bufio"
	"io"
	"strings"
)

const (
	initialBufferSize = 64 * 1024
	maxLineSize       = 1024 * 1024
)

// Reader reads SSE events from a source io.Reader while writing every raw
// line verbatim to a destination io.Writer.
//
// ┌──────────────────┐
// │ source io.Reader │
// └──────────────────┘
// │
// ▼
// ┌──────────────────┐   ┌───────────────────────┐
// │  Reader.Next()   │──▶│ destination io.Writer │
// └──────────────────┘   └───────────────────────┘
// │
// ▼
// ┌──────────────────┐
// │      Event       │
// └──────────────────┘
//
// bufio.Scanner holds an incomplete trailing line until the rest of it
// arrives, so a data line split across two reads of src is returned whole.
type Reader struct {
	scanner *bufio.Scanner
	dest    io.Writer

	// eventType and id carry the "event:" and "id:" fields of the block
	// currently being read. A blank line clears them.
	eventType string
	id        string
}

// NewReader returns a Reader that parses SSE events from src and discards
// the raw bytes.
func NewReader(src io.Reader) *Reader {
	return NewTeeReader(src, io.Discard)
}

// NewTeeReader returns a Reader that parses SSE events from src and writes
// all raw lines through to dest. A nil dest discards them.
func NewTeeReader(src io.Reader, dest io.Writer) *Reader {
	if dest == nil {
		dest = io.Discard
	}

	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, initialBufferSize), maxLineSize)

	return &Reader{
		scanner: scanner,
		dest:    dest,
	}
}

// Next returns the next data line as an Event. It blocks until a complete
// line is available. Next returns nil, nil when the source is exhausted.
func (r *Reader) Next() (*Event, error) {
	for r.scanner.Scan() {
		raw := r.scanner.Text()

		// bufio.Scanner strips the newline, so it is reinserted here.
		if _, err := io.WriteString(r.dest, raw+"\n"); err != nil {
			return nil, err
		}

		// A blank line ends the current block.
		if raw == "" {
			r.eventType = ""
			r.id = ""
			continue
		}

		// Lines starting with ':' are comments (keep-alives).
		if strings.HasPrefix(raw, ":") {
			continue
		}

		if ev := r.parseLine(raw); ev != nil {
			return ev, nil
		}
	}

	if err := r.scanner.Err(); err != nil {
		return nil, err
	}

	return nil, nil
}

// parseLine processes a single non-empty, non-comment line. It returns an
// Event for data lines and records the other known fields.
//
// A line has the form "field:value" where a single space after the colon is
// optional and stripped if present.
func (r *Reader) parseLine(line string) *Event {
	field, value, ok := strings.Cut(line, ":")
	if ok {
		value = strings.TrimPrefix(value, " ")
	} else {
		// No colon: the whole line is the field name with an empty value.
		field = line
	}

	switch field {
	case "data":
		return &Event{
			Type: r.eventType,
			Data: value,
			ID:   r.id,
			Raw:  line,
		}
	case "event":
		r.eventType = value
	case "id":
		r.id = value
	default:
		// "retry" and unknown fields are ignored.
	}

	return nil
}
