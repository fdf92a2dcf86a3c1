// Package stream decodes a streamed chat completion into content fragments
// and accumulates them into the response text.
package stream

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"

	"github.com/papercomputeco/glean/pkg/llm"
	"github.com/papercomputeco/glean/pkg/logger"
	"github.com/papercomputeco/glean/pkg/sse"
)

// DoneMarker is the data payload that ends a completion stream.
const DoneMarker = "[DONE]"

// PayloadPrefix starts every payload line. Data lines without the space,
// such as "data:{...}" or a bare "data", are ignored.
const PayloadPrefix = "data: "

// Event is one decoded data line.
type Event struct {
	// RawLine is the line as read from the wire.
	RawLine string

	// IsTerminal is true for the DoneMarker line.
	IsTerminal bool

	// DeltaText is choices[0].delta.content, possibly empty.
	DeltaText string
}

// Decoder turns an SSE byte stream into Events and accumulates their
// fragments. A Decoder serves a single session and is not safe for
// concurrent use, although its Accumulator may be read concurrently.
type Decoder struct {
	reader *sse.Reader
	tee    io.Writer

	logger       *slog.Logger
	onParseError func(*ParseError)

	acc  *Accumulator
	done bool
}

// NewDecoder returns a Decoder reading from r.
func NewDecoder(r io.Reader, opts ...Option) *Decoder {
	d := &Decoder{
		logger: logger.Nop(),
		acc:    &Accumulator{},
	}
	for _, opt := range opts {
		opt(d)
	}
	d.reader = sse.NewTeeReader(r, d.tee)
	return d
}

// Accumulator returns the accumulator fed by Run.
func (d *Decoder) Accumulator() *Accumulator {
	return d.acc
}

// Next returns the next decoded event. After the terminal event has been
// returned, or once the source is exhausted, Next returns nil, nil without
// reading from the source again. Lines not starting with PayloadPrefix are
// ignored. Malformed payloads are reported and skipped.
func (d *Decoder) Next() (*Event, error) {
	for !d.done {
		ev, err := d.reader.Next()
		if err != nil {
			d.done = true
			return nil, err
		}
		if ev == nil {
			d.done = true
			return nil, nil
		}

		if !strings.HasPrefix(ev.Raw, PayloadPrefix) {
			continue
		}

		if ev.Data == DoneMarker {
			d.done = true
			return &Event{RawLine: ev.Raw, IsTerminal: true}, nil
		}

		var chunk llm.StreamChunk
		if err := json.Unmarshal([]byte(ev.Data), &chunk); err != nil {
			d.reportParseError(&ParseError{Line: ev.Raw, Err: err})
			continue
		}

		return &Event{RawLine: ev.Raw, DeltaText: chunk.Content()}, nil
	}

	return nil, nil
}

// Run decodes the stream to completion. Every non-empty fragment is
// appended to the accumulator before onFragment is called with the fragment
// and the text accumulated so far. Run seals the accumulator when it
// returns and returns the sealed text along with any read error or the
// context error if ctx ended first.
//
// Cancelling ctx is only observed between events, so r should be tied to
// ctx (an HTTP response body of a request made with ctx) for a blocked read
// to be interrupted.
func (d *Decoder) Run(ctx context.Context, onFragment func(fragment, accumulated string)) (string, error) {
	defer d.acc.Seal()

	for {
		if err := ctx.Err(); err != nil {
			return d.acc.String(), err
		}

		ev, err := d.Next()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return d.acc.String(), ctxErr
			}
			return d.acc.String(), err
		}
		if ev == nil || ev.IsTerminal {
			return d.acc.String(), nil
		}
		if ev.DeltaText == "" {
			continue
		}

		if err := d.acc.Append(ev.DeltaText); err != nil {
			return d.acc.String(), err
		}
		if onFragment != nil {
			onFragment(ev.DeltaText, d.acc.String())
		}
	}
}

func (d *Decoder) reportParseError(perr *ParseError) {
	d.logger.Warn("skipping malformed stream payload", "line", perr.Line, "error", perr.Err)
	if d.onParseError != nil {
		d.onParseError(perr)
	}
}
