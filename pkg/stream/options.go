package stream

import (
	"io"
	"log/slog"
)

// Option configures a Decoder.
type Option func(*Decoder)

// WithLogger sets the logger used to report skipped payloads.
func WithLogger(l *slog.Logger) Option {
	return func(d *Decoder) {
		d.logger = l
	}
}

// WithOnParseError registers a hook called for every skipped payload.
func WithOnParseError(fn func(*ParseError)) Option {
	return func(d *Decoder) {
		d.onParseError = fn
	}
}

// WithTee copies every raw line read from the source to w.
func WithTee(w io.Writer) Option {
	return func(d *Decoder) {
		d.tee = w
	}
}
