package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// OpenFile returns a JSON logger appending to the file at path, creating it
// if needed. The caller closes the returned io.Closer once logging is done.
// opts are applied before JSON output and the file writer are forced.
func OpenFile(path string, opts ...Option) (*slog.Logger, io.Closer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	opts = append(opts, WithJSON(true), WithWriter(f))
	return New(opts...), f, nil
}
