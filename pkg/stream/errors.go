package stream

import "fmt"

// ParseError is reported for a data line whose payload is not a valid
// completion chunk. Decoding continues past it.
type ParseError struct {
	Line string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse stream payload %q: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
