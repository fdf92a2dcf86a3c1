package openai

import (
	"fmt"
	"strconv"
)

// NetworkError is returned when the completion endpoint answers with a
// non-2xx status or the transport fails before the stream completes.
type NetworkError struct {
	// StatusCode is zero for transport failures.
	StatusCode int

	// Message is the error message from the response body, if any.
	Message string

	Err error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return "API error: " + strconv.Itoa(e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("API error: %v", e.Err)
	}
	return "API error"
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
