package extract

import "fmt"

// MissingInputError is returned when a source has nothing to offer, such as
// a URL without the query parameter or a page without visible text.
type MissingInputError struct {
	Input string
}

func (e *MissingInputError) Error() string {
	return "missing input: " + e.Input
}

// FetchError is returned when a page request completes with a non-2xx
// status.
type FetchError struct {
	URL        string
	StatusCode int
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching %s: status %d", e.URL, e.StatusCode)
}
