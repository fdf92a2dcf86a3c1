package stream

import (
	"errors"
	"strings"
	"sync"
)

// ErrSealed is returned when appending to an Accumulator whose session has
// already ended.
var ErrSealed = errors.New("accumulator is sealed")

// Accumulator is the growing response text of one streaming session. It
// only ever grows, and once sealed it is immutable.
type Accumulator struct {
	mu     sync.RWMutex
	buf    strings.Builder
	sealed bool
}

// Append adds a fragment to the end of the text.
func (a *Accumulator) Append(fragment string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.sealed {
		return ErrSealed
	}
	a.buf.WriteString(fragment)
	return nil
}

// String returns the text accumulated so far.
func (a *Accumulator) String() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.buf.String()
}

// Len returns the length of the accumulated text in bytes.
func (a *Accumulator) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.buf.Len()
}

// Seal ends the session. It reports whether this call sealed the
// accumulator; later calls are no-ops returning false.
func (a *Accumulator) Seal() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.sealed {
		return false
	}
	a.sealed = true
	return true
}

// Sealed reports whether the session has ended.
func (a *Accumulator) Sealed() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.sealed
}
