package session

import (
	"sync"
	"time"
)

// Registry holds the live sessions of the widget server keyed by ID.
//
// With an idle TTL, a session that has not been used for that long is
// closed and dropped. With a size cap, adding a session beyond it drops the
// least recently used ones. Sessions with a request in flight are never
// evicted.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*registryEntry

	idleTTL     time.Duration
	maxSessions int
	now         func() time.Time
}

type registryEntry struct {
	session  *Session
	lastUsed time.Time
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithIdleTTL evicts sessions idle for at least d. Zero keeps them until
// they are deleted.
func WithIdleTTL(d time.Duration) RegistryOption {
	return func(r *Registry) {
		r.idleTTL = d
	}
}

// WithMaxSessions caps the number of sessions held. Zero means no cap.
func WithMaxSessions(n int) RegistryOption {
	return func(r *Registry) {
		r.maxSessions = n
	}
}

// WithClock sets the time source used for idle tracking.
func WithClock(now func() time.Time) RegistryOption {
	return func(r *Registry) {
		r.now = now
	}
}

// NewRegistry returns an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		sessions: make(map[string]*registryEntry),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Put adds s under its ID and evicts idle sessions.
func (r *Registry) Put(s *Session) {
	r.mu.Lock()
	now := r.now()
	r.sessions[s.ID()] = &registryEntry{session: s, lastUsed: now}
	evicted := r.evictLocked(now, s.ID())
	r.mu.Unlock()

	closeAll(evicted)
}

// Get returns the session with the given ID and marks it used. An expired
// session is evicted and reported as ErrNotFound.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.Lock()
	e, ok := r.sessions[id]
	if !ok {
		r.mu.Unlock()
		return nil, ErrNotFound
	}

	now := r.now()
	if r.expired(e, now) {
		delete(r.sessions, id)
		r.mu.Unlock()
		e.session.Close()
		return nil, ErrNotFound
	}

	e.lastUsed = now
	r.mu.Unlock()
	return e.session, nil
}

// Touch marks the session with the given ID used, if it is still held.
func (r *Registry) Touch(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.sessions[id]; ok {
		e.lastUsed = r.now()
	}
}

// Delete closes and removes the session with the given ID.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	e, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if !ok {
		return ErrNotFound
	}
	e.session.Close()
	return nil
}

// Prune closes and removes the sessions that are idle past the TTL or over
// the cap. It returns how many were removed.
func (r *Registry) Prune() int {
	r.mu.Lock()
	evicted := r.evictLocked(r.now(), "")
	r.mu.Unlock()

	closeAll(evicted)
	return len(evicted)
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// CloseAll closes and removes every session.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	entries := r.sessions
	r.sessions = make(map[string]*registryEntry)
	r.mu.Unlock()

	for _, e := range entries {
		e.session.Close()
	}
}

// evictLocked removes expired sessions, then the least recently used ones
// while over the cap. keep is never evicted. Callers hold r.mu and close
// the returned sessions after releasing it.
func (r *Registry) evictLocked(now time.Time, keep string) []*Session {
	var evicted []*Session

	if r.idleTTL > 0 {
		for id, e := range r.sessions {
			if id != keep && r.expired(e, now) {
				delete(r.sessions, id)
				evicted = append(evicted, e.session)
			}
		}
	}

	for r.maxSessions > 0 && len(r.sessions) > r.maxSessions {
		oldest := ""
		var oldestUsed time.Time
		for id, e := range r.sessions {
			if id == keep || e.session.Running() {
				continue
			}
			if oldest == "" || e.lastUsed.Before(oldestUsed) {
				oldest, oldestUsed = id, e.lastUsed
			}
		}
		if oldest == "" {
			break
		}
		evicted = append(evicted, r.sessions[oldest].session)
		delete(r.sessions, oldest)
	}

	return evicted
}

func (r *Registry) expired(e *registryEntry, now time.Time) bool {
	return r.idleTTL > 0 && now.Sub(e.lastUsed) >= r.idleTTL && !e.session.Running()
}

func closeAll(sessions []*Session) {
	for _, s := range sessions {
		s.Close()
	}
}
