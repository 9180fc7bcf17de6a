package core

// session.go implements the in-memory session store.
//
// One Session exists per uploaded workbook, identified by an opaque
// uuid. All state lives in process memory for the lifetime of the
// editing session; a restart destroys every session, and clients only
// ever observe that as "session not found".
//
// Mutations on a session are serialized by a per-session mutex so at
// most one is in flight per session id. Two racing validate calls can
// therefore never interleave and corrupt rowId sequencing or leave
// stale errors. Sessions for different workbooks do not contend.

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session holds the server-side state for one uploaded workbook.
type Session struct {
	ID          string
	Filename    string
	Workbook    []byte // raw upload bytes, kept so sheet switches can re-parse
	SheetNames  []string
	ActiveSheet string
	Sheet       SheetState

	// saved keeps the committed state of sheets the analyst has
	// navigated away from, so switching back reproduces them exactly.
	saved map[string]SheetState

	lastAccess time.Time
	mu         sync.Mutex
}

// SessionStore owns the session map. Create it with NewSessionStore;
// there is no teardown beyond process exit.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionStore returns an empty store.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*Session)}
}

// Create registers the session under a fresh opaque id and returns it.
func (s *SessionStore) Create(sess *Session) string {
	id := uuid.NewString()
	sess.ID = id
	sess.lastAccess = time.Now()
	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()
	return id
}

// WithSession runs fn while holding the session's exclusive lock. The
// lock gives the at-most-one-mutation-in-flight guarantee; fn must only
// commit a fully recomputed state, so a failure leaves the previously
// committed state intact and visible to later requests.
func (s *SessionStore) WithSession(id string, fn func(*Session) error) error {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return ErrSessionNotFound
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.lastAccess = time.Now()
	return fn(sess)
}

// Delete removes a session. Missing ids are a no-op.
func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// Len reports the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep evicts sessions idle longer than ttl and returns the count
// removed. Evicted sessions are indistinguishable from a restart to
// their clients.
func (s *SessionStore) Sweep(ttl time.Duration) int {
	cutoff := time.Now().Add(-ttl)
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if sess.lastAccess.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// StartJanitor sweeps idle sessions on an interval until ctx is done.
// Run it in its own goroutine from main.
func (s *SessionStore) StartJanitor(ctx context.Context, interval, ttl time.Duration) {
	if interval <= 0 || ttl <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(ttl); n > 0 {
				slog.Info("evicted idle sessions", "count", n, "remaining", s.Len())
			}
		}
	}
}
