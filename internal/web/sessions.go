package web

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/dutysummary/internal/core"
)

// SessionStore holds one workflow controller per browser session.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*core.Controller
	ttl      time.Duration
	max      int
	factory  func(id string) *core.Controller
}

// NewSessionStore creates a store holding at most max sessions. factory
// builds a fresh Idle controller.
func NewSessionStore(ttl time.Duration, max int, factory func(id string) *core.Controller) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*core.Controller),
		ttl:      ttl,
		max:      max,
		factory:  factory,
	}
}

// Create starts a new session. When the store is full the least recently
// active idle session is evicted; if every session has a round trip in
// flight, Create fails with errTooManySessions.
func (s *SessionStore) Create() (*core.Controller, error) {
	c := s.factory(uuid.NewString())

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.max > 0 && len(s.sessions) >= s.max {
		if !s.evictOldestLocked() {
			return nil, errTooManySessions
		}
	}
	s.sessions[c.ID()] = c
	return c, nil
}

func (s *SessionStore) evictOldestLocked() bool {
	var (
		oldestID string
		oldest   time.Time
	)
	for id, c := range s.sessions {
		if c.Snapshot().Busy {
			continue
		}
		if last := c.LastActive(); oldestID == "" || last.Before(oldest) {
			oldestID, oldest = id, last
		}
	}
	if oldestID == "" {
		return false
	}
	delete(s.sessions, oldestID)
	slog.Debug("session evicted", "session_id", core.SessionTag(oldestID), "idle", time.Since(oldest))
	return true
}

// Get returns the controller for id.
func (s *SessionStore) Get(id string) (*core.Controller, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.sessions[id]
	return c, ok
}

// Delete drops a session.
func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep drops sessions idle for longer than the TTL. Sessions with a round
// trip in flight are kept.
func (s *SessionStore) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, c := range s.sessions {
		if now.Sub(c.LastActive()) <= s.ttl {
			continue
		}
		if c.Snapshot().Busy {
			continue
		}
		delete(s.sessions, id)
		removed++
	}
	return removed
}

// StartSweeper runs Sweep every interval until ctx is done.
func (s *SessionStore) StartSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := s.Sweep(now); n > 0 {
				slog.Debug("expired sessions removed", "count", n, "remaining", s.Len())
			}
		}
	}
}
