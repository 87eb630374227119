package memory

import (
	"context"
	"sync"
	"time"

	"github.com/aretw0/accreq/pkg/domain"
)

// sweepInterval bounds how often Save scans for expired sessions.
const sweepInterval = time.Minute

type entry struct {
	session *domain.Session
	expires time.Time
}

func (e entry) expired(now time.Time) bool {
	return !e.expires.IsZero() && !now.Before(e.expires)
}

// Store implements ports.SessionStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]entry
	mu   sync.RWMutex

	ttl       time.Duration
	now       func() time.Time
	lastSweep time.Time
}

// Option configures the Store.
type Option func(*Store)

// WithTTL expires sessions ttl after their last save. Zero keeps them forever.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates a new in-memory store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		data: make(map[string]entry),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save persists a copy of the session and renews its expiry.
func (s *Store) Save(ctx context.Context, session *domain.Session) error {
	copied := session.Snapshot()
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	e := entry{session: copied}
	if s.ttl > 0 {
		e.expires = now.Add(s.ttl)
	}
	s.data[session.ID] = e

	if now.Sub(s.lastSweep) >= sweepInterval {
		s.prune(now)
	}
	return nil
}

// Load returns a copy of the stored session, so callers can't mutate the
// store through the pointer.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	now := s.now()

	s.mu.RLock()
	e, ok := s.data[sessionID]
	s.mu.RUnlock()

	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	if e.expired(now) {
		_ = s.Delete(ctx, sessionID)
		return nil, domain.ErrSessionNotFound
	}
	return e.session.Snapshot(), nil
}

// Delete removes the session.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

// List returns the live session IDs, dropping expired ones.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prune(s.now())
	sessions := make([]string, 0, len(s.data))
	for id := range s.data {
		sessions = append(sessions, id)
	}
	return sessions, nil
}

// prune must be called with mu held.
func (s *Store) prune(now time.Time) {
	for id, e := range s.data {
		if e.expired(now) {
			delete(s.data, id)
		}
	}
	s.lastSweep = now
}
