// Package file keeps sessions as JSON files on the local filesystem, for
// single-node deployments that must survive restarts without redis.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/accreq/pkg/domain"
)

const (
	ext = ".json"

	// sweepInterval bounds how often Save scans the directory for expired
	// sessions.
	sweepInterval = time.Minute
)

// Store implements ports.SessionStore on a directory of JSON files. A
// session expires ttl after its file was last written.
type Store struct {
	BasePath string

	ttl time.Duration
	now func() time.Time

	mu        sync.Mutex
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

// New creates a Store rooted at basePath, defaulting to ".accreq/sessions".
func New(basePath string, opts ...Option) *Store {
	if basePath == "" {
		basePath = filepath.Join(".accreq", "sessions")
	}
	s := &Store{BasePath: basePath, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) expired(modTime time.Time) bool {
	return s.ttl > 0 && !s.now().Before(modTime.Add(s.ttl))
}

func (s *Store) path(sessionID string) (string, error) {
	if sessionID == "" {
		return "", errors.New("session id cannot be empty")
	}
	if strings.ContainsAny(sessionID, `/\`) || strings.Contains(sessionID, "..") {
		return "", fmt.Errorf("invalid session id %q", sessionID)
	}
	return filepath.Join(s.BasePath, sessionID+ext), nil
}

// Save writes the session to a temp file, fsyncs it, then renames it over
// the previous version.
func (s *Store) Save(ctx context.Context, session *domain.Session) error {
	dest, err := s.path(session.ID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.BasePath, 0o700); err != nil {
		return fmt.Errorf("ensure session directory: %w", err)
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	// Same directory, so the rename stays on one filesystem.
	tmp, err := os.CreateTemp(s.BasePath, "tmp-"+session.ID+"-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("fsync temp file: %w", err)
	}
	// Windows cannot rename an open file.
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		return fmt.Errorf("replace session file: %w", err)
	}
	if s.ttl > 0 {
		// Expiry is measured from the modification time.
		now := s.now()
		if err := os.Chtimes(dest, now, now); err != nil {
			return fmt.Errorf("touch session file: %w", err)
		}
	}

	if s.sweepDue() {
		if _, err := s.List(ctx); err != nil {
			return fmt.Errorf("sweep expired sessions: %w", err)
		}
	}
	return nil
}

func (s *Store) sweepDue() bool {
	if s.ttl <= 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if now.Sub(s.lastSweep) < sweepInterval {
		return false
	}
	s.lastSweep = now
	return true
}

// Load reads a session file.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	p, err := s.path(sessionID)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("stat session file: %w", err)
	}
	if s.expired(info.ModTime()) {
		_ = os.Remove(p)
		return nil, domain.ErrSessionNotFound
	}

	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("read session file: %w", err)
	}

	var session domain.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("%w: %w: unmarshal session %s: %w",
			domain.ErrSessionNotFound, domain.ErrSessionUnreadable, sessionID, err)
	}
	return &session, nil
}

// Delete removes the session file. Missing files are not an error.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	p, err := s.path(sessionID)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete session file: %w", err)
	}
	return nil
}

// List returns the IDs of all live session files, removing expired ones.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	sessions := []string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ext || strings.HasPrefix(name, "tmp-") {
			continue
		}
		if s.ttl > 0 {
			info, err := entry.Info()
			if err != nil {
				// Removed concurrently.
				continue
			}
			if s.expired(info.ModTime()) {
				_ = os.Remove(filepath.Join(s.BasePath, name))
				continue
			}
		}
		sessions = append(sessions, strings.TrimSuffix(name, ext))
	}
	return sessions, nil
}
