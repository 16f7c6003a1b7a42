// Package memory provides process-local KeyValueStore and SessionStore adapters.
package memory

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/jsamuelsen/quotebook/internal/domain"
	"github.com/jsamuelsen/quotebook/internal/ports"
)

// Store is an in-memory KeyValueStore. Contents are lost when the process exits.
type Store struct {
	mu    sync.RWMutex
	slots map[string]string
}

// New creates an empty Store.
func New() *Store {
	return &Store{slots: make(map[string]string)}
}

// Get implements ports.KeyValueStore.
func (s *Store) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.slots[key]
	if !ok {
		return "", domain.NewNotFoundError("slot", key)
	}

	return value, nil
}

// Set implements ports.KeyValueStore.
func (s *Store) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.slots[key] = value

	return nil
}

// Delete implements ports.KeyValueStore.
func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.slots, key)

	return nil
}

// Name implements ports.HealthChecker.
func (s *Store) Name() string {
	return "storage"
}

// Check implements ports.HealthChecker. Memory storage is always available.
func (s *Store) Check(context.Context) error {
	return nil
}

// DefaultSessionTTL is how long an idle session keeps its slots.
const DefaultSessionTTL = 30 * time.Minute

type session struct {
	slots     map[string]string
	expiresAt time.Time
}

// SessionStore keeps per-session slots that expire after a period of inactivity.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*session
	ttl      time.Duration
	now      ports.Clock
}

// NewSessionStore creates a SessionStore. A zero ttl selects DefaultSessionTTL
// and a nil clock selects time.Now.
func NewSessionStore(ttl time.Duration, clock ports.Clock) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	if clock == nil {
		clock = time.Now
	}

	return &SessionStore{
		sessions: make(map[string]*session),
		ttl:      ttl,
		now:      clock,
	}
}

// Get implements ports.SessionStore.
func (s *SessionStore) Get(_ context.Context, sessionID, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok || !s.now().Before(sess.expiresAt) {
		delete(s.sessions, sessionID)
		return "", domain.NewNotFoundError("session slot", key)
	}

	value, ok := sess.slots[key]
	if !ok {
		return "", domain.NewNotFoundError("session slot", key)
	}

	return value, nil
}

// Set implements ports.SessionStore. Expired sessions are swept on every write.
func (s *SessionStore) Set(_ context.Context, sessionID, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweepLocked(now)

	sess, ok := s.sessions[sessionID]
	if !ok {
		sess = &session{slots: make(map[string]string)}
		s.sessions[sessionID] = sess
	}

	sess.slots[key] = value
	sess.expiresAt = now.Add(s.ttl)

	return nil
}

// Clear implements ports.SessionStore.
func (s *SessionStore) Clear(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionID)

	return nil
}

func (s *SessionStore) sweepLocked(now time.Time) {
	maps.DeleteFunc(s.sessions, func(_ string, sess *session) bool {
		return !now.Before(sess.expiresAt)
	})
}
