// ABOUTME: SessionStore owns per-session conversation history
// ABOUTME: Serializes questions within a session, bounds live sessions with an LRU and idle TTL
package core

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/golang/groupcache/lru"
	"github.com/google/uuid"
	"github.com/harper/jarvis/internal/models"
)

// DefaultMaxSessions caps live sessions when no limit is given
const DefaultMaxSessions = 1000

// Asker is the part of the Reasoner a session needs
type Asker interface {
	Reason(ctx context.Context, history []models.Turn, question string) (*models.Reply, error)
}

type session struct {
	mu      sync.Mutex
	history *models.History
	// lastUsed is guarded by SessionStore.mu
	lastUsed time.Time
}

// SessionStore maps session IDs to their histories. The least recently used
// session is evicted once maxSessions is reached; a session idle longer than
// the TTL starts over on its next use.
type SessionStore struct {
	mu       sync.Mutex
	sessions *lru.Cache
	reasoner Asker
	capacity int
	ttl      time.Duration
	now      func() time.Time
}

// SessionOption configures a SessionStore
type SessionOption func(*SessionStore)

// WithMaxSessions bounds how many sessions are kept
func WithMaxSessions(n int) SessionOption {
	return func(s *SessionStore) {
		if n > 0 {
			s.sessions.MaxEntries = n
		}
	}
}

// WithSessionTTL expires sessions idle for longer than ttl; zero disables expiry
func WithSessionTTL(ttl time.Duration) SessionOption {
	return func(s *SessionStore) {
		if ttl >= 0 {
			s.ttl = ttl
		}
	}
}

// WithSessionClock replaces time.Now
func WithSessionClock(now func() time.Time) SessionOption {
	return func(s *SessionStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSessionStore creates a store whose sessions keep capacity turns each
func NewSessionStore(reasoner Asker, capacity int, opts ...SessionOption) *SessionStore {
	if capacity <= 0 {
		capacity = models.DefaultHistorySize
	}
	s := &SessionStore{
		sessions: lru.New(DefaultMaxSessions),
		reasoner: reasoner,
		capacity: capacity,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewSessionID returns a fresh session identifier
func NewSessionID() string {
	return uuid.New().String()
}

// Ask answers question inside the session, creating it when needed, and
// records the turn. An empty sessionID starts a new session; the ID used is
// returned. A session that has never answered successfully is not kept.
func (s *SessionStore) Ask(ctx context.Context, sessionID, question string) (*models.Reply, string, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		sessionID = NewSessionID()
	}

	sess := s.lock(sessionID)
	defer sess.mu.Unlock()

	reply, err := s.reasoner.Reason(ctx, sess.history.Turns(), question)
	if err != nil {
		if sess.history.Len() == 0 {
			s.drop(sessionID, sess)
		}
		return nil, sessionID, err
	}
	sess.history.Append(reply.Turn)

	s.mu.Lock()
	sess.lastUsed = s.now()
	s.mu.Unlock()
	return reply, sessionID, nil
}

// History returns a copy of a session's turns, oldest first
func (s *SessionStore) History(sessionID string) []models.Turn {
	s.mu.Lock()
	sess, ok := s.lookup(sessionID)
	s.mu.Unlock()
	if !ok {
		return nil
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.history.Turns()
}

// Reset forgets a session. It reports whether a live session existed.
func (s *SessionStore) Reset(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.lookup(sessionID)
	s.sessions.Remove(sessionID)
	return ok
}

// Len returns the number of stored sessions, at most the configured maximum
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions.Len()
}

// lock returns the session's entry with its mutex held. If the entry was
// evicted or dropped while waiting for the mutex, a fresh one is taken.
func (s *SessionStore) lock(sessionID string) *session {
	for {
		s.mu.Lock()
		sess, ok := s.lookup(sessionID)
		if !ok {
			sess = &session{history: models.NewHistory(s.capacity)}
			s.sessions.Add(sessionID, sess)
		}
		sess.lastUsed = s.now()
		s.mu.Unlock()

		sess.mu.Lock()
		s.mu.Lock()
		current, ok := s.sessions.Get(sessionID)
		s.mu.Unlock()
		if ok && current.(*session) == sess {
			return sess
		}
		sess.mu.Unlock()
	}
}

// lookup finds a live session, removing it if it has expired. Callers hold s.mu.
func (s *SessionStore) lookup(sessionID string) (*session, bool) {
	v, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, false
	}
	sess := v.(*session)
	if s.ttl > 0 && s.now().Sub(sess.lastUsed) > s.ttl {
		s.sessions.Remove(sessionID)
		return nil, false
	}
	return sess, true
}

// drop removes sess if it is still the entry stored under sessionID
func (s *SessionStore) drop(sessionID string, sess *session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.sessions.Get(sessionID); ok && v.(*session) == sess {
		s.sessions.Remove(sessionID)
	}
}
