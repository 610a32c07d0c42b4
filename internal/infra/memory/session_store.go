package memory

import (
	"sync"
	"time"

	"quizmaker-service/internal/app"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
// Sessions older than ttl are dropped lazily.
type SessionStore struct {
	ttl      time.Duration
	now      func() time.Time
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	return NewSessionStoreWithClock(ttl, time.Now)
}

// NewSessionStoreWithClock is test-only for deterministic expiry.
func NewSessionStoreWithClock(ttl time.Duration, now func() time.Time) *SessionStore {
	return &SessionStore{
		ttl:      ttl,
		now:      now,
		sessions: make(map[string]*app.Session),
	}
}

func (s *SessionStore) Put(session *app.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked()
	s.sessions[session.ID()] = session
}

func (s *SessionStore) Get(id string) (*app.Session, bool) {
	s.mu.RLock()
	session, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if s.expired(session) {
		s.Delete(id)
		return nil, false
	}
	return session, true
}

func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

func (s *SessionStore) pruneLocked() {
	for id, session := range s.sessions {
		if s.expired(session) {
			delete(s.sessions, id)
		}
	}
}

func (s *SessionStore) expired(session *app.Session) bool {
	return s.ttl > 0 && !session.CreatedAt().Add(s.ttl).After(s.now())
}
