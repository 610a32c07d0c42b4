package redis

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"quizmaker-service/internal/app"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Sessions live in process; Redis holds a liveness key per session whose
// expiry bounds the session's lifetime across restarts of the cache.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore(client *redis.Client, ttl time.Duration, logger *slog.Logger) *SessionStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		logger:   logger,
		sessions: make(map[string]*app.Session),
	}
}

// Put registers session and drops local sessions whose liveness key is gone.
func (s *SessionStore) Put(session *app.Session) {
	ctx := context.Background()
	s.prune(ctx)
	s.mu.Lock()
	s.sessions[session.ID()] = session
	s.mu.Unlock()
	if err := s.client.Set(ctx, s.key(session.ID()), session.TestID(), s.ttl).Err(); err != nil {
		s.logger.Warn("mark session live", "session", session.ID(), "error", err)
	}
}

// prune checks every local session in one pipeline. When Redis cannot be
// asked, sessions older than the ttl are dropped by their creation time.
func (s *SessionStore) prune(ctx context.Context) {
	s.mu.RLock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	if len(ids) == 0 {
		return
	}

	checks := make([]*redis.IntCmd, len(ids))
	_, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			checks[i] = pipe.Exists(ctx, s.key(id))
		}
		return nil
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.logger.Warn("check session liveness", "sessions", len(ids), "error", err)
		cutoff := time.Now().Add(-s.ttl)
		for id, session := range s.sessions {
			if s.ttl > 0 && session.CreatedAt().Before(cutoff) {
				delete(s.sessions, id)
			}
		}
		return
	}
	for i, id := range ids {
		if checks[i].Val() == 0 {
			delete(s.sessions, id)
		}
	}
}

// Get returns the session only while its liveness key exists. When Redis is
// unreachable the local copy is served.
func (s *SessionStore) Get(id string) (*app.Session, bool) {
	s.mu.RLock()
	session, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	n, err := s.client.Exists(context.Background(), s.key(id)).Result()
	if err != nil {
		s.logger.Warn("check session liveness", "session", id, "error", err)
		return session, true
	}
	if n == 0 {
		s.Delete(id)
		return nil, false
	}
	return session, true
}

func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	if err := s.client.Del(context.Background(), s.key(id)).Err(); err != nil {
		s.logger.Warn("clear session liveness", "session", id, "error", err)
	}
}

func (s *SessionStore) key(id string) string {
	return "quiz:session:" + id
}
