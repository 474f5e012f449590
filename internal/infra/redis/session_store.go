package redis

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"quiz-chatbot/internal/app"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Notes:
//   - Sessions hold an injected clock and evaluator, so the live objects stay
//     in a local map.
//   - Redis holds a liveness marker per session with an idle TTL, refreshed on
//     every Get. Once the marker expires the local session is dropped.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	logger   *slog.Logger
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

func (s *SessionStore) Put(session *app.Session) {
	s.mu.Lock()
	s.sessions[session.ID()] = session
	s.mu.Unlock()
	s.touch(session.ID())
}

func (s *SessionStore) Get(id string) (*app.Session, bool) {
	s.mu.RLock()
	session, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}

	live, err := s.client.Exists(context.Background(), s.key(id)).Result()
	if err != nil {
		// redis unavailable: keep serving the local session
		s.logger.Warn("check session marker", "session", id, "err", err)
		return session, true
	}
	if live == 0 {
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
		s.logger.Debug("session expired", "session", id)
		return nil, false
	}
	s.touch(id)
	return session, true
}

func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	if err := s.client.Del(context.Background(), s.key(id)).Err(); err != nil {
		s.logger.Warn("clear session marker", "session", id, "err", err)
	}
}

// best-effort liveness marker
func (s *SessionStore) touch(id string) {
	if err := s.client.Set(context.Background(), s.key(id), "1", s.ttl).Err(); err != nil {
		s.logger.Warn("mark session live", "session", id, "err", err)
	}
}

func (s *SessionStore) key(id string) string {
	return "quiz:session:" + id
}
