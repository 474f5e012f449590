package memory

import (
	"sync"
	"time"

	"quiz-chatbot/internal/app"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
// Sessions untouched for longer than the idle TTL are dropped on the next Get.
type SessionStore struct {
	ttl   time.Duration
	clock func() time.Time

	mu       sync.Mutex
	sessions map[string]storedSession
}

type storedSession struct {
	session  *app.Session
	lastSeen time.Time
}

// NewSessionStore keeps sessions for ttl after their last access; ttl <= 0 keeps them until deleted.
func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		ttl:      ttl,
		clock:    time.Now,
		sessions: make(map[string]storedSession),
	}
}

func (s *SessionStore) Put(session *app.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID()] = storedSession{session: session, lastSeen: s.clock()}
}

func (s *SessionStore) Get(id string) (*app.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	now := s.clock()
	if s.ttl > 0 && now.Sub(entry.lastSeen) >= s.ttl {
		delete(s.sessions, id)
		return nil, false
	}
	entry.lastSeen = now
	s.sessions[id] = entry
	return entry.session, true
}

func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Len reports how many sessions are held.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
