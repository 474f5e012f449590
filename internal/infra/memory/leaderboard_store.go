package memory

import (
	"context"
	"sync"

	"quiz-chatbot/internal/domain"
)

// LeaderboardStore keeps entries in process memory; results are lost on exit.
type LeaderboardStore struct {
	mu      sync.RWMutex
	entries []domain.LeaderboardEntry
}

func NewLeaderboardStore(entries ...domain.LeaderboardEntry) *LeaderboardStore {
	return &LeaderboardStore{entries: append([]domain.LeaderboardEntry(nil), entries...)}
}

func (s *LeaderboardStore) Append(_ context.Context, entry domain.LeaderboardEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *LeaderboardStore) All(_ context.Context) ([]domain.LeaderboardEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.LeaderboardEntry(nil), s.entries...), nil
}
