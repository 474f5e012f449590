package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"quiz-chatbot/internal/domain"
)

// legacyTimestampLayout is how older leaderboard files stored timestamps.
const legacyTimestampLayout = "2006-01-02 15:04:05.999999"

// LeaderboardStore keeps the whole leaderboard as one JSON array on disk.
// Each append rewrites the file; the mutex serialises writers within this process only.
type LeaderboardStore struct {
	path   string
	logger *slog.Logger
	mu     sync.Mutex
}

func NewLeaderboardStore(path string, logger *slog.Logger) *LeaderboardStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &LeaderboardStore{path: path, logger: logger}
}

type entryRecord struct {
	Name      string `json:"name"`
	Score     int    `json:"score"`
	Total     int    `json:"total"`
	Topic     string `json:"topic,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

func (s *LeaderboardStore) Append(_ context.Context, entry domain.LeaderboardEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.readLocked()
	entries = append(entries, entry)

	records := make([]entryRecord, 0, len(entries))
	for _, e := range entries {
		records = append(records, toRecord(e))
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode leaderboard: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create leaderboard dir: %w", err)
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write leaderboard: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace leaderboard: %w", err)
	}
	return nil
}

func (s *LeaderboardStore) All(_ context.Context) ([]domain.LeaderboardEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readLocked(), nil
}

// readLocked treats a missing or unparsable file as an empty leaderboard.
func (s *LeaderboardStore) readLocked() []domain.LeaderboardEntry {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("read leaderboard", "path", s.path, "err", err)
		}
		return []domain.LeaderboardEntry{}
	}

	var records []entryRecord
	if err := json.Unmarshal(data, &records); err != nil {
		s.logger.Warn("leaderboard file corrupt, starting empty", "path", s.path,
			"err", fmt.Errorf("%w: %v", domain.ErrSourceCorrupt, err))
		return []domain.LeaderboardEntry{}
	}

	entries := make([]domain.LeaderboardEntry, 0, len(records))
	for _, r := range records {
		entries = append(entries, fromRecord(r))
	}
	return entries
}

func toRecord(e domain.LeaderboardEntry) entryRecord {
	r := entryRecord{Name: e.Name, Score: e.Score, Total: e.Total, Topic: e.Topic}
	if e.Timestamp != nil {
		r.Timestamp = e.Timestamp.Format(time.RFC3339Nano)
	}
	return r
}

func fromRecord(r entryRecord) domain.LeaderboardEntry {
	e := domain.LeaderboardEntry{Name: r.Name, Score: r.Score, Total: r.Total, Topic: r.Topic}
	if r.Timestamp == "" {
		return e
	}
	for _, layout := range []string{time.RFC3339Nano, legacyTimestampLayout} {
		if ts, err := time.Parse(layout, r.Timestamp); err == nil {
			e.Timestamp = &ts
			break
		}
	}
	return e
}
