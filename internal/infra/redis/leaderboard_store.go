package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"quiz-chatbot/internal/domain"
)

// LeaderboardKey is the Redis list holding leaderboard entries in insertion order.
const LeaderboardKey = "quiz:leaderboard"

// LeaderboardStore appends JSON-encoded entries to a Redis list.
// RPUSH is atomic, so unlike the file store it tolerates several writers.
type LeaderboardStore struct {
	client *redis.Client
	logger *slog.Logger
}

func NewLeaderboardStore(client *redis.Client, logger *slog.Logger) *LeaderboardStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &LeaderboardStore{client: client, logger: logger}
}

func (s *LeaderboardStore) Append(ctx context.Context, entry domain.LeaderboardEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode leaderboard entry: %w", err)
	}
	if err := s.client.RPush(ctx, LeaderboardKey, data).Err(); err != nil {
		return fmt.Errorf("push leaderboard entry: %w", err)
	}
	return nil
}

func (s *LeaderboardStore) All(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	raw, err := s.client.LRange(ctx, LeaderboardKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read leaderboard: %w", err)
	}
	entries := make([]domain.LeaderboardEntry, 0, len(raw))
	for i, item := range raw {
		var entry domain.LeaderboardEntry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			s.logger.Warn("skipping corrupt leaderboard entry", "index", i, "err", err)
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
