package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"quiz-chatbot/internal/domain"
	"quiz-chatbot/internal/infra/sqlite/migrations"
)

// LeaderboardStore keeps leaderboard entries in a local SQLite database.
type LeaderboardStore struct {
	db *sql.DB
}

func NewLeaderboardStore(path string) (*LeaderboardStore, error) {
	if strings.TrimSpace(path) == "" {
		path = "leaderboard.db"
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA busy_timeout = 5000;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &LeaderboardStore{db: db}, nil
}

func (s *LeaderboardStore) Close() error {
	return s.db.Close()
}

func (s *LeaderboardStore) Append(ctx context.Context, entry domain.LeaderboardEntry) error {
	var createdAt sql.NullInt64
	if entry.Timestamp != nil {
		createdAt = sql.NullInt64{Int64: entry.Timestamp.UnixNano(), Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO leaderboard_entries (name, score, total, topic, created_at_unix) VALUES (?, ?, ?, ?, ?)`,
		entry.Name, entry.Score, entry.Total, entry.Topic, createdAt,
	)
	if err != nil {
		return fmt.Errorf("insert leaderboard entry: %w", err)
	}
	return nil
}

func (s *LeaderboardStore) All(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, score, total, topic, created_at_unix FROM leaderboard_entries ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.LeaderboardEntry, 0)
	for rows.Next() {
		var (
			entry     domain.LeaderboardEntry
			createdAt sql.NullInt64
		)
		if err := rows.Scan(&entry.Name, &entry.Score, &entry.Total, &entry.Topic, &createdAt); err != nil {
			return nil, fmt.Errorf("scan leaderboard entry: %w", err)
		}
		if createdAt.Valid {
			ts := time.Unix(0, createdAt.Int64).UTC()
			entry.Timestamp = &ts
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
