package file

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"quiz-chatbot/internal/domain"
)

func TestLeaderboardStoreAppendAndReadBack(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "scores", "leaderboard.json")
	store := NewLeaderboardStore(path, nil)

	entries, err := store.All(ctx)
	if err != nil || len(entries) != 0 {
		t.Fatalf("expected empty board for missing file, got %v err=%v", entries, err)
	}

	ts := time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC)
	if err := store.Append(ctx, domain.LeaderboardEntry{Name: "Alice", Score: 2, Total: 3, Topic: "math", Timestamp: &ts}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := store.Append(ctx, domain.LeaderboardEntry{Name: "Bob", Score: 3, Total: 3, Topic: "science"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	entries, err = NewLeaderboardStore(path, nil).All(ctx)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(entries) != 2 || entries[0].Name != "Alice" || entries[1].Name != "Bob" {
		t.Fatalf("expected insertion order, got %+v", entries)
	}
	if entries[0].Timestamp == nil || !entries[0].Timestamp.Equal(ts) {
		t.Fatalf("timestamp not round-tripped: %v", entries[0].Timestamp)
	}
	if entries[1].Timestamp != nil {
		t.Fatalf("expected absent timestamp, got %v", entries[1].Timestamp)
	}
}

func TestLeaderboardStoreCorruptFileIsEmpty(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeFile(t, dir, "leaderboard.json", `[{"name": "Alice", "score": `)
	store := NewLeaderboardStore(filepath.Join(dir, "leaderboard.json"), nil)

	entries, err := store.All(ctx)
	if err != nil || len(entries) != 0 {
		t.Fatalf("expected corrupt file read as empty, got %v err=%v", entries, err)
	}
	if err := store.Append(ctx, domain.LeaderboardEntry{Name: "Bob", Score: 1, Total: 1}); err != nil {
		t.Fatalf("append over corrupt file: %v", err)
	}
	entries, _ = store.All(ctx)
	if len(entries) != 1 || entries[0].Name != "Bob" {
		t.Fatalf("expected fresh board, got %+v", entries)
	}
}

func TestLeaderboardStoreReadsLegacyTimestamps(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "leaderboard.json", `[
		{"name": "Alice", "score": 4, "total": 10, "topic": "math", "timestamp": "2025-05-04 13:14:15.161718"},
		{"name": "Bob", "score": 2, "total": 10}
	]`)

	entries, err := NewLeaderboardStore(filepath.Join(dir, "leaderboard.json"), nil).All(context.Background())
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(entries) != 2 || entries[0].Timestamp == nil {
		t.Fatalf("expected legacy timestamp parsed, got %+v", entries)
	}
	if entries[0].Timestamp.Year() != 2025 || entries[0].Timestamp.Second() != 15 {
		t.Fatalf("unexpected timestamp %v", entries[0].Timestamp)
	}
}
