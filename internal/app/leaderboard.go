package app

import (
	"sort"

	"quiz-chatbot/internal/domain"
)

// DefaultLeaderboardLimit is how many rows the leaderboard shows by default.
const DefaultLeaderboardLimit = 10

// SortEntries orders entries by score descending; equal scores keep insertion order.
func SortEntries(entries []domain.LeaderboardEntry) []domain.LeaderboardEntry {
	sorted := append([]domain.LeaderboardEntry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})
	return sorted
}

// RankOf is the 1-based position of the first entry named name in display order, or 0.
func RankOf(entries []domain.LeaderboardEntry, name string) int {
	for i, entry := range SortEntries(entries) {
		if entry.Name == name {
			return i + 1
		}
	}
	return 0
}

// RankEntries returns at most limit rows in display order; limit <= 0 means all.
func RankEntries(entries []domain.LeaderboardEntry, limit int) []domain.RankedEntry {
	sorted := SortEntries(entries)
	if limit > 0 && limit < len(sorted) {
		sorted = sorted[:limit]
	}
	ranked := make([]domain.RankedEntry, 0, len(sorted))
	for i, entry := range sorted {
		ranked = append(ranked, domain.RankedEntry{Rank: i + 1, LeaderboardEntry: entry})
	}
	return ranked
}
