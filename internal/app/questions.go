package app

import (
	"context"
	"math/rand"
	"sort"
	"strings"

	"quiz-chatbot/internal/domain"
)

// QuestionSource loads the question bank for a topic and difficulty.
// Implementations return domain.ErrSourceNotFound or domain.ErrSourceCorrupt (wrapped) on failure.
type QuestionSource interface {
	LoadBank(ctx context.Context, topic string, difficulty domain.Difficulty) ([]domain.Question, error)
}

// LoadQuestions resolves a selector to the matching questions, in bank order.
// On error an empty slice is returned alongside it.
func LoadQuestions(ctx context.Context, source QuestionSource, sel domain.Selector) ([]domain.Question, error) {
	bank, err := source.LoadBank(ctx, sel.Topic, sel.Difficulty)
	if err != nil {
		return []domain.Question{}, err
	}
	out := make([]domain.Question, 0, len(bank))
	for _, q := range bank {
		if q.Difficulty == sel.Difficulty {
			out = append(out, q)
		}
	}
	return FilterByTag(out, sel.Tag), nil
}

// MatchesTag applies the case-insensitive substring tag policy; "All" or "" match everything.
func MatchesTag(tag, filter string) bool {
	filter = strings.TrimSpace(filter)
	if filter == "" || filter == domain.TagAll {
		return true
	}
	return strings.Contains(strings.ToLower(tag), strings.ToLower(filter))
}

// FilterByTag keeps the questions whose tag matches filter.
func FilterByTag(questions []domain.Question, filter string) []domain.Question {
	out := make([]domain.Question, 0, len(questions))
	for _, q := range questions {
		if MatchesTag(q.Tag, filter) {
			out = append(out, q)
		}
	}
	return out
}

// SelectQuestions shuffles a copy of questions and keeps at most count of them.
// reduced is true when fewer than count were available.
func SelectQuestions(rnd *rand.Rand, questions []domain.Question, count int) (selected []domain.Question, reduced bool) {
	selected = append([]domain.Question(nil), questions...)
	rnd.Shuffle(len(selected), func(i, j int) {
		selected[i], selected[j] = selected[j], selected[i]
	})
	if count < len(selected) {
		return selected[:count], false
	}
	return selected, len(selected) < count
}

// Tags lists the tag filter options for a bank: "All" followed by its distinct tags, sorted.
func Tags(ctx context.Context, source QuestionSource, topic string, difficulty domain.Difficulty) ([]string, error) {
	bank, err := source.LoadBank(ctx, topic, difficulty)
	if err != nil {
		return []string{domain.TagAll}, err
	}
	seen := make(map[string]struct{})
	tags := make([]string, 0)
	for _, q := range bank {
		if q.Tag == "" || q.Difficulty != difficulty {
			continue
		}
		if _, ok := seen[q.Tag]; ok {
			continue
		}
		seen[q.Tag] = struct{}{}
		tags = append(tags, q.Tag)
	}
	sort.Strings(tags)
	return append([]string{domain.TagAll}, tags...), nil
}
