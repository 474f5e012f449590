package app_test

import (
	"strings"
	"testing"

	"quiz-chatbot/internal/app"
	"quiz-chatbot/internal/domain"
)

func TestBuildFeedbackLevels(t *testing.T) {
	tests := []struct {
		name         string
		score, total int
		want         domain.FeedbackLevel
	}{
		{name: "no questions", score: 0, total: 0, want: domain.FeedbackNone},
		{name: "perfect", score: 5, total: 5, want: domain.FeedbackPerfect},
		{name: "good boundary", score: 7, total: 10, want: domain.FeedbackGood},
		{name: "fair", score: 4, total: 10, want: domain.FeedbackFair},
		{name: "just below fair", score: 3, total: 10, want: domain.FeedbackNeedsPractice},
		{name: "zero", score: 0, total: 3, want: domain.FeedbackNeedsPractice},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := app.BuildFeedback(tc.score, tc.total, nil).Level; got != tc.want {
				t.Fatalf("level = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestBuildFeedbackNoQuestionsMessage(t *testing.T) {
	fb := app.BuildFeedback(0, 0, nil)
	if !strings.Contains(fb.Text(), "No questions attempted") {
		t.Fatalf("unexpected message %q", fb.Text())
	}
}

func TestWeakAreasRankedByMisses(t *testing.T) {
	wrong := []domain.AnswerRecord{
		{Tag: "geometry"},
		{Tag: ""},
		{Tag: "algebra"},
		{Tag: "algebra"},
		{Tag: "geometry"},
		{Tag: "algebra"},
	}
	areas := app.WeakAreas(wrong)

	want := []domain.TagMisses{
		{Tag: "algebra", Misses: 3},
		{Tag: "geometry", Misses: 2},
		{Tag: domain.UntaggedLabel, Misses: 1},
	}
	if len(areas) != len(want) {
		t.Fatalf("expected %d areas, got %+v", len(want), areas)
	}
	for i := range want {
		if areas[i] != want[i] {
			t.Fatalf("area %d = %+v, want %+v", i, areas[i], want[i])
		}
	}
}

func TestWeakAreasTiesKeepFirstSeenOrder(t *testing.T) {
	areas := app.WeakAreas([]domain.AnswerRecord{{Tag: "roots"}, {Tag: "fractions"}, {Tag: "percent"}})
	if areas[0].Tag != "roots" || areas[1].Tag != "fractions" || areas[2].Tag != "percent" {
		t.Fatalf("ties reordered: %+v", areas)
	}
}

func TestFeedbackTextListsWeakAreas(t *testing.T) {
	fb := app.BuildFeedback(1, 3, []domain.AnswerRecord{{Tag: "geometry"}, {Tag: "geometry"}})
	text := fb.Text()
	if !strings.Contains(text, "- geometry: 2 incorrect") {
		t.Fatalf("missing weak area in %q", text)
	}
}
