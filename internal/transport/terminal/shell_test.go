package terminal

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"math/rand"
	"strings"
	"testing"
	"time"

	"quiz-chatbot/internal/app"
	"quiz-chatbot/internal/domain"
	"quiz-chatbot/internal/infra/memory"
)

func newShellService(board *memory.LeaderboardStore, now func() time.Time) *app.QuizService {
	banks := map[string][]domain.Question{
		"math/easy": {
			{Text: "What is 2 + 2?", Options: []string{"3", "4", "5"}, Answer: "4", Tag: "arithmetic", Explanation: "Two pairs make four."},
		},
	}
	return app.NewQuizService(
		memory.NewSessionStore(0),
		memory.NewStaticQuestionSource(banks),
		board,
		app.WithClock(now),
		app.WithRand(rand.New(rand.NewSource(1))),
		app.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
}

func TestShellPlaysOneRoundByOptionNumber(t *testing.T) {
	board := memory.NewLeaderboardStore(domain.LeaderboardEntry{Name: "Zed", Score: 0, Total: 1, Topic: "math"})
	fixed := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	service := newShellService(board, func() time.Time { return fixed })

	input := strings.Join([]string{
		"Alice", // name
		"math",  // topic
		"",      // difficulty default
		"",      // tag default
		"1",     // count
		"30",    // seconds
		"2",     // option 2 = "4"
		"n",     // play again
	}, "\n") + "\n"
	var out bytes.Buffer

	shell := NewShell(service, slog.New(slog.NewTextHandler(io.Discard, nil)), strings.NewReader(input), &out,
		Options{Topics: []string{"math"}, QuestionCount: 5, TimeLimit: 30})
	if err := shell.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	text := out.String()
	for _, want := range []string{
		"Question 1/1: What is 2 + 2?",
		"  2) 4",
		"Correct answer!",
		"Explanation: Two pairs make four.",
		"your final score is 1/1",
		"perfect score",
		"You ranked #1 out of 2 participants!",
		"1. Alice 1/1 (math)",
		"2. Zed 0/1 (math)",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("output missing %q:\n%s", want, text)
		}
	}
}

func TestShellLateAnswerIsTimeout(t *testing.T) {
	board := memory.NewLeaderboardStore()
	now := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	calls := 0
	// every clock read moves time forward so the answer lands past the deadline
	service := newShellService(board, func() time.Time {
		calls++
		return now.Add(time.Duration(calls) * 10 * time.Second)
	})

	input := "Bob\nmath\neasy\n\n1\n10\n4\n"
	var out bytes.Buffer
	shell := NewShell(service, slog.New(slog.NewTextHandler(io.Discard, nil)), strings.NewReader(input), &out,
		Options{QuestionCount: 5, TimeLimit: 30})
	if err := shell.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	text := out.String()
	for _, want := range []string{"Time's up!", "Correct Answer: 4", "your final score is 0/1"} {
		if !strings.Contains(text, want) {
			t.Fatalf("output missing %q:\n%s", want, text)
		}
	}
}

func TestChoiceAnswer(t *testing.T) {
	q := &domain.QuestionView{Kind: domain.KindChoice, Options: []string{"red", "blue"}}
	cases := map[string]string{"1": "red", "2": "blue", "3": "3", "blue": "blue"}
	for in, want := range cases {
		if got := choiceAnswer(q, in); got != want {
			t.Fatalf("choiceAnswer(%q) = %q, want %q", in, got, want)
		}
	}
	free := &domain.QuestionView{Kind: domain.KindFreeText}
	if got := choiceAnswer(free, "1"); got != "1" {
		t.Fatalf("free text answers must pass through, got %q", got)
	}
}
