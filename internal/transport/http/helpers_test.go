package http

import (
	"io"
	"log/slog"
	"math/rand"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"quiz-chatbot/internal/app"
	"quiz-chatbot/internal/domain"
	"quiz-chatbot/internal/infra/memory"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func sampleBanks() map[string][]domain.Question {
	return map[string][]domain.Question{
		"math/easy": {
			{Text: "What is 2 + 2?", Options: []string{"3", "4", "5"}, Answer: "4", Tag: "arithmetic"},
			{Text: "Name the shape with three sides", Answer: "triangle", Tag: "geometry"},
		},
	}
}

func newTestServer(t *testing.T) (*httptest.Server, *testClock, *memory.LeaderboardStore) {
	t.Helper()
	clock := &testClock{t: time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)}
	board := memory.NewLeaderboardStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := app.NewQuizService(
		memory.NewSessionStore(0),
		memory.NewStaticQuestionSource(sampleBanks()),
		board,
		app.WithClock(clock.Now),
		app.WithRand(rand.New(rand.NewSource(1))),
		app.WithLogger(logger),
		app.WithTimeLimitBounds(10, 60),
	)
	server := httptest.NewServer(NewRouter(service, logger, Defaults{QuestionCount: 5, TimeLimit: 30}))
	t.Cleanup(server.Close)
	return server, clock, board
}

func answerFor(view domain.SessionView) string {
	for _, q := range sampleBanks()["math/easy"] {
		if view.Current != nil && q.Text == view.Current.Text {
			return q.Answer
		}
	}
	return ""
}
