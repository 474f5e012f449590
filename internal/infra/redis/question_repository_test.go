package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"quiz-chatbot/internal/domain"
	"quiz-chatbot/internal/infra/memory"
)

func TestQuestionRepositoryCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)

	loader := &countingLoader{
		StaticQuestionSource: memory.NewStaticQuestionSource(map[string][]domain.Question{
			"math/easy": sampleBank(),
		}),
	}
	repo := NewQuestionRepository(client, loader, time.Minute, nil)

	bank, err := repo.LoadBank(context.Background(), "math", domain.DifficultyEasy)
	if err != nil {
		t.Fatalf("load bank: %v", err)
	}
	if loader.calls != 1 || len(bank) != 2 {
		t.Fatalf("expected loader called once with 2 questions, got calls=%d len=%d", loader.calls, len(bank))
	}
	if !mr.Exists("quiz:bank:math:easy") {
		t.Fatalf("expected bank cached in redis")
	}

	// Second call should hit cache, loader not incremented.
	bank, _ = repo.LoadBank(context.Background(), "math", domain.DifficultyEasy)
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
	if bank[0].Options[1] != "4" || bank[0].Difficulty != domain.DifficultyEasy {
		t.Fatalf("cached bank lost fields: %+v", bank[0])
	}

	mr.FastForward(2 * time.Minute)
	_, _ = repo.LoadBank(context.Background(), "math", domain.DifficultyEasy)
	if loader.calls != 2 {
		t.Fatalf("expected reload after expiry, loader calls=%d", loader.calls)
	}
}

func TestQuestionRepositoryPassesThroughNotFound(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	repo := NewQuestionRepository(newClient(mr), memory.NewStaticQuestionSource(nil), time.Minute, nil)
	if _, err := repo.LoadBank(context.Background(), "art", domain.DifficultyEasy); !errors.Is(err, domain.ErrSourceNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if mr.Exists("quiz:bank:art:easy") {
		t.Fatalf("errors must not be cached")
	}
}

type countingLoader struct {
	*memory.StaticQuestionSource
	calls int
}

func (l *countingLoader) LoadBank(ctx context.Context, topic string, difficulty domain.Difficulty) ([]domain.Question, error) {
	l.calls++
	return l.StaticQuestionSource.LoadBank(ctx, topic, difficulty)
}

func sampleBank() []domain.Question {
	return []domain.Question{
		{Text: "What is 2 + 2?", Options: []string{"3", "4"}, Answer: "4", Tag: "arithmetic"},
		{Text: "Capital of France?", Answer: "Paris", Explanation: "Paris is the capital."},
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
