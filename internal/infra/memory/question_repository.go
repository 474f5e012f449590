package memory

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"quiz-chatbot/internal/app"
	"quiz-chatbot/internal/domain"
)

// QuestionRepository caches question banks with TTL to avoid re-reading the source.
type QuestionRepository struct {
	loader app.QuestionSource
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	mu    sync.RWMutex
	rnd   *rand.Rand
	cache map[string]cachedBank
}

type cachedBank struct {
	questions []domain.Question
	expiresAt time.Time
}

func NewQuestionRepository(loader app.QuestionSource, ttl time.Duration) *QuestionRepository {
	return &QuestionRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedBank),
	}
}

// LoadBank returns a fresh copy of the cached bank, loading it on miss.
// Load failures are not cached.
func (r *QuestionRepository) LoadBank(ctx context.Context, topic string, difficulty domain.Difficulty) ([]domain.Question, error) {
	key := bankKey(topic, difficulty)

	if questions, ok := r.lookup(key); ok {
		return questions, nil
	}

	result, err, _ := r.sf.Do(key, func() (interface{}, error) {
		if questions, ok := r.lookup(key); ok {
			return questions, nil
		}

		questions, err := r.loader.LoadBank(ctx, topic, difficulty)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.cache[key] = cachedBank{
			questions: questions,
			expiresAt: r.clock().Add(r.ttlWithJitterLocked()),
		}
		r.mu.Unlock()
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return append([]domain.Question(nil), result.([]domain.Question)...), nil
}

func (r *QuestionRepository) lookup(key string) ([]domain.Question, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.cache[key]
	if !ok || !entry.expiresAt.After(r.clock()) {
		return nil, false
	}
	return append([]domain.Question(nil), entry.questions...), true
}

func (r *QuestionRepository) ttlWithJitterLocked() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

func bankKey(topic string, difficulty domain.Difficulty) string {
	return fmt.Sprintf("%s/%s", topic, difficulty)
}

// StaticQuestionSource is a question source backed by an in-memory map (useful for tests/demos).
// Keys are "topic/difficulty".
type StaticQuestionSource struct {
	banks map[string][]domain.Question
}

func NewStaticQuestionSource(banks map[string][]domain.Question) *StaticQuestionSource {
	return &StaticQuestionSource{banks: banks}
}

func (l *StaticQuestionSource) LoadBank(_ context.Context, topic string, difficulty domain.Difficulty) ([]domain.Question, error) {
	bank, ok := l.banks[bankKey(topic, difficulty)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrSourceNotFound, bankKey(topic, difficulty))
	}
	out := make([]domain.Question, 0, len(bank))
	for _, q := range bank {
		if q.Difficulty == "" {
			q.Difficulty = difficulty
		}
		out = append(out, q)
	}
	return out, nil
}
