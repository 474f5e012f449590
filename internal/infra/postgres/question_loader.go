package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-chatbot/internal/domain"
)

// QuestionLoader loads question banks stored as JSONB, one row per topic and difficulty.
type QuestionLoader struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewQuestionLoader(pool *pgxpool.Pool, logger *slog.Logger) *QuestionLoader {
	if logger == nil {
		logger = slog.Default()
	}
	return &QuestionLoader{pool: pool, logger: logger}
}

func (l *QuestionLoader) LoadBank(ctx context.Context, topic string, difficulty domain.Difficulty) ([]domain.Question, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx,
		`SELECT data FROM question_banks WHERE topic=$1 AND difficulty=$2`,
		topic, string(difficulty),
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s/%s", domain.ErrSourceNotFound, topic, difficulty)
	}
	if err != nil {
		return nil, fmt.Errorf("load question bank: %w", err)
	}

	var bank []domain.Question
	if err := json.Unmarshal(raw, &bank); err != nil {
		return nil, fmt.Errorf("%w: %s/%s: %v", domain.ErrSourceCorrupt, topic, difficulty, err)
	}
	questions := make([]domain.Question, 0, len(bank))
	for i, q := range bank {
		if err := q.Validate(); err != nil {
			l.logger.Warn("skipping invalid question", "topic", topic, "difficulty", difficulty, "index", i, "err", err)
			continue
		}
		if q.Difficulty == "" {
			q.Difficulty = difficulty
		} else if d, err := domain.ParseDifficulty(string(q.Difficulty)); err == nil {
			q.Difficulty = d
		} else {
			l.logger.Warn("skipping question with unknown difficulty", "topic", topic, "index", i, "err", err)
			continue
		}
		questions = append(questions, q)
	}
	return questions, nil
}

// SaveBank inserts or replaces a question bank.
func (l *QuestionLoader) SaveBank(ctx context.Context, topic string, difficulty domain.Difficulty, questions []domain.Question) error {
	data, err := json.Marshal(questions)
	if err != nil {
		return fmt.Errorf("marshal question bank: %w", err)
	}
	_, err = l.pool.Exec(ctx,
		`INSERT INTO question_banks (topic, difficulty, data) VALUES ($1, $2, $3::jsonb)
		 ON CONFLICT (topic, difficulty) DO UPDATE SET data = EXCLUDED.data`,
		topic, string(difficulty), string(data),
	)
	if err != nil {
		return fmt.Errorf("save question bank: %w", err)
	}
	return nil
}
