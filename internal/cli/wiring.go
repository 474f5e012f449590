package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"

	"quiz-chatbot/internal/app"
	"quiz-chatbot/internal/config"
	"quiz-chatbot/internal/infra/file"
	"quiz-chatbot/internal/infra/memory"
	"quiz-chatbot/internal/infra/postgres"
	redisinfra "quiz-chatbot/internal/infra/redis"
	"quiz-chatbot/internal/infra/sqlite"
)

// components is everything a command needs, plus the cleanup for the connections it opened.
type components struct {
	service *app.QuizService
	closers []func()
}

func (c *components) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

func newLogger(cfg config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if strings.EqualFold(cfg.Log.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func usesPostgres(cfg config.Config) bool {
	return cfg.Storage.Questions == config.BackendPostgres || cfg.Storage.Leaderboard == config.BackendPostgres
}

func buildComponents(ctx context.Context, cfg config.Config, logger *slog.Logger) (*components, error) {
	c := &components{}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			redisClient.Close()
			return nil, fmt.Errorf("pinging redis: %w", err)
		}
		c.closers = append(c.closers, func() { redisClient.Close() })
		logger.Info("connected to redis", "addr", cfg.Redis.Addr)
	}

	var pool *pgxpool.Pool
	if usesPostgres(cfg) {
		var err error
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		c.closers = append(c.closers, pool.Close)
		logger.Info("connected to postgres")
	}

	var loader app.QuestionSource = file.NewQuestionSource(cfg.Quiz.DataDir, logger)
	if cfg.Storage.Questions == config.BackendPostgres {
		loader = postgres.NewQuestionLoader(pool, logger)
	}

	cacheTTL := config.TTLDuration(cfg.Quiz.CacheTTL, 10*time.Minute)
	var questions app.QuestionSource
	if redisClient != nil {
		questions = redisinfra.NewQuestionRepository(redisClient, loader, cacheTTL, logger)
	} else {
		questions = memory.NewQuestionRepository(loader, cacheTTL)
	}

	var sessions app.SessionRepository
	if redisClient != nil {
		sessions = redisinfra.NewSessionStore(redisClient, config.TTLDuration(cfg.Redis.TTL, 30*time.Minute), logger)
	} else {
		sessions = memory.NewSessionStore(config.TTLDuration(cfg.Quiz.SessionTTL, 30*time.Minute))
	}

	var leaderboard app.LeaderboardStore
	switch cfg.Storage.Leaderboard {
	case config.BackendMemory:
		leaderboard = memory.NewLeaderboardStore()
	case config.BackendRedis:
		leaderboard = redisinfra.NewLeaderboardStore(redisClient, logger)
	case config.BackendPostgres:
		leaderboard = postgres.NewLeaderboardStore(pool)
	case config.BackendSQLite:
		store, err := sqlite.NewLeaderboardStore(cfg.Storage.SQLitePath)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("opening sqlite leaderboard: %w", err)
		}
		c.closers = append(c.closers, func() { store.Close() })
		leaderboard = store
	default:
		leaderboard = file.NewLeaderboardStore(cfg.Quiz.LeaderboardPath, logger)
	}
	logger.Debug("storage selected", "questions", cfg.Storage.Questions, "leaderboard", cfg.Storage.Leaderboard)

	similarity, err := app.SimilarityByName(cfg.Quiz.Similarity)
	if err != nil {
		c.Close()
		return nil, err
	}

	c.service = app.NewQuizService(sessions, questions, leaderboard,
		app.WithLogger(logger),
		app.WithSimilarity(similarity),
		app.WithTimeLimitBounds(cfg.Quiz.MinTimeLimit, cfg.Quiz.MaxTimeLimit),
	)
	return c, nil
}
