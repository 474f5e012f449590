package integration

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"quiz-chatbot/internal/app"
	"quiz-chatbot/internal/domain"
	"quiz-chatbot/internal/infra/postgres"
	pgmigrations "quiz-chatbot/internal/infra/postgres/migrations"
	infraredis "quiz-chatbot/internal/infra/redis"
)

func TestQuizEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	migrateDB(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	loader := postgres.NewQuestionLoader(pool, logger)
	if err := loader.SaveBank(ctx, "math", domain.DifficultyEasy, sampleBank()); err != nil {
		t.Fatalf("seed bank: %v", err)
	}

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	questions := infraredis.NewQuestionRepository(redisClient, loader, 5*time.Minute, logger)
	sessions := infraredis.NewSessionStore(redisClient, 5*time.Minute, logger)
	board := postgres.NewLeaderboardStore(pool)
	service := app.NewQuizService(sessions, questions, board, app.WithLogger(logger))

	if err := board.Append(ctx, domain.LeaderboardEntry{Name: "Zed", Score: 1, Total: 2, Topic: "math"}); err != nil {
		t.Fatalf("seed leaderboard: %v", err)
	}

	view, err := service.StartSession(ctx, domain.SessionSetup{
		Name: "Alice", Topic: "math", Difficulty: domain.DifficultyEasy, Tag: domain.TagAll,
		QuestionCount: 2, TimeLimit: 30,
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if view.Total != 2 {
		t.Fatalf("expected 2 questions, got %d (%v)", view.Total, view.Notices)
	}

	answers := map[string]string{}
	for _, q := range sampleBank() {
		answers[q.Text] = q.Answer
	}
	for !view.Completed() {
		if view, err = service.SubmitAnswer(ctx, view.ID, answers[view.Current.Text]); err != nil {
			t.Fatalf("submit: %v", err)
		}
		if view, err = service.Advance(ctx, view.ID); err != nil {
			t.Fatalf("advance: %v", err)
		}
	}

	result, err := service.CompleteAndPersist(ctx, view.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if result.Entry.Score != 2 || result.Rank != 1 || result.Participants != 2 {
		t.Fatalf("expected alice ranked 1 of 2 with 2 points, got %+v", result)
	}

	top, err := service.Leaderboard(ctx, 10)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(top) != 2 || top[0].Name != "Alice" || top[1].Name != "Zed" {
		t.Fatalf("unexpected leaderboard %+v", top)
	}

	cached, err := redisClient.Exists(ctx, "quiz:bank:math:easy").Result()
	if err != nil || cached != 1 {
		t.Fatalf("expected bank cached in redis, got %d (%v)", cached, err)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func migrateDB(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func sampleBank() []domain.Question {
	return []domain.Question{
		{Text: "What is 2 + 2?", Options: []string{"3", "4", "5"}, Answer: "4", Tag: "arithmetic", Difficulty: domain.DifficultyEasy},
		{Text: "How many sides does a triangle have?", Answer: "three", Tag: "geometry", Difficulty: domain.DifficultyEasy},
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
