package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Storage backends.
const (
	BackendFile     = "file"
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// EnvPrefix is prepended to every environment override. Quiz settings sit
// directly under it (QUIZ_DATA_DIR); other sections add their own name (QUIZ_REDIS_ADDR).
const EnvPrefix = "QUIZ_"

type Config struct {
	Server   ServerConfig   `yaml:"server" envPrefix:"SERVER_"`
	Log      LogConfig      `yaml:"log" envPrefix:"LOG_"`
	Quiz     QuizConfig     `yaml:"quiz"`
	Storage  StorageConfig  `yaml:"storage" envPrefix:"STORAGE_"`
	Redis    RedisConfig    `yaml:"redis" envPrefix:"REDIS_"`
	Postgres PostgresConfig `yaml:"postgres" envPrefix:"POSTGRES_"`
}

type ServerConfig struct {
	Port string `yaml:"port" env:"PORT"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
}

type QuizConfig struct {
	DataDir          string   `yaml:"data_dir" env:"DATA_DIR"`
	LeaderboardPath  string   `yaml:"leaderboard_path" env:"LEADERBOARD_PATH"`
	DefaultCount     int      `yaml:"default_count" env:"DEFAULT_COUNT"`
	DefaultTimeLimit int      `yaml:"default_time_limit" env:"DEFAULT_TIME_LIMIT"`
	MinTimeLimit     int      `yaml:"min_time_limit" env:"MIN_TIME_LIMIT"`
	MaxTimeLimit     int      `yaml:"max_time_limit" env:"MAX_TIME_LIMIT"`
	CacheTTL         string   `yaml:"cache_ttl" env:"CACHE_TTL"`
	SessionTTL       string   `yaml:"session_ttl" env:"SESSION_TTL"`
	Similarity       string   `yaml:"similarity" env:"SIMILARITY"`
	Topics           []string `yaml:"topics" env:"TOPICS" envSeparator:","`
}

type StorageConfig struct {
	Questions   string `yaml:"questions" env:"QUESTIONS"`
	Leaderboard string `yaml:"leaderboard" env:"LEADERBOARD"`
	SQLitePath  string `yaml:"sqlite_path" env:"SQLITE_PATH"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" env:"ADDR"`
	Password string `yaml:"password" env:"PASSWORD"`
	DB       int    `yaml:"db" env:"DB"`
	TTL      string `yaml:"ttl" env:"TTL"`
}

type PostgresConfig struct {
	URL string `yaml:"url" env:"URL"`
}

// Default is the configuration used when no file is present.
func Default() Config {
	return Config{
		Server: ServerConfig{Port: "8080"},
		Log:    LogConfig{Level: "info", Format: "text"},
		Quiz: QuizConfig{
			DataDir:          "data",
			LeaderboardPath:  "leaderboard.json",
			DefaultCount:     5,
			DefaultTimeLimit: 30,
			MinTimeLimit:     10,
			MaxTimeLimit:     60,
			CacheTTL:         "10m",
			SessionTTL:       "30m",
			Similarity:       "ratio",
			Topics:           []string{"math", "science", "general"},
		},
		Storage: StorageConfig{
			Questions:   BackendFile,
			Leaderboard: BackendFile,
			SQLitePath:  "leaderboard.db",
		},
		Redis: RedisConfig{TTL: "30m"},
	}
}

// Load reads YAML config from path on top of the defaults, then applies QUIZ_* environment overrides.
// A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, err
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return cfg, fmt.Errorf("parsing environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks backend names and the time limit bounds.
func (c Config) Validate() error {
	switch c.Storage.Questions {
	case BackendFile, BackendPostgres:
	default:
		return fmt.Errorf("unknown question backend %q", c.Storage.Questions)
	}
	switch c.Storage.Leaderboard {
	case BackendFile, BackendMemory, BackendRedis, BackendPostgres, BackendSQLite:
	default:
		return fmt.Errorf("unknown leaderboard backend %q", c.Storage.Leaderboard)
	}
	if c.Storage.Questions == BackendPostgres || c.Storage.Leaderboard == BackendPostgres {
		if c.Postgres.URL == "" {
			return fmt.Errorf("postgres backend selected but postgres url not configured")
		}
	}
	if c.Storage.Leaderboard == BackendRedis && c.Redis.Addr == "" {
		return fmt.Errorf("redis backend selected but redis addr not configured")
	}
	if c.Quiz.MinTimeLimit > 0 && c.Quiz.MaxTimeLimit > 0 && c.Quiz.MinTimeLimit > c.Quiz.MaxTimeLimit {
		return fmt.Errorf("min_time_limit %d exceeds max_time_limit %d", c.Quiz.MinTimeLimit, c.Quiz.MaxTimeLimit)
	}
	return nil
}

// SlogLevel maps the configured level name, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.Log.Level))); err != nil {
		return slog.LevelInfo
	}
	return level
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
