package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"quiz-chatbot/internal/domain"
)

// SessionRepository abstracts where running sessions live (in-memory, Redis-marked, etc).
type SessionRepository interface {
	Put(session *Session)
	Get(id string) (*Session, bool)
	Delete(id string)
}

// LeaderboardStore persists completed results as an append-only collection.
// A missing or unreadable backing store reads as empty.
type LeaderboardStore interface {
	Append(ctx context.Context, entry domain.LeaderboardEntry) error
	All(ctx context.Context) ([]domain.LeaderboardEntry, error)
}

// QuizService contains the quiz use cases exposed to shells.
type QuizService struct {
	sessions    SessionRepository
	questions   QuestionSource
	leaderboard LeaderboardStore
	evaluator   *Evaluator
	logger      *slog.Logger
	now         func() time.Time
	newID       func() string

	minTimeLimit int
	maxTimeLimit int

	rndMu sync.Mutex
	rnd   *rand.Rand
}

// Option customizes a QuizService.
type Option func(*QuizService)

// WithClock replaces time.Now for sessions created by the service.
func WithClock(now func() time.Time) Option {
	return func(s *QuizService) { s.now = now }
}

// WithRand makes question shuffling deterministic.
func WithRand(rnd *rand.Rand) Option {
	return func(s *QuizService) { s.rnd = rnd }
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *QuizService) { s.logger = logger }
}

// WithSimilarity swaps the free-text similarity function.
func WithSimilarity(similarity Similarity) Option {
	return func(s *QuizService) { s.evaluator = NewEvaluator(similarity) }
}

// WithIDGenerator replaces uuid-based session ids.
func WithIDGenerator(newID func() string) Option {
	return func(s *QuizService) { s.newID = newID }
}

// WithTimeLimitBounds restricts the per-question time limit in seconds; zero disables a bound.
func WithTimeLimitBounds(min, max int) Option {
	return func(s *QuizService) {
		s.minTimeLimit = min
		s.maxTimeLimit = max
	}
}

func NewQuizService(sessions SessionRepository, questions QuestionSource, leaderboard LeaderboardStore, opts ...Option) *QuizService {
	s := &QuizService{
		sessions:    sessions,
		questions:   questions,
		leaderboard: leaderboard,
		evaluator:   NewEvaluator(nil),
		logger:      slog.Default(),
		now:         time.Now,
		newID:       uuid.NewString,
		rnd:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartSession loads and selects questions and begins a new run.
// Source problems are reported as notices on an empty, already completed session.
func (s *QuizService) StartSession(ctx context.Context, setup domain.SessionSetup) (domain.SessionView, error) {
	setup, err := s.validateSetup(setup)
	if err != nil {
		return domain.SessionView{}, err
	}

	var notices []string
	available, err := LoadQuestions(ctx, s.questions, setup.Selector())
	switch {
	case errors.Is(err, domain.ErrSourceNotFound):
		s.logger.Warn("question source not found", "topic", setup.Topic, "difficulty", setup.Difficulty, "err", err)
		notices = append(notices, fmt.Sprintf("No questions found for %s (%s).", setup.Topic, setup.Difficulty))
	case errors.Is(err, domain.ErrSourceCorrupt):
		s.logger.Error("question source corrupt", "topic", setup.Topic, "difficulty", setup.Difficulty, "err", err)
		notices = append(notices, fmt.Sprintf("Error loading questions for %s (%s).", setup.Topic, setup.Difficulty))
	case err != nil:
		s.logger.Error("load questions", "topic", setup.Topic, "difficulty", setup.Difficulty, "err", err)
		notices = append(notices, "Questions could not be loaded.")
	}

	s.rndMu.Lock()
	selected, reduced := SelectQuestions(s.rnd, available, setup.QuestionCount)
	s.rndMu.Unlock()
	if reduced && err == nil {
		s.logger.Info("reduced question count", "requested", setup.QuestionCount, "available", len(selected),
			"err", domain.ErrInsufficientQuestions)
		notices = append(notices, fmt.Sprintf("Only %d questions available. Adjusting quiz size.", len(selected)))
	}

	session := NewSessionWithClock(s.newID(), setup, selected, s.evaluator, s.now)
	for _, notice := range notices {
		session.Notice(notice)
	}
	s.sessions.Put(session)
	s.logger.Info("session started", "session", session.ID(), "name", setup.Name, "topic", setup.Topic,
		"difficulty", setup.Difficulty, "tag", setup.Tag, "questions", len(selected))
	return session.Snapshot(), nil
}

// SubmitAnswer records the participant's answer to the current question.
func (s *QuizService) SubmitAnswer(_ context.Context, sessionID, answer string) (domain.SessionView, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.SessionView{}, domain.ErrSessionNotFound
	}
	record, err := session.Submit(answer)
	if err != nil {
		return session.Snapshot(), err
	}
	if record.TimedOut() {
		s.logger.Debug("late submission converted to timeout", "session", sessionID)
	}
	return session.Snapshot(), nil
}

// Advance moves the session to the next question.
func (s *QuizService) Advance(_ context.Context, sessionID string) (domain.SessionView, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.SessionView{}, domain.ErrSessionNotFound
	}
	if err := session.Advance(); err != nil {
		return session.Snapshot(), err
	}
	return session.Snapshot(), nil
}

// CheckTimeout applies an expired deadline, if any.
func (s *QuizService) CheckTimeout(_ context.Context, sessionID string) (domain.SessionView, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.SessionView{}, domain.ErrSessionNotFound
	}
	if session.CheckTimeout() {
		s.logger.Debug("question timed out", "session", sessionID)
	}
	return session.Snapshot(), nil
}

// View returns the current snapshot without applying any transition.
func (s *QuizService) View(_ context.Context, sessionID string) (domain.SessionView, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.SessionView{}, domain.ErrSessionNotFound
	}
	return session.Snapshot(), nil
}

// CompleteAndPersist saves a finished run to the leaderboard and ranks it.
// Only the first call appends; later calls return the same result.
func (s *QuizService) CompleteAndPersist(ctx context.Context, sessionID string) (domain.Result, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.Result{}, domain.ErrSessionNotFound
	}
	if !session.Completed() {
		return domain.Result{}, fmt.Errorf("%w: session still in progress", domain.ErrInvalidTransition)
	}
	if result, ok := session.cachedResult(); ok {
		return result, nil
	}

	score, total, wrong := session.outcome()
	view := session.Snapshot()
	ts := s.now().UTC()
	result := domain.Result{
		Entry: domain.LeaderboardEntry{
			Name:      view.Name,
			Score:     score,
			Total:     total,
			Topic:     view.Topic,
			Timestamp: &ts,
		},
		Feedback: BuildFeedback(score, total, wrong),
	}

	if err := s.leaderboard.Append(ctx, result.Entry); err != nil {
		s.logger.Error("append leaderboard entry", "session", sessionID, "err", err)
		return result, fmt.Errorf("save score: %w", err)
	}

	entries, err := s.leaderboard.All(ctx)
	if err != nil {
		s.logger.Warn("read leaderboard", "err", err)
		entries = []domain.LeaderboardEntry{result.Entry}
	}
	result.Rank = RankOf(entries, result.Entry.Name)
	result.Participants = len(entries)
	session.storeResult(result)

	s.logger.Info("session completed", "session", sessionID, "name", view.Name, "score", score, "total", total,
		"rank", result.Rank, "participants", result.Participants)
	return result, nil
}

// Restart discards the session.
func (s *QuizService) Restart(_ context.Context, sessionID string) error {
	if _, ok := s.sessions.Get(sessionID); !ok {
		return domain.ErrSessionNotFound
	}
	s.sessions.Delete(sessionID)
	return nil
}

// Tags lists tag filter options for the setup form.
func (s *QuizService) Tags(ctx context.Context, topic string, difficulty domain.Difficulty) ([]string, error) {
	return Tags(ctx, s.questions, topic, difficulty)
}

// Leaderboard returns the top rows in display order. Read failures yield an empty board.
func (s *QuizService) Leaderboard(ctx context.Context, limit int) ([]domain.RankedEntry, error) {
	entries, err := s.leaderboard.All(ctx)
	if err != nil {
		s.logger.Warn("read leaderboard", "err", err)
		return []domain.RankedEntry{}, nil
	}
	return RankEntries(entries, limit), nil
}

func (s *QuizService) validateSetup(setup domain.SessionSetup) (domain.SessionSetup, error) {
	setup.Name = strings.TrimSpace(setup.Name)
	setup.Topic = strings.ToLower(strings.TrimSpace(setup.Topic))
	setup.Tag = strings.TrimSpace(setup.Tag)
	if setup.Tag == "" {
		setup.Tag = domain.TagAll
	}

	if setup.Name == "" {
		return setup, fmt.Errorf("%w: name is required", domain.ErrInvalidSetup)
	}
	if setup.Topic == "" {
		return setup, fmt.Errorf("%w: topic is required", domain.ErrInvalidSetup)
	}
	difficulty, err := domain.ParseDifficulty(string(setup.Difficulty))
	if err != nil {
		return setup, err
	}
	setup.Difficulty = difficulty
	if setup.QuestionCount <= 0 {
		return setup, fmt.Errorf("%w: question count must be positive", domain.ErrInvalidSetup)
	}
	if setup.TimeLimit <= 0 {
		return setup, fmt.Errorf("%w: time limit must be positive", domain.ErrInvalidSetup)
	}
	if s.minTimeLimit > 0 && setup.TimeLimit < s.minTimeLimit {
		return setup, fmt.Errorf("%w: time limit below %ds", domain.ErrInvalidSetup, s.minTimeLimit)
	}
	if s.maxTimeLimit > 0 && setup.TimeLimit > s.maxTimeLimit {
		return setup, fmt.Errorf("%w: time limit above %ds", domain.ErrInvalidSetup, s.maxTimeLimit)
	}
	return setup, nil
}
