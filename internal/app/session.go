package app

import (
	"fmt"
	"sync"
	"time"

	"quiz-chatbot/internal/domain"
)

// Session is one participant's run through a fixed list of questions.
// Expiry is evaluated against the injected clock whenever an event arrives.
type Session struct {
	id        string
	setup     domain.SessionSetup
	questions []domain.Question
	timeLimit time.Duration
	evaluator *Evaluator
	now       func() time.Time

	mu       sync.Mutex
	index    int
	score    int
	history  []domain.AnswerRecord
	deadline time.Time
	state    domain.State
	notices  []string
	result   *domain.Result
}

// NewSession starts the countdown for the first question immediately.
func NewSession(id string, setup domain.SessionSetup, questions []domain.Question, evaluator *Evaluator) *Session {
	return NewSessionWithClock(id, setup, questions, evaluator, time.Now)
}

// NewSessionWithClock allows deterministic deadlines in tests.
func NewSessionWithClock(id string, setup domain.SessionSetup, questions []domain.Question, evaluator *Evaluator, now func() time.Time) *Session {
	if evaluator == nil {
		evaluator = NewEvaluator(nil)
	}
	s := &Session{
		id:        id,
		setup:     setup,
		questions: questions,
		timeLimit: time.Duration(setup.TimeLimit) * time.Second,
		evaluator: evaluator,
		now:       now,
		history:   make([]domain.AnswerRecord, 0, len(questions)),
		state:     domain.StateInProgress,
	}
	s.deadline = now().Add(s.timeLimit)
	if len(questions) == 0 {
		s.state = domain.StateCompleted
	}
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Submit records an answer for the current question without advancing.
// A submission after the deadline is converted into a timeout, which also advances.
func (s *Session) Submit(answer string) (domain.AnswerRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != domain.StateInProgress {
		return domain.AnswerRecord{}, fmt.Errorf("%w: session already completed", domain.ErrInvalidTransition)
	}
	if s.answeredLocked() {
		return domain.AnswerRecord{}, fmt.Errorf("%w: question %d already answered", domain.ErrInvalidTransition, s.index+1)
	}
	if s.expiredLocked() {
		return s.timeoutLocked(), nil
	}

	q := s.questions[s.index]
	record := domain.AnswerRecord{
		Question: q,
		Answer:   &answer,
		Correct:  s.evaluator.IsCorrect(q, &answer),
		Tag:      q.Tag,
	}
	s.history = append(s.history, record)
	if record.Correct {
		s.score++
	}
	return record, nil
}

// Advance moves to the next question once the current one is answered or expired.
func (s *Session) Advance() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != domain.StateInProgress {
		return fmt.Errorf("%w: session already completed", domain.ErrInvalidTransition)
	}
	if !s.answeredLocked() {
		if !s.expiredLocked() {
			return fmt.Errorf("%w: question %d not answered yet", domain.ErrInvalidTransition, s.index+1)
		}
		s.timeoutLocked()
		return nil
	}
	s.advanceLocked()
	return nil
}

// CheckTimeout applies the timeout transition if the current question expired unanswered.
// It reports whether a transition happened; repeated calls are no-ops.
func (s *Session) CheckTimeout() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != domain.StateInProgress || s.answeredLocked() || !s.expiredLocked() {
		return false
	}
	s.timeoutLocked()
	return true
}

// Remaining is the time left on the current question, never negative.
func (s *Session) Remaining() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remainingLocked()
}

// Completed reports whether every question has been answered or timed out.
func (s *Session) Completed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == domain.StateCompleted
}

// Notice attaches a message shown with the next snapshots.
func (s *Session) Notice(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notices = append(s.notices, msg)
}

// Snapshot returns an immutable view of the session.
func (s *Session) Snapshot() domain.SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := domain.SessionView{
		ID:               s.id,
		Name:             s.setup.Name,
		Topic:            s.setup.Topic,
		Difficulty:       s.setup.Difficulty,
		Tag:              s.setup.Tag,
		State:            s.state,
		Index:            s.index,
		Total:            len(s.questions),
		Score:            s.score,
		TimeLimitSeconds: s.setup.TimeLimit,
		History:          append([]domain.AnswerRecord(nil), s.history...),
	}
	if len(s.notices) > 0 {
		view.Notices = append([]string(nil), s.notices...)
	}
	if len(s.history) > 0 {
		last := s.history[len(s.history)-1]
		view.LastRecord = &last
	}
	if s.state == domain.StateInProgress {
		q := s.questions[s.index]
		view.Current = &domain.QuestionView{
			Number:  s.index + 1,
			Text:    q.Text,
			Kind:    q.Kind(),
			Options: append([]string(nil), q.Options...),
			Tag:     q.Tag,
		}
		view.AwaitingAdvance = s.answeredLocked()
		view.RemainingSeconds = int(s.remainingLocked() / time.Second)
	}
	return view
}

// outcome returns score, total and the wrong records for feedback.
func (s *Session) outcome() (int, int, []domain.AnswerRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	wrong := make([]domain.AnswerRecord, 0)
	for _, record := range s.history {
		if !record.Correct {
			wrong = append(wrong, record)
		}
	}
	return s.score, len(s.questions), wrong
}

func (s *Session) cachedResult() (domain.Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return domain.Result{}, false
	}
	return *s.result, true
}

func (s *Session) storeResult(result domain.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.result = &result
}

func (s *Session) answeredLocked() bool {
	return len(s.history) > s.index
}

func (s *Session) expiredLocked() bool {
	return !s.now().Before(s.deadline)
}

func (s *Session) remainingLocked() time.Duration {
	remaining := s.deadline.Sub(s.now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (s *Session) timeoutLocked() domain.AnswerRecord {
	q := s.questions[s.index]
	record := domain.AnswerRecord{Question: q, Tag: q.Tag}
	s.history = append(s.history, record)
	s.advanceLocked()
	return record
}

func (s *Session) advanceLocked() {
	s.index++
	s.deadline = s.now().Add(s.timeLimit)
	if s.index >= len(s.questions) {
		s.index = len(s.questions)
		s.state = domain.StateCompleted
	}
}
