package domain

import (
	"fmt"
	"strings"
	"time"
)

// TagAll disables tag filtering.
const TagAll = "All"

// UntaggedLabel is used for weak-area tallies when a question carries no tag.
const UntaggedLabel = "Untagged"

// Kind distinguishes multiple-choice from free-text questions.
type Kind string

const (
	KindChoice   Kind = "choice"
	KindFreeText Kind = "free_text"
)

// Difficulty partitions question banks.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Difficulties lists the supported levels in ascending order.
var Difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

// ParseDifficulty accepts a case-insensitive difficulty name.
func ParseDifficulty(raw string) (Difficulty, error) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range Difficulties {
		if d == known {
			return d, nil
		}
	}
	return "", fmt.Errorf("%w: unknown difficulty %q", ErrInvalidSetup, raw)
}

// Question is an immutable question record as stored in a question bank.
type Question struct {
	Text        string     `json:"question"`
	Options     []string   `json:"options,omitempty"`
	Answer      string     `json:"answer"`
	Explanation string     `json:"explanation,omitempty"`
	Tag         string     `json:"tag,omitempty"`
	Difficulty  Difficulty `json:"difficulty,omitempty"`
}

// Kind is derived from the presence of options.
func (q Question) Kind() Kind {
	if len(q.Options) > 0 {
		return KindChoice
	}
	return KindFreeText
}

// Validate enforces that a choice question's answer is one of its options.
func (q Question) Validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return fmt.Errorf("question text is empty")
	}
	if q.Kind() != KindChoice {
		return nil
	}
	for _, opt := range q.Options {
		if opt == q.Answer {
			return nil
		}
	}
	return fmt.Errorf("answer %q is not one of the options of %q", q.Answer, q.Text)
}

// AnswerRecord is the outcome of one question. A nil Answer means the question timed out.
type AnswerRecord struct {
	Question Question `json:"question"`
	Answer   *string  `json:"answer"`
	Correct  bool     `json:"correct"`
	Tag      string   `json:"tag,omitempty"`
}

// TimedOut reports whether the record was synthesized on expiry.
func (r AnswerRecord) TimedOut() bool {
	return r.Answer == nil
}

// State of a quiz session.
type State string

const (
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
)

// Selector identifies which questions a session draws from.
type Selector struct {
	Topic      string
	Difficulty Difficulty
	Tag        string
}

// SessionSetup carries the parameters a shell collects before starting.
type SessionSetup struct {
	Name          string     `json:"name"`
	Topic         string     `json:"topic"`
	Difficulty    Difficulty `json:"difficulty"`
	Tag           string     `json:"tag"`
	QuestionCount int        `json:"questionCount"`
	TimeLimit     int        `json:"timeLimit"` // seconds
}

// Selector extracts the question selector from the setup.
func (s SessionSetup) Selector() Selector {
	return Selector{Topic: s.Topic, Difficulty: s.Difficulty, Tag: s.Tag}
}

// QuestionView is a question as shown to a participant, without its answer.
type QuestionView struct {
	Number  int      `json:"number"`
	Text    string   `json:"text"`
	Kind    Kind     `json:"kind"`
	Options []string `json:"options,omitempty"`
	Tag     string   `json:"tag,omitempty"`
}

// SessionView is an immutable snapshot of a session handed to shells.
type SessionView struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	Topic            string         `json:"topic"`
	Difficulty       Difficulty     `json:"difficulty"`
	Tag              string         `json:"tag"`
	State            State          `json:"state"`
	Index            int            `json:"index"`
	Total            int            `json:"total"`
	Score            int            `json:"score"`
	Current          *QuestionView  `json:"current,omitempty"`
	AwaitingAdvance  bool           `json:"awaitingAdvance"`
	LastRecord       *AnswerRecord  `json:"lastRecord,omitempty"`
	RemainingSeconds int            `json:"remainingSeconds"`
	TimeLimitSeconds int            `json:"timeLimitSeconds"`
	Notices          []string       `json:"notices,omitempty"`
	History          []AnswerRecord `json:"history"`
}

// Completed reports whether the session reached its terminal state.
func (v SessionView) Completed() bool {
	return v.State == StateCompleted
}

// LeaderboardEntry is one persisted quiz result.
type LeaderboardEntry struct {
	Name      string     `json:"name"`
	Score     int        `json:"score"`
	Total     int        `json:"total"`
	Topic     string     `json:"topic"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// RankedEntry is a leaderboard row in display order.
type RankedEntry struct {
	Rank int `json:"rank"`
	LeaderboardEntry
}

// FeedbackLevel bands a result.
type FeedbackLevel string

const (
	FeedbackNone          FeedbackLevel = "none"
	FeedbackPerfect       FeedbackLevel = "perfect"
	FeedbackGood          FeedbackLevel = "good"
	FeedbackFair          FeedbackLevel = "fair"
	FeedbackNeedsPractice FeedbackLevel = "needs_practice"
)

// TagMisses counts wrong answers for one tag.
type TagMisses struct {
	Tag    string `json:"tag"`
	Misses int    `json:"misses"`
}

// Feedback is the canned guidance shown after a run.
type Feedback struct {
	Level     FeedbackLevel `json:"level"`
	Message   string        `json:"message"`
	WeakAreas []TagMisses   `json:"weakAreas,omitempty"`
}

// Text renders the feedback as plain text.
func (f Feedback) Text() string {
	var b strings.Builder
	b.WriteString(f.Message)
	if len(f.WeakAreas) > 0 {
		b.WriteString("\nYou need to work on the following areas:")
		for _, area := range f.WeakAreas {
			fmt.Fprintf(&b, "\n- %s: %d incorrect", area.Tag, area.Misses)
		}
	}
	return b.String()
}

// Result summarizes a completed and persisted session.
type Result struct {
	Entry        LeaderboardEntry `json:"entry"`
	Rank         int              `json:"rank"`
	Participants int              `json:"participants"`
	Feedback     Feedback         `json:"feedback"`
}
