package terminal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"quiz-chatbot/internal/app"
	"quiz-chatbot/internal/domain"
)

// Options are the prompts' fallbacks when the participant just presses enter.
type Options struct {
	Topics        []string
	QuestionCount int
	TimeLimit     int
}

// Shell plays quizzes over a line-oriented reader and writer.
type Shell struct {
	service *app.QuizService
	logger  *slog.Logger
	in      *bufio.Scanner
	out     io.Writer
	opts    Options
}

var errInputClosed = errors.New("input closed")

func NewShell(service *app.QuizService, logger *slog.Logger, in io.Reader, out io.Writer, opts Options) *Shell {
	return &Shell{
		service: service,
		logger:  logger,
		in:      bufio.NewScanner(in),
		out:     out,
		opts:    opts,
	}
}

// Run plays quizzes until the participant declines another round or input ends.
func (s *Shell) Run(ctx context.Context) error {
	s.printf("Welcome to the quiz!\n")
	for {
		err := s.playOnce(ctx)
		if errors.Is(err, errInputClosed) {
			return nil
		}
		if err != nil {
			return err
		}
		again, err := s.prompt("Play again? (y/N): ")
		if err != nil || !strings.HasPrefix(strings.ToLower(again), "y") {
			return nil
		}
	}
}

func (s *Shell) playOnce(ctx context.Context) error {
	setup, err := s.readSetup(ctx)
	if err != nil {
		return err
	}

	view, err := s.service.StartSession(ctx, setup)
	if errors.Is(err, domain.ErrInvalidSetup) {
		s.printf("%v\n", err)
		return nil
	}
	if err != nil {
		return err
	}
	defer func() {
		if err := s.service.Restart(context.WithoutCancel(ctx), view.ID); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
			s.logger.Warn("discard session", "session", view.ID, "err", err)
		}
	}()

	for _, notice := range view.Notices {
		s.printf("%s\n", notice)
	}
	if view.Total == 0 {
		s.printf("No questions to play. Try another topic, difficulty or tag.\n")
		return nil
	}

	for !view.Completed() {
		view, err = s.askCurrent(ctx, view)
		if err != nil {
			return err
		}
	}
	return s.finish(ctx, view)
}

func (s *Shell) readSetup(ctx context.Context) (domain.SessionSetup, error) {
	var setup domain.SessionSetup
	for setup.Name == "" {
		name, err := s.prompt("Enter your name: ")
		if err != nil {
			return setup, err
		}
		setup.Name = name
	}

	topicPrompt := "Topic: "
	if len(s.opts.Topics) > 0 {
		topicPrompt = fmt.Sprintf("Topic [%s] (default %s): ", strings.Join(s.opts.Topics, ", "), s.opts.Topics[0])
	}
	topic, err := s.prompt(topicPrompt)
	if err != nil {
		return setup, err
	}
	if topic == "" && len(s.opts.Topics) > 0 {
		topic = s.opts.Topics[0]
	}
	setup.Topic = strings.ToLower(topic)

	difficulty, err := s.prompt("Difficulty [easy, medium, hard] (default easy): ")
	if err != nil {
		return setup, err
	}
	if difficulty == "" {
		difficulty = string(domain.DifficultyEasy)
	}
	setup.Difficulty = domain.Difficulty(strings.ToLower(difficulty))

	setup.Tag = domain.TagAll
	if d, err := domain.ParseDifficulty(difficulty); err == nil {
		tags, err := s.service.Tags(ctx, setup.Topic, d)
		if err != nil {
			s.logger.Debug("list tags", "topic", setup.Topic, "err", err)
		}
		if len(tags) > 1 {
			tag, err := s.prompt(fmt.Sprintf("Tag [%s] (default %s): ", strings.Join(tags, ", "), domain.TagAll))
			if err != nil {
				return setup, err
			}
			if tag != "" {
				setup.Tag = tag
			}
		}
	}

	if setup.QuestionCount, err = s.promptInt(fmt.Sprintf("Number of questions (default %d): ", s.opts.QuestionCount), s.opts.QuestionCount); err != nil {
		return setup, err
	}
	if setup.TimeLimit, err = s.promptInt(fmt.Sprintf("Seconds per question (default %d): ", s.opts.TimeLimit), s.opts.TimeLimit); err != nil {
		return setup, err
	}
	return setup, nil
}

func (s *Shell) askCurrent(ctx context.Context, view domain.SessionView) (domain.SessionView, error) {
	q := view.Current
	s.printf("\nQuestion %d/%d: %s\n", q.Number, view.Total, q.Text)
	s.printf("Time remaining: %ds\n", view.RemainingSeconds)
	for i, opt := range q.Options {
		s.printf("  %d) %s\n", i+1, opt)
	}

	line, err := s.prompt("Your answer: ")
	if err != nil {
		return view, err
	}

	next, err := s.service.SubmitAnswer(ctx, view.ID, choiceAnswer(q, line))
	if err != nil {
		return view, err
	}
	record := next.LastRecord
	if record == nil {
		return next, nil
	}

	switch {
	case record.TimedOut():
		s.printf("Time's up!\n")
	case record.Correct:
		s.printf("Correct answer!\n")
	default:
		s.printf("Incorrect answer.\n")
	}
	if !record.Correct {
		s.printf("Correct Answer: %s\n", record.Question.Answer)
	}
	explanation := record.Question.Explanation
	if explanation == "" {
		explanation = "No explanation provided."
	}
	s.printf("Explanation: %s\n", explanation)

	if !next.AwaitingAdvance {
		return next, nil
	}
	return s.service.Advance(ctx, next.ID)
}

func (s *Shell) finish(ctx context.Context, view domain.SessionView) error {
	s.printf("\nQuiz Completed!\n%s, your final score is %d/%d.\n", view.Name, view.Score, view.Total)

	result, err := s.service.CompleteAndPersist(ctx, view.ID)
	if err != nil {
		if result.Entry.Name == "" {
			return err
		}
		s.logger.Warn("score not saved", "session", view.ID, "err", err)
		s.printf("Your score could not be saved.\n")
	}

	s.printf("\n%s\n", result.Feedback.Text())
	if result.Rank > 0 {
		s.printf("\nYou ranked #%d out of %d participants!\n", result.Rank, result.Participants)
	}

	board, err := s.service.Leaderboard(ctx, app.DefaultLeaderboardLimit)
	if err != nil {
		return err
	}
	PrintLeaderboard(s.out, board)
	return nil
}

// PrintLeaderboard writes ranked rows as "N. name score/total (topic)".
func PrintLeaderboard(w io.Writer, entries []domain.RankedEntry) {
	fmt.Fprintln(w, "\nLeaderboard")
	if len(entries) == 0 {
		fmt.Fprintln(w, "No scores yet.")
		return
	}
	for _, e := range entries {
		fmt.Fprintf(w, "%d. %s %d/%d (%s)\n", e.Rank, e.Name, e.Score, e.Total, e.Topic)
	}
}

// choiceAnswer maps an option number to its text; anything else is taken verbatim.
func choiceAnswer(q *domain.QuestionView, line string) string {
	if q.Kind != domain.KindChoice {
		return line
	}
	if n, err := strconv.Atoi(line); err == nil && n >= 1 && n <= len(q.Options) {
		return q.Options[n-1]
	}
	return line
}

func (s *Shell) prompt(label string) (string, error) {
	s.printf("%s", label)
	if !s.in.Scan() {
		if err := s.in.Err(); err != nil {
			return "", err
		}
		return "", errInputClosed
	}
	return strings.TrimSpace(s.in.Text()), nil
}

func (s *Shell) promptInt(label string, fallback int) (int, error) {
	for {
		raw, err := s.prompt(label)
		if err != nil {
			return 0, err
		}
		if raw == "" {
			return fallback, nil
		}
		n, err := strconv.Atoi(raw)
		if err == nil && n > 0 {
			return n, nil
		}
		s.printf("Please enter a positive number.\n")
	}
}

func (s *Shell) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}
