package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"quiz-chatbot/internal/domain"
)

// QuestionSource reads question banks from JSON files in a directory.
//
// Two layouts are recognised, checked in order:
//   - <dir>/<topic>_<difficulty>.json holds one difficulty; records without a
//     difficulty inherit it.
//   - <dir>/<topic>_questions.json holds every difficulty of a topic.
type QuestionSource struct {
	dir    string
	logger *slog.Logger
}

func NewQuestionSource(dir string, logger *slog.Logger) *QuestionSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &QuestionSource{dir: dir, logger: logger}
}

func (s *QuestionSource) LoadBank(_ context.Context, topic string, difficulty domain.Difficulty) ([]domain.Question, error) {
	if !validName(topic) || !validName(string(difficulty)) {
		return nil, fmt.Errorf("%w: %q/%q", domain.ErrSourceNotFound, topic, difficulty)
	}

	partitioned := filepath.Join(s.dir, fmt.Sprintf("%s_%s.json", topic, difficulty))
	questions, err := s.readBank(partitioned)
	if err == nil {
		for i := range questions {
			if questions[i].Difficulty == "" {
				questions[i].Difficulty = difficulty
			}
		}
		return questions, nil
	}
	if !errors.Is(err, domain.ErrSourceNotFound) {
		return nil, err
	}

	return s.readBank(filepath.Join(s.dir, fmt.Sprintf("%s_questions.json", topic)))
}

func (s *QuestionSource) readBank(path string) ([]domain.Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrSourceNotFound, path)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var raw []domain.Question
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrSourceCorrupt, path, err)
	}

	questions := make([]domain.Question, 0, len(raw))
	for i, q := range raw {
		if err := q.Validate(); err != nil {
			s.logger.Warn("skipping invalid question", "file", path, "index", i, "err", err)
			continue
		}
		if q.Difficulty != "" {
			d, err := domain.ParseDifficulty(string(q.Difficulty))
			if err != nil {
				s.logger.Warn("skipping question with unknown difficulty", "file", path, "index", i, "err", err)
				continue
			}
			q.Difficulty = d
		}
		questions = append(questions, q)
	}
	s.logger.Debug("loaded question bank", "file", path, "total", len(raw), "valid", len(questions))
	return questions, nil
}

func validName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && !strings.Contains(name, "..")
}
