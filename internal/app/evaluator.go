package app

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"quiz-chatbot/internal/domain"
)

// SimilarityThreshold is the exclusive lower bound a free-text answer must beat.
const SimilarityThreshold = 80

// Similarity scores two strings from 0 (unrelated) to 100 (identical).
type Similarity func(a, b string) int

// Similarity names accepted by SimilarityByName.
const (
	SimilarityRatio       = "ratio"
	SimilarityLevenshtein = "levenshtein"
)

// Ratio is the indel similarity 2*M/T, where M is the longest common subsequence
// and T the combined rune count, scaled to 0..100 and rounded.
func Ratio(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 100
	}
	return int(math.Round(100 * float64(2*lcsLength(ra, rb)) / float64(total)))
}

func lcsLength(a, b []rune) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				curr[j] = prev[j-1] + 1
			case prev[j] >= curr[j-1]:
				curr[j] = prev[j]
			default:
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// SimilarityByName resolves a configured similarity; "" means Ratio.
func SimilarityByName(name string) (Similarity, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", SimilarityRatio:
		return Ratio, nil
	case SimilarityLevenshtein:
		return LevenshteinRatio, nil
	default:
		return nil, fmt.Errorf("unknown similarity %q", name)
	}
}

// LevenshteinRatio normalizes edit distance by the longer string's rune count.
func LevenshteinRatio(a, b string) int {
	longest := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > longest {
		longest = n
	}
	if longest == 0 {
		return 100
	}
	dist := levenshtein.ComputeDistance(a, b)
	return int(math.Round(100 * float64(longest-dist) / float64(longest)))
}

// Evaluator decides whether a submitted answer is correct.
type Evaluator struct {
	similarity Similarity
}

// NewEvaluator uses Ratio when similarity is nil.
func NewEvaluator(similarity Similarity) *Evaluator {
	if similarity == nil {
		similarity = Ratio
	}
	return &Evaluator{similarity: similarity}
}

// IsCorrect compares choice answers verbatim and free-text answers fuzzily.
// A nil answer is a timeout and is never correct.
func (e *Evaluator) IsCorrect(q domain.Question, answer *string) bool {
	if answer == nil {
		return false
	}
	if q.Kind() == domain.KindChoice {
		return *answer == q.Answer
	}
	return e.similarity(strings.ToLower(*answer), strings.ToLower(q.Answer)) > SimilarityThreshold
}
