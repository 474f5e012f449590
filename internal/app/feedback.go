package app

import (
	"sort"

	"quiz-chatbot/internal/domain"
)

// Percentage breakpoints for non-perfect results.
const (
	GoodPercent = 70
	FairPercent = 40
)

// BuildFeedback bands a result and tallies wrong answers per tag.
func BuildFeedback(score, total int, wrong []domain.AnswerRecord) domain.Feedback {
	if total <= 0 {
		return domain.Feedback{Level: domain.FeedbackNone, Message: "No questions attempted."}
	}

	var fb domain.Feedback
	switch pct := score * 100 / total; {
	case score == total:
		fb = domain.Feedback{
			Level:   domain.FeedbackPerfect,
			Message: "Incredible! You got a perfect score! Your basics are rock solid. Keep up the amazing work!",
		}
	case pct >= GoodPercent:
		fb = domain.Feedback{Level: domain.FeedbackGood, Message: "Good job! But you can improve further."}
	case pct >= FairPercent:
		fb = domain.Feedback{Level: domain.FeedbackFair, Message: "Fair effort. Practice those topics again, you're improving!"}
	default:
		fb = domain.Feedback{Level: domain.FeedbackNeedsPractice, Message: "You need to work on key topics. Keep practicing!"}
	}
	fb.WeakAreas = WeakAreas(wrong)
	return fb
}

// WeakAreas counts misses per tag, most missed first, ties in first-seen order.
func WeakAreas(wrong []domain.AnswerRecord) []domain.TagMisses {
	if len(wrong) == 0 {
		return nil
	}
	index := make(map[string]int)
	areas := make([]domain.TagMisses, 0)
	for _, record := range wrong {
		tag := record.Tag
		if tag == "" {
			tag = domain.UntaggedLabel
		}
		if i, ok := index[tag]; ok {
			areas[i].Misses++
			continue
		}
		index[tag] = len(areas)
		areas = append(areas, domain.TagMisses{Tag: tag, Misses: 1})
	}
	sort.SliceStable(areas, func(i, j int) bool {
		return areas[i].Misses > areas[j].Misses
	})
	return areas
}
