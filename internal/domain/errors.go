package domain

import "errors"

var (
	// ErrSessionNotFound is returned when a quiz session has not been started or was discarded.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrSourceNotFound indicates no question bank exists for the requested topic/difficulty.
	ErrSourceNotFound = errors.New("question source not found")
	// ErrSourceCorrupt indicates a question bank or leaderboard exists but could not be decoded.
	ErrSourceCorrupt = errors.New("question source corrupt")
	// ErrInsufficientQuestions signals that fewer questions were available than requested.
	ErrInsufficientQuestions = errors.New("insufficient questions")
	// ErrInvalidTransition is returned when an event arrives in a state that cannot accept it.
	ErrInvalidTransition = errors.New("invalid session transition")
	// ErrInvalidSetup rejects start requests with missing or out-of-range parameters.
	ErrInvalidSetup = errors.New("invalid quiz setup")
)
