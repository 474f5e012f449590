package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"quiz-chatbot/internal/app"
	"quiz-chatbot/internal/domain"
)

// RESTHandler exposes the quiz use cases as JSON endpoints.
type RESTHandler struct {
	service  *app.QuizService
	logger   *slog.Logger
	defaults Defaults
}

func NewRESTHandler(service *app.QuizService, logger *slog.Logger, defaults Defaults) *RESTHandler {
	return &RESTHandler{service: service, logger: logger, defaults: defaults}
}

func (h *RESTHandler) Routes(r chi.Router) {
	r.Get("/tags", h.handleTags)
	r.Get("/leaderboard", h.handleLeaderboard)
	r.Post("/sessions", h.handleStart)
	r.Route("/sessions/{id}", func(r chi.Router) {
		r.Get("/", h.handleView)
		r.Delete("/", h.handleRestart)
		r.Post("/answer", h.handleAnswer)
		r.Post("/next", h.handleNext)
		r.Post("/timeout", h.handleTimeout)
		r.Post("/complete", h.handleComplete)
	})
}

type answerRequest struct {
	Answer string `json:"answer"`
}

type completeResponse struct {
	domain.Result
	FeedbackText string `json:"feedbackText"`
	Warning      string `json:"warning,omitempty"`
}

func (h *RESTHandler) handleStart(w http.ResponseWriter, r *http.Request) {
	var setup domain.SessionSetup
	if err := readJSON(r, &setup); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	setup = h.withDefaults(setup)

	view, err := h.service.StartSession(r.Context(), setup)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (h *RESTHandler) handleView(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.View(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *RESTHandler) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	view, err := h.service.SubmitAnswer(r.Context(), chi.URLParam(r, "id"), strings.TrimSpace(req.Answer))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *RESTHandler) handleNext(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Advance(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *RESTHandler) handleTimeout(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.CheckTimeout(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *RESTHandler) handleComplete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	result, err := h.service.CompleteAndPersist(r.Context(), id)
	switch {
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrInvalidTransition):
		writeServiceError(w, err)
		return
	case err != nil:
		h.logger.Warn("score not saved", "session", id, "err", err)
		writeJSON(w, http.StatusOK, completeResponse{
			Result:       result,
			FeedbackText: result.Feedback.Text(),
			Warning:      "score could not be saved",
		})
		return
	}
	writeJSON(w, http.StatusOK, completeResponse{Result: result, FeedbackText: result.Feedback.Text()})
}

func (h *RESTHandler) handleRestart(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Restart(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RESTHandler) handleTags(w http.ResponseWriter, r *http.Request) {
	topic := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("topic")))
	if topic == "" {
		writeError(w, http.StatusBadRequest, "topic is required")
		return
	}
	difficulty, err := domain.ParseDifficulty(r.URL.Query().Get("difficulty"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	tags, err := h.service.Tags(r.Context(), topic, difficulty)
	if err != nil {
		h.logger.Warn("list tags", "topic", topic, "difficulty", difficulty, "err", err)
	}
	writeJSON(w, http.StatusOK, map[string][]string{"tags": tags})
}

func (h *RESTHandler) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := app.DefaultLeaderboardLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	entries, err := h.service.Leaderboard(r.Context(), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (h *RESTHandler) withDefaults(setup domain.SessionSetup) domain.SessionSetup {
	if setup.QuestionCount == 0 {
		setup.QuestionCount = h.defaults.QuestionCount
	}
	if setup.TimeLimit == 0 {
		setup.TimeLimit = h.defaults.TimeLimit
	}
	return setup
}
