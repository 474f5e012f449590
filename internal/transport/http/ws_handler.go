package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"quiz-chatbot/internal/app"
	"quiz-chatbot/internal/domain"
)

// WSHandler runs one quiz session per websocket connection.
type WSHandler struct {
	service  *app.QuizService
	logger   *slog.Logger
	defaults Defaults
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService, logger *slog.Logger, defaults Defaults) *WSHandler {
	return &WSHandler{
		service:  service,
		logger:   logger,
		defaults: defaults,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type noticePayload struct {
	Message string `json:"message"`
}

type resultPayload struct {
	domain.Result
	FeedbackText string `json:"feedbackText"`
}

// wsConn tracks the session bound to one connection.
type wsConn struct {
	h         *WSHandler
	conn      *websocket.Conn
	sessionID string
}

// ServeWS upgrades HTTP requests to websockets and drives the session event handlers.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	c := &wsConn{h: h, conn: conn}
	ctx := r.Context()
	defer c.discard(context.WithoutCancel(ctx))

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug("ws read", "err", err)
			}
			return
		}
		if err := c.handle(ctx, inbound); err != nil {
			h.logger.Warn("ws write", "err", err)
			return
		}
	}
}

// handle processes one inbound event to completion; only write failures are returned.
func (c *wsConn) handle(ctx context.Context, msg inboundMessage) error {
	switch msg.Type {
	case "start":
		var setup domain.SessionSetup
		if err := json.Unmarshal(msg.Payload, &setup); err != nil {
			return c.sendError("invalid start payload")
		}
		if setup.QuestionCount == 0 {
			setup.QuestionCount = c.h.defaults.QuestionCount
		}
		if setup.TimeLimit == 0 {
			setup.TimeLimit = c.h.defaults.TimeLimit
		}
		c.discard(ctx)
		view, err := c.h.service.StartSession(ctx, setup)
		if err != nil {
			return c.sendServiceError(err)
		}
		c.sessionID = view.ID
		return c.sendView(ctx, view)
	case "answer":
		var payload answerRequest
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return c.sendError("invalid answer payload")
		}
		if c.sessionID == "" {
			return c.sendError("no active session")
		}
		view, err := c.h.service.SubmitAnswer(ctx, c.sessionID, strings.TrimSpace(payload.Answer))
		if err != nil {
			return c.sendServiceError(err)
		}
		return c.sendView(ctx, view)
	case "next":
		if c.sessionID == "" {
			return c.sendError("no active session")
		}
		view, err := c.h.service.Advance(ctx, c.sessionID)
		if err != nil {
			return c.sendServiceError(err)
		}
		return c.sendView(ctx, view)
	case "tick":
		if c.sessionID == "" {
			return c.sendError("no active session")
		}
		view, err := c.h.service.CheckTimeout(ctx, c.sessionID)
		if err != nil {
			return c.sendServiceError(err)
		}
		return c.sendView(ctx, view)
	case "restart":
		c.discard(ctx)
		return c.send("notice", noticePayload{Message: "Session discarded. Start a new quiz when ready."})
	default:
		return c.sendError("unsupported message type")
	}
}

// sendView writes the state and, once the run is over, persists it and writes the result.
func (c *wsConn) sendView(ctx context.Context, view domain.SessionView) error {
	if err := c.send("state", view); err != nil {
		return err
	}
	if !view.Completed() || view.Total == 0 {
		return nil
	}

	result, err := c.h.service.CompleteAndPersist(ctx, view.ID)
	switch {
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrInvalidTransition):
		return c.sendServiceError(err)
	case err != nil:
		c.h.logger.Warn("score not saved", "session", view.ID, "err", err)
		if err := c.send("notice", noticePayload{Message: "Your score could not be saved."}); err != nil {
			return err
		}
	}
	return c.send("result", resultPayload{Result: result, FeedbackText: result.Feedback.Text()})
}

func (c *wsConn) discard(ctx context.Context) {
	if c.sessionID == "" {
		return
	}
	if err := c.h.service.Restart(ctx, c.sessionID); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
		c.h.logger.Warn("discard session", "session", c.sessionID, "err", err)
	}
	c.sessionID = ""
}

func (c *wsConn) send(typ string, payload any) error {
	return c.conn.WriteJSON(outboundMessage{Type: typ, Payload: payload})
}

func (c *wsConn) sendError(msg string) error {
	return c.send("error", errorPayload{Message: msg})
}

func (c *wsConn) sendServiceError(err error) error {
	if statusFor(err) == http.StatusInternalServerError {
		c.h.logger.Error("ws event", "err", err)
		return c.sendError("internal error")
	}
	return c.sendError(err.Error())
}
