package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"

	"quizmaker-service/internal/app"
	"quizmaker-service/internal/domain"
)

// WSHandler administers one session per connection:
// questions -> submit -> graded -> save -> saved, or discard at any point before saving.
type WSHandler struct {
	service  *app.SessionService
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.SessionService, logger *slog.Logger) *WSHandler {
	return &WSHandler{
		service: service,
		logger:  logger,
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

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type questionsPayload struct {
	SessionID string              `json:"sessionId"`
	TestID    int64               `json:"testId,omitempty"`
	Questions []PresentedQuestion `json:"questions"`
}

type savedPayload struct {
	Respondent string `json:"respondent"`
	TotalScore int    `json:"totalScore"`
}

// ServeWS upgrades the request and starts a session for ?testId= or ?questionId=.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	testID, _ := strconv.ParseInt(r.URL.Query().Get("testId"), 10, 64)
	questionID, _ := strconv.ParseInt(r.URL.Query().Get("questionId"), 10, 64)
	if (testID > 0) == (questionID > 0) {
		http.Error(w, "exactly one of testId or questionId is required", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	session, err := h.begin(ctx, testID, questionID)
	if err != nil {
		_ = conn.WriteJSON(errorMessage(err))
		return
	}

	out := newOutbox(8)
	go func() {
		defer close(out.done)
		for msg := range out.queue {
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.Warn("ws write error", "session_id", session.ID(), "error", err)
				// unblock the reader as well
				_ = conn.Close()
				return
			}
		}
	}()
	defer func() {
		close(out.queue)
		<-out.done
	}()

	if out.send(outboundMessage[any]{Type: "questions", Payload: questionsPayload{
		SessionID: session.ID(),
		TestID:    session.TestID(),
		Questions: present(session.Questions()),
	}}) {
		for h.handle(ctx, conn, session, out) {
		}
	}

	// a connection dropped before saving abandons its session
	if state := session.State(); state != domain.StateSaved && state != domain.StateDiscarded {
		if err := h.service.Discard(context.WithoutCancel(ctx), session.ID()); err != nil {
			h.logger.Debug("discard on disconnect", "session_id", session.ID(), "error", err)
		}
	}
}

// handle serves one inbound message. It returns false once the connection
// or the session is finished.
func (h *WSHandler) handle(ctx context.Context, conn *websocket.Conn, session *app.Session, out *outbox) bool {
	var inbound inboundMessage
	if err := conn.ReadJSON(&inbound); err != nil {
		return false
	}
	switch inbound.Type {
	case "submit":
		var payload submitRequest
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return out.send(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid submit payload", Code: "bad_request"}})
		}
		result, err := h.service.Submit(ctx, session.ID(), payload.Answers)
		if err != nil {
			return out.send(errorMessage(err))
		}
		return out.send(outboundMessage[any]{Type: "graded", Payload: result})
	case "save":
		var payload saveRequest
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return out.send(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid save payload", Code: "bad_request"}})
		}
		if err := h.service.Save(ctx, session.ID(), payload.Respondent); err != nil {
			return out.send(errorMessage(err))
		}
		result, _ := session.Result()
		return out.send(outboundMessage[any]{Type: "saved", Payload: savedPayload{
			Respondent: session.Respondent(),
			TotalScore: result.TotalScore,
		}})
	case "discard":
		if err := h.service.Discard(ctx, session.ID()); err != nil {
			return out.send(errorMessage(err))
		}
		out.send(outboundMessage[any]{Type: "discarded", Payload: struct{}{}})
		return false
	default:
		return out.send(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type", Code: "bad_request"}})
	}
}

// outbox queues messages for the connection's writer goroutine.
type outbox struct {
	queue chan outboundMessage[any]
	done  chan struct{}
}

func newOutbox(size int) *outbox {
	return &outbox{queue: make(chan outboundMessage[any], size), done: make(chan struct{})}
}

// send reports false when the writer has stopped and msg was dropped.
func (o *outbox) send(msg outboundMessage[any]) bool {
	select {
	case o.queue <- msg:
		return true
	case <-o.done:
		return false
	}
}

func (h *WSHandler) begin(ctx context.Context, testID, questionID int64) (*app.Session, error) {
	if testID > 0 {
		return h.service.Begin(ctx, testID)
	}
	return h.service.BeginPractice(ctx, questionID)
}

func errorMessage(err error) outboundMessage[any] {
	_, code := statusFor(err)
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error(), Code: code}}
}
