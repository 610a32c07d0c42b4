package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"quizmaker-service/internal/app"
	"quizmaker-service/internal/domain"
)

type SessionHandler struct {
	service *app.SessionService
}

func NewSessionHandler(service *app.SessionService) *SessionHandler {
	return &SessionHandler{service: service}
}

// beginRequest selects either a test or a single practice question.
type beginRequest struct {
	TestID     int64 `json:"testId"`
	QuestionID int64 `json:"questionId"`
}

type sessionResponse struct {
	SessionID  string              `json:"sessionId"`
	TestID     int64               `json:"testId,omitempty"`
	State      domain.SessionState `json:"state"`
	Questions  []PresentedQuestion `json:"questions"`
	Result     *domain.Result      `json:"result,omitempty"`
	Respondent string              `json:"respondent,omitempty"`
}

type submitRequest struct {
	Answers map[int64]domain.Answer `json:"answers"`
}

type saveRequest struct {
	Respondent string `json:"respondent"`
}

func newSessionResponse(s *app.Session) sessionResponse {
	resp := sessionResponse{
		SessionID:  s.ID(),
		TestID:     s.TestID(),
		State:      s.State(),
		Questions:  present(s.Questions()),
		Respondent: s.Respondent(),
	}
	if result, ok := s.Result(); ok {
		resp.Result = &result
	}
	return resp
}

func (h *SessionHandler) Begin(c *gin.Context) {
	var req beginRequest
	if !bindJSON(c, &req) {
		return
	}
	var (
		session *app.Session
		err     error
	)
	switch {
	case req.TestID > 0 && req.QuestionID > 0:
		handleServiceError(c, domain.NewValidationError("testId", "give either testId or questionId", req.TestID))
		return
	case req.TestID > 0:
		session, err = h.service.Begin(c.Request.Context(), req.TestID)
	case req.QuestionID > 0:
		session, err = h.service.BeginPractice(c.Request.Context(), req.QuestionID)
	default:
		handleServiceError(c, domain.NewValidationError("testId", "testId or questionId is required", nil))
		return
	}
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newSessionResponse(session))
}

func (h *SessionHandler) Get(c *gin.Context) {
	session, err := h.service.Get(c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, newSessionResponse(session))
}

func (h *SessionHandler) Submit(c *gin.Context) {
	var req submitRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.service.Submit(c.Request.Context(), c.Param("id"), req.Answers)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *SessionHandler) Save(c *gin.Context) {
	var req saveRequest
	if !bindJSON(c, &req) {
		return
	}
	id := c.Param("id")
	if err := h.service.Save(c.Request.Context(), id, req.Respondent); err != nil {
		handleServiceError(c, err)
		return
	}
	session, err := h.service.Get(id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, newSessionResponse(session))
}

func (h *SessionHandler) Discard(c *gin.Context) {
	if err := h.service.Discard(c.Request.Context(), c.Param("id")); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
