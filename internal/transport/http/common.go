// Package http exposes the quiz services over a gin JSON API and a
// WebSocket one-pass administration flow.
package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"quizmaker-service/internal/domain"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// PresentedQuestion is what a respondent sees: the correctness key is omitted.
type PresentedQuestion struct {
	ID      int64               `json:"id"`
	Text    string              `json:"text"`
	Type    domain.QuestionType `json:"type"`
	Choices []string            `json:"choices"`
	Points  int                 `json:"points"`
}

func present(questions []domain.Question) []PresentedQuestion {
	out := make([]PresentedQuestion, len(questions))
	for i, q := range questions {
		out[i] = PresentedQuestion{ID: q.ID, Text: q.Text, Type: q.Type, Choices: q.Choices, Points: q.Points}
	}
	return out
}

// statusFor maps service errors onto HTTP status codes and error codes.
func statusFor(err error) (int, string) {
	switch {
	case domain.IsValidation(err):
		return http.StatusBadRequest, "validation_failed"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrEmptyTest):
		return http.StatusUnprocessableEntity, "empty_test"
	case errors.Is(err, domain.ErrAlreadyGraded),
		errors.Is(err, domain.ErrNotGraded),
		errors.Is(err, domain.ErrSessionClosed):
		return http.StatusConflict, "session_conflict"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func handleServiceError(c *gin.Context, err error) {
	status, code := statusFor(err)
	resp := ErrorResponse{Message: err.Error(), Code: code}
	var ve domain.ValidationErrors
	if errors.As(err, &ve) {
		resp.Message = "Validation failed"
		resp.Details = ve
	}
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		resp.Message = "Internal server error"
	}
	c.JSON(status, resp)
}

func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
			Code:    "bad_request",
		})
		return false
	}
	return true
}

// parseIDParam writes a 400 and returns false when the path id is not a positive integer.
func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + name,
			Details: c.Param(name),
			Code:    "bad_request",
		})
		return 0, false
	}
	return id, true
}
