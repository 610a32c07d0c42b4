package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"quizmaker-service/internal/app"
	"quizmaker-service/internal/domain"
)

type TestHandler struct {
	composer *app.TestComposer
}

func NewTestHandler(composer *app.TestComposer) *TestHandler {
	return &TestHandler{composer: composer}
}

type questionIDsRequest struct {
	QuestionIDs []int64 `json:"questionIds"`
}

type testDetailResponse struct {
	Test      domain.Test       `json:"test"`
	Questions []domain.Question `json:"questions"`
	Skipped   int               `json:"skipped"`
}

func (h *TestHandler) Create(c *gin.Context) {
	var in domain.TestInput
	if !bindJSON(c, &in) {
		return
	}
	t, err := h.composer.CreateTest(c.Request.Context(), in)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

// Get returns the test with its questions in position order.
func (h *TestHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	t, err := h.composer.GetTest(ctx, id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	content, err := h.composer.QuestionsOf(ctx, id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, testDetailResponse{Test: t, Questions: content.Questions, Skipped: content.Skipped})
}

func (h *TestHandler) List(c *gin.Context) {
	filter := domain.TestFilter{TagsAny: c.QueryArray("tag"), NameContains: c.Query("name")}
	tests, err := h.composer.ListTests(c.Request.Context(), filter)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, tests)
}

// UpdateMeta changes name, description and tags. questionIds in the body is ignored.
func (h *TestHandler) UpdateMeta(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var in domain.TestInput
	if !bindJSON(c, &in) {
		return
	}
	t, err := h.composer.UpdateMeta(c.Request.Context(), id, in)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *TestHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.composer.DeleteTest(c.Request.Context(), id); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *TestHandler) AddQuestions(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req questionIDsRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.composer.AddQuestions(c.Request.Context(), id, req.QuestionIDs); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *TestHandler) RemoveQuestions(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req questionIDsRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.composer.RemoveQuestions(c.Request.Context(), id, req.QuestionIDs); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
