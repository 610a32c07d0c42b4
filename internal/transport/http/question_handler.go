package http

import (
	"bytes"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"quizmaker-service/internal/app"
	"quizmaker-service/internal/domain"
	"quizmaker-service/internal/spreadsheet"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type QuestionHandler struct {
	store  *app.QuestionStore
	logger *slog.Logger
}

func NewQuestionHandler(store *app.QuestionStore, logger *slog.Logger) *QuestionHandler {
	return &QuestionHandler{store: store, logger: logger}
}

func (h *QuestionHandler) Create(c *gin.Context) {
	var in domain.QuestionInput
	if !bindJSON(c, &in) {
		return
	}
	q, err := h.store.Create(c.Request.Context(), in)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, q)
}

func (h *QuestionHandler) Replace(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var in domain.QuestionInput
	if !bindJSON(c, &in) {
		return
	}
	q, err := h.store.Replace(c.Request.Context(), id, in)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

func (h *QuestionHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	q, err := h.store.Get(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

// List filters by repeated ?tag= (any match) and ?q= (text contains).
func (h *QuestionHandler) List(c *gin.Context) {
	filter := domain.QuestionFilter{TagsAny: c.QueryArray("tag"), TextContains: c.Query("q")}
	questions, err := h.store.List(c.Request.Context(), filter)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, questions)
}

func (h *QuestionHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.store.Delete(c.Request.Context(), id); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *QuestionHandler) Export(c *gin.Context) {
	questions, err := h.store.List(c.Request.Context(), domain.QuestionFilter{TagsAny: c.QueryArray("tag")})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	var buf bytes.Buffer
	if err := spreadsheet.ExportQuestions(&buf, questions); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="questions.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// Import reads an XLSX upload from the "file" form field.
func (h *QuestionHandler) Import(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "No file uploaded", Details: err.Error(), Code: "bad_request"})
		return
	}
	file, err := header.Open()
	if err != nil {
		handleServiceError(c, err)
		return
	}
	defer file.Close()

	result, err := spreadsheet.ImportQuestions(c.Request.Context(), file, h.store, h.logger)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
