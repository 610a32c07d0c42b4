package http

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"

	"quizmaker-service/internal/app"
	"quizmaker-service/internal/spreadsheet"
)

type LeaderboardHandler struct {
	board *app.Leaderboard
}

func NewLeaderboardHandler(board *app.Leaderboard) *LeaderboardHandler {
	return &LeaderboardHandler{board: board}
}

func (h *LeaderboardHandler) Rankings(c *gin.Context) {
	rankings, err := h.board.Rankings(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, rankings)
}

func (h *LeaderboardHandler) Attempts(c *gin.Context) {
	attempts, err := h.board.Attempts(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, attempts)
}

func (h *LeaderboardHandler) Export(c *gin.Context) {
	ctx := c.Request.Context()
	rankings, err := h.board.Rankings(ctx)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	attempts, err := h.board.Attempts(ctx)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	var buf bytes.Buffer
	if err := spreadsheet.ExportLeaderboard(&buf, rankings, attempts); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="leaderboard.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
