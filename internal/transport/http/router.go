package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"quizmaker-service/internal/app"
	"quizmaker-service/internal/logging"
)

// Services bundles what the router exposes.
type Services struct {
	Questions   *app.QuestionStore
	Composer    *app.TestComposer
	Sessions    *app.SessionService
	Leaderboard *app.Leaderboard
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(svc Services, logger *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), logging.RequestLogger(logger))

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	questions := NewQuestionHandler(svc.Questions, logger)
	q := r.Group("/questions")
	q.POST("", questions.Create)
	q.GET("", questions.List)
	q.GET("/export", questions.Export)
	q.POST("/import", questions.Import)
	q.GET("/:id", questions.Get)
	q.PUT("/:id", questions.Replace)
	q.DELETE("/:id", questions.Delete)

	tests := NewTestHandler(svc.Composer)
	t := r.Group("/tests")
	t.POST("", tests.Create)
	t.GET("", tests.List)
	t.GET("/:id", tests.Get)
	t.PUT("/:id", tests.UpdateMeta)
	t.DELETE("/:id", tests.Delete)
	t.POST("/:id/questions", tests.AddQuestions)
	t.DELETE("/:id/questions", tests.RemoveQuestions)

	sessions := NewSessionHandler(svc.Sessions)
	s := r.Group("/sessions")
	s.POST("", sessions.Begin)
	s.GET("/:id", sessions.Get)
	s.POST("/:id/submit", sessions.Submit)
	s.POST("/:id/save", sessions.Save)
	s.DELETE("/:id", sessions.Discard)

	board := NewLeaderboardHandler(svc.Leaderboard)
	r.GET("/leaderboard", board.Rankings)
	r.GET("/leaderboard/attempts", board.Attempts)
	r.GET("/leaderboard/export", board.Export)

	ws := NewWSHandler(svc.Sessions, logger)
	r.GET("/ws", gin.WrapF(ws.ServeWS))
	return r
}
