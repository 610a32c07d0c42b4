package app

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"quizmaker-service/internal/domain"
)

// ScoreRecorder accepts the outcome of a saved session.
type ScoreRecorder interface {
	Record(ctx context.Context, respondent string, score int) error
}

// Leaderboard persists attempts and ranks respondents by cumulative score.
type Leaderboard struct {
	scores    ScoreRepository
	rankings  RankingSource
	publisher AttemptPublisher
	now       func() time.Time
	logger    *slog.Logger
}

// NewLeaderboard wires a leaderboard. publisher may be nil.
func NewLeaderboard(scores ScoreRepository, rankings RankingSource, publisher AttemptPublisher, logger *slog.Logger) *Leaderboard {
	return NewLeaderboardWithClock(scores, rankings, publisher, logger, time.Now)
}

// NewLeaderboardWithClock allows deterministic timestamps in tests.
func NewLeaderboardWithClock(scores ScoreRepository, rankings RankingSource, publisher AttemptPublisher, logger *slog.Logger, now func() time.Time) *Leaderboard {
	return &Leaderboard{
		scores:    scores,
		rankings:  rankings,
		publisher: publisher,
		now:       now,
		logger:    logger.With("component", "leaderboard"),
	}
}

// Record appends one attempt for respondent.
func (l *Leaderboard) Record(ctx context.Context, respondent string, score int) error {
	if strings.TrimSpace(respondent) == "" {
		return domain.NewValidationError("respondent", "is required", respondent)
	}
	if score < 0 {
		return domain.NewValidationError("score", "must not be negative", score)
	}

	attempt := domain.Attempt{Respondent: respondent, Score: score, RecordedAt: l.now().UTC()}
	if err := l.scores.AppendScore(ctx, attempt); err != nil {
		return err
	}
	l.logger.InfoContext(ctx, "attempt recorded", "respondent", respondent, "score", score)

	// The attempt is persisted; failures below are only logged.
	if inv, ok := l.rankings.(RankingInvalidator); ok {
		if err := inv.Invalidate(ctx); err != nil {
			l.logger.WarnContext(ctx, "rankings cache invalidation failed", "error", err)
		}
	}
	if l.publisher != nil {
		if err := l.publisher.PublishAttemptRecorded(ctx, attempt); err != nil {
			l.logger.WarnContext(ctx, "attempt event not published", "error", err)
		}
	}
	return nil
}

// Rankings returns respondents ordered by total score, ties by name.
func (l *Leaderboard) Rankings(ctx context.Context) ([]domain.RankingEntry, error) {
	return l.rankings.Rankings(ctx)
}

// Attempts lists every recorded attempt, oldest first.
func (l *Leaderboard) Attempts(ctx context.Context) ([]domain.Attempt, error) {
	return l.scores.ListAttempts(ctx)
}
