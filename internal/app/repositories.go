package app

import (
	"context"

	"quizmaker-service/internal/domain"
)

// QuestionRepository persists questions. DeleteQuestion must remove the
// question and every membership that references it in one transaction.
type QuestionRepository interface {
	InsertQuestion(ctx context.Context, q domain.Question) (domain.Question, error)
	ReplaceQuestion(ctx context.Context, q domain.Question) error
	GetQuestion(ctx context.Context, id int64) (domain.Question, error)
	GetQuestions(ctx context.Context, ids []int64) (map[int64]domain.Question, error)
	ListQuestions(ctx context.Context) ([]domain.Question, error)
	DeleteQuestion(ctx context.Context, id int64) error
}

// TestRepository persists tests and their ordered memberships.
// InsertTest, AppendQuestions and DeleteTest are each atomic.
type TestRepository interface {
	InsertTest(ctx context.Context, t domain.Test, questionIDs []int64) (domain.Test, error)
	UpdateTest(ctx context.Context, t domain.Test) error
	GetTest(ctx context.Context, id int64) (domain.Test, error)
	ListTests(ctx context.Context) ([]domain.Test, error)
	DeleteTest(ctx context.Context, id int64) error
	AppendQuestions(ctx context.Context, testID int64, questionIDs []int64) error
	RemoveQuestions(ctx context.Context, testID int64, questionIDs []int64) error
	Memberships(ctx context.Context, testID int64) ([]domain.Membership, error)
}

// ScoreRepository appends attempts and lists them in recording order.
type ScoreRepository interface {
	AppendScore(ctx context.Context, attempt domain.Attempt) error
	ListAttempts(ctx context.Context) ([]domain.Attempt, error)
}

// RankingSource produces the sorted leaderboard (store, loader or cache).
type RankingSource interface {
	Rankings(ctx context.Context) ([]domain.RankingEntry, error)
}

// RankingInvalidator is implemented by ranking caches that must be dropped
// after a new attempt is recorded.
type RankingInvalidator interface {
	Invalidate(ctx context.Context) error
}

// AttemptPublisher announces recorded attempts to other systems.
type AttemptPublisher interface {
	PublishAttemptRecorded(ctx context.Context, attempt domain.Attempt) error
}

// SessionRepository abstracts where live sessions are kept (in-memory, Redis, etc).
type SessionRepository interface {
	Put(session *Session)
	Get(id string) (*Session, bool)
	Delete(id string)
}
