package app

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"quizmaker-service/internal/domain"
)

// SessionService creates test sessions and routes respondent actions to them.
type SessionService struct {
	composer  *TestComposer
	questions *QuestionStore
	sessions  SessionRepository
	board     *Leaderboard
	newID     func() string
	logger    *slog.Logger
}

func NewSessionService(composer *TestComposer, questions *QuestionStore, sessions SessionRepository, board *Leaderboard, logger *slog.Logger) *SessionService {
	return &SessionService{
		composer:  composer,
		questions: questions,
		sessions:  sessions,
		board:     board,
		newID:     uuid.NewString,
		logger:    logger.With("component", "session_service"),
	}
}

// Begin starts administering a test. Tests without presentable questions
// are rejected with domain.ErrEmptyTest.
func (s *SessionService) Begin(ctx context.Context, testID int64) (*Session, error) {
	content, err := s.composer.QuestionsOf(ctx, testID)
	if err != nil {
		return nil, err
	}
	if len(content.Questions) == 0 {
		return nil, domain.ErrEmptyTest
	}
	session := NewSession(s.newID(), testID, content.Questions)
	s.sessions.Put(session)
	s.logger.InfoContext(ctx, "session started", "session_id", session.ID(), "test_id", testID, "questions", len(content.Questions))
	return session, nil
}

// BeginPractice starts a session holding a single question.
func (s *SessionService) BeginPractice(ctx context.Context, questionID int64) (*Session, error) {
	q, err := s.questions.Get(ctx, questionID)
	if err != nil {
		return nil, err
	}
	session := NewSession(s.newID(), 0, []domain.Question{q})
	s.sessions.Put(session)
	s.logger.InfoContext(ctx, "practice session started", "session_id", session.ID(), "question_id", questionID)
	return session, nil
}

func (s *SessionService) Get(id string) (*Session, error) {
	session, ok := s.sessions.Get(id)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// Submit grades a session's answers.
func (s *SessionService) Submit(ctx context.Context, id string, answers map[int64]domain.Answer) (domain.Result, error) {
	session, err := s.Get(id)
	if err != nil {
		return domain.Result{}, err
	}
	result, err := session.Submit(answers)
	if err != nil {
		return domain.Result{}, err
	}
	s.logger.InfoContext(ctx, "session graded", "session_id", id, "total", result.TotalScore, "max", result.MaxScore)
	return result, nil
}

// Save records a graded session on the leaderboard.
func (s *SessionService) Save(ctx context.Context, id, respondent string) error {
	session, err := s.Get(id)
	if err != nil {
		return err
	}
	return session.Save(ctx, s.board, respondent)
}

// Discard abandons a session and forgets it.
func (s *SessionService) Discard(ctx context.Context, id string) error {
	session, err := s.Get(id)
	if err != nil {
		return err
	}
	if err := session.Discard(); err != nil {
		return err
	}
	s.sessions.Delete(id)
	s.logger.InfoContext(ctx, "session discarded", "session_id", id)
	return nil
}
