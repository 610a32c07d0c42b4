package app

import (
	"context"
	"strings"
	"sync"
	"time"

	"quizmaker-service/internal/domain"
	"quizmaker-service/internal/grading"
)

// Session administers one ordered question set to one respondent.
// It moves administering -> graded -> saved, or to discarded at any point
// before saving. A session is single-use.
type Session struct {
	id        string
	testID    int64
	createdAt time.Time

	mu         sync.Mutex
	state      domain.SessionState
	questions  []domain.Question
	result     domain.Result
	respondent string
}

// NewSession starts administering questions. testID is zero for practice sessions.
func NewSession(id string, testID int64, questions []domain.Question) *Session {
	return NewSessionWithClock(id, testID, questions, time.Now)
}

// NewSessionWithClock allows deterministic timestamps in tests.
func NewSessionWithClock(id string, testID int64, questions []domain.Question, now func() time.Time) *Session {
	state := domain.StateAdministering
	if len(questions) == 0 {
		state = domain.StateSelecting
	}
	return &Session{
		id:        id,
		testID:    testID,
		createdAt: now(),
		state:     state,
		questions: append([]domain.Question(nil), questions...),
	}
}

func (s *Session) ID() string           { return s.id }
func (s *Session) TestID() int64        { return s.testID }
func (s *Session) CreatedAt() time.Time { return s.createdAt }

func (s *Session) State() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Questions returns the presented questions in order.
func (s *Session) Questions() []domain.Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Question(nil), s.questions...)
}

// Result returns the graded result once the session has been submitted.
func (s *Session) Result() (domain.Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case domain.StateGraded, domain.StateSaved:
		return s.result, true
	}
	return domain.Result{}, false
}

// Submit grades answers for every presented question exactly once.
func (s *Session) Submit(answers map[int64]domain.Answer) (domain.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case domain.StateAdministering:
	case domain.StateGraded, domain.StateSaved:
		return domain.Result{}, domain.ErrAlreadyGraded
	case domain.StateDiscarded:
		return domain.Result{}, domain.ErrSessionClosed
	default:
		return domain.Result{}, domain.ErrEmptyTest
	}

	s.result = grading.Score(s.questions, answers)
	s.state = domain.StateGraded
	return s.result, nil
}

// Save hands the graded total to recorder under respondent. Saving an
// already saved session is a no-op.
func (s *Session) Save(ctx context.Context, recorder ScoreRecorder, respondent string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case domain.StateGraded:
	case domain.StateSaved:
		return nil
	case domain.StateDiscarded:
		return domain.ErrSessionClosed
	default:
		return domain.ErrNotGraded
	}

	respondent = strings.TrimSpace(respondent)
	if respondent == "" {
		return domain.NewValidationError("respondent", "is required", respondent)
	}
	if err := recorder.Record(ctx, respondent, s.result.TotalScore); err != nil {
		return err
	}
	s.respondent = respondent
	s.state = domain.StateSaved
	return nil
}

// Discard abandons the session before it is saved. Discarding twice is a no-op.
func (s *Session) Discard() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case domain.StateSaved:
		return domain.ErrSessionClosed
	case domain.StateDiscarded:
		return nil
	}
	s.state = domain.StateDiscarded
	return nil
}

// Respondent returns the label the session was saved under.
func (s *Session) Respondent() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.respondent
}
