package memory

import (
	"context"
	"sort"
	"sync"

	"quizmaker-service/internal/domain"
)

// Store keeps questions, tests, memberships and attempts in process memory.
// Every method holds a single lock, so cascades are atomic.
type Store struct {
	mu             sync.RWMutex
	lastQuestionID int64
	lastTestID     int64
	questions      map[int64]domain.Question
	tests          map[int64]domain.Test
	memberships    map[int64][]domain.Membership
	attempts       []domain.Attempt
}

func NewStore() *Store {
	return &Store{
		questions:   make(map[int64]domain.Question),
		tests:       make(map[int64]domain.Test),
		memberships: make(map[int64][]domain.Membership),
	}
}

func (s *Store) InsertQuestion(_ context.Context, q domain.Question) (domain.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastQuestionID++
	q.ID = s.lastQuestionID
	s.questions[q.ID] = cloneQuestion(q)
	return cloneQuestion(q), nil
}

func (s *Store) ReplaceQuestion(_ context.Context, q domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.questions[q.ID]; !ok {
		return domain.ErrQuestionNotFound
	}
	s.questions[q.ID] = cloneQuestion(q)
	return nil
}

func (s *Store) GetQuestion(_ context.Context, id int64) (domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.questions[id]
	if !ok {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	return cloneQuestion(q), nil
}

func (s *Store) GetQuestions(_ context.Context, ids []int64) (map[int64]domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[int64]domain.Question, len(ids))
	for _, id := range ids {
		if q, ok := s.questions[id]; ok {
			out[id] = cloneQuestion(q)
		}
	}
	return out, nil
}

func (s *Store) ListQuestions(_ context.Context) ([]domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Question, 0, len(s.questions))
	for _, q := range s.questions {
		out = append(out, cloneQuestion(q))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) DeleteQuestion(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.questions[id]; !ok {
		return domain.ErrQuestionNotFound
	}
	for testID, members := range s.memberships {
		s.memberships[testID] = withoutQuestions(members, map[int64]struct{}{id: {}})
	}
	delete(s.questions, id)
	return nil
}

func (s *Store) InsertTest(_ context.Context, t domain.Test, questionIDs []int64) (domain.Test, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireQuestionsLocked(questionIDs); err != nil {
		return domain.Test{}, err
	}
	s.lastTestID++
	t.ID = s.lastTestID
	s.tests[t.ID] = cloneTest(t)
	s.memberships[t.ID] = domain.PlanAppend(t.ID, nil, questionIDs)
	return cloneTest(t), nil
}

func (s *Store) UpdateTest(_ context.Context, t domain.Test) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tests[t.ID]; !ok {
		return domain.ErrTestNotFound
	}
	s.tests[t.ID] = cloneTest(t)
	return nil
}

func (s *Store) GetTest(_ context.Context, id int64) (domain.Test, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tests[id]
	if !ok {
		return domain.Test{}, domain.ErrTestNotFound
	}
	return cloneTest(t), nil
}

func (s *Store) ListTests(_ context.Context) ([]domain.Test, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Test, 0, len(s.tests))
	for _, t := range s.tests {
		out = append(out, cloneTest(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) DeleteTest(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tests[id]; !ok {
		return domain.ErrTestNotFound
	}
	delete(s.memberships, id)
	delete(s.tests, id)
	return nil
}

func (s *Store) AppendQuestions(_ context.Context, testID int64, questionIDs []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tests[testID]; !ok {
		return domain.ErrTestNotFound
	}
	if err := s.requireQuestionsLocked(questionIDs); err != nil {
		return err
	}
	existing := s.memberships[testID]
	s.memberships[testID] = append(existing, domain.PlanAppend(testID, existing, questionIDs)...)
	return nil
}

func (s *Store) RemoveQuestions(_ context.Context, testID int64, questionIDs []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tests[testID]; !ok {
		return domain.ErrTestNotFound
	}
	drop := make(map[int64]struct{}, len(questionIDs))
	for _, id := range questionIDs {
		drop[id] = struct{}{}
	}
	s.memberships[testID] = withoutQuestions(s.memberships[testID], drop)
	return nil
}

func (s *Store) Memberships(_ context.Context, testID int64) ([]domain.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.tests[testID]; !ok {
		return nil, domain.ErrTestNotFound
	}
	out := append([]domain.Membership(nil), s.memberships[testID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (s *Store) AppendScore(_ context.Context, attempt domain.Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts = append(s.attempts, attempt)
	return nil
}

func (s *Store) ListAttempts(_ context.Context) ([]domain.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Attempt(nil), s.attempts...), nil
}

// Rankings aggregates attempts per respondent.
func (s *Store) Rankings(_ context.Context) ([]domain.RankingEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.RankAttempts(s.attempts), nil
}

func (s *Store) requireQuestionsLocked(ids []int64) error {
	for _, id := range ids {
		if _, ok := s.questions[id]; !ok {
			return domain.ErrQuestionNotFound
		}
	}
	return nil
}

func withoutQuestions(members []domain.Membership, drop map[int64]struct{}) []domain.Membership {
	kept := members[:0:0]
	for _, m := range members {
		if _, ok := drop[m.QuestionID]; !ok {
			kept = append(kept, m)
		}
	}
	return kept
}

func cloneQuestion(q domain.Question) domain.Question {
	q.Choices = append([]string{}, q.Choices...)
	q.CorrectKey = append([]string{}, q.CorrectKey...)
	q.Tags = append([]string{}, q.Tags...)
	return q
}

func cloneTest(t domain.Test) domain.Test {
	t.Tags = append([]string{}, t.Tags...)
	return t
}
