package app

import (
	"context"
	"log/slog"

	"quizmaker-service/internal/domain"
)

// QuestionStore owns question definitions and their correctness keys.
type QuestionStore struct {
	repo   QuestionRepository
	logger *slog.Logger
}

func NewQuestionStore(repo QuestionRepository, logger *slog.Logger) *QuestionStore {
	return &QuestionStore{repo: repo, logger: logger.With("component", "question_store")}
}

// Create validates and persists a new question.
func (s *QuestionStore) Create(ctx context.Context, in domain.QuestionInput) (domain.Question, error) {
	in = normalizeQuestion(in)
	if err := validateQuestion(in); err != nil {
		return domain.Question{}, err
	}
	q, err := s.repo.InsertQuestion(ctx, questionFromInput(0, in))
	if err != nil {
		return domain.Question{}, err
	}
	s.logger.InfoContext(ctx, "question created", "question_id", q.ID, "type", q.Type)
	return q, nil
}

// Replace swaps the whole row of an existing question, keeping its id.
func (s *QuestionStore) Replace(ctx context.Context, id int64, in domain.QuestionInput) (domain.Question, error) {
	in = normalizeQuestion(in)
	if err := validateQuestion(in); err != nil {
		return domain.Question{}, err
	}
	q := questionFromInput(id, in)
	if err := s.repo.ReplaceQuestion(ctx, q); err != nil {
		return domain.Question{}, err
	}
	s.logger.InfoContext(ctx, "question replaced", "question_id", id)
	return q, nil
}

func (s *QuestionStore) Get(ctx context.Context, id int64) (domain.Question, error) {
	return s.repo.GetQuestion(ctx, id)
}

// List returns questions matching filter ordered by id.
func (s *QuestionStore) List(ctx context.Context, filter domain.QuestionFilter) ([]domain.Question, error) {
	all, err := s.repo.ListQuestions(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Question, 0, len(all))
	for _, q := range all {
		if filter.Match(q) {
			out = append(out, q)
		}
	}
	return out, nil
}

// Delete removes a question together with its membership in every test.
func (s *QuestionStore) Delete(ctx context.Context, id int64) error {
	if err := s.repo.DeleteQuestion(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "question deleted", "question_id", id)
	return nil
}

func questionFromInput(id int64, in domain.QuestionInput) domain.Question {
	choices := in.Choices
	if in.Type == domain.FreeText {
		choices = []string{}
	}
	return domain.Question{
		ID:         id,
		Text:       in.Text,
		Type:       in.Type,
		Choices:    choices,
		CorrectKey: in.CorrectKey,
		Points:     in.Points,
		Tags:       in.Tags,
	}
}
