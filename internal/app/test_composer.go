package app

import (
	"context"
	"log/slog"

	"quizmaker-service/internal/domain"
)

// TestComposer owns named tests and the ordered membership of their questions.
type TestComposer struct {
	tests     TestRepository
	questions QuestionRepository
	logger    *slog.Logger
}

func NewTestComposer(tests TestRepository, questions QuestionRepository, logger *slog.Logger) *TestComposer {
	return &TestComposer{tests: tests, questions: questions, logger: logger.With("component", "test_composer")}
}

// CreateTest persists a test, optionally with an initial ordered batch of questions.
func (c *TestComposer) CreateTest(ctx context.Context, in domain.TestInput) (domain.Test, error) {
	in = normalizeTest(in)
	if err := validateTest(in); err != nil {
		return domain.Test{}, err
	}
	t, err := c.tests.InsertTest(ctx, domain.Test{
		Name:        in.Name,
		Description: in.Description,
		Tags:        in.Tags,
	}, in.QuestionIDs)
	if err != nil {
		return domain.Test{}, err
	}
	c.logger.InfoContext(ctx, "test created", "test_id", t.ID, "questions", len(in.QuestionIDs))
	return t, nil
}

func (c *TestComposer) GetTest(ctx context.Context, id int64) (domain.Test, error) {
	return c.tests.GetTest(ctx, id)
}

// ListTests returns tests matching filter ordered by id.
func (c *TestComposer) ListTests(ctx context.Context, filter domain.TestFilter) ([]domain.Test, error) {
	all, err := c.tests.ListTests(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Test, 0, len(all))
	for _, t := range all {
		if filter.Match(t) {
			out = append(out, t)
		}
	}
	return out, nil
}

// UpdateMeta edits name, description and tags. Membership is untouched.
func (c *TestComposer) UpdateMeta(ctx context.Context, id int64, in domain.TestInput) (domain.Test, error) {
	in = normalizeTest(in)
	if err := validateTest(in); err != nil {
		return domain.Test{}, err
	}
	t := domain.Test{ID: id, Name: in.Name, Description: in.Description, Tags: in.Tags}
	if err := c.tests.UpdateTest(ctx, t); err != nil {
		return domain.Test{}, err
	}
	return t, nil
}

// DeleteTest removes all memberships and then the test row.
func (c *TestComposer) DeleteTest(ctx context.Context, id int64) error {
	if err := c.tests.DeleteTest(ctx, id); err != nil {
		return err
	}
	c.logger.InfoContext(ctx, "test deleted", "test_id", id)
	return nil
}

// AddQuestions appends questionIDs after the current last position.
// Questions already in the test are ignored. An empty batch still requires
// the test to exist.
func (c *TestComposer) AddQuestions(ctx context.Context, testID int64, questionIDs []int64) error {
	if len(questionIDs) == 0 {
		_, err := c.tests.GetTest(ctx, testID)
		return err
	}
	return c.tests.AppendQuestions(ctx, testID, questionIDs)
}

// RemoveQuestions drops memberships without renumbering the rest.
func (c *TestComposer) RemoveQuestions(ctx context.Context, testID int64, questionIDs []int64) error {
	if len(questionIDs) == 0 {
		_, err := c.tests.GetTest(ctx, testID)
		return err
	}
	return c.tests.RemoveQuestions(ctx, testID, questionIDs)
}

// QuestionsOf returns the test's questions in position order. Memberships
// whose question has vanished are skipped and counted.
func (c *TestComposer) QuestionsOf(ctx context.Context, testID int64) (domain.TestQuestions, error) {
	memberships, err := c.tests.Memberships(ctx, testID)
	if err != nil {
		return domain.TestQuestions{}, err
	}
	ids := make([]int64, len(memberships))
	for i, m := range memberships {
		ids[i] = m.QuestionID
	}
	found, err := c.questions.GetQuestions(ctx, ids)
	if err != nil {
		return domain.TestQuestions{}, err
	}

	out := domain.TestQuestions{TestID: testID, Questions: make([]domain.Question, 0, len(ids))}
	for _, id := range ids {
		q, ok := found[id]
		if !ok {
			out.Skipped++
			continue
		}
		out.Questions = append(out.Questions, q)
	}
	if out.Skipped > 0 {
		c.logger.WarnContext(ctx, "test references missing questions", "test_id", testID, "skipped", out.Skipped)
	}
	return out, nil
}
