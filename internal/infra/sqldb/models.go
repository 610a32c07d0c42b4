package sqldb

import (
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"quizmaker-service/internal/domain"
)

type questionRow struct {
	bun.BaseModel `bun:"table:questions,alias:q"`

	ID         int64  `bun:"id,pk,autoincrement"`
	Text       string `bun:"text,notnull"`
	Type       string `bun:"type,notnull"`
	Choices    string `bun:"choices,notnull"`
	CorrectKey string `bun:"correct_key,notnull"`
	Points     int    `bun:"points,notnull"`
	Tags       string `bun:"tags,notnull"`
}

type testRow struct {
	bun.BaseModel `bun:"table:tests,alias:t"`

	ID          int64  `bun:"id,pk,autoincrement"`
	Name        string `bun:"name,notnull"`
	Description string `bun:"description,notnull"`
	Tags        string `bun:"tags,notnull"`
}

type membershipRow struct {
	bun.BaseModel `bun:"table:test_questions,alias:tq"`

	TestID     int64 `bun:"test_id,pk"`
	QuestionID int64 `bun:"question_id,pk"`
	Position   int   `bun:"position,notnull"`
}

type scoreRow struct {
	bun.BaseModel `bun:"table:scores,alias:s"`

	Respondent string    `bun:"respondent,notnull"`
	Score      int       `bun:"score,notnull"`
	RecordedAt time.Time `bun:"recorded_at,notnull"`
}

type rankingRow struct {
	Respondent string `bun:"respondent"`
	TotalScore int    `bun:"total_score"`
}

func newQuestionRow(q domain.Question) *questionRow {
	return &questionRow{
		ID:         q.ID,
		Text:       q.Text,
		Type:       string(q.Type),
		Choices:    domain.EncodeList(q.Choices),
		CorrectKey: domain.EncodeList(q.CorrectKey),
		Points:     q.Points,
		Tags:       domain.EncodeList(q.Tags),
	}
}

func (r *questionRow) toDomain() (domain.Question, error) {
	choices, err := domain.DecodeList(r.Choices)
	if err != nil {
		return domain.Question{}, fmt.Errorf("question %d choices: %w", r.ID, err)
	}
	key, err := domain.DecodeList(r.CorrectKey)
	if err != nil {
		return domain.Question{}, fmt.Errorf("question %d correct key: %w", r.ID, err)
	}
	tags, err := domain.DecodeList(r.Tags)
	if err != nil {
		return domain.Question{}, fmt.Errorf("question %d tags: %w", r.ID, err)
	}
	return domain.Question{
		ID:         r.ID,
		Text:       r.Text,
		Type:       domain.QuestionType(r.Type),
		Choices:    choices,
		CorrectKey: key,
		Points:     r.Points,
		Tags:       tags,
	}, nil
}

func newTestRow(t domain.Test) *testRow {
	return &testRow{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		Tags:        domain.EncodeList(t.Tags),
	}
}

func (r *testRow) toDomain() (domain.Test, error) {
	tags, err := domain.DecodeList(r.Tags)
	if err != nil {
		return domain.Test{}, fmt.Errorf("test %d tags: %w", r.ID, err)
	}
	return domain.Test{ID: r.ID, Name: r.Name, Description: r.Description, Tags: tags}, nil
}
