package domain

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// QuestionType selects the grading rule applied to a question.
type QuestionType string

const (
	SingleChoice   QuestionType = "single_choice"
	MultipleChoice QuestionType = "multiple_choice"
	FreeText       QuestionType = "free_text"
)

// IsChoice reports whether answers are drawn from the question's choices.
func (t QuestionType) IsChoice() bool {
	return t == SingleChoice || t == MultipleChoice
}

// Question is an authored prompt together with its correctness key.
// CorrectKey holds exactly one value for single_choice and free_text questions
// and the set of correct choices for multiple_choice questions.
type Question struct {
	ID         int64        `json:"id"`
	Text       string       `json:"text"`
	Type       QuestionType `json:"type"`
	Choices    []string     `json:"choices"`
	CorrectKey []string     `json:"correctKey"`
	Points     int          `json:"points"`
	Tags       []string     `json:"tags"`
}

// QuestionInput carries author input for creating or replacing a question.
type QuestionInput struct {
	Text       string       `json:"text" validate:"required"`
	Type       QuestionType `json:"type" validate:"required,oneof=single_choice multiple_choice free_text"`
	Choices    []string     `json:"choices"`
	CorrectKey []string     `json:"correctKey" validate:"required,min=1"`
	Points     int          `json:"points" validate:"min=1"`
	Tags       []string     `json:"tags"`
}

// Test is a named, ordered collection of question references.
type Test struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

// TestInput carries author input for a test. QuestionIDs is only honoured on creation.
type TestInput struct {
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	QuestionIDs []int64  `json:"questionIds"`
}

// Membership places a question at a position inside a test.
type Membership struct {
	TestID     int64
	QuestionID int64
	Position   int
}

// TestQuestions is the presentable content of a test. Skipped counts
// memberships whose question no longer exists.
type TestQuestions struct {
	TestID    int64      `json:"testId"`
	Questions []Question `json:"questions"`
	Skipped   int        `json:"skipped"`
}

// Attempt is one persisted grading outcome.
type Attempt struct {
	Respondent string    `json:"respondent"`
	Score      int       `json:"score"`
	RecordedAt time.Time `json:"recordedAt"`
}

// RankingEntry is the cumulative score of one respondent.
type RankingEntry struct {
	Respondent string `json:"respondent"`
	TotalScore int    `json:"totalScore"`
}

// Answer is a respondent's raw answer. Single choice and free text answers
// carry one value, multiple choice answers carry the selected set.
type Answer []string

// UnmarshalJSON accepts a plain string, an array of strings or null.
func (a *Answer) UnmarshalJSON(data []byte) error {
	if string(bytes.TrimSpace(data)) == "null" {
		*a = nil
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*a = Answer{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*a = many
	return nil
}

// Grade is the outcome of evaluating one answer.
type Grade struct {
	QuestionID int64 `json:"questionId"`
	Awarded    int   `json:"awarded"`
	Correct    bool  `json:"correct"`
}

// Result aggregates the grades of a session.
type Result struct {
	Grades     []Grade `json:"grades"`
	TotalScore int     `json:"totalScore"`
	MaxScore   int     `json:"maxScore"`
}

// QuestionFilter narrows question listings. Zero value matches everything.
type QuestionFilter struct {
	TagsAny      []string
	TextContains string
}

// Match reports whether q passes the filter.
func (f QuestionFilter) Match(q Question) bool {
	if f.TextContains != "" && !strings.Contains(strings.ToLower(q.Text), strings.ToLower(f.TextContains)) {
		return false
	}
	return hasAnyTag(q.Tags, f.TagsAny)
}

// TestFilter narrows test listings. Zero value matches everything.
type TestFilter struct {
	TagsAny      []string
	NameContains string
}

// Match reports whether t passes the filter.
func (f TestFilter) Match(t Test) bool {
	if f.NameContains != "" && !strings.Contains(strings.ToLower(t.Name), strings.ToLower(f.NameContains)) {
		return false
	}
	return hasAnyTag(t.Tags, f.TagsAny)
}

func hasAnyTag(tags, wanted []string) bool {
	if len(wanted) == 0 {
		return true
	}
	for _, w := range wanted {
		for _, t := range tags {
			if t == w {
				return true
			}
		}
	}
	return false
}

// SessionState is the lifecycle position of a test session.
type SessionState string

const (
	StateSelecting     SessionState = "selecting"
	StateAdministering SessionState = "administering"
	StateGraded        SessionState = "graded"
	StateSaved         SessionState = "saved"
	StateDiscarded     SessionState = "discarded"
)
