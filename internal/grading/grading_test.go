package grading

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quizmaker-service/internal/domain"
)

func singleChoice() domain.Question {
	return domain.Question{ID: 1, Text: "pick", Type: domain.SingleChoice, Choices: []string{"x", "y", "X"}, CorrectKey: []string{"x"}, Points: 2}
}

func multipleChoice() domain.Question {
	return domain.Question{ID: 2, Text: "pick many", Type: domain.MultipleChoice, Choices: []string{"p", "q", "r"}, CorrectKey: []string{"p", "r"}, Points: 3}
}

func freeText() domain.Question {
	return domain.Question{ID: 3, Text: "capital of France", Type: domain.FreeText, CorrectKey: []string{"Paris"}, Points: 1}
}

func TestSingleChoiceExactMatch(t *testing.T) {
	q := singleChoice()
	cases := []struct {
		name    string
		answer  domain.Answer
		correct bool
	}{
		{"exact", domain.Answer{"x"}, true},
		{"other choice", domain.Answer{"y"}, false},
		{"case differs", domain.Answer{"X"}, false},
		{"absent", nil, false},
		{"empty string", domain.Answer{""}, false},
		{"not a choice", domain.Answer{"zzz"}, false},
		{"two values", domain.Answer{"x", "y"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			grade := Evaluate(q, tc.answer)
			assert.Equal(t, tc.correct, grade.Correct)
			if tc.correct {
				assert.Equal(t, 2, grade.Awarded)
			} else {
				assert.Zero(t, grade.Awarded)
			}
		})
	}
}

func TestMultipleChoiceIsSetEquality(t *testing.T) {
	q := multipleChoice()
	assert.True(t, Evaluate(q, domain.Answer{"p", "r"}).Correct)
	assert.True(t, Evaluate(q, domain.Answer{"r", "p"}).Correct, "order must not matter")
	assert.True(t, Evaluate(q, domain.Answer{"r", "p", "r"}).Correct, "repeats collapse")

	reordered := q
	reordered.CorrectKey = []string{"r", "p"}
	assert.True(t, Evaluate(reordered, domain.Answer{"p", "r"}).Correct)

	assert.False(t, Evaluate(q, domain.Answer{"p"}).Correct, "strict subset")
	assert.False(t, Evaluate(q, domain.Answer{"p", "q", "r"}).Correct, "strict superset")
	assert.False(t, Evaluate(q, domain.Answer{}).Correct, "empty selection")
	assert.False(t, Evaluate(q, nil).Correct, "absent")
}

func TestFreeTextTrimsButKeepsCase(t *testing.T) {
	q := freeText()
	assert.True(t, Evaluate(q, domain.Answer{"Paris"}).Correct)
	assert.True(t, Evaluate(q, domain.Answer{"  Paris\n"}).Correct)
	assert.False(t, Evaluate(q, domain.Answer{"paris"}).Correct)
	assert.False(t, Evaluate(q, domain.Answer{"Pa ris"}).Correct)
	assert.False(t, Evaluate(q, nil).Correct)
}

func TestUnknownTypeIsIncorrect(t *testing.T) {
	q := domain.Question{ID: 9, Type: "essay", CorrectKey: []string{"a"}, Points: 5}
	grade := Evaluate(q, domain.Answer{"a"})
	assert.False(t, grade.Correct)
	assert.Zero(t, grade.Awarded)
}

func TestScoreAggregates(t *testing.T) {
	questions := []domain.Question{singleChoice(), multipleChoice()}

	full := Score(questions, map[int64]domain.Answer{1: {"x"}, 2: {"p", "r"}})
	require.Len(t, full.Grades, 2)
	assert.Equal(t, 5, full.TotalScore)
	assert.Equal(t, 5, full.MaxScore)

	none := Score(questions, map[int64]domain.Answer{1: {"y"}, 2: {"p"}})
	assert.Equal(t, 0, none.TotalScore)
	assert.Equal(t, 5, none.MaxScore)

	partial := Score(questions, map[int64]domain.Answer{1: {"x"}, 99: {"ignored"}})
	assert.Equal(t, 2, partial.TotalScore)
	assert.Equal(t, 5, partial.MaxScore)
}
