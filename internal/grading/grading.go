// Package grading evaluates raw answers against question correctness keys.
package grading

import (
	"strings"

	"quizmaker-service/internal/domain"
)

// Evaluate grades a single answer. It never fails: answers it cannot
// interpret are graded incorrect.
func Evaluate(q domain.Question, answer domain.Answer) domain.Grade {
	grade := domain.Grade{QuestionID: q.ID}
	if isCorrect(q, answer) {
		grade.Correct = true
		grade.Awarded = q.Points
	}
	return grade
}

func isCorrect(q domain.Question, answer domain.Answer) bool {
	switch q.Type {
	case domain.SingleChoice:
		return len(answer) == 1 && len(q.CorrectKey) == 1 && answer[0] == q.CorrectKey[0]
	case domain.MultipleChoice:
		return len(q.CorrectKey) > 0 && sameSet(answer, q.CorrectKey)
	case domain.FreeText:
		return len(answer) == 1 && len(q.CorrectKey) == 1 && strings.TrimSpace(answer[0]) == q.CorrectKey[0]
	default:
		return false
	}
}

func sameSet(a, b []string) bool {
	left := toSet(a)
	right := toSet(b)
	if len(left) != len(right) {
		return false
	}
	for v := range left {
		if _, ok := right[v]; !ok {
			return false
		}
	}
	return true
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// Score grades every question against answers and sums the result.
// Missing answers are graded as empty; answers for other questions are ignored.
func Score(questions []domain.Question, answers map[int64]domain.Answer) domain.Result {
	result := domain.Result{Grades: make([]domain.Grade, 0, len(questions))}
	for _, q := range questions {
		grade := Evaluate(q, answers[q.ID])
		result.Grades = append(result.Grades, grade)
		result.TotalScore += grade.Awarded
		result.MaxScore += q.Points
	}
	return result
}
