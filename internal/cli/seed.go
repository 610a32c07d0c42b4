package cli

import (
	"context"

	"quizmaker-service/internal/app"
	"quizmaker-service/internal/domain"
)

// seedDemo gives the in-memory driver a small test to play with.
func seedDemo(ctx context.Context, questions *app.QuestionStore, composer *app.TestComposer) error {
	inputs := []domain.QuestionInput{
		{
			Text:       "What is 2 + 2?",
			Type:       domain.SingleChoice,
			Choices:    []string{"3", "4", "5"},
			CorrectKey: []string{"4"},
			Points:     1,
			Tags:       []string{"math"},
		},
		{
			Text:       "Which of these are prime?",
			Type:       domain.MultipleChoice,
			Choices:    []string{"2", "4", "5", "9"},
			CorrectKey: []string{"2", "5"},
			Points:     2,
			Tags:       []string{"math"},
		},
		{
			Text:       "Capital of France?",
			Type:       domain.FreeText,
			CorrectKey: []string{"Paris"},
			Points:     1,
			Tags:       []string{"geography"},
		},
	}
	ids := make([]int64, 0, len(inputs))
	for _, in := range inputs {
		q, err := questions.Create(ctx, in)
		if err != nil {
			return err
		}
		ids = append(ids, q.ID)
	}
	_, err := composer.CreateTest(ctx, domain.TestInput{
		Name:        "Sample",
		Description: "A short mixed test",
		Tags:        []string{"demo"},
		QuestionIDs: ids,
	})
	return err
}
