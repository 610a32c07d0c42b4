package sqldb

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quizmaker-service/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	db, err := Open(DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, Migrate(ctx, db, nil))
	// a second run finds nothing to apply
	require.NoError(t, Migrate(ctx, db, nil))
	return NewStore(db)
}

func insertQuestion(t *testing.T, s *Store, text string, tags ...string) domain.Question {
	t.Helper()
	q, err := s.InsertQuestion(context.Background(), domain.Question{
		Text:       text,
		Type:       domain.MultipleChoice,
		Choices:    []string{"a,b", "c:d", ""},
		CorrectKey: []string{"a,b", "c:d"},
		Points:     2,
		Tags:       tags,
	})
	require.NoError(t, err)
	require.NotZero(t, q.ID)
	return q
}

func TestQuestionRoundTripKeepsDelimiters(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	q := insertQuestion(t, s, "pick", "math")

	got, err := s.GetQuestion(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, q, got)

	q.Text = "pick again"
	q.Tags = nil
	require.NoError(t, s.ReplaceQuestion(ctx, q))
	got, err = s.GetQuestion(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, "pick again", got.Text)
	assert.Empty(t, got.Tags)

	missing := q
	missing.ID = 999
	assert.ErrorIs(t, s.ReplaceQuestion(ctx, missing), domain.ErrQuestionNotFound)
	_, err = s.GetQuestion(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAppendContinuesAfterHighestPosition(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	q1 := insertQuestion(t, s, "one")
	q2 := insertQuestion(t, s, "two")
	q3 := insertQuestion(t, s, "three")

	test, err := s.InsertTest(ctx, domain.Test{Name: "t", Tags: []string{"x"}}, []int64{q1.ID, q2.ID, q1.ID})
	require.NoError(t, err)
	require.NoError(t, s.RemoveQuestions(ctx, test.ID, []int64{q2.ID}))
	require.NoError(t, s.AppendQuestions(ctx, test.ID, []int64{q3.ID, q1.ID}))

	members, err := s.Memberships(ctx, test.ID)
	require.NoError(t, err)
	assert.Equal(t, []domain.Membership{
		{TestID: test.ID, QuestionID: q1.ID, Position: 1},
		{TestID: test.ID, QuestionID: q3.ID, Position: 2},
	}, members)
}

func TestUnknownReferencesLeaveNothingBehind(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	q := insertQuestion(t, s, "one")

	_, err := s.InsertTest(ctx, domain.Test{Name: "t"}, []int64{q.ID, 42})
	assert.ErrorIs(t, err, domain.ErrQuestionNotFound)
	tests, err := s.ListTests(ctx)
	require.NoError(t, err)
	assert.Empty(t, tests)

	assert.ErrorIs(t, s.AppendQuestions(ctx, 7, []int64{q.ID}), domain.ErrTestNotFound)
	_, err = s.Memberships(ctx, 7)
	assert.ErrorIs(t, err, domain.ErrTestNotFound)
	assert.ErrorIs(t, s.UpdateTest(ctx, domain.Test{ID: 7, Name: "x"}), domain.ErrTestNotFound)
}

func TestDeletesCascadeToMemberships(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	q1 := insertQuestion(t, s, "one")
	q2 := insertQuestion(t, s, "two")
	a, err := s.InsertTest(ctx, domain.Test{Name: "a"}, []int64{q1.ID, q2.ID})
	require.NoError(t, err)
	b, err := s.InsertTest(ctx, domain.Test{Name: "b"}, []int64{q2.ID})
	require.NoError(t, err)

	require.NoError(t, s.DeleteQuestion(ctx, q2.ID))
	members, err := s.Memberships(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []domain.Membership{{TestID: a.ID, QuestionID: q1.ID, Position: 1}}, members)
	members, err = s.Memberships(ctx, b.ID)
	require.NoError(t, err)
	assert.Empty(t, members)
	assert.ErrorIs(t, s.DeleteQuestion(ctx, q2.ID), domain.ErrQuestionNotFound)

	require.NoError(t, s.DeleteTest(ctx, a.ID))
	assert.ErrorIs(t, s.DeleteTest(ctx, a.ID), domain.ErrTestNotFound)
	_, err = s.GetQuestion(ctx, q1.ID)
	assert.NoError(t, err, "deleting a test keeps its questions")
}

func TestGetQuestionsSkipsMissingIDs(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	q := insertQuestion(t, s, "one")

	got, err := s.GetQuestions(ctx, []int64{q.ID, 404})
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Contains(t, got, q.ID)

	empty, err := s.GetQuestions(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestRankingsSumPerRespondent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, a := range []domain.Attempt{
		{Respondent: "Bob", Score: 3},
		{Respondent: "Ann", Score: 7},
		{Respondent: "Ann", Score: 3},
		{Respondent: "Cid", Score: 10},
	} {
		a.RecordedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, s.AppendScore(ctx, a))
	}

	rankings, err := s.Rankings(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.RankingEntry{
		{Respondent: "Ann", TotalScore: 10},
		{Respondent: "Cid", TotalScore: 10},
		{Respondent: "Bob", TotalScore: 3},
	}, rankings)

	attempts, err := s.ListAttempts(ctx)
	require.NoError(t, err)
	require.Len(t, attempts, 4)
	assert.Equal(t, "Bob", attempts[0].Respondent)
	assert.True(t, attempts[3].RecordedAt.Equal(base.Add(3*time.Minute)))
}

func TestIdsAreNotReusedAfterDeletingNewest(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	insertQuestion(t, s, "one")
	q2 := insertQuestion(t, s, "two")
	require.NoError(t, s.DeleteQuestion(ctx, q2.ID))
	q3 := insertQuestion(t, s, "three")
	assert.Greater(t, q3.ID, q2.ID)

	t1, err := s.InsertTest(ctx, domain.Test{Name: "a"}, nil)
	require.NoError(t, err)
	require.NoError(t, s.DeleteTest(ctx, t1.ID))
	t2, err := s.InsertTest(ctx, domain.Test{Name: "b"}, nil)
	require.NoError(t, err)
	assert.Greater(t, t2.ID, t1.ID)
}

func TestConcurrentAppendsNeverSharePositions(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	var ids []int64
	for i := 0; i < 9; i++ {
		ids = append(ids, insertQuestion(t, s, "q").ID)
	}
	test, err := s.InsertTest(ctx, domain.Test{Name: "race"}, ids[:1])
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, len(ids))
	for i, id := range ids[1:] {
		wg.Add(1)
		go func(i int, id int64) {
			defer wg.Done()
			errs[i] = s.AppendQuestions(ctx, test.ID, []int64{id, ids[0]})
		}(i, id)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	members, err := s.Memberships(ctx, test.ID)
	require.NoError(t, err)
	require.Len(t, members, len(ids))
	for i, m := range members {
		assert.Equal(t, i+1, m.Position)
	}
}
