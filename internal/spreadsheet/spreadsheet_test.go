package spreadsheet

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"quizmaker-service/internal/app"
	"quizmaker-service/internal/domain"
	"quizmaker-service/internal/infra/memory"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestExportThenImportQuestions(t *testing.T) {
	questions := []domain.Question{
		{ID: 1, Type: domain.SingleChoice, Text: "2+2?", Choices: []string{"3", "4"}, CorrectKey: []string{"4"}, Points: 2, Tags: []string{"math"}},
		{ID: 2, Type: domain.MultipleChoice, Text: "Primes", Choices: []string{"2", "3", "4"}, CorrectKey: []string{"2", "3"}, Points: 3},
		{ID: 3, Type: domain.FreeText, Text: "Capital of France", Choices: []string{}, CorrectKey: []string{"Paris"}, Points: 1, Tags: []string{"geo", "eu"}},
	}
	var buf bytes.Buffer
	require.NoError(t, ExportQuestions(&buf, questions))

	store := app.NewQuestionStore(memory.NewStore(), discardLogger())
	result, err := ImportQuestions(context.Background(), &buf, store, discardLogger())
	require.NoError(t, err)
	assert.Equal(t, 3, result.TotalRows)
	assert.Equal(t, 3, result.SuccessCount)
	assert.Zero(t, result.ErrorCount)

	imported, err := store.List(context.Background(), domain.QuestionFilter{})
	require.NoError(t, err)
	require.Len(t, imported, 3)
	for i, q := range imported {
		assert.Equal(t, questions[i].Type, q.Type)
		assert.Equal(t, questions[i].Text, q.Text)
		assert.Equal(t, questions[i].CorrectKey, q.CorrectKey)
		assert.Equal(t, questions[i].Points, q.Points)
	}
	assert.Equal(t, []string{"geo", "eu"}, imported[2].Tags)
}

func TestImportReportsBadRowsAndKeepsGoodOnes(t *testing.T) {
	f := excelize.NewFile()
	rows := [][]interface{}{
		{"Type", "Text", "Choices", "Correct Key", "Points"},
		{"single_choice", "Pick A", "A\nB", "A", 1},
		{"single_choice", "Key not a choice", "A\nB", "C", 1},
		{"free_text", "Bad points", "", "x", "many"},
		{},
		{"FREE_TEXT", "Say hi", "", "hi", ""},
	}
	for i, row := range rows {
		cellName, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cellName, &row))
	}
	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)

	store := app.NewQuestionStore(memory.NewStore(), discardLogger())
	result, err := ImportQuestions(context.Background(), &buf, store, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, result.TotalRows)
	assert.Equal(t, 2, result.SuccessCount)
	assert.Equal(t, 2, result.ErrorCount)

	byRow := map[int]RowError{}
	for _, e := range result.Errors {
		byRow[e.Row] = e
	}
	assert.Contains(t, byRow, 3)
	assert.Equal(t, "points", byRow[4].Field)
	assert.Equal(t, 1, result.Questions[1].Points)
}

func TestImportRejectsWorkbookWithoutData(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"Type", "Text", "Correct Key"}))
	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)

	_, err = ImportQuestions(context.Background(), &buf, app.NewQuestionStore(memory.NewStore(), discardLogger()), nil)
	assert.True(t, domain.IsValidation(err))
}

func TestExportLeaderboardSheets(t *testing.T) {
	rankings := []domain.RankingEntry{{Respondent: "Ann", TotalScore: 10}, {Respondent: "Bob", TotalScore: 3}}
	attempts := []domain.Attempt{{Respondent: "Ann", Score: 10, RecordedAt: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)}}

	var buf bytes.Buffer
	require.NoError(t, ExportLeaderboard(&buf, rankings, attempts))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{LeaderboardSheet, AttemptsSheet}, f.GetSheetList())

	rows, err := f.GetRows(LeaderboardSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"1", "Ann", "10"}, rows[1])
	assert.Equal(t, []string{"2", "Bob", "3"}, rows[2])
}
