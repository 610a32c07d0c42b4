// Package spreadsheet moves questions and leaderboard data in and out of
// XLSX workbooks. List cells hold one value per line.
package spreadsheet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"quizmaker-service/internal/domain"
)

const (
	QuestionsSheet   = "Questions"
	LeaderboardSheet = "Leaderboard"
	AttemptsSheet    = "Attempts"
)

var questionHeaders = []string{"Type", "Text", "Choices", "Correct Key", "Points", "Tags"}

// QuestionCreator persists one imported question.
type QuestionCreator interface {
	Create(ctx context.Context, in domain.QuestionInput) (domain.Question, error)
}

// RowError reports why one spreadsheet row was not imported.
type RowError struct {
	Row     int    `json:"row"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// ImportResult summarizes an import run.
type ImportResult struct {
	TotalRows    int               `json:"totalRows"`
	SuccessCount int               `json:"successCount"`
	ErrorCount   int               `json:"errorCount"`
	Questions    []domain.Question `json:"questions"`
	Errors       []RowError        `json:"errors"`
}

// ExportQuestions writes questions to a single-sheet workbook.
func ExportQuestions(w io.Writer, questions []domain.Question) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := newSheet(f, QuestionsSheet, questionHeaders); err != nil {
		return err
	}
	for i, q := range questions {
		row := []interface{}{
			string(q.Type), q.Text, joinCell(q.Choices), joinCell(q.CorrectKey), q.Points, joinCell(q.Tags),
		}
		if err := setRow(f, QuestionsSheet, i+2, row); err != nil {
			return err
		}
	}
	return write(f, w)
}

// ExportLeaderboard writes rankings and, when given, the raw attempts on a
// second sheet.
func ExportLeaderboard(w io.Writer, rankings []domain.RankingEntry, attempts []domain.Attempt) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := newSheet(f, LeaderboardSheet, []string{"Rank", "Respondent", "Total Score"}); err != nil {
		return err
	}
	for i, e := range rankings {
		if err := setRow(f, LeaderboardSheet, i+2, []interface{}{i + 1, e.Respondent, e.TotalScore}); err != nil {
			return err
		}
	}
	if len(attempts) > 0 {
		if err := newSheet(f, AttemptsSheet, []string{"Respondent", "Score", "Recorded At"}); err != nil {
			return err
		}
		for i, a := range attempts {
			if err := setRow(f, AttemptsSheet, i+2, []interface{}{a.Respondent, a.Score, a.RecordedAt.UTC()}); err != nil {
				return err
			}
		}
	}
	return write(f, w)
}

// ImportQuestions reads the first sheet and creates one question per data
// row. Invalid rows are reported and skipped; other rows are still created.
func ImportQuestions(ctx context.Context, r io.Reader, creator QuestionCreator, logger *slog.Logger) (*ImportResult, error) {
	if logger == nil {
		logger = slog.Default()
	}
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, domain.NewValidationError("file", "workbook has no sheets", nil)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read Excel rows: %w", err)
	}
	if len(rows) < 2 {
		return nil, domain.NewValidationError("file", "workbook must have a header row and at least one data row", len(rows))
	}

	headerMap := make(map[string]int)
	for i, header := range rows[0] {
		headerMap[strings.ToLower(strings.TrimSpace(header))] = i
	}
	for _, required := range []string{"type", "text", "correct key"} {
		if _, ok := headerMap[required]; !ok {
			return nil, domain.NewValidationError("file", "missing column "+required, nil)
		}
	}

	result := &ImportResult{TotalRows: len(rows) - 1}
	for i, row := range rows[1:] {
		rowNum := i + 2
		if blank(row) {
			result.TotalRows--
			continue
		}
		in, rowErr := parseRow(row, headerMap, rowNum)
		if rowErr != nil {
			result.Errors = append(result.Errors, *rowErr)
			result.ErrorCount++
			continue
		}
		q, err := creator.Create(ctx, in)
		if err != nil {
			var ve domain.ValidationErrors
			if !errors.As(err, &ve) {
				return nil, fmt.Errorf("import row %d: %w", rowNum, err)
			}
			for _, fe := range ve {
				result.Errors = append(result.Errors, RowError{Row: rowNum, Field: fe.Field, Message: fe.Message})
			}
			result.ErrorCount++
			continue
		}
		result.Questions = append(result.Questions, q)
		result.SuccessCount++
	}

	logger.Info("Excel import completed",
		"total_rows", result.TotalRows,
		"success_count", result.SuccessCount,
		"error_count", result.ErrorCount)
	return result, nil
}

func parseRow(row []string, headerMap map[string]int, rowNum int) (domain.QuestionInput, *RowError) {
	in := domain.QuestionInput{
		Type:       domain.QuestionType(strings.ToLower(cell(row, headerMap, "type"))),
		Text:       cell(row, headerMap, "text"),
		Choices:    splitCell(cell(row, headerMap, "choices")),
		CorrectKey: splitCell(cell(row, headerMap, "correct key")),
		Tags:       splitCell(cell(row, headerMap, "tags")),
		Points:     1,
	}
	if raw := cell(row, headerMap, "points"); raw != "" {
		points, err := strconv.Atoi(raw)
		if err != nil {
			return in, &RowError{Row: rowNum, Field: "points", Message: "must be a whole number"}
		}
		in.Points = points
	}
	return in, nil
}

func cell(row []string, headerMap map[string]int, name string) string {
	idx, ok := headerMap[name]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func splitCell(raw string) []string {
	if raw == "" {
		return nil
	}
	return strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")
}

func joinCell(values []string) string {
	return strings.Join(values, "\n")
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// newSheet creates or renames the default sheet to name and writes headers.
func newSheet(f *excelize.File, name string, headers []string) error {
	if len(f.GetSheetList()) == 1 && f.GetSheetName(0) == "Sheet1" {
		if err := f.SetSheetName("Sheet1", name); err != nil {
			return fmt.Errorf("failed to rename Excel sheet: %w", err)
		}
	} else if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	row := make([]interface{}, len(headers))
	for i, h := range headers {
		row[i] = h
	}
	return setRow(f, name, 1, row)
}

func setRow(f *excelize.File, sheet string, rowNum int, values []interface{}) error {
	start, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, start, &values); err != nil {
		return fmt.Errorf("failed to write Excel row %d: %w", rowNum, err)
	}
	return nil
}

func write(f *excelize.File, w io.Writer) error {
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write Excel file: %w", err)
	}
	return nil
}
