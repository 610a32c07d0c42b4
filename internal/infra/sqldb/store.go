package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"

	"quizmaker-service/internal/domain"
)

// Store implements the question, test and score repositories on a bun.DB.
// Cascades and position allocation run inside a single transaction.
type Store struct {
	db *bun.DB
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

func (s *Store) InsertQuestion(ctx context.Context, q domain.Question) (domain.Question, error) {
	row := newQuestionRow(q)
	row.ID = 0
	if _, err := s.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return domain.Question{}, fmt.Errorf("insert question: %w", err)
	}
	q.ID = row.ID
	return q, nil
}

func (s *Store) ReplaceQuestion(ctx context.Context, q domain.Question) error {
	res, err := s.db.NewUpdate().Model(newQuestionRow(q)).WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("replace question: %w", err)
	}
	return requireAffected(res, domain.ErrQuestionNotFound)
}

func (s *Store) GetQuestion(ctx context.Context, id int64) (domain.Question, error) {
	row := new(questionRow)
	err := s.db.NewSelect().Model(row).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	if err != nil {
		return domain.Question{}, fmt.Errorf("get question: %w", err)
	}
	return row.toDomain()
}

func (s *Store) GetQuestions(ctx context.Context, ids []int64) (map[int64]domain.Question, error) {
	out := make(map[int64]domain.Question, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []questionRow
	if err := s.db.NewSelect().Model(&rows).Where("id IN (?)", bun.In(ids)).Scan(ctx); err != nil {
		return nil, fmt.Errorf("get questions: %w", err)
	}
	for i := range rows {
		q, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		out[q.ID] = q
	}
	return out, nil
}

func (s *Store) ListQuestions(ctx context.Context) ([]domain.Question, error) {
	var rows []questionRow
	if err := s.db.NewSelect().Model(&rows).Order("id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	out := make([]domain.Question, 0, len(rows))
	for i := range rows {
		q, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, nil
}

// DeleteQuestion removes the question's memberships and then the question.
func (s *Store) DeleteQuestion(ctx context.Context, id int64) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*membershipRow)(nil)).Where("question_id = ?", id).Exec(ctx); err != nil {
			return fmt.Errorf("delete question memberships: %w", err)
		}
		res, err := tx.NewDelete().Model((*questionRow)(nil)).Where("id = ?", id).Exec(ctx)
		if err != nil {
			return fmt.Errorf("delete question: %w", err)
		}
		return requireAffected(res, domain.ErrQuestionNotFound)
	})
}

func (s *Store) InsertTest(ctx context.Context, t domain.Test, questionIDs []int64) (domain.Test, error) {
	row := newTestRow(t)
	row.ID = 0
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := requireQuestions(ctx, tx, questionIDs); err != nil {
			return err
		}
		if _, err := tx.NewInsert().Model(row).Exec(ctx); err != nil {
			return fmt.Errorf("insert test: %w", err)
		}
		return insertMemberships(ctx, tx, domain.PlanAppend(row.ID, nil, questionIDs))
	})
	if err != nil {
		return domain.Test{}, err
	}
	t.ID = row.ID
	return t, nil
}

func (s *Store) UpdateTest(ctx context.Context, t domain.Test) error {
	res, err := s.db.NewUpdate().Model(newTestRow(t)).WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("update test: %w", err)
	}
	return requireAffected(res, domain.ErrTestNotFound)
}

func (s *Store) GetTest(ctx context.Context, id int64) (domain.Test, error) {
	row := new(testRow)
	err := s.db.NewSelect().Model(row).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Test{}, domain.ErrTestNotFound
	}
	if err != nil {
		return domain.Test{}, fmt.Errorf("get test: %w", err)
	}
	return row.toDomain()
}

func (s *Store) ListTests(ctx context.Context) ([]domain.Test, error) {
	var rows []testRow
	if err := s.db.NewSelect().Model(&rows).Order("id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list tests: %w", err)
	}
	out := make([]domain.Test, 0, len(rows))
	for i := range rows {
		t, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// DeleteTest removes all memberships and then the test row.
func (s *Store) DeleteTest(ctx context.Context, id int64) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := lockTest(ctx, tx, id); err != nil {
			return err
		}
		if _, err := tx.NewDelete().Model((*membershipRow)(nil)).Where("test_id = ?", id).Exec(ctx); err != nil {
			return fmt.Errorf("delete test memberships: %w", err)
		}
		if _, err := tx.NewDelete().Model((*testRow)(nil)).Where("id = ?", id).Exec(ctx); err != nil {
			return fmt.Errorf("delete test: %w", err)
		}
		return nil
	})
}

// AppendQuestions locks the test row, reads the current positions and
// inserts the new memberships after the last one.
func (s *Store) AppendQuestions(ctx context.Context, testID int64, questionIDs []int64) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := lockTest(ctx, tx, testID); err != nil {
			return err
		}
		if err := requireQuestions(ctx, tx, questionIDs); err != nil {
			return err
		}
		existing, err := memberships(ctx, tx, testID)
		if err != nil {
			return err
		}
		return insertMemberships(ctx, tx, domain.PlanAppend(testID, existing, questionIDs))
	})
}

func (s *Store) RemoveQuestions(ctx context.Context, testID int64, questionIDs []int64) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := lockTest(ctx, tx, testID); err != nil {
			return err
		}
		if len(questionIDs) == 0 {
			return nil
		}
		_, err := tx.NewDelete().Model((*membershipRow)(nil)).
			Where("test_id = ?", testID).
			Where("question_id IN (?)", bun.In(questionIDs)).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("remove test questions: %w", err)
		}
		return nil
	})
}

func (s *Store) Memberships(ctx context.Context, testID int64) ([]domain.Membership, error) {
	var out []domain.Membership
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().Model((*testRow)(nil)).Where("id = ?", testID).Exists(ctx)
		if err != nil {
			return fmt.Errorf("check test: %w", err)
		}
		if !exists {
			return domain.ErrTestNotFound
		}
		out, err = memberships(ctx, tx, testID)
		return err
	})
	return out, err
}

func (s *Store) AppendScore(ctx context.Context, attempt domain.Attempt) error {
	row := &scoreRow{Respondent: attempt.Respondent, Score: attempt.Score, RecordedAt: attempt.RecordedAt}
	if _, err := s.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return fmt.Errorf("insert score: %w", err)
	}
	return nil
}

func (s *Store) ListAttempts(ctx context.Context) ([]domain.Attempt, error) {
	var rows []scoreRow
	if err := s.db.NewSelect().Model(&rows).Order("recorded_at ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}
	out := make([]domain.Attempt, len(rows))
	for i, r := range rows {
		out[i] = domain.Attempt{Respondent: r.Respondent, Score: r.Score, RecordedAt: r.RecordedAt.UTC()}
	}
	return out, nil
}

// Rankings sums scores per respondent in the database.
func (s *Store) Rankings(ctx context.Context) ([]domain.RankingEntry, error) {
	var rows []rankingRow
	err := s.db.NewSelect().
		Model((*scoreRow)(nil)).
		Column("respondent").
		ColumnExpr("SUM(score) AS total_score").
		Group("respondent").
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("rank scores: %w", err)
	}
	entries := make([]domain.RankingEntry, len(rows))
	for i, r := range rows {
		entries[i] = domain.RankingEntry{Respondent: r.Respondent, TotalScore: r.TotalScore}
	}
	// database collations differ; order in Go for a stable result
	domain.SortRankings(entries)
	return entries, nil
}

// lockTest fails with ErrTestNotFound for unknown tests. On Postgres the row
// stays locked until the transaction ends; SQLite already serializes writers.
func lockTest(ctx context.Context, tx bun.Tx, testID int64) error {
	q := tx.NewSelect().Model((*testRow)(nil)).Column("id").Where("id = ?", testID)
	if tx.Dialect().Name() == dialect.PG {
		q = q.For("UPDATE")
	}
	var id int64
	err := q.Scan(ctx, &id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrTestNotFound
	}
	if err != nil {
		return fmt.Errorf("lock test: %w", err)
	}
	return nil
}

func requireQuestions(ctx context.Context, tx bun.Tx, ids []int64) error {
	unique := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		unique[id] = struct{}{}
	}
	if len(unique) == 0 {
		return nil
	}
	n, err := tx.NewSelect().Model((*questionRow)(nil)).Where("id IN (?)", bun.In(ids)).Count(ctx)
	if err != nil {
		return fmt.Errorf("check questions: %w", err)
	}
	if n != len(unique) {
		return domain.ErrQuestionNotFound
	}
	return nil
}

func memberships(ctx context.Context, tx bun.Tx, testID int64) ([]domain.Membership, error) {
	var rows []membershipRow
	if err := tx.NewSelect().Model(&rows).Where("test_id = ?", testID).Order("position ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	out := make([]domain.Membership, len(rows))
	for i, r := range rows {
		out[i] = domain.Membership{TestID: r.TestID, QuestionID: r.QuestionID, Position: r.Position}
	}
	return out, nil
}

func insertMemberships(ctx context.Context, tx bun.Tx, planned []domain.Membership) error {
	if len(planned) == 0 {
		return nil
	}
	rows := make([]membershipRow, len(planned))
	for i, m := range planned {
		rows[i] = membershipRow{TestID: m.TestID, QuestionID: m.QuestionID, Position: m.Position}
	}
	if _, err := tx.NewInsert().Model(&rows).Exec(ctx); err != nil {
		return fmt.Errorf("insert memberships: %w", err)
	}
	return nil
}

func requireAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
