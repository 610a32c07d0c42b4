// Package migrations holds the bun migrations for the quiz schema.
package migrations

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
	"github.com/uptrace/bun/migrate"
)

var Migrations = migrate.NewMigrations()

// Table shapes as of this migration. Later migrations must not reuse the
// store's row types.
type question struct {
	bun.BaseModel `bun:"table:questions"`

	ID         int64  `bun:"id,pk,autoincrement"`
	Text       string `bun:"text,notnull"`
	Type       string `bun:"type,notnull"`
	Choices    string `bun:"choices,notnull"`
	CorrectKey string `bun:"correct_key,notnull"`
	Points     int    `bun:"points,notnull"`
	Tags       string `bun:"tags,notnull"`
}

type test struct {
	bun.BaseModel `bun:"table:tests"`

	ID          int64  `bun:"id,pk,autoincrement"`
	Name        string `bun:"name,notnull"`
	Description string `bun:"description,notnull"`
	Tags        string `bun:"tags,notnull"`
}

type testQuestion struct {
	bun.BaseModel `bun:"table:test_questions"`

	TestID     int64 `bun:"test_id,pk"`
	QuestionID int64 `bun:"question_id,pk"`
	Position   int   `bun:"position,notnull"`
}

type score struct {
	bun.BaseModel `bun:"table:scores"`

	Respondent string    `bun:"respondent,notnull"`
	Score      int       `bun:"score,notnull"`
	RecordedAt time.Time `bun:"recorded_at,notnull"`
}

// SQLite only keeps rowids monotonic with the AUTOINCREMENT keyword, which
// bun does not emit. Question and test ids must never be handed out twice.
var sqliteIdentityTables = []string{
	`CREATE TABLE IF NOT EXISTS "questions" (
		"id" INTEGER PRIMARY KEY AUTOINCREMENT,
		"text" VARCHAR NOT NULL,
		"type" VARCHAR NOT NULL,
		"choices" VARCHAR NOT NULL,
		"correct_key" VARCHAR NOT NULL,
		"points" BIGINT NOT NULL,
		"tags" VARCHAR NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS "tests" (
		"id" INTEGER PRIMARY KEY AUTOINCREMENT,
		"name" VARCHAR NOT NULL,
		"description" VARCHAR NOT NULL,
		"tags" VARCHAR NOT NULL
	)`,
}

func init() {
	Migrations.MustRegister(up, down)
}

func up(ctx context.Context, db *bun.DB) error {
	return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var creates []*bun.CreateTableQuery
		if tx.Dialect().Name() == dialect.SQLite {
			for _, ddl := range sqliteIdentityTables {
				if _, err := tx.ExecContext(ctx, ddl); err != nil {
					return fmt.Errorf("create table: %w", err)
				}
			}
		} else {
			creates = append(creates,
				tx.NewCreateTable().Model((*question)(nil)).IfNotExists(),
				tx.NewCreateTable().Model((*test)(nil)).IfNotExists(),
			)
		}
		creates = append(creates,
			tx.NewCreateTable().Model((*testQuestion)(nil)).IfNotExists().
				ForeignKey(`("test_id") REFERENCES "tests" ("id") ON DELETE CASCADE`).
				ForeignKey(`("question_id") REFERENCES "questions" ("id") ON DELETE CASCADE`),
			tx.NewCreateTable().Model((*score)(nil)).IfNotExists(),
		)
		for _, q := range creates {
			if _, err := q.Exec(ctx); err != nil {
				return fmt.Errorf("create table: %w", err)
			}
		}

		indexes := []*bun.CreateIndexQuery{
			tx.NewCreateIndex().Model((*testQuestion)(nil)).Index("test_questions_position_idx").
				Unique().Column("test_id", "position").IfNotExists(),
			tx.NewCreateIndex().Model((*testQuestion)(nil)).Index("test_questions_question_idx").
				Column("question_id").IfNotExists(),
			tx.NewCreateIndex().Model((*score)(nil)).Index("scores_respondent_idx").
				Column("respondent").IfNotExists(),
		}
		for _, q := range indexes {
			if _, err := q.Exec(ctx); err != nil {
				return fmt.Errorf("create index: %w", err)
			}
		}
		return nil
	})
}

func down(ctx context.Context, db *bun.DB) error {
	for _, model := range []any{(*score)(nil), (*testQuestion)(nil), (*test)(nil), (*question)(nil)} {
		if _, err := db.NewDropTable().Model(model).IfExists().Exec(ctx); err != nil {
			return fmt.Errorf("drop table: %w", err)
		}
	}
	return nil
}
