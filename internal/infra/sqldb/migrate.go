package sqldb

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"

	"quizmaker-service/internal/infra/sqldb/migrations"
)

// Migrate creates the bun migration tables if needed and applies pending migrations.
func Migrate(ctx context.Context, db *bun.DB, logger *slog.Logger) error {
	migrator := migrate.NewMigrator(db, migrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	group, err := migrator.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	if logger != nil {
		if group.IsZero() {
			logger.Info("database schema up to date")
		} else {
			logger.Info("migrations applied", "group", group.String())
		}
	}
	return nil
}
