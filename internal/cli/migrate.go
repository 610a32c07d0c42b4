package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"quizmaker-service/internal/config"
	"quizmaker-service/internal/infra/sqldb"
)

// NewMigrateCmd applies database migrations.
func NewMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrations(cmd.Context(), *configPath)
		},
	}
}

func runMigrations(ctx context.Context, configPath string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, logger, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	return runMigrationsWithConfig(ctx, cfg, logger)
}

func runMigrationsWithConfig(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	if cfg.Storage.Driver != sqldb.DriverPostgres && cfg.Storage.Driver != sqldb.DriverSQLite {
		return fmt.Errorf("migrations need a sqlite or postgres storage driver, got %q", cfg.Storage.Driver)
	}
	if cfg.Storage.URL == "" {
		return fmt.Errorf("storage url not configured")
	}

	db, err := sqldb.Open(cfg.Storage.Driver, cfg.Storage.URL)
	if err != nil {
		return err
	}
	defer db.Close()

	return sqldb.Migrate(ctx, db, logger)
}
