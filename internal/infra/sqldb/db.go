// Package sqldb persists questions, tests, memberships and attempts with bun,
// on either Postgres or SQLite.
package sqldb

import (
	"database/sql"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	_ "modernc.org/sqlite"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Open connects a bun.DB for the given driver.
func Open(driver, dsn string) (*bun.DB, error) {
	switch driver {
	case DriverPostgres:
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
		return bun.NewDB(sqldb, pgdialect.New()), nil
	case DriverSQLite:
		sqldb, err := sql.Open("sqlite", dsn)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		// one connection: sqlite has a single writer and :memory: databases are per connection
		sqldb.SetMaxOpenConns(1)
		if _, err := sqldb.Exec(`PRAGMA foreign_keys = ON`); err != nil {
			_ = sqldb.Close()
			return nil, fmt.Errorf("enable sqlite foreign keys: %w", err)
		}
		return bun.NewDB(sqldb, sqlitedialect.New()), nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", driver)
	}
}
