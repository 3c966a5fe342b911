package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/eslsoft/conceptgraph/internal/infrastructure/config"
	"github.com/eslsoft/conceptgraph/internal/infrastructure/database/migrations"
)

// Migrate applies the embedded schema migrations for driver. The migration
// directory for each driver is named after it.
func Migrate(ctx context.Context, db *sql.DB, driver string) error {
	switch driver {
	case config.StoreSQLite, config.StorePostgres:
	default:
		return fmt.Errorf("migrate: unsupported driver %q", driver)
	}

	goose.SetBaseFS(migrations.FS)
	defer goose.SetBaseFS(nil)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(driver); err != nil {
		return fmt.Errorf("migrate: set dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, driver); err != nil {
		return fmt.Errorf("migrate: run migrations: %w", err)
	}
	return nil
}
