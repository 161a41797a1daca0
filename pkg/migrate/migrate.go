package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/pressly/goose/v3"

	"github.com/angelmondragon/storefront-checkout/pkg/db"
)

// DefaultDir holds the catalog schema (products, quotes).
const DefaultDir = "pkg/migrate/migrations"

// Run executes a goose command (up, down, status, ...) against sqlDB.
func Run(ctx context.Context, sqlDB *sql.DB, dialect, dir string, command string, args ...string) error {
	if err := prepare(sqlDB, dialect, dir); err != nil {
		return err
	}
	if err := goose.RunContext(ctx, command, sqlDB, dir, args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

// MigrateToVersion moves the schema up or down to targetVersion.
func MigrateToVersion(ctx context.Context, sqlDB *sql.DB, dialect, dir string, targetVersion string) error {
	target, err := strconv.ParseInt(targetVersion, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS): %w", targetVersion, err)
	}
	if err := prepare(sqlDB, dialect, dir); err != nil {
		return err
	}

	current, err := goose.GetDBVersionContext(ctx, sqlDB)
	if err != nil {
		return fmt.Errorf("get db version: %w", err)
	}
	switch {
	case current < target:
		err = goose.UpToContext(ctx, sqlDB, dir, target)
	case current > target:
		err = goose.DownToContext(ctx, sqlDB, dir, target)
	default:
		return nil
	}
	if err != nil {
		return fmt.Errorf("goose migrate %d -> %d: %w", current, target, err)
	}
	return nil
}

// prepare selects the goose dialect; an empty dialect means postgres.
func prepare(sqlDB *sql.DB, dialect, dir string) error {
	if sqlDB == nil {
		return errors.New("db is required")
	}
	if dir == "" {
		return errors.New("dir is required")
	}
	if dialect == "" {
		dialect = db.DialectPostgres
	}
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	return nil
}
