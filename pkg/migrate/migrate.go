package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"
	"sync"

	"github.com/pressly/goose/v3"

	"github.com/angelmondragon/pixcheckout/pkg/config"
	"github.com/angelmondragon/pixcheckout/pkg/db"
	"github.com/angelmondragon/pixcheckout/pkg/logger"
)

//go:embed migrations/*.sql
var embedded embed.FS

const dir = "migrations"

// goose keeps its dialect and filesystem in package globals.
var gooseMu sync.Mutex

// DialectFor maps the configured database driver to a goose dialect.
func DialectFor(driver string) (string, error) {
	switch strings.ToLower(driver) {
	case config.DriverPostgres:
		return "postgres", nil
	case config.DriverSQLite:
		return "sqlite3", nil
	default:
		return "", fmt.Errorf("no goose dialect for driver %q", driver)
	}
}

// Run executes a goose command (up, down, status, version...) against the embedded migrations.
func Run(ctx context.Context, sqlDB *sql.DB, dialect, command string, args ...string) error {
	if sqlDB == nil {
		return fmt.Errorf("db is required")
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(embedded)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.RunContext(ctx, command, sqlDB, dir, args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

// Up applies every pending migration.
func Up(ctx context.Context, sqlDB *sql.DB, dialect string) error {
	return Run(ctx, sqlDB, dialect, "up")
}

// MaybeAutoMigrate runs migrations on boot when PIXCHECKOUT_DB_AUTO_MIGRATE is set
// or when the database is an ephemeral sqlite.
func MaybeAutoMigrate(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.DB.AutoMigrate && !cfg.DB.IsSQLite() {
		return nil
	}

	dialect, err := DialectFor(cfg.DB.Driver)
	if err != nil {
		return err
	}
	sqlDB, err := client.SQL()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "dialect": dialect})
	logg.Info(ctx, "running goose migrations")

	if err := Up(ctx, sqlDB, dialect); err != nil {
		return err
	}

	logg.Info(ctx, "goose migrations completed")
	return nil
}
