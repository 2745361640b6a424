package migrate

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/pixcheckout/pkg/config"
	"github.com/angelmondragon/pixcheckout/pkg/db"
	"github.com/angelmondragon/pixcheckout/pkg/logger"
)

func newSQLiteClient(t *testing.T) *db.Client {
	t.Helper()
	client, err := db.New(context.Background(), config.DBConfig{
		Driver:       config.DriverSQLite,
		DSN:          "file:" + uuid.NewString() + "?mode=memory&cache=shared",
		MaxOpenConns: 1,
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func tableExists(t *testing.T, sqlDB *sql.DB, name string) bool {
	t.Helper()
	var count int
	err := sqlDB.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name).Scan(&count)
	require.NoError(t, err)
	return count > 0
}

func TestUpAndDown(t *testing.T) {
	ctx := context.Background()
	client := newSQLiteClient(t)
	sqlDB, err := client.SQL()
	require.NoError(t, err)

	require.NoError(t, Up(ctx, sqlDB, "sqlite3"))
	require.True(t, tableExists(t, sqlDB, "user_roles"))

	_, err = sqlDB.Exec(`INSERT INTO user_roles (id, user_id, role) VALUES (?, ?, 'admin')`, uuid.NewString(), uuid.NewString())
	require.NoError(t, err)

	_, err = sqlDB.Exec(`INSERT INTO user_roles (id, user_id, role) VALUES (?, ?, 'root')`, uuid.NewString(), uuid.NewString())
	require.Error(t, err, "role check constraint")

	require.NoError(t, Run(ctx, sqlDB, "sqlite3", "down"))
	require.False(t, tableExists(t, sqlDB, "user_roles"))
}

func TestMaybeAutoMigrate(t *testing.T) {
	ctx := context.Background()
	client := newSQLiteClient(t)

	cfg := &config.Config{DB: config.DBConfig{Driver: config.DriverSQLite}}
	require.NoError(t, MaybeAutoMigrate(ctx, cfg, logger.Nop(), client))

	sqlDB, err := client.SQL()
	require.NoError(t, err)
	require.True(t, tableExists(t, sqlDB, "user_roles"))
}

func TestMaybeAutoMigrateSkipsPostgresByDefault(t *testing.T) {
	cfg := &config.Config{DB: config.DBConfig{Driver: config.DriverPostgres}}
	require.NoError(t, MaybeAutoMigrate(context.Background(), cfg, logger.Nop(), nil))
}

func TestDialectFor(t *testing.T) {
	d, err := DialectFor(config.DriverPostgres)
	require.NoError(t, err)
	require.Equal(t, "postgres", d)

	d, err = DialectFor(config.DriverSQLite)
	require.NoError(t, err)
	require.Equal(t, "sqlite3", d)

	_, err = DialectFor("mysql")
	require.Error(t, err)
}

func TestRunRequiresDB(t *testing.T) {
	require.Error(t, Run(context.Background(), nil, "sqlite3", "up"))
}
