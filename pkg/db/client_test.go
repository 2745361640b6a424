package db

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/angelmondragon/pixcheckout/pkg/config"
	"github.com/angelmondragon/pixcheckout/pkg/logger"
)

func TestNewSQLiteClient(t *testing.T) {
	ctx := context.Background()
	client, err := New(ctx, config.DBConfig{
		Driver:       config.DriverSQLite,
		DSN:          "file:" + uuid.NewString() + "?mode=memory&cache=shared",
		MaxOpenConns: 1,
	}, nil)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	if err := client.Ping(ctx); err != nil {
		t.Fatalf("ping failed: %v", err)
	}
	if _, err := client.SQL(); err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	if client.DB() == nil {
		t.Fatal("expected gorm handle")
	}
}

func TestNewRequiresDSN(t *testing.T) {
	if _, err := New(context.Background(), config.DBConfig{Driver: config.DriverPostgres}, nil); err == nil {
		t.Fatal("expected missing dsn error")
	}
}

func TestIsUniqueViolation(t *testing.T) {
	cases := []struct {
		err        error
		constraint string
		want       bool
	}{
		{nil, "", false},
		{errors.New("ERROR: duplicate key value violates unique constraint \"user_roles_user_id_role_key\""), "", true},
		{errors.New("ERROR: duplicate key value violates unique constraint \"user_roles_user_id_role_key\""), "user_roles_user_id_role_key", true},
		{errors.New("ERROR: duplicate key value violates unique constraint \"other\""), "user_roles_user_id_role_key", false},
		{errors.New("UNIQUE constraint failed: user_roles.user_id, user_roles.role"), "", true},
		{errors.New("connection reset"), "", false},
		{gorm.ErrDuplicatedKey, "user_roles_user_id_role_key", true},
		{fmt.Errorf("grant: %w", &pgconn.PgError{Code: "23505", ConstraintName: "user_roles_user_id_role_key"}), "user_roles_user_id_role_key", true},
		{&pgconn.PgError{Code: "23505", ConstraintName: "other"}, "user_roles_user_id_role_key", false},
		{&pgconn.PgError{Code: "23503"}, "", false},
	}
	for _, tc := range cases {
		if got := IsUniqueViolation(tc.err, tc.constraint); got != tc.want {
			t.Fatalf("IsUniqueViolation(%v, %q) = %v want %v", tc.err, tc.constraint, got, tc.want)
		}
	}
}

func TestQueryLoggerReportsSlowQueries(t *testing.T) {
	buf := &bytes.Buffer{}
	q := newQueryLogger(logger.New(logger.Options{ServiceName: "test", Output: buf}), 10*time.Millisecond)

	q.Trace(context.Background(), time.Now(), func() (string, int64) { return "SELECT 1", 1 }, nil)
	if buf.Len() != 0 {
		t.Fatalf("fast query should not log: %s", buf.String())
	}

	q.Trace(context.Background(), time.Now().Add(-time.Second), func() (string, int64) { return "SELECT 1", 1 }, nil)
	if !bytes.Contains(buf.Bytes(), []byte("db.query.slow")) {
		t.Fatalf("expected slow query entry, got %s", buf.String())
	}

	buf.Reset()
	silent := q.LogMode(gormlogger.Silent)
	silent.Trace(context.Background(), time.Now().Add(-time.Second), func() (string, int64) { return "SELECT 1", 1 }, nil)
	if buf.Len() != 0 {
		t.Fatalf("silent mode should not log: %s", buf.String())
	}
}
