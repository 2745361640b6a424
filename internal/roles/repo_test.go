package roles

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/pixcheckout/pkg/config"
	"github.com/angelmondragon/pixcheckout/pkg/db"
	"github.com/angelmondragon/pixcheckout/pkg/enums"
	pkgerrors "github.com/angelmondragon/pixcheckout/pkg/errors"
	"github.com/angelmondragon/pixcheckout/pkg/migrate"
)

func setupRolesTestDB(t *testing.T) *db.Client {
	t.Helper()

	client, err := db.New(context.Background(), config.DBConfig{
		Driver:       config.DriverSQLite,
		DSN:          "file:" + uuid.NewString() + "?mode=memory&cache=shared",
		MaxOpenConns: 1,
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	sqlDB, err := client.SQL()
	require.NoError(t, err)
	require.NoError(t, migrate.Up(context.Background(), sqlDB, "sqlite3"))
	return client
}

func TestRepositoryRoleFlow(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(setupRolesTestDB(t).DB(), 0)
	userID := uuid.New()

	count, err := repo.CountRoles(ctx, userID, enums.AppRoleAdmin)
	require.NoError(t, err)
	assert.Zero(t, count)

	require.NoError(t, repo.Grant(ctx, userID, enums.AppRoleAdmin))
	require.NoError(t, repo.Grant(ctx, userID, enums.AppRoleAdmin), "duplicate grant is a no-op")
	require.NoError(t, repo.Grant(ctx, userID, enums.AppRoleUser))

	count, err = repo.CountRoles(ctx, userID, enums.AppRoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, err = repo.CountRoles(ctx, uuid.New(), enums.AppRoleAdmin)
	require.NoError(t, err)
	assert.Zero(t, count, "other users are unaffected")

	roles, err := repo.ListRoles(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, []enums.AppRole{enums.AppRoleAdmin, enums.AppRoleUser}, roles)

	require.NoError(t, repo.Revoke(ctx, userID, enums.AppRoleAdmin))
	count, err = repo.CountRoles(ctx, userID, enums.AppRoleAdmin)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestRepositoryGrantRejectsUnknownRole(t *testing.T) {
	repo := NewRepository(setupRolesTestDB(t).DB(), 0)
	err := repo.Grant(context.Background(), uuid.New(), enums.AppRole("root"))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestRepositoryErrorsAreDependencyErrors(t *testing.T) {
	client := setupRolesTestDB(t)
	repo := NewRepository(client.DB(), 0)
	require.NoError(t, client.Close())

	_, err := repo.CountRoles(context.Background(), uuid.New(), enums.AppRoleAdmin)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestResolverOverRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(setupRolesTestDB(t).DB(), 0)
	admin := uuid.New()
	require.NoError(t, repo.Grant(ctx, admin, enums.AppRoleAdmin))

	r := NewResolver(repo)
	r.SetIdentity(ctx, &Identity{UserID: admin})
	assert.Equal(t, Result{IsElevated: true}, awaitResult(t, r))

	r.SetIdentity(ctx, &Identity{UserID: uuid.New()})
	assert.Equal(t, Result{}, awaitResult(t, r))
}
