package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/lootguard/internal/database/testutil"
	"github.com/charlesng35/lootguard/internal/services"
)

func newPermissionService(t *testing.T) *services.PermissionService {
	t.Helper()
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := services.NewPermissionService(db)
	require.NoError(t, err)
	return svc
}

func TestPermissionGrantAndCheck(t *testing.T) {
	svc := newPermissionService(t)
	ctx := context.Background()

	has, err := svc.Has(ctx, "actor-1", services.PermBypassAll)
	require.NoError(t, err)
	require.False(t, has)

	require.NoError(t, svc.Grant(ctx, "actor-1", services.PermBypassAll))

	has, err = svc.Has(ctx, "actor-1", services.PermBypassAll)
	require.NoError(t, err)
	require.True(t, has)
}

func TestPermissionGrantIsIdempotent(t *testing.T) {
	svc := newPermissionService(t)
	ctx := context.Background()

	require.NoError(t, svc.Grant(ctx, "actor-1", services.PermShare))
	require.NoError(t, svc.Grant(ctx, "actor-1", services.PermShare))

	perms, err := svc.List(ctx, "actor-1")
	require.NoError(t, err)
	require.Equal(t, []string{services.PermShare}, perms)
}

func TestPermissionRevoke(t *testing.T) {
	svc := newPermissionService(t)
	ctx := context.Background()

	require.NoError(t, svc.Grant(ctx, "actor-1", services.PermProtected))
	require.NoError(t, svc.Revoke(ctx, "actor-1", services.PermProtected))

	has, err := svc.Has(ctx, "actor-1", services.PermProtected)
	require.NoError(t, err)
	require.False(t, has)
}

func TestPermissionRejectsUnknownName(t *testing.T) {
	svc := newPermissionService(t)

	err := svc.Grant(context.Background(), "actor-1", "lootguard.bogus")
	require.Error(t, err)
}
