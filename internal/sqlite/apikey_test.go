package sqlite

import (
	"context"
	"testing"

	"github.com/rpggio/tumorboard/internal/repository"
	"github.com/stretchr/testify/require"
)

func TestAPIKeyRepository_AddResolve(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewAPIKeyRepository(db)

	require.NoError(t, repo.Add(ctx, "secret-token", "tenant1", "test key"))
	require.ErrorIs(t, repo.Add(ctx, "secret-token", "tenant2", ""), repository.ErrConflict)
	require.ErrorIs(t, repo.Add(ctx, "", "tenant1", ""), repository.ErrInvalidInput)

	tenantID, err := repo.ResolveTenant(ctx, "secret-token")
	require.NoError(t, err)
	require.Equal(t, "tenant1", tenantID)

	var stored string
	require.NoError(t, db.QueryRow("SELECT key_hash FROM api_keys").Scan(&stored))
	require.Equal(t, HashToken("secret-token"), stored)
	require.NotEqual(t, "secret-token", stored)

	var used int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM api_keys WHERE last_used IS NOT NULL").Scan(&used))
	require.Equal(t, 1, used)

	_, err = repo.ResolveTenant(ctx, "wrong")
	require.ErrorIs(t, err, repository.ErrNotFound)
}
