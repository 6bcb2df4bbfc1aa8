package persistence_test

import (
	"errors"
	"testing"

	"github.com/eshop-labs/commerce-engine/internal/persistence"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (persistence.Storage, redismock.ClientMock) {
	t.Helper()

	client, mock := redismock.NewClientMock()

	return persistence.NewRedisStorage(client), mock
}

func TestRedisStorageGet(t *testing.T) {
	ctx := t.Context()

	t.Run("Success", func(t *testing.T) {
		storage, mock := setupRedis(t)
		mock.ExpectGet(persistence.KeySnapshot).SetVal(`{"version":1}`)

		value, err := storage.Get(ctx, persistence.KeySnapshot)

		require.NoError(t, err)
		assert.Equal(t, `{"version":1}`, value)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Absent Key Maps To ErrNotFound", func(t *testing.T) {
		storage, mock := setupRedis(t)
		mock.ExpectGet(persistence.KeyUser).RedisNil()

		_, err := storage.Get(ctx, persistence.KeyUser)

		assert.ErrorIs(t, err, persistence.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Connection Error Is Wrapped", func(t *testing.T) {
		storage, mock := setupRedis(t)
		mock.ExpectGet(persistence.KeyUser).SetErr(errors.New("connection refused"))

		_, err := storage.Get(ctx, persistence.KeyUser)

		require.Error(t, err)
		assert.NotErrorIs(t, err, persistence.ErrNotFound)
		assert.Contains(t, err.Error(), "failed to get key")
	})
}

func TestRedisStorageSet(t *testing.T) {
	ctx := t.Context()

	t.Run("Success - No Expiry", func(t *testing.T) {
		storage, mock := setupRedis(t)
		mock.ExpectSet(persistence.KeySnapshot, "blob", 0).SetVal("OK")

		err := storage.Set(ctx, persistence.KeySnapshot, "blob")

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Failure", func(t *testing.T) {
		storage, mock := setupRedis(t)
		mock.ExpectSet(persistence.KeySnapshot, "blob", 0).SetErr(errors.New("readonly replica"))

		err := storage.Set(ctx, persistence.KeySnapshot, "blob")

		assert.Error(t, err)
	})
}

func TestRedisStorageDelete(t *testing.T) {
	ctx := t.Context()

	storage, mock := setupRedis(t)
	mock.ExpectDel(persistence.KeyIsAuthenticated).SetVal(1)

	err := storage.Delete(ctx, persistence.KeyIsAuthenticated)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
