package boltdb

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/fedsim/internal/client/storage"
)

// создаем тестовое BoltDB хранилище с session bucket
func createTestStorage(t *testing.T) *Storage {
	dbPath := filepath.Join(t.TempDir(), "session_test.db")

	store, err := New(context.Background(), dbPath)
	require.NoError(t, err)
	require.NotNil(t, store)

	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})

	return store
}

func TestStorage_SaveGetDeleteSession(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	session := &storage.SessionData{
		Username:    "alice",
		AccessToken: "token-123",
		LastGroup:   "income",
		ExpiresAt:   time.Now().Add(time.Hour).Unix(),
	}

	// GetSession до сохранения выдает ErrSessionNotFound
	_, err := store.GetSession(ctx)
	assert.ErrorIs(t, err, storage.ErrSessionNotFound)

	// Сохраняем сессию
	err = store.SaveSession(ctx, session)
	require.NoError(t, err)

	// Получаем и сравниваем
	got, err := store.GetSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, session, got)

	// Удаляем
	err = store.DeleteSession(ctx)
	require.NoError(t, err)

	_, err = store.GetSession(ctx)
	assert.ErrorIs(t, err, storage.ErrSessionNotFound)

	// Повторное удаление тоже ErrSessionNotFound
	err = store.DeleteSession(ctx)
	assert.ErrorIs(t, err, storage.ErrSessionNotFound)
}

func TestStorage_SaveSession_Overwrites(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	first := &storage.SessionData{Username: "alice", AccessToken: "t1", ExpiresAt: time.Now().Add(time.Hour).Unix()}
	second := &storage.SessionData{Username: "bob", AccessToken: "t2", ExpiresAt: time.Now().Add(time.Hour).Unix()}

	require.NoError(t, store.SaveSession(ctx, first))
	require.NoError(t, store.SaveSession(ctx, second))

	got, err := store.GetSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, "bob", got.Username)
	assert.Equal(t, "t2", got.AccessToken)
}

func TestStorage_IsAuthenticated(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	// Нет сессии
	ok, err := store.IsAuthenticated(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	// Живая сессия
	require.NoError(t, store.SaveSession(ctx, &storage.SessionData{
		Username:    "alice",
		AccessToken: "token",
		ExpiresAt:   time.Now().Add(time.Hour).Unix(),
	}))

	ok, err = store.IsAuthenticated(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	// Просроченная сессия
	require.NoError(t, store.SaveSession(ctx, &storage.SessionData{
		Username:    "alice",
		AccessToken: "token",
		ExpiresAt:   time.Now().Add(-time.Hour).Unix(),
	}))

	ok, err = store.IsAuthenticated(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}
