package session_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Bigfish4tim/km-portal-client/session"
)

func TestSQLiteStorage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "session.db")

	storage, err := session.NewSQLiteStorage(path)
	require.NoError(t, err)
	defer storage.Close()

	t.Run("empty on first open", func(t *testing.T) {
		values, err := storage.Load()
		require.NoError(t, err)
		require.Empty(t, values)
	})

	t.Run("save replaces the whole group", func(t *testing.T) {
		require.NoError(t, storage.Save(map[string]string{
			session.KeyAccessToken:  "access-1",
			session.KeyRefreshToken: "refresh-1",
			session.KeyUserInfo:     `{"id":7}`,
			session.KeyLoginTime:    "2026-03-02T09:30:00Z",
		}))

		// A subsequent smaller group must not leave stale keys behind.
		require.NoError(t, storage.Save(map[string]string{
			session.KeyAccessToken:  "access-2",
			session.KeyRefreshToken: "refresh-1",
		}))

		values, err := storage.Load()
		require.NoError(t, err)
		require.Equal(t, map[string]string{
			session.KeyAccessToken:  "access-2",
			session.KeyRefreshToken: "refresh-1",
		}, values)
	})

	t.Run("survives reopen", func(t *testing.T) {
		reopened, err := session.NewSQLiteStorage(path)
		require.NoError(t, err)
		defer reopened.Close()

		values, err := reopened.Load()
		require.NoError(t, err)
		require.Equal(t, "access-2", values[session.KeyAccessToken])
	})

	t.Run("clear removes everything", func(t *testing.T) {
		require.NoError(t, storage.Clear())
		values, err := storage.Load()
		require.NoError(t, err)
		require.Empty(t, values)
	})
}
