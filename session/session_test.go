package session_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/Bigfish4tim/km-portal-client/roles"
	"github.com/Bigfish4tim/km-portal-client/session"
	"github.com/Bigfish4tim/km-portal-client/session/storagefake"
	"github.com/Bigfish4tim/km-portal-client/users"
)

func testUser() *users.User {
	return &users.User{
		ID:       7,
		Username: "johndoe",
		FullName: "John Doe",
		Email:    "john.doe@example.com",
		Roles:    []roles.Role{roles.TeamLeaderType1},
	}
}

// signedToken forges an HS256 token with the given expiry for local
// inspection tests. The Store never verifies signatures, so any secret works.
func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "7",
		"exp": exp.Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func TestStoreAuthenticationInvariant(t *testing.T) {
	store, err := session.NewStore(storagefake.NewFakeStorage())
	require.NoError(t, err)

	require.False(t, store.IsAuthenticated())

	store.SetTokens("access-1", "refresh-1")
	require.False(t, store.IsAuthenticated(), "token without user must not authenticate")

	store.SetUser(testUser())
	require.True(t, store.IsAuthenticated())

	store.Clear()
	require.False(t, store.IsAuthenticated())

	store.SetUser(testUser())
	require.False(t, store.IsAuthenticated(), "user without token must not authenticate")
}

func TestNewStoreRequiresStorage(t *testing.T) {
	_, err := session.NewStore(nil)
	require.Error(t, err)
}

func TestStorePersistenceRoundTrip(t *testing.T) {
	storage := storagefake.NewFakeStorage()
	loginAt := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

	store, err := session.NewStore(storage)
	require.NoError(t, err)
	store.SetTokens("access-1", "refresh-1")
	store.SetUser(testUser())
	store.SetLoginTime(loginAt)

	// A fresh store over the same storage restores the full session.
	restored, err := session.NewStore(storage)
	require.NoError(t, err)
	require.NoError(t, restored.Restore())

	require.True(t, restored.IsAuthenticated())
	require.Equal(t, "access-1", restored.AccessToken())
	require.Equal(t, "refresh-1", restored.RefreshToken())
	require.Equal(t, testUser(), restored.User())
	require.True(t, loginAt.Equal(restored.LoginTime()))
}

func TestRestoreAbandonsPartialSession(t *testing.T) {
	userBlob, err := json.Marshal(testUser())
	require.NoError(t, err)

	tests := []struct {
		name string
		seed map[string]string
	}{
		{
			name: "missing refresh token",
			seed: map[string]string{
				session.KeyAccessToken: "access-1",
				session.KeyUserInfo:    string(userBlob),
			},
		},
		{
			name: "missing access token",
			seed: map[string]string{
				session.KeyRefreshToken: "refresh-1",
				session.KeyUserInfo:     string(userBlob),
			},
		},
		{
			name: "missing user",
			seed: map[string]string{
				session.KeyAccessToken:  "access-1",
				session.KeyRefreshToken: "refresh-1",
			},
		},
		{
			name: "corrupted user blob",
			seed: map[string]string{
				session.KeyAccessToken:  "access-1",
				session.KeyRefreshToken: "refresh-1",
				session.KeyUserInfo:     "{not json",
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			storage := storagefake.NewFakeStorage()
			for k, v := range tc.seed {
				storage.Set(k, v)
			}

			store, err := session.NewStore(storage)
			require.NoError(t, err)
			require.NoError(t, store.Restore())

			require.False(t, store.IsAuthenticated())
			require.Empty(t, store.AccessToken())
			require.Nil(t, store.User())
			require.Empty(t, storage.Snapshot(), "partial state must be wiped")
		})
	}
}

func TestRestoreLoadFailure(t *testing.T) {
	storage := storagefake.NewFakeStorage()
	storage.LoadErr = errors.New("disk gone")

	store, err := session.NewStore(storage)
	require.NoError(t, err)
	require.Error(t, store.Restore())
	require.False(t, store.IsAuthenticated())
}

func TestClearWipesStorage(t *testing.T) {
	storage := storagefake.NewFakeStorage()
	store, err := session.NewStore(storage)
	require.NoError(t, err)

	store.SetTokens("access-1", "refresh-1")
	store.SetUser(testUser())
	store.SetLoginTime(time.Now())
	require.NotEmpty(t, storage.Snapshot())

	store.Clear()
	require.False(t, store.IsAuthenticated())
	require.Empty(t, storage.Snapshot())

	for _, key := range []string{
		session.KeyAccessToken, session.KeyRefreshToken,
		session.KeyUserInfo, session.KeyLoginTime,
	} {
		require.NotContains(t, storage.Snapshot(), key)
	}
}

func TestSetAccessTokenLeavesRestOfSession(t *testing.T) {
	store, err := session.NewStore(storagefake.NewFakeStorage())
	require.NoError(t, err)

	store.SetTokens("access-1", "refresh-1")
	store.SetUser(testUser())

	store.SetAccessToken("access-2")
	require.Equal(t, "access-2", store.AccessToken())
	require.Equal(t, "refresh-1", store.RefreshToken())
	require.Equal(t, testUser(), store.User())
}

func TestTokenValid(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	newStore := func(t *testing.T) *session.Store {
		store, err := session.NewStore(
			storagefake.NewFakeStorage(),
			session.WithNowTime(func() time.Time { return now }),
		)
		require.NoError(t, err)
		return store
	}

	t.Run("no token", func(t *testing.T) {
		require.False(t, newStore(t).TokenValid())
	})

	t.Run("well before expiry", func(t *testing.T) {
		store := newStore(t)
		store.SetAccessToken(signedToken(t, now.Add(time.Hour)))
		require.True(t, store.TokenValid())
	})

	t.Run("inside the leeway window", func(t *testing.T) {
		store := newStore(t)
		store.SetAccessToken(signedToken(t, now.Add(3*time.Minute)))
		require.False(t, store.TokenValid())
	})

	t.Run("expired", func(t *testing.T) {
		store := newStore(t)
		store.SetAccessToken(signedToken(t, now.Add(-time.Minute)))
		require.False(t, store.TokenValid())
	})

	t.Run("not a JWT", func(t *testing.T) {
		store := newStore(t)
		store.SetAccessToken("opaque-token")
		require.False(t, store.TokenValid())
	})
}

func TestLoginDuration(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	store, err := session.NewStore(
		storagefake.NewFakeStorage(),
		session.WithNowTime(func() time.Time { return now }),
	)
	require.NoError(t, err)

	_, ok := store.LoginDuration()
	require.False(t, ok)

	store.SetLoginTime(now.Add(-42 * time.Minute))
	d, ok := store.LoginDuration()
	require.True(t, ok)
	require.Equal(t, 42*time.Minute, d)
}

func TestUserReturnsCopy(t *testing.T) {
	store, err := session.NewStore(storagefake.NewFakeStorage())
	require.NoError(t, err)
	store.SetUser(testUser())

	u := store.User()
	u.Username = "mallory"
	u.Roles[0] = roles.Admin

	require.Equal(t, testUser(), store.User())
}
