package session

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/Bigfish4tim/km-portal-client/roles"
	"github.com/Bigfish4tim/km-portal-client/users"
)

// tokenExpiryLeeway is subtracted from the access token's exp claim so a
// token about to lapse is already treated as stale.
const tokenExpiryLeeway = 5 * time.Minute

// Store holds the process-wide session: the token pair, the authenticated
// user, and the login time. Every mutation is mirrored to the Storage backend
// so the session survives restarts.
//
// The original portal ran this state on a single-threaded event loop; Go
// callers share the Store across goroutines, so access is guarded by a
// read-write mutex.
type Store struct {
	mu      sync.RWMutex
	storage Storage
	nowTime func() time.Time

	accessToken  string
	refreshToken string
	user         *users.User
	loginTime    time.Time
}

// StoreOption defines a function type to modify the Store instance.
type StoreOption func(*Store)

// WithNowTime sets the now time function (primarily for testing).
func WithNowTime(nowFunc func() time.Time) StoreOption {
	return func(s *Store) {
		s.nowTime = nowFunc
	}
}

// NewStore initializes a Store backed by the given Storage.
func NewStore(storage Storage, options ...StoreOption) (*Store, error) {
	if storage == nil {
		return nil, errors.New("[NewStore] storage is required")
	}

	s := &Store{
		storage: storage,
		nowTime: time.Now,
	}

	for _, opt := range options {
		opt(s)
	}

	return s, nil
}

// SetTokens replaces both tokens.
func (s *Store) SetTokens(accessToken, refreshToken string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = accessToken
	s.refreshToken = refreshToken
	s.persistLocked()
}

// SetAccessToken replaces only the access token. Used on refresh, where the
// rest of the session stays untouched.
func (s *Store) SetAccessToken(accessToken string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = accessToken
	s.persistLocked()
}

// SetUser replaces the stored user profile.
func (s *Store) SetUser(u *users.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = copyUser(u)
	s.persistLocked()
}

// SetLoginTime records when the session was established.
func (s *Store) SetLoginTime(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loginTime = t
	s.persistLocked()
}

// Clear drops the whole session, in memory and in storage.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = ""
	s.refreshToken = ""
	s.user = nil
	s.loginTime = time.Time{}
	if err := s.storage.Clear(); err != nil {
		log.Warn().Err(err).Msg("failed to clear session storage")
	}
}

// IsAuthenticated reports whether a session is established: access token and
// user must both be present.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken != "" && s.user != nil
}

// AccessToken returns the current access token, or "" when logged out.
func (s *Store) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

// RefreshToken returns the current refresh token, or "" when none is held.
func (s *Store) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}

// User returns a copy of the stored profile, or nil when logged out.
func (s *Store) User() *users.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyUser(s.user)
}

// LoginTime returns when the session was established.
func (s *Store) LoginTime() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loginTime
}

// LoginDuration returns how long the session has been established. The second
// return is false when no login time is recorded.
func (s *Store) LoginDuration() (time.Duration, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.loginTime.IsZero() {
		return 0, false
	}
	return s.nowTime().Sub(s.loginTime), true
}

// TokenValid reports whether the held access token will still be accepted,
// judged locally from its exp claim with a safety leeway. The signature is
// not checked; only the server can do that.
func (s *Store) TokenValid() bool {
	token := s.AccessToken()
	if token == "" {
		return false
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}

	return s.nowTime().Before(exp.Time.Add(-tokenExpiryLeeway))
}

// Restore hydrates the session from storage in one atomic step. A partial
// group (any required field missing, or an unparseable user blob) abandons
// the hydration and wipes storage so no half-session can ever be restored.
func (s *Store) Restore() error {
	values, err := s.storage.Load()
	if err != nil {
		return errors.Wrap(err, "[Store.Restore] storage.Load")
	}

	accessToken := values[KeyAccessToken]
	refreshToken := values[KeyRefreshToken]
	userBlob := values[KeyUserInfo]

	if accessToken == "" && refreshToken == "" && userBlob == "" {
		return nil
	}
	if accessToken == "" || refreshToken == "" || userBlob == "" {
		s.abandonHydration("incomplete persisted session")
		return nil
	}

	var u users.User
	if err := json.Unmarshal([]byte(userBlob), &u); err != nil {
		s.abandonHydration("unparseable persisted user")
		return nil
	}

	var loginTime time.Time
	if raw := values[KeyLoginTime]; raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			loginTime = t
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = accessToken
	s.refreshToken = refreshToken
	s.user = &u
	s.loginTime = loginTime
	return nil
}

func (s *Store) abandonHydration(reason string) {
	log.Warn().Str("reason", reason).Msg("abandoning session hydration, wiping storage")
	if err := s.storage.Clear(); err != nil {
		log.Warn().Err(err).Msg("failed to wipe session storage")
	}
}

// persistLocked mirrors the current state to storage as one key group.
// Callers must hold the write lock.
func (s *Store) persistLocked() {
	values := map[string]string{
		KeyAccessToken:  s.accessToken,
		KeyRefreshToken: s.refreshToken,
	}
	if s.user != nil {
		if blob, err := json.Marshal(s.user); err == nil {
			values[KeyUserInfo] = string(blob)
		}
	}
	if !s.loginTime.IsZero() {
		values[KeyLoginTime] = s.loginTime.Format(time.RFC3339)
	}

	if err := s.storage.Save(values); err != nil {
		log.Warn().Err(err).Msg("failed to persist session")
	}
}

func copyUser(u *users.User) *users.User {
	if u == nil {
		return nil
	}
	out := *u
	if u.Roles != nil {
		out.Roles = append([]roles.Role(nil), u.Roles...)
	}
	return &out
}
