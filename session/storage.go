package session

// Fixed keys for the persisted session fields. They must stay stable across
// releases or existing sessions stop surviving restarts.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyUserInfo     = "user_info"
	KeyLoginTime    = "login_time"
)

// Storage persists the session fields between process runs. Save replaces the
// whole key group in one atomic step; Clear removes it the same way. A partial
// group must never be observable.
type Storage interface {
	Load() (map[string]string, error)
	Save(values map[string]string) error
	Clear() error
}
