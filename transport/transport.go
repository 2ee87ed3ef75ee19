// Package transport wraps an http.RoundTripper with the portal's bearer
// authentication: outgoing requests carry the stored access token, 401
// responses trigger a single-flight refresh-token exchange, and the failing
// request is replayed once with the fresh token.
package transport

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/Bigfish4tim/km-portal-client/api"
	"github.com/Bigfish4tim/km-portal-client/session"
)

const defaultRefreshTimeout = 10 * time.Second

// ErrRefreshRejected is returned when the refresh token exchange fails for
// any reason: the token is invalid, expired, absent, or the call itself did
// not complete. It is always terminal for the session.
var ErrRefreshRejected = errors.New("refresh token rejected")

// noRefreshPaths are the endpoints whose 401s must never start a refresh
// cycle. A rejected login is a rejected login; a rejected refresh is handled
// by the coordinator itself.
var noRefreshPaths = []string{
	api.LoginPath,
	api.RegisterPath,
	api.RefreshPath,
	api.LogoutPath,
}

// AuthTransport implements http.RoundTripper.
type AuthTransport struct {
	store       *session.Store
	base        http.RoundTripper
	coordinator *refreshCoordinator
}

var _ http.RoundTripper = (*AuthTransport)(nil)

// Option defines a function type to modify the AuthTransport instance.
type Option func(*AuthTransport)

// WithBase sets the underlying RoundTripper (defaults to
// http.DefaultTransport).
func WithBase(rt http.RoundTripper) Option {
	return func(t *AuthTransport) {
		t.base = rt
	}
}

// WithRefreshTimeout sets the timeout of the refresh exchange, independent of
// any caller's request deadline.
func WithRefreshTimeout(d time.Duration) Option {
	return func(t *AuthTransport) {
		t.coordinator.timeout = d
	}
}

// WithOnSessionEnd registers a hook fired when a failed refresh tears the
// session down. The surrounding application typically redirects to its login
// surface from here.
func WithOnSessionEnd(fn func()) Option {
	return func(t *AuthTransport) {
		t.coordinator.onSessionEnd = fn
	}
}

// New initializes an AuthTransport over the given session store. refreshURL
// is the absolute URL of the refresh endpoint; the exchange bypasses the
// bearer decoration entirely.
func New(store *session.Store, refreshURL string, options ...Option) (*AuthTransport, error) {
	if store == nil {
		return nil, errors.New("[transport.New] store is required")
	}
	if refreshURL == "" {
		return nil, errors.New("[transport.New] refreshURL is required")
	}

	t := &AuthTransport{
		store: store,
		base:  http.DefaultTransport,
		coordinator: &refreshCoordinator{
			store:   store,
			url:     refreshURL,
			client:  &http.Client{},
			timeout: defaultRefreshTimeout,
		},
	}

	for _, opt := range options {
		opt(t)
	}

	return t, nil
}

// RoundTrip decorates the request with the bearer header, forwards it, and
// drives the 401 refresh-and-replay cycle. A replayed request that gets a
// second 401 is returned as-is; the refresh flow never re-enters.
func (t *AuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	out := t.decorate(req, t.store.AccessToken())

	resp, err := t.base.RoundTrip(out)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized || skipRefresh(req.URL.Path) {
		return resp, nil
	}
	if req.Body != nil && req.GetBody == nil {
		// One-shot body, cannot replay.
		return resp, nil
	}

	drain(resp)

	token, err := t.coordinator.refresh(req.Context())
	if err != nil {
		return nil, err
	}

	retry := t.decorate(req, token)
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, errors.Wrap(err, "[AuthTransport.RoundTrip] rewinding request body")
		}
		retry.Body = body
	}

	return t.base.RoundTrip(retry)
}

// decorate clones the request and attaches the request ID and, when a token
// is held, the bearer header. The caller's request is never mutated.
func (t *AuthTransport) decorate(req *http.Request, token string) *http.Request {
	out := req.Clone(req.Context())
	if out.Header.Get("X-Request-ID") == "" {
		out.Header.Set("X-Request-ID", uuid.New().String())
	}
	if token != "" {
		out.Header.Set("Authorization", "Bearer "+token)
	}
	return out
}

func skipRefresh(path string) bool {
	for _, p := range noRefreshPaths {
		if strings.HasSuffix(path, p) {
			return true
		}
	}
	return false
}

// drain releases the connection held by a response we are about to discard.
func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
