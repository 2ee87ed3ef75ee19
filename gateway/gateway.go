// Package gateway exposes the portal's session operations: login, logout,
// register, and current-user. Outcomes are always reported as a Result, never
// as a raised error — callers branch on Success, not on error types.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/Bigfish4tim/km-portal-client/api"
	"github.com/Bigfish4tim/km-portal-client/session"
	"github.com/Bigfish4tim/km-portal-client/transport"
	"github.com/Bigfish4tim/km-portal-client/users"
)

const healthTimeout = 5 * time.Second

// Result is the normalized outcome of a session operation. Message carries
// the server's explanation when one was given; User is set on operations that
// yield a profile.
type Result struct {
	Success bool
	Message string
	User    *users.User
}

// Gateway orchestrates the session store and the authenticated HTTP client.
type Gateway struct {
	store   *session.Store
	client  *http.Client
	baseURL string
	nowTime func() time.Time
}

// Option defines a function type to modify the Gateway instance.
type Option func(*Gateway)

// WithNowTime sets the now time function (primarily for testing).
func WithNowTime(nowFunc func() time.Time) Option {
	return func(g *Gateway) {
		g.nowTime = nowFunc
	}
}

// New initializes a Gateway. baseURL is the API base (origin plus prefix);
// client is expected to carry a transport.AuthTransport so bearer decoration
// and the refresh cycle apply to every call made here.
func New(store *session.Store, baseURL string, client *http.Client, options ...Option) (*Gateway, error) {
	if store == nil {
		return nil, errors.New("[gateway.New] store is required")
	}
	if baseURL == "" {
		return nil, errors.New("[gateway.New] baseURL is required")
	}
	if client == nil {
		return nil, errors.New("[gateway.New] client is required")
	}

	g := &Gateway{
		store:   store,
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		nowTime: time.Now,
	}

	for _, opt := range options {
		opt(g)
	}

	return g, nil
}

// Login authenticates with the backend and establishes the session. Empty
// credentials fail locally without a network call.
func (g *Gateway) Login(ctx context.Context, username, password string) Result {
	if strings.TrimSpace(username) == "" || strings.TrimSpace(password) == "" {
		return Result{Message: "username and password are required"}
	}

	env, status, err := g.do(ctx, http.MethodPost, api.LoginPath, api.LoginRequest{
		Username: username,
		Password: password,
	})
	if err != nil {
		log.Error().Err(err).Msg("login request failed")
		return Result{Message: failureMessage(nil, err, "login failed")}
	}
	if status < 200 || status >= 300 || !env.Success {
		return Result{Message: failureMessage(env, nil, "login failed")}
	}

	var data api.LoginData
	if err := json.Unmarshal(env.Data, &data); err != nil || data.AccessToken == "" || data.User == nil {
		log.Error().Err(err).Msg("login response missing tokens or user")
		return Result{Message: "login failed"}
	}

	g.store.SetTokens(data.AccessToken, data.RefreshToken)
	g.store.SetUser(data.User)
	g.store.SetLoginTime(g.nowTime())

	log.Info().Str("username", data.User.Username).Msg("login succeeded")
	return Result{Success: true, User: data.User}
}

// Logout tells the backend best-effort and then unconditionally clears the
// local session. A failing logout call never blocks the local cleanup.
func (g *Gateway) Logout(ctx context.Context) Result {
	if _, _, err := g.do(ctx, http.MethodPost, api.LogoutPath, nil); err != nil {
		log.Warn().Err(err).Msg("logout request failed, clearing local session anyway")
	}
	g.store.Clear()
	return Result{Success: true, Message: "logged out"}
}

// Register submits a new-account request. The session store is never touched;
// registering does not log the new account in.
func (g *Gateway) Register(ctx context.Context, reg users.Registration) Result {
	if err := reg.Validate(); err != nil {
		return Result{Message: err.Error()}
	}

	env, status, err := g.do(ctx, http.MethodPost, api.RegisterPath, reg)
	if err != nil {
		log.Error().Err(err).Msg("register request failed")
		return Result{Message: failureMessage(nil, err, "registration failed")}
	}
	if status < 200 || status >= 300 || !env.Success {
		return Result{Message: failureMessage(env, nil, "registration failed")}
	}

	msg := env.Message
	if msg == "" {
		msg = "registration completed"
	}
	return Result{Success: true, Message: msg}
}

// CurrentUser fetches the profile behind the held access token and refreshes
// the stored copy. Any failure means the session is no longer good
// server-side, so the local session is torn down too.
func (g *Gateway) CurrentUser(ctx context.Context) Result {
	env, status, err := g.do(ctx, http.MethodGet, api.MePath, nil)
	if err != nil || status < 200 || status >= 300 || !env.Success {
		msg := failureMessage(env, err, "failed to fetch current user")
		if errors.Is(err, transport.ErrRefreshRejected) {
			msg = "session expired, please log in again"
		}
		log.Warn().Err(err).Msg("current-user lookup failed, logging out")
		g.Logout(ctx)
		return Result{Message: msg}
	}

	var u users.User
	if err := json.Unmarshal(env.Data, &u); err != nil {
		log.Warn().Err(err).Msg("current-user payload unparseable, logging out")
		g.Logout(ctx)
		return Result{Message: "failed to fetch current user"}
	}

	g.store.SetUser(&u)
	return Result{Success: true, User: &u}
}

// Health reports whether the backend answers its health probe.
func (g *Gateway) Health(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	_, status, err := g.do(ctx, http.MethodGet, api.HealthPath, nil)
	return err == nil && status == http.StatusOK
}

// do issues one API call and decodes the response envelope. The envelope is
// returned even for non-2xx statuses so callers can surface the server's
// message.
func (g *Gateway) do(ctx context.Context, method, path string, payload any) (*api.Envelope, int, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, errors.Wrap(err, "[Gateway.do] marshal payload")
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, body)
	if err != nil {
		return nil, 0, errors.Wrap(err, "[Gateway.do] build request")
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	var env api.Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, resp.StatusCode, errors.Wrap(err, "[Gateway.do] decode response")
	}
	return &env, resp.StatusCode, nil
}

// failureMessage picks the most useful explanation available: the server's
// message, the transport error, or the operation's generic fallback.
func failureMessage(env *api.Envelope, err error, fallback string) string {
	if env != nil && env.Message != "" {
		return env.Message
	}
	if err != nil {
		return fallback + ": " + err.Error()
	}
	return fallback
}
