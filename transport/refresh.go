package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/Bigfish4tim/km-portal-client/api"
	"github.com/Bigfish4tim/km-portal-client/session"
)

// refreshCoordinator serializes refresh-token exchanges: at most one network
// call is in flight at any time, and every concurrent 401 observer waits on
// that shared attempt instead of issuing its own.
type refreshCoordinator struct {
	store        *session.Store
	url          string
	client       *http.Client // plain client, no bearer decoration
	timeout      time.Duration
	onSessionEnd func()

	mu       sync.Mutex
	inflight *refreshAttempt
}

// refreshAttempt is the shared result of one refresh cycle. Waiters block on
// done; token and err are immutable once done is closed, so all waiters
// settle together with the same outcome.
type refreshAttempt struct {
	done  chan struct{}
	token string
	err   error
}

// refresh returns a fresh access token, either by joining the in-flight
// exchange or by becoming its issuer. The exchange itself runs under its own
// timeout; ctx only bounds how long this caller is willing to wait for it.
func (c *refreshCoordinator) refresh(ctx context.Context) (string, error) {
	c.mu.Lock()
	if a := c.inflight; a != nil {
		c.mu.Unlock()
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-a.done:
			return a.token, a.err
		}
	}

	a := &refreshAttempt{done: make(chan struct{})}
	c.inflight = a
	c.mu.Unlock()

	a.token, a.err = c.exchange()
	close(a.done)

	c.mu.Lock()
	c.inflight = nil
	c.mu.Unlock()

	return a.token, a.err
}

// exchange performs the actual refresh call. Any failure tears the session
// down and reports ErrRefreshRejected; the caller layer treats that as
// "session ended, log in again".
func (c *refreshCoordinator) exchange() (string, error) {
	refreshToken := c.store.RefreshToken()
	if refreshToken == "" {
		return "", c.reject(errors.Wrap(ErrRefreshRejected, "no refresh token held"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	body, err := json.Marshal(api.RefreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return "", c.reject(errors.Wrap(err, "[refreshCoordinator.exchange] marshal"))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", c.reject(errors.Wrap(err, "[refreshCoordinator.exchange] build request"))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		// A timed-out or failed refresh call counts as a rejection, not a
		// transport error: the session cannot be silently renewed.
		return "", c.reject(errors.Wrapf(ErrRefreshRejected, "refresh call failed: %v", err))
	}
	defer resp.Body.Close()

	var envelope api.Envelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return "", c.reject(errors.Wrapf(ErrRefreshRejected, "undecodable refresh response: %v", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !envelope.Success {
		msg := envelope.Message
		if msg == "" {
			msg = resp.Status
		}
		return "", c.reject(errors.Wrapf(ErrRefreshRejected, "%s", msg))
	}

	var data api.RefreshData
	if err := json.Unmarshal(envelope.Data, &data); err != nil || data.AccessToken == "" {
		return "", c.reject(errors.Wrap(ErrRefreshRejected, "refresh response carried no access token"))
	}

	if data.RefreshToken != "" {
		c.store.SetTokens(data.AccessToken, data.RefreshToken)
	} else {
		c.store.SetAccessToken(data.AccessToken)
	}

	log.Debug().Msg("access token refreshed")
	return data.AccessToken, nil
}

// reject tears the session down and surfaces the failure to every waiter.
func (c *refreshCoordinator) reject(err error) error {
	c.store.Clear()
	log.Warn().Err(err).Msg("token refresh failed, session ended")
	if c.onSessionEnd != nil {
		c.onSessionEnd()
	}
	return err
}
