package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/jrsteele09/go-visitas/users"
)

// refreshState collapses concurrent 401s into one refresh call. While inFlight
// is set, callers that hit a 401 park a continuation in pending instead of
// refreshing themselves.
type refreshState struct {
	lock     sync.Mutex
	inFlight bool
	pending  []*continuation
	// ended is the error of the last failed refresh, handed to requests that
	// were already on the wire when the session ended.
	ended *RefreshError
}

// continuation is a parked call. done is buffered so settling never blocks,
// even when the caller has stopped waiting.
type continuation struct {
	call *call
	done chan outcome
}

type outcome struct {
	resp *Response
	err  error
}

type refreshResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token,omitempty"`
	User         *users.User `json:"user,omitempty"`
}

// recoverSession handles the first 401 of cl, which was sent with sentToken.
func (c *Client) recoverSession(cl *call, sentToken string) (*Response, error) {
	cl.retried = true

	c.refresh.lock.Lock()
	current := c.vault.AccessToken()
	switch {
	case current != "" && current != sentToken:
		// A refresh finished while cl was on the wire: replay with the token it produced.
		c.refresh.lock.Unlock()
		return c.replay(cl, current)
	case current == "" && sentToken != "" && !c.refresh.inFlight:
		// The session ended while cl was on the wire. The user has already
		// been sent to the login screen.
		ended := c.refresh.ended
		c.refresh.lock.Unlock()
		if ended == nil {
			ended = &RefreshError{Err: ErrNoRefreshToken}
		}
		return nil, ended
	}
	if c.refresh.inFlight {
		k := &continuation{call: cl, done: make(chan outcome, 1)}
		c.refresh.pending = append(c.refresh.pending, k)
		queued := len(c.refresh.pending)
		c.refresh.lock.Unlock()

		c.logger.Debug().Str("path", cl.req.Path).Int("queued", queued).Msg("waiting for token refresh")
		select {
		case out := <-k.done:
			return out.resp, out.err
		case <-cl.ctx.Done():
			return nil, &ConnectivityError{Method: cl.req.Method, Path: cl.req.Path, Err: cl.ctx.Err()}
		}
	}
	c.refresh.inFlight = true
	c.refresh.lock.Unlock()

	return c.leadRefresh(cl)
}

// leadRefresh runs the one refresh call, then resumes every queued
// continuation in arrival order and replays cl after them.
func (c *Client) leadRefresh(cl *call) (*Response, error) {
	c.logger.Info().Str("path", cl.req.Path).Msg("access token rejected, refreshing session")

	token, err := c.refreshSession(cl.ctx)
	if err != nil {
		return nil, c.endSession(err)
	}

	c.refresh.lock.Lock()
	pending := c.refresh.pending
	c.refresh.pending = nil
	c.refresh.inFlight = false
	c.refresh.ended = nil
	c.refresh.lock.Unlock()

	c.logger.Info().Int("queued", len(pending)).Msg("session refreshed")

	<-c.resume(pending, token)
	return c.replay(cl, token)
}

// resume replays every parked call with token, each on its own goroutine.
// A replay starts once the previous one has been written, so the requests
// leave in arrival order without waiting on each other's responses. The
// returned channel closes when the last one has been written.
func (c *Client) resume(pending []*continuation, token string) <-chan struct{} {
	prev := make(chan struct{})
	close(prev)
	for _, k := range pending {
		next := make(chan struct{})
		go func(wait <-chan struct{}) {
			<-wait
			k.call.dispatched = sync.OnceFunc(func() { close(next) })
			resp, err := c.replay(k.call, token)
			k.done <- outcome{resp: resp, err: err}
		}(prev)
		prev = next
	}
	return prev
}

// replay resends cl once. A second 401 is returned to the caller as is.
func (c *Client) replay(cl *call, token string) (*Response, error) {
	resp, err := c.send(cl, token)
	if err != nil {
		return nil, err
	}
	return c.result(cl, resp)
}

// refreshSession exchanges the stored refresh token for a new access token
// and stores the result. The caller's cancellation does not abort it, since
// other requests depend on the outcome.
func (c *Client) refreshSession(ctx context.Context) (string, error) {
	refreshToken := c.vault.RefreshToken()
	if refreshToken == "" {
		return "", ErrNoRefreshToken
	}

	cl := &call{
		ctx: context.WithoutCancel(ctx),
		req: &Request{Method: http.MethodPost, Path: c.refreshPath},
	}
	resp, err := c.send(cl, refreshToken)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", newStatusError(cl.req.Method, cl.req.Path, resp.StatusCode, resp.Body)
	}

	var body refreshResponse
	if err := resp.Decode(&body); err != nil {
		return "", fmt.Errorf("decode refresh response: %w", err)
	}
	if body.AccessToken == "" {
		return "", errors.New("refresh response carried no access token")
	}
	creds, err := c.vault.Rotate(body.AccessToken, body.RefreshToken, body.User)
	if err != nil {
		return "", fmt.Errorf("store refreshed credentials: %w", err)
	}
	return creds.AccessToken(), nil
}

// endSession is the terminal path: credentials are cleared, every queued
// continuation fails with the same error and the user is sent to the login
// screen once.
func (c *Client) endSession(cause error) error {
	rerr := &RefreshError{Err: cause}
	c.logger.Error().Err(cause).Msg("token refresh failed, ending session")

	if err := c.vault.Clear(); err != nil {
		c.logger.Error().Err(err).Msg("failed to clear stored credentials")
	}

	c.refresh.lock.Lock()
	pending := c.refresh.pending
	c.refresh.pending = nil
	c.refresh.inFlight = false
	c.refresh.ended = rerr
	c.refresh.lock.Unlock()

	for _, k := range pending {
		k.done <- outcome{err: rerr}
	}
	if !c.redirector.OnLoginScreen() {
		c.redirector.RedirectToLogin()
	}
	return rerr
}
