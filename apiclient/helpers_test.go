package apiclient_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/jrsteele09/go-visitas/apiclient"
	"github.com/jrsteele09/go-visitas/credentials"
	"github.com/jrsteele09/go-visitas/users"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type seenRequest struct {
	Path  string
	Token string
}

// fakeBackend accepts exactly one access token at a time and swaps it for
// newToken on a successful refresh.
type fakeBackend struct {
	mu           sync.Mutex
	validToken   string
	newToken     string
	refreshToken string
	refreshUser  *users.User
	seen         []seenRequest
	headers      []http.Header

	refreshCalls atomic.Int32
	// refreshGate, when set, holds the refresh call until it is closed.
	refreshGate    chan struct{}
	refreshStarted chan struct{}
	refreshStatus  int
	// onRequest runs before a protected route is answered.
	onRequest func(path, token string)
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		validToken:     "T2",
		newToken:       "T2",
		refreshToken:   "R1",
		refreshStarted: make(chan struct{}, 1),
	}
}

func bearer(r *http.Request) string {
	return strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// configure changes the backend's behaviour while requests may be running.
func (b *fakeBackend) configure(fn func(b *fakeBackend)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn(b)
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := bearer(r)

	b.mu.Lock()
	gate, refreshStatus, refreshToken := b.refreshGate, b.refreshStatus, b.refreshToken
	b.mu.Unlock()

	switch r.URL.Path {
	case "/auth/refresh":
		b.refreshCalls.Add(1)
		select {
		case b.refreshStarted <- struct{}{}:
		default:
		}
		if gate != nil {
			<-gate
		}
		if refreshStatus != 0 {
			writeJSON(w, refreshStatus, map[string]string{"error": "refresh rejected"})
			return
		}
		if token != refreshToken {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid refresh token"})
			return
		}
		b.mu.Lock()
		b.validToken = b.newToken
		body := map[string]any{"access_token": b.newToken}
		if b.refreshUser != nil {
			body["user"] = b.refreshUser
		}
		b.mu.Unlock()
		writeJSON(w, http.StatusOK, body)
		return
	case "/auth/login":
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		return
	}

	b.mu.Lock()
	b.seen = append(b.seen, seenRequest{Path: r.URL.Path, Token: token})
	b.headers = append(b.headers, r.Header.Clone())
	valid := b.validToken
	hook := b.onRequest
	b.mu.Unlock()

	if hook != nil {
		hook(r.URL.Path, token)
	}

	switch r.URL.Path {
	case "/forbidden":
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "access denied"})
	case "/missing":
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no such lodge"})
	case "/invalid":
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "nome is required"})
	case "/broken":
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "boom"})
	case "/always-401":
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "token expired"})
	default:
		if token != valid {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "token expired"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"path": r.URL.Path})
	}
}

func (b *fakeBackend) requests() []seenRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]seenRequest(nil), b.seen...)
}

// tokensFor lists the tokens path was called with, in arrival order.
func (b *fakeBackend) tokensFor(path string) []string {
	var tokens []string
	for _, r := range b.requests() {
		if r.Path == path {
			tokens = append(tokens, r.Token)
		}
	}
	return tokens
}

// dispatchLog records requests in the order the client hands them to the
// transport, which is independent of how the server schedules its handlers.
type dispatchLog struct {
	mu   sync.Mutex
	seen []seenRequest
}

func (d *dispatchLog) RoundTrip(r *http.Request) (*http.Response, error) {
	d.mu.Lock()
	d.seen = append(d.seen, seenRequest{Path: r.URL.Path, Token: bearer(r)})
	d.mu.Unlock()
	return http.DefaultTransport.RoundTrip(r)
}

// withToken lists the paths dispatched with token, in order.
func (d *dispatchLog) withToken(token string) []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	var paths []string
	for _, r := range d.seen {
		if r.Token == token {
			paths = append(paths, r.Path)
		}
	}
	return paths
}

type countingRedirector struct {
	calls       atomic.Int32
	onLoginPage bool
}

func (r *countingRedirector) OnLoginScreen() bool { return r.onLoginPage }

func (r *countingRedirector) RedirectToLogin() { r.calls.Add(1) }

type testFixture struct {
	backend    *fakeBackend
	server     *httptest.Server
	vault      *credentials.Vault
	redirector *countingRedirector
	client     *apiclient.Client
}

var signedInUser = &users.User{ID: 1, Username: "hiram", Name: "Hiram Abiff"}

func setupTestFixture(t *testing.T, opts ...apiclient.Option) *testFixture {
	t.Helper()

	backend := newFakeBackend()
	server := httptest.NewServer(backend)
	t.Cleanup(server.Close)

	vault, err := credentials.NewVault(credentials.NewMemoryStore(), "")
	require.NoError(t, err)
	require.NoError(t, vault.Save(&credentials.Credentials{
		Token: &oauth2.Token{AccessToken: "T1", RefreshToken: "R1"},
		User:  signedInUser,
	}))

	redirector := &countingRedirector{}
	opts = append([]apiclient.Option{apiclient.WithLoginRedirector(redirector)}, opts...)
	client, err := apiclient.New(server.URL, vault, opts...)
	require.NoError(t, err)

	return &testFixture{
		backend:    backend,
		server:     server,
		vault:      vault,
		redirector: redirector,
		client:     client,
	}
}
