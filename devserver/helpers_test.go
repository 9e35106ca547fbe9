package devserver_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jrsteele09/go-visitas/devserver"
	"github.com/jrsteele09/go-visitas/internal/config"
	"github.com/stretchr/testify/require"
)

const (
	adminPassword = "Admin123!"
	userPassword  = "Secret123!"
)

type testFixture struct {
	server *devserver.Server
	http   *httptest.Server
}

func setupTestFixture(t *testing.T, options ...devserver.Option) *testFixture {
	t.Helper()
	t.Setenv("ADMIN_USERNAME", "admin")
	t.Setenv("ADMIN_PASSWORD", adminPassword)
	t.Setenv("JWT_SECRET", "test-secret")

	options = append([]devserver.Option{devserver.WithRouteOutput(io.Discard)}, options...)
	srv, err := devserver.New(config.New(), options...)
	require.NoError(t, err)

	httpServer := httptest.NewServer(srv)
	t.Cleanup(httpServer.Close)
	return &testFixture{server: srv, http: httpServer}
}

// call sends body, JSON encoded unless it is already a string, to the API
// path and returns the status code and raw response body.
func (f *testFixture) call(t *testing.T, method, path, bearer string, body any) (int, []byte) {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, f.http.URL+devserver.RoutePrefix+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := f.http.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func (f *testFixture) callJSON(t *testing.T, method, path, bearer string, body, out any) int {
	t.Helper()
	status, data := f.call(t, method, path, bearer, body)
	if out != nil && len(data) > 0 {
		require.NoError(t, json.Unmarshal(data, out), string(data))
	}
	return status
}

func (f *testFixture) login(t *testing.T, username, password string) devserver.Session {
	t.Helper()
	var session devserver.Session
	status := f.callJSON(t, http.MethodPost, devserver.RouteAuthLogin, "",
		map[string]string{"username": username, "password": password}, &session)
	require.Equal(t, http.StatusOK, status)
	return session
}

// member creates a regular user and logs them in.
func (f *testFixture) member(t *testing.T, username string) devserver.Session {
	t.Helper()
	_, err := f.server.CreateUser(username, userPassword, false)
	require.NoError(t, err)
	return f.login(t, username, userPassword)
}

func errorOf(t *testing.T, data []byte) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(data, &body), string(data))
	return body.Error
}
