package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "visitas.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaults(t *testing.T) {
	for _, v := range []string{apiURLVar, tokenStorageVar, requestTimeoutVar, portEnvVar, keyPrefixVar} {
		t.Setenv(v, "")
	}
	c := New()

	require.Equal(t, "http://localhost:5000/api", c.GetAPIURL())
	require.Equal(t, "session", c.GetTokenStorage())
	require.Equal(t, 10*time.Second, c.GetRequestTimeout())
	require.Equal(t, ":5000", c.GetPort())
	require.Equal(t, "visitas.", c.GetCredentialsKeyPrefix())
	require.Equal(t, 32, c.GetRefreshTokenLength())
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("TEST_SECRET", "from-env-expansion")
	t.Setenv(apiURLVar, "")
	t.Setenv(tokenStorageVar, "durable")
	t.Setenv(jwtSecretVar, "")

	path := writeConfig(t, `
api:
  url: http://backend:5000/api
  timeout: 3s
credentials:
  storage: session
server:
  jwt_secret: ${TEST_SECRET}
  port: "8081"
`)
	t.Setenv(portEnvVar, "")
	t.Setenv(requestTimeoutVar, "")

	c, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "http://backend:5000/api", c.GetAPIURL())
	require.Equal(t, 3*time.Second, c.GetRequestTimeout())
	require.Equal(t, "durable", c.GetTokenStorage(), "environment wins over file")
	require.Equal(t, "from-env-expansion", c.GetJWTSecret())
	require.Equal(t, ":8081", c.GetPort())
}

func TestInvalidDurationFallsBack(t *testing.T) {
	t.Setenv(requestTimeoutVar, "soon")
	require.Equal(t, 10*time.Second, New().GetRequestTimeout())
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	_, err = Load(writeConfig(t, "api: [unterminated"))
	require.Error(t, err)
}

func TestAllowedOrigins(t *testing.T) {
	t.Setenv(allowedOriginsVar, "http://a.test, http://b.test")
	origins := New().GetAllowedOrigins()
	require.True(t, origins.IsAllowedOrigin("http://a.test"))
	require.True(t, origins.IsAllowedOrigin("http://b.test"))
	require.False(t, origins.IsAllowedOrigin("http://c.test"))
}
