package devserver_test

import (
	"net/http"
	"testing"

	"github.com/jrsteele09/go-visitas/devserver"
	"github.com/jrsteele09/go-visitas/users"
	"github.com/stretchr/testify/require"
)

func TestLogin(t *testing.T) {
	f := setupTestFixture(t)

	t.Run("username", func(t *testing.T) {
		session := f.login(t, "admin", adminPassword)
		require.NotEmpty(t, session.AccessToken)
		require.Len(t, session.RefreshToken, 64)
		require.Equal(t, "Bearer", session.TokenType)
		require.NotNil(t, session.User)
		require.Equal(t, "admin", session.User.Username)
		require.True(t, session.User.IsAdmin)
	})

	t.Run("email", func(t *testing.T) {
		var session devserver.Session
		status := f.callJSON(t, http.MethodPost, devserver.RouteAuthLogin, "",
			map[string]string{"email": "admin@visitas.local", "password": adminPassword}, &session)
		require.Equal(t, http.StatusOK, status)
		require.Equal(t, "admin", session.User.Username)
	})

	t.Run("wrong password", func(t *testing.T) {
		status, data := f.call(t, http.MethodPost, devserver.RouteAuthLogin, "",
			map[string]string{"username": "admin", "password": "nope"})
		require.Equal(t, http.StatusUnauthorized, status)
		require.Equal(t, "invalid credentials", errorOf(t, data))
	})

	t.Run("missing fields", func(t *testing.T) {
		status, _ := f.call(t, http.MethodPost, devserver.RouteAuthLogin, "", map[string]string{"username": "admin"})
		require.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("malformed body", func(t *testing.T) {
		status, _ := f.call(t, http.MethodPost, devserver.RouteAuthLogin, "", "{not json")
		require.Equal(t, http.StatusBadRequest, status)
	})
}

func TestRegister(t *testing.T) {
	f := setupTestFixture(t)

	register := func(body map[string]any) (int, []byte) {
		return f.call(t, http.MethodPost, devserver.RouteAuthRegister, "", body)
	}

	status, data := register(map[string]any{
		"username": "hiram", "email": "hiram@example.com", "password": userPassword, "is_admin": true,
	})
	require.Equal(t, http.StatusCreated, status, string(data))

	session := f.login(t, "hiram", userPassword)
	require.False(t, session.User.IsAdmin, "registration never grants admin")

	tests := []struct {
		name string
		body map[string]any
		want string
	}{
		{"duplicate username", map[string]any{"username": "hiram", "email": "other@example.com", "password": userPassword}, "user already exists"},
		{"duplicate email", map[string]any{"username": "boaz", "email": "hiram@example.com", "password": userPassword}, "email already registered"},
		{"weak password", map[string]any{"username": "boaz", "email": "boaz@example.com", "password": "secret"}, "password"},
		{"missing email", map[string]any{"username": "boaz", "password": userPassword}, "email"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			status, data := register(tc.body)
			require.Equal(t, http.StatusBadRequest, status)
			require.Contains(t, errorOf(t, data), tc.want)
		})
	}
}

func TestRefresh(t *testing.T) {
	f := setupTestFixture(t)
	session := f.login(t, "admin", adminPassword)

	var refreshed devserver.Session
	status := f.callJSON(t, http.MethodPost, devserver.RouteAuthRefresh, session.RefreshToken, nil, &refreshed)
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, refreshed.AccessToken)
	require.NotEqual(t, session.AccessToken, refreshed.AccessToken)
	require.Empty(t, refreshed.RefreshToken, "refresh tokens are not rotated")
	require.Equal(t, "admin", refreshed.User.Username)

	t.Run("refresh token in body", func(t *testing.T) {
		status, _ := f.call(t, http.MethodPost, devserver.RouteAuthRefresh, "",
			map[string]string{"refresh_token": session.RefreshToken})
		require.Equal(t, http.StatusOK, status)
	})

	t.Run("unknown token", func(t *testing.T) {
		status, _ := f.call(t, http.MethodPost, devserver.RouteAuthRefresh, "deadbeef", nil)
		require.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("access token is not a refresh token", func(t *testing.T) {
		status, _ := f.call(t, http.MethodPost, devserver.RouteAuthRefresh, session.AccessToken, nil)
		require.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("revoked", func(t *testing.T) {
		revoked, err := f.server.RevokeRefreshTokens()
		require.NoError(t, err)
		require.Equal(t, 1, revoked)

		status, _ := f.call(t, http.MethodPost, devserver.RouteAuthRefresh, session.RefreshToken, nil)
		require.Equal(t, http.StatusUnauthorized, status)
	})
}

func TestExpireAccessTokens(t *testing.T) {
	f := setupTestFixture(t)
	session := f.login(t, "admin", adminPassword)

	status, _ := f.call(t, http.MethodGet, devserver.RouteAuthMe, session.AccessToken, nil)
	require.Equal(t, http.StatusOK, status)

	f.server.ExpireAccessTokens()
	status, data := f.call(t, http.MethodGet, devserver.RouteAuthMe, session.AccessToken, nil)
	require.Equal(t, http.StatusUnauthorized, status)
	require.Contains(t, errorOf(t, data), "token expired")

	var refreshed devserver.Session
	require.Equal(t, http.StatusOK, f.callJSON(t, http.MethodPost, devserver.RouteAuthRefresh, session.RefreshToken, nil, &refreshed))
	status, _ = f.call(t, http.MethodGet, devserver.RouteAuthMe, refreshed.AccessToken, nil)
	require.Equal(t, http.StatusOK, status)
}

func TestMeAndVerify(t *testing.T) {
	f := setupTestFixture(t)
	session := f.member(t, "hiram")

	var me users.User
	require.Equal(t, http.StatusOK, f.callJSON(t, http.MethodGet, devserver.RouteAuthMe, session.AccessToken, nil, &me))
	require.Equal(t, session.User.ID, me.ID)
	require.Equal(t, "hiram", me.Username)

	var verified struct {
		Valid     bool        `json:"valid"`
		User      *users.User `json:"user"`
		ExpiresAt string      `json:"expires_at"`
	}
	require.Equal(t, http.StatusOK, f.callJSON(t, http.MethodGet, devserver.RouteAuthVerify, session.AccessToken, nil, &verified))
	require.True(t, verified.Valid)
	require.Equal(t, "hiram", verified.User.Username)
	require.NotEmpty(t, verified.ExpiresAt)

	t.Run("missing token", func(t *testing.T) {
		status, _ := f.call(t, http.MethodGet, devserver.RouteAuthMe, "", nil)
		require.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("garbage token", func(t *testing.T) {
		status, _ := f.call(t, http.MethodGet, devserver.RouteAuthVerify, "not-a-jwt", nil)
		require.Equal(t, http.StatusUnauthorized, status)
	})
}

func TestChangePassword(t *testing.T) {
	f := setupTestFixture(t)
	session := f.member(t, "hiram")

	change := func(current, next string) (int, []byte) {
		return f.call(t, http.MethodPost, devserver.RouteAuthChangePassword, session.AccessToken,
			map[string]string{"current_password": current, "new_password": next})
	}

	status, data := change("wrong", "Another456?")
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "current password is incorrect", errorOf(t, data))

	status, _ = change(userPassword, "weak")
	require.Equal(t, http.StatusBadRequest, status)

	status, _ = change(userPassword, "")
	require.Equal(t, http.StatusBadRequest, status)

	status, data = change(userPassword, "Another456?")
	require.Equal(t, http.StatusOK, status, string(data))

	status, _ = f.call(t, http.MethodPost, devserver.RouteAuthLogin, "",
		map[string]string{"username": "hiram", "password": userPassword})
	require.Equal(t, http.StatusUnauthorized, status)
	f.login(t, "hiram", "Another456?")
}

func TestLogout(t *testing.T) {
	f := setupTestFixture(t)
	session := f.member(t, "hiram")

	status, _ := f.call(t, http.MethodPost, devserver.RouteAuthLogout, session.AccessToken, nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = f.call(t, http.MethodGet, devserver.RouteAuthMe, session.AccessToken, nil)
	require.Equal(t, http.StatusUnauthorized, status)

	status, _ = f.call(t, http.MethodPost, devserver.RouteAuthRefresh, session.RefreshToken, nil)
	require.Equal(t, http.StatusUnauthorized, status)
}
