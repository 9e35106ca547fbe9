package devserver

import "github.com/jrsteele09/go-visitas/users"

// ExpireAccessTokens makes every access token issued so far fail as expired.
// Refresh tokens keep working.
func (s *Server) ExpireAccessTokens() {
	s.tokens.ExpireAll()
}

// RevokeRefreshTokens deletes every refresh token, so the next refresh fails.
func (s *Server) RevokeRefreshTokens() (int, error) {
	return s.refresh.RevokeAll()
}

// CleanupRevoked drops revoked access token ids whose tokens have expired.
func (s *Server) CleanupRevoked() int {
	return s.tokens.CleanupRevoked()
}

// RequestCount reports how many requests matched "METHOD route", with route
// relative to RoutePrefix, e.g. RequestCount("GET", RouteLojas+"/{id}").
func (s *Server) RequestCount(method, route string) int {
	s.countLock.Lock()
	defer s.countLock.Unlock()
	return s.counts[method+" "+RoutePrefix+route]
}

// CreateUser adds a user directly, bypassing registration.
func (s *Server) CreateUser(username, password string, admin bool) (*users.User, error) {
	user, err := s.accounts.Register(Registration{
		Username: username,
		Email:    username + "@visitas.local",
		Password: password,
		IsAdmin:  admin,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug().Str("username", username).Bool("admin", admin).Msg("user created")
	return user, nil
}
