// Package auth is the client side session layer: it signs users in and out,
// registers accounts and restores a stored session at start up. Requests go
// through an apiclient.Client, so an expired access token during any of these
// calls is refreshed like any other.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-visitas/apiclient"
	"github.com/jrsteele09/go-visitas/credentials"
	"github.com/jrsteele09/go-visitas/internal/errors"
	"github.com/jrsteele09/go-visitas/users"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

// Paths of the account endpoints, relative to the API base URL.
const (
	PathLogin          = "/auth/login"
	PathRegister       = "/auth/register"
	PathLogout         = "/auth/logout"
	PathMe             = "/auth/me"
	PathVerify         = "/auth/verify"
	PathChangePassword = "/auth/change-password"
)

var (
	ErrNotSignedIn        = errors.New("not signed in")
	ErrInvalidCredentials = errors.ErrInvalidCredentials
	ErrWeakPassword       = errors.ErrWeakPassword
	ErrMissingField       = errors.ErrMissingField
)

type Service struct {
	client *apiclient.Client
	vault  *credentials.Vault
	logger zerolog.Logger
}

type ServiceOption func(*Service)

func WithLogger(logger zerolog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService returns a Service storing its session in the client's vault.
func NewService(client *apiclient.Client, opts ...ServiceOption) (*Service, error) {
	if client == nil {
		return nil, fmt.Errorf("[NewService] api client is required")
	}
	s := &Service{
		client: client,
		vault:  client.Vault(),
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	TokenType    string      `json:"token_type"`
	User         *users.User `json:"user"`
}

// Login signs in and stores the returned session. Bad credentials come back
// as ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, username, password string) (*users.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, errors.Wrapf(ErrMissingField, "username and password")
	}

	var resp loginResponse
	err := s.client.DoJSON(ctx, http.MethodPost, PathLogin, loginRequest{Username: username, Password: password}, &resp)
	if err != nil {
		if errors.Is(err, apiclient.ErrUnauthorized) {
			return nil, errors.Wrapf(ErrInvalidCredentials, "login %s: %s", username, serverMessage(err))
		}
		return nil, err
	}
	if resp.AccessToken == "" || !resp.User.Valid() {
		return nil, fmt.Errorf("login response is missing the access token or user")
	}

	tokenType := resp.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}
	if err := s.vault.Save(&credentials.Credentials{
		Token: &oauth2.Token{
			AccessToken:  resp.AccessToken,
			RefreshToken: resp.RefreshToken,
			TokenType:    tokenType,
		},
		User: resp.User,
	}); err != nil {
		return nil, errors.Wrapf(err, "store session")
	}
	s.logger.Info().Int64("user_id", resp.User.ID).Str("username", resp.User.Username).Msg("signed in")
	return resp.User, nil
}

type Registration struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

// Register creates an account and signs into it.
func (s *Service) Register(ctx context.Context, reg Registration) (*users.User, error) {
	reg.Username = strings.TrimSpace(reg.Username)
	reg.Email = strings.TrimSpace(reg.Email)
	switch {
	case reg.Username == "":
		return nil, errors.Wrapf(ErrMissingField, "username")
	case reg.Email == "":
		return nil, errors.Wrapf(ErrMissingField, "email")
	}
	if err := users.ValidatePasswordStrength(reg.Password); err != nil {
		return nil, errors.Wrapf(ErrWeakPassword, "%v", err)
	}

	if _, err := s.client.Post(ctx, PathRegister, reg); err != nil {
		return nil, err
	}
	s.logger.Info().Str("username", reg.Username).Msg("registered")
	return s.Login(ctx, reg.Username, reg.Password)
}

// Logout ends the session on the server, best effort, and clears the stored
// credentials.
func (s *Service) Logout(ctx context.Context) error {
	if s.vault.AccessToken() != "" {
		if _, err := s.client.Post(ctx, PathLogout, nil); err != nil {
			s.logger.Debug().Err(err).Msg("server logout failed")
		}
	}
	if err := s.vault.Clear(); err != nil {
		return errors.Wrapf(err, "clear session")
	}
	s.logger.Info().Msg("signed out")
	return nil
}

type verifyResponse struct {
	Valid *bool       `json:"valid"`
	User  *users.User `json:"user"`
}

// Bootstrap restores a stored session, checking it against the server. A
// session the server rejects is cleared and reported as ErrNotSignedIn.
// Connectivity failures leave the stored session in place.
func (s *Service) Bootstrap(ctx context.Context) (*users.User, error) {
	creds, err := s.vault.Load()
	if err != nil {
		return nil, errors.Wrapf(err, "load session")
	}
	if creds == nil {
		return nil, ErrNotSignedIn
	}

	user, err := s.fetchUser(ctx)
	if err != nil {
		if rejected(err) {
			s.logger.Info().Err(err).Msg("stored session rejected")
			if clearErr := s.vault.Clear(); clearErr != nil {
				return nil, errors.Wrapf(clearErr, "clear session")
			}
			return nil, fmt.Errorf("%w: %w", ErrNotSignedIn, err)
		}
		return nil, err
	}

	if accessToken := s.vault.AccessToken(); accessToken != "" {
		if _, err := s.vault.Rotate(accessToken, "", user); err != nil {
			return nil, errors.Wrapf(err, "store user")
		}
	}
	return user, nil
}

// fetchUser asks /auth/me for the current user, falling back to /auth/verify
// on servers without it.
func (s *Service) fetchUser(ctx context.Context) (*users.User, error) {
	resp, err := s.client.Get(ctx, PathMe)
	if errors.Is(err, apiclient.ErrNotFound) {
		s.logger.Debug().Msg("no /auth/me endpoint, using /auth/verify")
		resp, err = s.client.Get(ctx, PathVerify)
	}
	if err != nil {
		return nil, err
	}

	var verified verifyResponse
	if err := resp.Decode(&verified); err == nil && verified.User != nil {
		if verified.Valid != nil && !*verified.Valid {
			return nil, errors.Wrapf(apiclient.ErrUnauthorized, "token reported invalid")
		}
		return verified.User, nil
	}

	var user users.User
	if err := resp.Decode(&user); err != nil {
		return nil, errors.Wrapf(err, "decode user")
	}
	if !user.Valid() {
		return nil, fmt.Errorf("server returned no user")
	}
	return &user, nil
}

// rejected reports whether err means the stored session is no good, as
// opposed to the server being unreachable.
func rejected(err error) bool {
	return errors.Is(err, apiclient.ErrUnauthorized) ||
		errors.Is(err, apiclient.ErrSessionExpired) ||
		errors.Is(err, apiclient.ErrNoRefreshToken)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (s *Service) ChangePassword(ctx context.Context, current, next string) error {
	if current == "" {
		return errors.Wrapf(ErrMissingField, "current password")
	}
	if err := users.ValidatePasswordStrength(next); err != nil {
		return errors.Wrapf(ErrWeakPassword, "%v", err)
	}
	_, err := s.client.Post(ctx, PathChangePassword, changePasswordRequest{CurrentPassword: current, NewPassword: next})
	return err
}

// CurrentUser returns the stored user, or nil when signed out.
func (s *Service) CurrentUser() *users.User {
	return s.vault.User()
}

func (s *Service) SignedIn() bool {
	return s.vault.AccessToken() != "" && s.vault.User() != nil
}

func serverMessage(err error) string {
	var statusErr *apiclient.StatusError
	if errors.As(err, &statusErr) && statusErr.Message != "" {
		return statusErr.Message
	}
	return "login rejected"
}
