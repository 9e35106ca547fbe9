package devserver

import (
	"strings"
	"time"

	"github.com/jrsteele09/go-visitas/internal/errors"
	"github.com/jrsteele09/go-visitas/token"
	"github.com/jrsteele09/go-visitas/token/refresh"
	"github.com/jrsteele09/go-visitas/users"
)

// Session is the body of a successful login or refresh.
type Session struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token,omitempty"`
	TokenType    string      `json:"token_type"`
	ExpiresIn    int         `json:"expires_in"`
	User         *users.User `json:"user"`
}

// Accounts implements sign in, registration and token refresh on top of the
// user repo and the token managers.
type Accounts struct {
	users   users.UserRepo
	tokens  *token.Manager
	refresh *refresh.Manager
	nowTime func() time.Time
}

func NewAccounts(userRepo users.UserRepo, tokens *token.Manager, refreshTokens *refresh.Manager) (*Accounts, error) {
	if userRepo == nil {
		return nil, errors.New("[NewAccounts] Users repo is required")
	}
	if tokens == nil {
		return nil, errors.New("[NewAccounts] token manager is required")
	}
	if refreshTokens == nil {
		return nil, errors.New("[NewAccounts] refresh token manager is required")
	}
	return &Accounts{
		users:   userRepo,
		tokens:  tokens,
		refresh: refreshTokens,
		nowTime: time.Now,
	}, nil
}

// Login checks the password of the user named by login, which may be a
// username or an email address, and opens a session.
func (a *Accounts) Login(login, password string) (*Session, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, errors.Wrapf(errors.ErrMissingField, "username and password")
	}

	user, err := a.users.GetByUsername(login)
	if err != nil && strings.Contains(login, "@") {
		user, err = a.users.GetByEmail(login)
	}
	if err != nil || !user.CheckPassword(password) {
		return nil, errors.ErrInvalidCredentials
	}

	accessToken, err := a.tokens.CreateAccessToken(user)
	if err != nil {
		return nil, errors.Wrapf(err, "Accounts.Login CreateAccessToken")
	}
	refreshToken, err := a.refresh.Create(user.ID)
	if err != nil {
		return nil, errors.Wrapf(err, "Accounts.Login CreateRefreshToken")
	}
	return a.session(accessToken, refreshToken, user), nil
}

// Refresh exchanges a refresh token for a new access token. The refresh token
// itself is not rotated.
func (a *Accounts) Refresh(refreshToken string) (*Session, error) {
	rt, err := a.refresh.Validate(refreshToken)
	if err != nil {
		return nil, err
	}
	user, err := a.users.GetByID(rt.UserID)
	if err != nil {
		_ = a.refresh.Delete(refreshToken)
		return nil, errors.Wrapf(errors.ErrInvalidRefreshToken, "user %d", rt.UserID)
	}
	accessToken, err := a.tokens.CreateAccessToken(user)
	if err != nil {
		return nil, errors.Wrapf(err, "Accounts.Refresh CreateAccessToken")
	}
	return a.session(accessToken, "", user), nil
}

// Authenticate resolves an access token to its user.
func (a *Accounts) Authenticate(accessToken string) (*users.User, *token.Claims, error) {
	claims, err := a.tokens.Verify(accessToken)
	if err != nil {
		return nil, nil, err
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, nil, err
	}
	user, err := a.users.GetByID(userID)
	if err != nil {
		return nil, nil, errors.Wrapf(errors.ErrInvalidToken, "user %d", userID)
	}
	return user, claims, nil
}

type Registration struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
	IsAdmin  bool   `json:"is_admin,omitempty"`
}

func (a *Accounts) Register(reg Registration) (*users.User, error) {
	reg.Username = strings.TrimSpace(reg.Username)
	reg.Email = strings.TrimSpace(reg.Email)
	switch {
	case reg.Username == "":
		return nil, errors.Wrapf(errors.ErrMissingField, "username")
	case reg.Email == "":
		return nil, errors.Wrapf(errors.ErrMissingField, "email")
	case reg.Password == "":
		return nil, errors.Wrapf(errors.ErrMissingField, "password")
	}

	if _, err := a.users.GetByUsername(reg.Username); err == nil {
		return nil, errors.ErrUserExists
	}
	if _, err := a.users.GetByEmail(reg.Email); err == nil {
		return nil, errors.ErrEmailExists
	}
	if err := users.ValidatePasswordStrength(reg.Password); err != nil {
		return nil, errors.Wrapf(errors.ErrWeakPassword, "%v", err)
	}

	hash, err := users.HashPassword(reg.Password)
	if err != nil {
		return nil, errors.Wrapf(err, "Accounts.Register HashPassword")
	}
	user := &users.User{
		Username:     reg.Username,
		Name:         reg.Name,
		Email:        reg.Email,
		IsAdmin:      reg.IsAdmin,
		PasswordHash: hash,
		DateJoined:   a.nowTime().UTC(),
	}
	if err := a.users.Upsert(user); err != nil {
		return nil, errors.Wrapf(err, "Accounts.Register Upsert")
	}
	return user, nil
}

func (a *Accounts) ChangePassword(userID int64, current, next string) error {
	if current == "" || next == "" {
		return errors.Wrapf(errors.ErrMissingField, "current_password and new_password")
	}
	user, err := a.users.GetByID(userID)
	if err != nil {
		return err
	}
	if !user.CheckPassword(current) {
		return errors.ErrInvalidCredentials
	}
	if err := users.ValidatePasswordStrength(next); err != nil {
		return errors.Wrapf(errors.ErrWeakPassword, "%v", err)
	}
	hash, err := users.HashPassword(next)
	if err != nil {
		return errors.Wrapf(err, "Accounts.ChangePassword HashPassword")
	}
	return a.users.SetPassword(userID, hash)
}

// Logout revokes the access token and the user's refresh token.
func (a *Accounts) Logout(accessToken string, userID int64) error {
	if err := a.tokens.Revoke(accessToken); err != nil {
		return err
	}
	if err := a.refresh.RevokeUser(userID); err != nil && !errors.Is(err, errors.ErrNotFound) {
		return err
	}
	return nil
}

func (a *Accounts) session(accessToken, refreshToken string, user *users.User) *Session {
	return &Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(a.tokens.AccessTokenExpiry().Seconds()),
		User:         user,
	}
}
