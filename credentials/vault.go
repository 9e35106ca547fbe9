package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/jrsteele09/go-visitas/users"
	"golang.org/x/oauth2"
)

// DefaultKeyPrefix namespaces the credential keys inside a shared store.
const DefaultKeyPrefix = "visitas."

const (
	accessTokenKey  = "access_token"
	refreshTokenKey = "refresh_token"
	userKey         = "user"
)

// ErrIncompleteCredentials is returned when saving credentials without a token or user.
var ErrIncompleteCredentials = errors.New("credentials need both an access token and a user")

// Credentials is one signed-in session. Token.RefreshToken is empty when the
// deployment doesn't issue refresh tokens.
type Credentials struct {
	Token *oauth2.Token
	User  *users.User
}

func (c *Credentials) AccessToken() string {
	if c == nil || c.Token == nil {
		return ""
	}
	return c.Token.AccessToken
}

func (c *Credentials) RefreshToken() string {
	if c == nil || c.Token == nil {
		return ""
	}
	return c.Token.RefreshToken
}

// Vault reads and writes Credentials through a Store under a fixed key prefix.
// The access token and user are only ever written or removed in the same
// operation, so a reader never observes one without the other.
type Vault struct {
	store  Store
	prefix string
	lock   sync.RWMutex
}

func NewVault(store Store, prefix string) (*Vault, error) {
	if store == nil {
		return nil, errors.New("[NewVault] store is required")
	}
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &Vault{store: store, prefix: prefix}, nil
}

func (v *Vault) key(name string) string {
	return v.prefix + name
}

func (v *Vault) keys() []string {
	return []string{v.key(accessTokenKey), v.key(refreshTokenKey), v.key(userKey)}
}

// Load returns the stored credentials, or nil when nothing is stored. A store
// holding only part of the schema is treated as signed out and cleared.
func (v *Vault) Load() (*Credentials, error) {
	v.lock.Lock()
	defer v.lock.Unlock()

	creds, partial, err := v.load()
	if err != nil {
		return nil, err
	}
	if partial {
		if err := apply(v.store, nil, v.keys()); err != nil {
			return nil, fmt.Errorf("clear partial credentials: %w", err)
		}
		return nil, nil
	}
	return creds, nil
}

func (v *Vault) load() (*Credentials, bool, error) {
	access, hasAccess, err := v.store.Get(v.key(accessTokenKey))
	if err != nil {
		return nil, false, err
	}
	refresh, hasRefresh, err := v.store.Get(v.key(refreshTokenKey))
	if err != nil {
		return nil, false, err
	}
	rawUser, hasUser, err := v.store.Get(v.key(userKey))
	if err != nil {
		return nil, false, err
	}

	hasAccess = hasAccess && access != ""
	hasUser = hasUser && rawUser != ""
	if !hasAccess && !hasUser && !hasRefresh {
		return nil, false, nil
	}
	if !hasAccess || !hasUser {
		return nil, true, nil
	}

	var user users.User
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil || !user.Valid() {
		return nil, true, nil
	}

	return &Credentials{
		Token: &oauth2.Token{AccessToken: access, RefreshToken: refresh, TokenType: "Bearer"},
		User:  &user,
	}, false, nil
}

// Save replaces the stored credentials. A missing refresh token removes any stored one.
func (v *Vault) Save(creds *Credentials) error {
	if creds.AccessToken() == "" || !creds.User.Valid() {
		return ErrIncompleteCredentials
	}

	rawUser, err := json.Marshal(creds.User)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	set := map[string]string{
		v.key(accessTokenKey): creds.AccessToken(),
		v.key(userKey):        string(rawUser),
	}
	var remove []string
	if rt := creds.RefreshToken(); rt != "" {
		set[v.key(refreshTokenKey)] = rt
	} else {
		remove = append(remove, v.key(refreshTokenKey))
	}

	v.lock.Lock()
	defer v.lock.Unlock()
	return apply(v.store, set, remove)
}

// Rotate stores a refreshed access token. The user and refresh token are kept
// unless replacements are supplied. Rotating with nothing stored is an error,
// even when a user is supplied: a session cleared mid-refresh stays signed out.
func (v *Vault) Rotate(accessToken, refreshToken string, user *users.User) (*Credentials, error) {
	if accessToken == "" {
		return nil, ErrIncompleteCredentials
	}

	v.lock.Lock()
	defer v.lock.Unlock()

	current, _, err := v.load()
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, ErrIncompleteCredentials
	}

	next := &Credentials{
		Token: &oauth2.Token{AccessToken: accessToken, RefreshToken: current.RefreshToken(), TokenType: "Bearer"},
		User:  current.User,
	}
	if refreshToken != "" {
		next.Token.RefreshToken = refreshToken
	}
	if user.Valid() {
		next.User = user
	}

	rawUser, err := json.Marshal(next.User)
	if err != nil {
		return nil, fmt.Errorf("encode user: %w", err)
	}
	set := map[string]string{
		v.key(accessTokenKey): accessToken,
		v.key(userKey):        string(rawUser),
	}
	if next.Token.RefreshToken != "" {
		set[v.key(refreshTokenKey)] = next.Token.RefreshToken
	}
	if err := apply(v.store, set, nil); err != nil {
		return nil, err
	}
	return next, nil
}

// Clear removes every credential key.
func (v *Vault) Clear() error {
	v.lock.Lock()
	defer v.lock.Unlock()
	return apply(v.store, nil, v.keys())
}

// AccessToken returns the stored access token, or "" when signed out.
func (v *Vault) AccessToken() string {
	creds, err := v.Load()
	if err != nil {
		return ""
	}
	return creds.AccessToken()
}

// RefreshToken returns the stored refresh token, or "" when none is held.
func (v *Vault) RefreshToken() string {
	creds, err := v.Load()
	if err != nil {
		return ""
	}
	return creds.RefreshToken()
}

// User returns the stored user record, or nil when signed out.
func (v *Vault) User() *users.User {
	creds, err := v.Load()
	if err != nil || creds == nil {
		return nil
	}
	return creds.User
}
