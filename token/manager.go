package token

import (
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	visitaserrors "github.com/jrsteele09/go-visitas/internal/errors"
	"github.com/jrsteele09/go-visitas/users"
)

// Claims carried by a visitas access token. Subject is the decimal user id.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username,omitempty"`
	Admin    bool   `json:"admin,omitempty"`
	// Generation ties the token to a signing epoch; see Manager.ExpireAll.
	Generation int64 `json:"gen"`
}

// UserID parses the subject claim.
func (c *Claims) UserID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, visitaserrors.Wrapf(visitaserrors.ErrInvalidToken, "subject %q", c.Subject)
	}
	return id, nil
}

// Manager issues and verifies access tokens.
type Manager struct {
	signer            Signer
	issuer            string
	accessTokenExpiry time.Duration
	revoked           *RevokedTokens
	generation        atomic.Int64
	nowFunc           func() time.Time
}

type ManagerOption func(*Manager)

func WithAccessTokenExpiry(expiry time.Duration) ManagerOption {
	return func(m *Manager) {
		m.accessTokenExpiry = expiry
	}
}

func WithIssuer(issuer string) ManagerOption {
	return func(m *Manager) {
		m.issuer = issuer
	}
}

func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

func WithRevokedTokens(revoked *RevokedTokens) ManagerOption {
	return func(m *Manager) {
		m.revoked = revoked
	}
}

func New(signer Signer, options ...ManagerOption) (*Manager, error) {
	if signer == nil {
		return nil, fmt.Errorf("[token New] signer is required")
	}
	m := &Manager{
		signer:  signer,
		issuer:  "visitas",
		revoked: NewRevokedTokens(),
	}
	for _, opt := range options {
		opt(m)
	}
	if m.accessTokenExpiry == 0 {
		m.accessTokenExpiry = 15 * time.Minute
	}
	if m.nowFunc == nil {
		m.nowFunc = time.Now
	}
	return m, nil
}

func (m *Manager) AccessTokenExpiry() time.Duration {
	return m.accessTokenExpiry
}

func (m *Manager) CreateAccessToken(user *users.User) (string, error) {
	if user == nil || user.ID == 0 {
		return "", visitaserrors.Wrapf(visitaserrors.ErrMissingField, "Manager.CreateAccessToken user id")
	}
	now := m.nowFunc()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTokenExpiry)),
			ID:        uuid.New().String(), // jti, used for revocation
		},
		Username:   user.Username,
		Admin:      user.IsAdmin,
		Generation: m.generation.Load(),
	}
	signed, err := m.signer.Sign(claims)
	if err != nil {
		return "", visitaserrors.Wrapf(err, "Manager.CreateAccessToken")
	}
	return signed, nil
}

// Verify checks signature, issuer, expiry and revocation. Failures wrap
// ErrTokenExpired or ErrInvalidToken.
func (m *Manager) Verify(rawToken string) (*Claims, error) {
	if rawToken == "" {
		return nil, visitaserrors.ErrInvalidToken
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(rawToken, claims, m.signer.GetVerificationKey,
		jwt.WithIssuer(m.issuer),
		jwt.WithTimeFunc(m.nowFunc),
		jwt.WithValidMethods([]string{m.signer.GetSigningMethod().Alg()}),
		jwt.WithExpirationRequired(),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, visitaserrors.Wrapf(visitaserrors.ErrTokenExpired, "Manager.Verify")
	case err != nil:
		return nil, visitaserrors.Wrapf(visitaserrors.ErrInvalidToken, "Manager.Verify: %v", err)
	}

	if claims.Generation < m.generation.Load() {
		return nil, visitaserrors.Wrapf(visitaserrors.ErrTokenExpired, "Manager.Verify superseded")
	}
	if claims.ID == "" || m.revoked.IsRevoked(claims.ID) {
		return nil, visitaserrors.Wrapf(visitaserrors.ErrInvalidToken, "Manager.Verify revoked")
	}
	return claims, nil
}

// Revoke invalidates a still-valid access token.
func (m *Manager) Revoke(rawToken string) error {
	claims, err := m.Verify(rawToken)
	if err != nil {
		return err
	}
	m.revoked.Add(claims.ID, claims.ExpiresAt.Time)
	return nil
}

// ExpireAll makes every access token issued so far fail verification as
// expired. Tokens issued afterwards are unaffected.
func (m *Manager) ExpireAll() {
	m.generation.Add(1)
}

// CleanupRevoked drops revocation entries for tokens that have expired.
func (m *Manager) CleanupRevoked() int {
	return m.revoked.Cleanup(m.nowFunc())
}
