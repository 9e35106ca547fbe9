package refresh

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/jrsteele09/go-visitas/internal/errors"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Config is the part of the server configuration the manager reads.
type Config interface {
	GetRefreshTokenLength() int
	GetRefreshTokenExpiry() time.Duration
}

// Manager handles refresh token creation, validation and revocation
type Manager struct {
	repo   Repo
	config Config
}

func NewManager(repo Repo, cfg Config) *Manager {
	return &Manager{
		repo:   repo,
		config: cfg,
	}
}

// Create issues a new refresh token for userID, replacing any previous one.
func (m *Manager) Create(userID int64) (string, error) {
	if existing, err := m.repo.GetByUserID(userID); err == nil && existing != nil {
		if err := m.repo.Delete(existing.Token); err != nil {
			return "", fmt.Errorf("failed to delete existing refresh token: %w", err)
		}
	}

	tokenBytes := make([]byte, m.config.GetRefreshTokenLength())
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	tokenStr := hex.EncodeToString(tokenBytes)
	if err := m.repo.Upsert(&StoredRefreshToken{
		Token:  tokenStr,
		UserID: userID,
		Iat:    NowTimeFunc(),
	}); err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}

	return tokenStr, nil
}

// Validate returns the stored record for token. Expired tokens are deleted.
func (m *Manager) Validate(token string) (*StoredRefreshToken, error) {
	if token == "" {
		return nil, errors.ErrInvalidRefreshToken
	}
	rt, err := m.repo.Get(token)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidRefreshToken, "refresh Validate")
	}
	if m.IsExpired(rt) {
		_ = m.repo.Delete(token)
		return nil, errors.ErrRefreshTokenExpired
	}
	return rt, nil
}

func (m *Manager) Delete(token string) error {
	return m.repo.Delete(token)
}

// RevokeUser deletes the refresh token held by userID.
func (m *Manager) RevokeUser(userID int64) error {
	rt, err := m.repo.GetByUserID(userID)
	if err != nil {
		return err
	}
	return m.repo.Delete(rt.Token)
}

// RevokeAll deletes every stored refresh token and reports how many there were.
func (m *Manager) RevokeAll() (int, error) {
	const page = 100
	revoked := 0
	for {
		tokens, err := m.repo.List(0, page)
		if err != nil {
			return revoked, err
		}
		if len(tokens) == 0 {
			return revoked, nil
		}
		for _, rt := range tokens {
			if err := m.repo.Delete(rt.Token); err != nil {
				return revoked, err
			}
			revoked++
		}
	}
}

func (m *Manager) IsExpired(rt *StoredRefreshToken) bool {
	return NowTimeFunc().Sub(rt.Iat) > m.config.GetRefreshTokenExpiry()
}
