package refresh_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/go-visitas/internal/errors"
	"github.com/jrsteele09/go-visitas/token/refresh"
	refreshrepofake "github.com/jrsteele09/go-visitas/token/refresh/repofake"
	"github.com/stretchr/testify/require"
)

type staticConfig struct {
	length int
	expiry time.Duration
}

func (c staticConfig) GetRefreshTokenLength() int           { return c.length }
func (c staticConfig) GetRefreshTokenExpiry() time.Duration { return c.expiry }

func setupTestFixture(t *testing.T) (*refresh.Manager, refresh.Repo, *time.Time) {
	t.Helper()
	now := time.Date(2025, 3, 1, 20, 0, 0, 0, time.UTC)
	original := refresh.NowTimeFunc
	refresh.NowTimeFunc = func() time.Time { return now }
	t.Cleanup(func() { refresh.NowTimeFunc = original })

	repo := refreshrepofake.NewFakeRefreshTokenRepo()
	return refresh.NewManager(repo, staticConfig{length: 32, expiry: 7 * 24 * time.Hour}), repo, &now
}

func TestCreate(t *testing.T) {
	m, repo, _ := setupTestFixture(t)

	token, err := m.Create(7)
	require.NoError(t, err)
	require.Len(t, token, 64, "32 random bytes, hex encoded")

	stored, err := repo.Get(token)
	require.NoError(t, err)
	require.EqualValues(t, 7, stored.UserID)
}

func TestCreate_ReplacesPreviousToken(t *testing.T) {
	m, _, _ := setupTestFixture(t)

	first, err := m.Create(7)
	require.NoError(t, err)
	second, err := m.Create(7)
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	_, err = m.Validate(first)
	require.ErrorIs(t, err, errors.ErrInvalidRefreshToken)
	rt, err := m.Validate(second)
	require.NoError(t, err)
	require.EqualValues(t, 7, rt.UserID)
}

func TestValidate_Expired(t *testing.T) {
	m, repo, now := setupTestFixture(t)

	token, err := m.Create(7)
	require.NoError(t, err)

	*now = now.Add(8 * 24 * time.Hour)
	_, err = m.Validate(token)
	require.ErrorIs(t, err, errors.ErrRefreshTokenExpired)

	_, err = repo.Get(token)
	require.ErrorIs(t, err, errors.ErrNotFound, "expired tokens are deleted")
}

func TestValidate_Unknown(t *testing.T) {
	m, _, _ := setupTestFixture(t)
	_, err := m.Validate("")
	require.ErrorIs(t, err, errors.ErrInvalidRefreshToken)
	_, err = m.Validate("deadbeef")
	require.ErrorIs(t, err, errors.ErrInvalidRefreshToken)
}

func TestRevokeAll(t *testing.T) {
	m, repo, _ := setupTestFixture(t)
	for id := int64(1); id <= 150; id++ {
		_, err := m.Create(id)
		require.NoError(t, err)
	}

	n, err := m.RevokeAll()
	require.NoError(t, err)
	require.Equal(t, 150, n)

	left, err := repo.List(0, 10)
	require.NoError(t, err)
	require.Empty(t, left)
}

func TestFakeRepo_List(t *testing.T) {
	_, repo, now := setupTestFixture(t)
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Upsert(&refresh.StoredRefreshToken{
			Token:  string(rune('a' + i)),
			UserID: int64(i + 1),
			Iat:    now.Add(time.Duration(i) * time.Minute),
		}))
	}

	page, err := repo.List(1, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.Equal(t, "b", page[0].Token)
	require.Equal(t, "c", page[1].Token)

	page, err = repo.List(4, 10)
	require.NoError(t, err)
	require.Len(t, page, 1)

	page, err = repo.List(5, 10)
	require.NoError(t, err)
	require.Empty(t, page)
}

func TestRevokeUser(t *testing.T) {
	m, _, _ := setupTestFixture(t)

	token, err := m.Create(3)
	require.NoError(t, err)
	require.NoError(t, m.RevokeUser(3))

	_, err = m.Validate(token)
	require.ErrorIs(t, err, errors.ErrInvalidRefreshToken)
	require.ErrorIs(t, m.RevokeUser(3), errors.ErrNotFound)
}
