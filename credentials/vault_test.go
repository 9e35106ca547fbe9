package credentials_test

import (
	"testing"

	"github.com/jrsteele09/go-visitas/credentials"
	"github.com/jrsteele09/go-visitas/users"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

var testUser = &users.User{ID: 7, Username: "hiram", Name: "Hiram Abiff"}

func newVault(t *testing.T) (*credentials.Vault, *credentials.MemoryStore) {
	t.Helper()
	store := credentials.NewMemoryStore()
	v, err := credentials.NewVault(store, "")
	require.NoError(t, err)
	return v, store
}

func TestVault_SaveLoadClear(t *testing.T) {
	v, store := newVault(t)

	creds, err := v.Load()
	require.NoError(t, err)
	require.Nil(t, creds)

	require.NoError(t, v.Save(&credentials.Credentials{
		Token: &oauth2.Token{AccessToken: "T1", RefreshToken: "R1"},
		User:  testUser,
	}))

	creds, err = v.Load()
	require.NoError(t, err)
	require.Equal(t, "T1", creds.AccessToken())
	require.Equal(t, "R1", creds.RefreshToken())
	require.Equal(t, testUser.ID, creds.User.ID)
	require.Equal(t, "Hiram Abiff", creds.User.DisplayName())

	raw, ok, _ := store.Get("visitas.access_token")
	require.True(t, ok)
	require.Equal(t, "T1", raw)

	require.NoError(t, v.Clear())
	creds, err = v.Load()
	require.NoError(t, err)
	require.Nil(t, creds)
	for _, k := range []string{"visitas.access_token", "visitas.refresh_token", "visitas.user"} {
		_, ok, _ := store.Get(k)
		require.False(t, ok, k)
	}
}

func TestVault_SaveRequiresTokenAndUser(t *testing.T) {
	v, _ := newVault(t)

	err := v.Save(&credentials.Credentials{Token: &oauth2.Token{AccessToken: "T1"}})
	require.ErrorIs(t, err, credentials.ErrIncompleteCredentials)

	err = v.Save(&credentials.Credentials{User: testUser})
	require.ErrorIs(t, err, credentials.ErrIncompleteCredentials)
}

func TestVault_SaveWithoutRefreshTokenDropsOldOne(t *testing.T) {
	v, _ := newVault(t)

	require.NoError(t, v.Save(&credentials.Credentials{Token: &oauth2.Token{AccessToken: "T1", RefreshToken: "R1"}, User: testUser}))
	require.NoError(t, v.Save(&credentials.Credentials{Token: &oauth2.Token{AccessToken: "T2"}, User: testUser}))

	require.Equal(t, "T2", v.AccessToken())
	require.Equal(t, "", v.RefreshToken())
}

func TestVault_PartialStateLoadsAsSignedOut(t *testing.T) {
	v, store := newVault(t)

	require.NoError(t, store.Set("visitas.access_token", "orphan"))

	creds, err := v.Load()
	require.NoError(t, err)
	require.Nil(t, creds)

	_, ok, _ := store.Get("visitas.access_token")
	require.False(t, ok, "partial credentials are cleared")
}

func TestVault_Rotate(t *testing.T) {
	v, _ := newVault(t)
	require.NoError(t, v.Save(&credentials.Credentials{Token: &oauth2.Token{AccessToken: "T1", RefreshToken: "R1"}, User: testUser}))

	t.Run("keeps user and refresh token", func(t *testing.T) {
		creds, err := v.Rotate("T2", "", nil)
		require.NoError(t, err)
		require.Equal(t, "T2", creds.AccessToken())
		require.Equal(t, "R1", creds.RefreshToken())
		require.Equal(t, testUser.Username, creds.User.Username)
		require.Equal(t, "T2", v.AccessToken())
	})

	t.Run("replaces supplied fields", func(t *testing.T) {
		renamed := &users.User{ID: 7, Username: "hiram", Name: "H. Abiff"}
		creds, err := v.Rotate("T3", "R2", renamed)
		require.NoError(t, err)
		require.Equal(t, "R2", creds.RefreshToken())
		require.Equal(t, "H. Abiff", v.User().Name)
	})

	t.Run("empty access token", func(t *testing.T) {
		_, err := v.Rotate("", "", nil)
		require.ErrorIs(t, err, credentials.ErrIncompleteCredentials)
	})

	t.Run("nothing stored and no user", func(t *testing.T) {
		require.NoError(t, v.Clear())
		_, err := v.Rotate("T4", "", nil)
		require.ErrorIs(t, err, credentials.ErrIncompleteCredentials)
		require.Equal(t, "", v.AccessToken())
	})

	t.Run("nothing stored with a user", func(t *testing.T) {
		require.NoError(t, v.Clear())
		_, err := v.Rotate("T5", "R5", testUser)
		require.ErrorIs(t, err, credentials.ErrIncompleteCredentials)
		require.Equal(t, "", v.AccessToken())
		require.Nil(t, v.User())
	})
}

func TestVault_PrefixIsolation(t *testing.T) {
	store := credentials.NewMemoryStore()
	a, err := credentials.NewVault(store, "a.")
	require.NoError(t, err)
	b, err := credentials.NewVault(store, "b.")
	require.NoError(t, err)

	require.NoError(t, a.Save(&credentials.Credentials{Token: &oauth2.Token{AccessToken: "TA"}, User: testUser}))
	require.Equal(t, "TA", a.AccessToken())
	require.Equal(t, "", b.AccessToken())
}

func TestNewVault_RequiresStore(t *testing.T) {
	_, err := credentials.NewVault(nil, "")
	require.Error(t, err)
}
