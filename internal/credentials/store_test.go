package credentials

import (
	"testing"

	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/doccatalog/internal/config"
)

func TestOpenKnownStores(t *testing.T) {
	for _, name := range []string{"none", "static", "env"} {
		store, err := Open(config.CredentialsConfig{Store: name})
		require.NoError(t, err, name)
		assert.NotNil(t, store, name)
	}

	_, err := Open(config.CredentialsConfig{Store: "vault"})
	require.Error(t, err)
}

func TestRegisterCustomStore(t *testing.T) {
	Register("test-fixed", func(config.CredentialsConfig) (Store, error) {
		return NoneStore{}, nil
	})
	store, err := Open(config.CredentialsConfig{Store: "test-fixed"})
	require.NoError(t, err)
	assert.NotNil(t, store)
}

func TestStaticStoreMatchesURLPrefix(t *testing.T) {
	store, err := Open(config.CredentialsConfig{
		Store: "static",
		Static: []config.StaticCredential{
			{URL: "https://git.example.org/", Username: "bot", Password: "s3cret"},
			{URL: "https://forge.example.org/", Token: "tok123"},
		},
	})
	require.NoError(t, err)

	creds, err := store.Fill("https://git.example.org/team/docs.git")
	require.NoError(t, err)
	require.NotNil(t, creds)
	assert.Equal(t, "bot", creds.Username)

	creds, err = store.Fill("https://forge.example.org/docs.git")
	require.NoError(t, err)
	require.NotNil(t, creds)
	assert.Equal(t, "tok123", creds.Token)

	creds, err = store.Fill("https://other.example.org/docs.git")
	require.NoError(t, err)
	assert.Nil(t, creds)
}

func TestEnvStore(t *testing.T) {
	t.Setenv("GIT_CREDENTIALS", "")
	store, err := Open(config.CredentialsConfig{Store: "env"})
	require.NoError(t, err)

	creds, err := store.Fill("https://example.org/docs.git")
	require.NoError(t, err)
	assert.Nil(t, creds)

	t.Setenv("GIT_CREDENTIALS", "tok456")
	creds, err = store.Fill("https://example.org/docs.git")
	require.NoError(t, err)
	require.NotNil(t, creds)
	assert.Equal(t, "tok456", creds.Token)
}

func TestAuthMethodSelection(t *testing.T) {
	var creds *Credentials
	m, err := creds.AuthMethod()
	require.NoError(t, err)
	assert.Nil(t, m)

	m, err = (&Credentials{Token: "tok"}).AuthMethod()
	require.NoError(t, err)
	basic, ok := m.(*githttp.BasicAuth)
	require.True(t, ok)
	assert.Equal(t, "token", basic.Username)
	assert.Equal(t, "tok", basic.Password)

	m, err = (&Credentials{Username: "bot", Password: "pw"}).AuthMethod()
	require.NoError(t, err)
	basic, ok = m.(*githttp.BasicAuth)
	require.True(t, ok)
	assert.Equal(t, "bot", basic.Username)

	m, err = (&Credentials{}).AuthMethod()
	require.NoError(t, err)
	assert.Nil(t, m)
}
