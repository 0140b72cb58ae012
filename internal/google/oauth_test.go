package google

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const installedSecret = `{
  "installed": {
    "client_id": "file-client-id",
    "client_secret": "file-client-secret",
    "auth_uri": "https://accounts.google.com/o/oauth2/auth",
    "token_uri": "https://oauth2.googleapis.com/token",
    "redirect_uris": ["http://localhost"]
  }
}`

func TestClientSecret_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	require.NoError(t, os.WriteFile(path, []byte(installedSecret), 0600))

	conf, err := ClientSecret{File: path}.OAuthConfig()
	require.NoError(t, err)
	assert.Equal(t, "file-client-id", conf.ClientID)
	assert.Equal(t, "file-client-secret", conf.ClientSecret)
	assert.Equal(t, []string{CalendarScope}, conf.Scopes)
}

func TestClientSecret_ExplicitIDWins(t *testing.T) {
	conf, err := ClientSecret{
		File:         filepath.Join(t.TempDir(), "missing.json"),
		ClientID:     "env-id",
		ClientSecret: "env-secret",
	}.OAuthConfig("scope-a")
	require.NoError(t, err)
	assert.Equal(t, "env-id", conf.ClientID)
	assert.Equal(t, []string{"scope-a"}, conf.Scopes)
}

func TestClientSecret_Missing(t *testing.T) {
	_, err := ClientSecret{File: filepath.Join(t.TempDir(), "credentials.json")}.OAuthConfig()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrClientSecretMissing)
}

func TestClientSecret_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0600))

	_, err := ClientSecret{File: path}.OAuthConfig()
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrClientSecretMissing)
}
