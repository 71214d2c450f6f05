package auth

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

const clientSecret = `{"installed":{"client_id":"id.apps.googleusercontent.com","client_secret":"s",
"auth_uri":"https://accounts.google.com/o/oauth2/auth","token_uri":"https://oauth2.googleapis.com/token",
"redirect_uris":["http://localhost"]}}`

func TestTokenFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	want := &oauth2.Token{AccessToken: "a", RefreshToken: "r", TokenType: "Bearer", Expiry: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)}

	require.NoError(t, saveToken(path, want))
	got, err := tokenFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, want.AccessToken, got.AccessToken)
	assert.Equal(t, want.RefreshToken, got.RefreshToken)
	assert.True(t, want.Expiry.Equal(got.Expiry))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestGmailClientWithoutTokenOrPrompt(t *testing.T) {
	dir := t.TempDir()
	creds := filepath.Join(dir, "credential.json")
	require.NoError(t, os.WriteFile(creds, []byte(clientSecret), 0600))

	a := GmailAuth{CredentialsFile: creds, TokenFile: filepath.Join(dir, "token.json")}
	_, err := a.Client(context.Background())
	assert.ErrorIs(t, err, ErrNoGmailToken)
}

func TestGmailClientWithCachedToken(t *testing.T) {
	dir := t.TempDir()
	creds := filepath.Join(dir, "credential.json")
	tokFile := filepath.Join(dir, "token.json")
	require.NoError(t, os.WriteFile(creds, []byte(clientSecret), 0600))
	require.NoError(t, saveToken(tokFile, &oauth2.Token{AccessToken: "a", Expiry: time.Now().Add(time.Hour)}))

	c, err := GmailAuth{CredentialsFile: creds, TokenFile: tokFile}.Client(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, c)
}

func TestGmailClientMissingCredentials(t *testing.T) {
	_, err := GmailAuth{CredentialsFile: filepath.Join(t.TempDir(), "nope.json")}.Client(context.Background())
	assert.Error(t, err)
}
