package credential

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	aierrors "github.com/hrygo/rundown/internal/errors"
)

func TestStore_SaveLoadRevoke(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)

	tok := &oauth2.Token{AccessToken: "access", RefreshToken: "refresh", TokenType: "Bearer", Expiry: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, s.Save("alice@example.com", tok))

	got, err := s.Load("alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "access", got.AccessToken)
	assert.Equal(t, "refresh", got.RefreshToken)
	assert.True(t, got.Expiry.Equal(tok.Expiry))

	info, err := os.Stat(filepath.Join(dir, keyFileName))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	// The sealed file never contains the plaintext token.
	entries, err := filepath.Glob(filepath.Join(dir, "*"+tokenSuffix))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	raw, err := os.ReadFile(entries[0])
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "refresh")

	// A reopened store reuses the key.
	reopened, err := Open(dir)
	require.NoError(t, err)
	got, err = reopened.Load("alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "access", got.AccessToken)

	require.NoError(t, s.Revoke("alice@example.com"))
	require.NoError(t, s.Revoke("alice@example.com"))
	_, err = s.Load("alice@example.com")
	assert.True(t, aierrors.IsCode(err, aierrors.ErrCodeNotFound))
}

func TestStore_WrongKey(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, s.Save("bob", &oauth2.Token{AccessToken: "a"}))

	require.NoError(t, os.WriteFile(filepath.Join(dir, keyFileName), make([]byte, keySize), 0o600))
	other, err := Open(dir)
	require.NoError(t, err)
	_, err = other.Load("bob")
	assert.Error(t, err)
}

func TestStore_Validation(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	assert.True(t, aierrors.IsCode(s.Save("", &oauth2.Token{AccessToken: "a"}), aierrors.ErrCodeValidation))
	assert.True(t, aierrors.IsCode(s.Save("u", &oauth2.Token{}), aierrors.ErrCodeValidation))
}

func TestStore_TokenSourcePersistsRefresh(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"fresh","token_type":"Bearer","refresh_token":"refresh","expires_in":3600}`))
	}))
	defer srv.Close()

	s, err := Open(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, s.Save("carol", &oauth2.Token{
		AccessToken:  "stale",
		RefreshToken: "refresh",
		Expiry:       time.Now().Add(-time.Hour),
	}))

	cfg := &oauth2.Config{ClientID: "id", ClientSecret: "secret", Endpoint: oauth2.Endpoint{TokenURL: srv.URL}}
	ts, err := s.TokenSource(context.Background(), cfg, "carol")
	require.NoError(t, err)

	tok, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "fresh", tok.AccessToken)

	stored, err := s.Load("carol")
	require.NoError(t, err)
	assert.Equal(t, "fresh", stored.AccessToken)

	_, err = s.TokenSource(context.Background(), cfg, "nobody")
	assert.True(t, aierrors.IsCode(err, aierrors.ErrCodeNotFound))
}
