// Package credential keeps per-user OAuth tokens sealed on disk.
//
// Each token is JSON-encoded and sealed with NaCl secretbox under a 32-byte
// key generated on first use. The key and sealed tokens are written 0600.
package credential

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/oauth2"

	aierrors "github.com/hrygo/rundown/internal/errors"
)

const (
	keyFileName = "credential.key"
	tokenSuffix = ".tok"
	keySize     = 32
	nonceSize   = 24
)

// Store seals and persists oauth2 tokens keyed by user.
type Store struct {
	dir string
	key [keySize]byte
	mu  sync.Mutex
}

// Open opens the store rooted at dir, creating it and the key file if needed.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, errors.Wrapf(err, "failed to create credential dir %s", dir)
	}
	s := &Store{dir: dir}
	if err := s.loadOrCreateKey(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) loadOrCreateKey() error {
	path := filepath.Join(s.dir, keyFileName)
	key, err := os.ReadFile(path)
	if err == nil {
		if len(key) != keySize {
			return errors.Errorf("credential key %s has %d bytes, want %d", path, len(key), keySize)
		}
		copy(s.key[:], key)
		return nil
	}
	if !os.IsNotExist(err) {
		return errors.Wrap(err, "failed to read credential key")
	}

	if _, err := io.ReadFull(rand.Reader, s.key[:]); err != nil {
		return errors.Wrap(err, "failed to generate credential key")
	}
	return errors.Wrap(os.WriteFile(path, s.key[:], 0o600), "failed to write credential key")
}

// Save seals tok for user, replacing any previous token.
func (s *Store) Save(user string, tok *oauth2.Token) error {
	if user == "" {
		return aierrors.Validation("user is required")
	}
	if tok == nil || (tok.AccessToken == "" && tok.RefreshToken == "") {
		return aierrors.Validation("token is empty")
	}
	plain, err := json.Marshal(tok)
	if err != nil {
		return errors.Wrap(err, "failed to encode token")
	}

	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return errors.Wrap(err, "failed to generate nonce")
	}
	sealed := secretbox.Seal(nonce[:], plain, &nonce, &s.key)

	s.mu.Lock()
	defer s.mu.Unlock()
	tmp := s.path(user) + ".tmp"
	if err := os.WriteFile(tmp, sealed, 0o600); err != nil {
		return errors.Wrap(err, "failed to write token")
	}
	return errors.Wrap(os.Rename(tmp, s.path(user)), "failed to replace token")
}

// Load returns user's token. A missing token is a NOT_FOUND error.
func (s *Store) Load(user string) (*oauth2.Token, error) {
	s.mu.Lock()
	sealed, err := os.ReadFile(s.path(user))
	s.mu.Unlock()
	if os.IsNotExist(err) {
		return nil, aierrors.NotFound("no credential for " + user)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to read token")
	}
	if len(sealed) < nonceSize+secretbox.Overhead {
		return nil, errors.New("sealed token is truncated")
	}

	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])
	plain, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, &s.key)
	if !ok {
		return nil, errors.New("failed to open sealed token: wrong key or corrupt file")
	}

	var tok oauth2.Token
	if err := json.Unmarshal(plain, &tok); err != nil {
		return nil, errors.Wrap(err, "failed to decode token")
	}
	return &tok, nil
}

// Revoke deletes user's token. Revoking a missing token is not an error.
func (s *Store) Revoke(user string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := os.Remove(s.path(user))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "failed to remove token")
	}
	return nil
}

// TokenSource returns a source for user's token that refreshes through cfg
// and writes refreshed tokens back to the store.
func (s *Store) TokenSource(ctx context.Context, cfg *oauth2.Config, user string) (oauth2.TokenSource, error) {
	tok, err := s.Load(user)
	if err != nil {
		return nil, err
	}
	return oauth2.ReuseTokenSource(tok, &persistingSource{
		base:  cfg.TokenSource(ctx, tok),
		store: s,
		user:  user,
		last:  tok.AccessToken,
	}), nil
}

// path hashes user so arbitrary ids map to safe file names.
func (s *Store) path(user string) string {
	sum := sha256.Sum256([]byte(user))
	return filepath.Join(s.dir, hex.EncodeToString(sum[:16])+tokenSuffix)
}

type persistingSource struct {
	base  oauth2.TokenSource
	store *Store
	user  string

	mu   sync.Mutex
	last string
}

func (p *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := p.base.Token()
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if tok.AccessToken != p.last {
		if err := p.store.Save(p.user, tok); err != nil {
			return nil, err
		}
		p.last = tok.AccessToken
	}
	return tok, nil
}
