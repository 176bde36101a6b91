package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"
)

// FileSession reads a single-user session token persisted on disk by an
// external login flow. The stored document is an oauth2.Token.
type FileSession struct {
	path string
}

// NewFileSession returns a FileSession backed by path.
func NewFileSession(path string) *FileSession {
	return &FileSession{path: path}
}

// Token implements TokenProvider. A missing file, an empty token, or an
// expired session all surface as ErrNoSession.
func (f *FileSession) Token(_ context.Context) (string, error) {
	b, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", ErrNoSession
		}
		return "", fmt.Errorf("reading session file: %w", err)
	}

	var tok oauth2.Token
	if err := json.Unmarshal(b, &tok); err != nil {
		return "", fmt.Errorf("decoding session file: %w", err)
	}
	if tok.AccessToken == "" {
		return "", ErrNoSession
	}
	if !tok.Valid() && !tok.Expiry.IsZero() {
		return "", fmt.Errorf("session expired: %w", ErrNoSession)
	}
	return tok.AccessToken, nil
}

// Write persists a freshly issued token with restrictive permissions.
func (f *FileSession) Write(tok *oauth2.Token) error {
	if tok == nil || tok.AccessToken == "" {
		return fmt.Errorf("invalid token")
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return err
	}
	b, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return err
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}

// Clear removes the stored session, if any.
func (f *FileSession) Clear() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
