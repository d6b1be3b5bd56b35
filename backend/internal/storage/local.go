package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"unipulse/backend/internal/shared"
)

// PublicPrefix is the URL path under which local files are served
const PublicPrefix = "/files/"

// Local stores files on disk under a root directory
type Local struct {
	root string
}

// NewLocal creates root if needed
func NewLocal(root string) (*Local, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir %s: %w", root, err)
	}
	return &Local{root: root}, nil
}

// Root returns the directory served at PublicPrefix
func (l *Local) Root() string { return l.root }

func (l *Local) Store(_ context.Context, data []byte, filename, subdir string) (string, string, error) {
	key := objectKey(filename, subdir)
	path := filepath.Join(l.root, filepath.FromSlash(key))

	err := os.MkdirAll(filepath.Dir(path), 0o755)
	if err == nil {
		err = os.WriteFile(path, data, 0o644)
	}
	record("local", "store", err)
	if err != nil {
		return "", "", shared.Upstream("failed to store file", err)
	}
	return PublicPrefix + key, OriginalName(filename), nil
}

func (l *Local) Delete(_ context.Context, url string) error {
	key, ok := l.keyOf(url)
	if !ok {
		return nil
	}

	err := os.Remove(filepath.Join(l.root, filepath.FromSlash(key)))
	if errors.Is(err, os.ErrNotExist) {
		err = nil
	}
	record("local", "delete", err)
	if err != nil {
		return shared.Upstream("failed to delete file", err)
	}
	return nil
}

// keyOf maps a /files/ URL back to a key, refusing paths that escape root
func (l *Local) keyOf(url string) (string, bool) {
	if !strings.HasPrefix(url, PublicPrefix) {
		return "", false
	}
	key := filepath.ToSlash(filepath.Clean(strings.TrimPrefix(url, PublicPrefix)))
	if key == "." || strings.HasPrefix(key, "../") || key == ".." || filepath.IsAbs(key) {
		return "", false
	}
	return key, true
}
