package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"sync"
)

// FileStore sources a store's content from a file maintained elsewhere,
// e.g. by an editor. It is dirty whenever the file's content differs from
// what was last saved.
type FileStore struct {
	mu      sync.Mutex
	name    string
	path    string
	saved   string
	pending string
}

// NewFileStore returns an adapter that reads its content from path.
func NewFileStore(name, path string) *FileStore {
	return &FileStore{name: name, path: path}
}

// Name implements Adapter.
func (s *FileStore) Name() string {
	return s.name
}

// Path returns the source file.
func (s *FileStore) Path() string {
	return s.path
}

// Serialize implements Adapter.
func (s *FileStore) Serialize(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read %s source: %w", s.name, err)
	}
	s.mu.Lock()
	s.pending = Fingerprint(data)
	s.mu.Unlock()
	return data, nil
}

// IsDirty implements Adapter. A missing source counts as dirty once it
// has been saved before.
func (s *FileStore) IsDirty() bool {
	current := ""
	data, err := os.ReadFile(s.path)
	switch {
	case err == nil:
		current = Fingerprint(data)
	case !errors.Is(err, os.ErrNotExist):
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return current != s.saved
}

// ClearDirty implements Adapter. It records the fingerprint captured by the
// last Serialize, not the file's current content.
func (s *FileStore) ClearDirty() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending != "" {
		s.saved = s.pending
	}
}

// Fingerprint computes a SHA-256 hash for the given content.
func Fingerprint(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// SavedFingerprint returns the fingerprint of the content last durably saved,
// or "" when the store has never been saved.
func (s *FileStore) SavedFingerprint() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saved
}

// RestoreFingerprint marks content with the given fingerprint as already
// saved, for example after a restart.
func (s *FileStore) RestoreFingerprint(fingerprint string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = fingerprint
}
