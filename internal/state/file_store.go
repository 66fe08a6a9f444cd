package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// FileStore persists watch state as JSON on disk.
type FileStore struct {
	path   string
	logger zerolog.Logger
}

// NewFileStore returns a JSON-backed state store.
func NewFileStore(path string, logger zerolog.Logger) *FileStore {
	return &FileStore{path: path, logger: logger}
}

// DefaultPath places the state file next to the archive it describes.
func DefaultPath(archive string) string {
	return filepath.Join(filepath.Dir(archive), "."+filepath.Base(archive)+".state.json")
}

// Path returns the state file location.
func (s *FileStore) Path() string {
	return s.path
}

func emptyState() State {
	return State{Stores: map[string]StoreSnapshot{}}
}

// Load reads state from disk. A missing or corrupt file yields an empty
// state, so every store counts as unsaved.
func (s *FileStore) Load(ctx context.Context) (State, error) {
	if err := ctx.Err(); err != nil {
		return State{}, err
	}

	data, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		s.logger.Info().Str("path", s.path).Msg("no watch state yet")
		return emptyState(), nil
	case err != nil:
		return State{}, fmt.Errorf("read watch state: %w", err)
	}

	var loaded State
	if err := json.Unmarshal(data, &loaded); err != nil {
		s.logger.Warn().Err(err).Str("path", s.path).Msg("watch state corrupt, starting fresh")
		return emptyState(), nil
	}
	if loaded.Stores == nil {
		loaded.Stores = map[string]StoreSnapshot{}
	}
	return loaded, nil
}

// Save replaces the state file atomically: the JSON goes to a temp file in
// the same directory, which is synced and renamed over the old one.
func (s *FileStore) Save(ctx context.Context, state State) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	if state.Stores == nil {
		state.Stores = map[string]StoreSnapshot{}
	}

	body, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode watch state: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".watch-state-*.json")
	if err != nil {
		return fmt.Errorf("create watch state: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(append(body, '\n')); err != nil {
		return fmt.Errorf("write watch state: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync watch state: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close watch state: %w", err)
	}
	if err = os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace watch state: %w", err)
	}

	if dirHandle, openErr := os.Open(dir); openErr == nil {
		_ = dirHandle.Sync()
		_ = dirHandle.Close()
	}

	s.logger.Debug().Str("path", s.path).Int("stores", len(state.Stores)).Msg("watch state saved")
	return nil
}
