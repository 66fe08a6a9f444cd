package state

import (
	"context"
	"time"

	"github.com/nholik/zksave/internal/store"
)

// StoreSnapshot records what was last saved for one file-backed store.
type StoreSnapshot struct {
	Source      string `json:"source"`
	Fingerprint string `json:"fingerprint"`
}

// State is the watch state persisted between runs: which content of each
// store is already contained in the archive.
type State struct {
	Archive string                   `json:"archive"`
	SavedAt time.Time                `json:"saved_at"`
	Stores  map[string]StoreSnapshot `json:"stores"`
}

// Store defines the interface for persisting state.
type Store interface {
	Load(ctx context.Context) (State, error)
	Save(ctx context.Context, state State) error
}

// Capture builds a State from the saved fingerprints of the file-backed
// adapters. Other adapters and never-saved stores are skipped.
func Capture(archive string, at time.Time, adapters []store.Adapter) State {
	state := State{Archive: archive, SavedAt: at.UTC(), Stores: map[string]StoreSnapshot{}}
	for _, adapter := range adapters {
		fileStore, ok := adapter.(*store.FileStore)
		if !ok {
			continue
		}
		fingerprint := fileStore.SavedFingerprint()
		if fingerprint == "" {
			continue
		}
		state.Stores[fileStore.Name()] = StoreSnapshot{Source: fileStore.Path(), Fingerprint: fingerprint}
	}
	return state
}

// Apply restores saved fingerprints into adapters whose name and source
// still match. Nothing is restored when the state belongs to another
// archive. It returns the number of restored stores.
func (s State) Apply(archive string, adapters []store.Adapter) int {
	if s.Archive == "" || s.Archive != archive {
		return 0
	}
	restored := 0
	for _, adapter := range adapters {
		fileStore, ok := adapter.(*store.FileStore)
		if !ok {
			continue
		}
		snapshot, ok := s.Stores[fileStore.Name()]
		if !ok || snapshot.Source != fileStore.Path() || snapshot.Fingerprint == "" {
			continue
		}
		fileStore.RestoreFingerprint(snapshot.Fingerprint)
		restored++
	}
	return restored
}
