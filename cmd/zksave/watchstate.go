package main

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/nholik/zksave/internal/config"
	"github.com/nholik/zksave/internal/save"
	"github.com/nholik/zksave/internal/state"
	"github.com/rs/zerolog"
)

// watchState remembers which store content is already in the archive, so a
// restarted watch does not save unchanged stores again.
type watchState struct {
	logger  zerolog.Logger
	store   state.Store
	archive string

	mu      sync.Mutex
	written time.Time
}

func newWatchState(logger zerolog.Logger, cfg config.Config) *watchState {
	path := cfg.StateFile
	if path == "" {
		if cfg.DataFile == "" {
			return nil
		}
		path = state.DefaultPath(cfg.DataFile)
	}
	return &watchState{
		logger:  logger,
		store:   state.NewFileStore(path, logger),
		archive: cfg.DataFile,
	}
}

// restore applies the persisted fingerprints when the archive they refer
// to still exists.
func (w *watchState) restore(ctx context.Context, sess *session) {
	if w == nil {
		return
	}
	if _, err := os.Stat(w.archive); err != nil {
		w.logger.Info().Str("archive", w.archive).Msg("archive missing, ignoring watch state")
		return
	}
	loaded, err := w.store.Load(ctx)
	if err != nil {
		w.logger.Warn().Err(err).Msg("watch state unreadable, every store counts as unsaved")
		return
	}
	restored := loaded.Apply(w.archive, sess.adapters)
	w.logger.Info().Int("stores", restored).Msg("watch state restored")
}

// hook persists the saved fingerprints after each successful save.
func (w *watchState) hook(sess *session) func(context.Context, save.Outcome) {
	return func(ctx context.Context, outcome save.Outcome) {
		if !outcome.Success {
			return
		}
		var snapshot state.State
		// Dirty flags are reconciled on the loop; read them after that.
		sess.afterCompletion(func() {
			snapshot = state.Capture(w.archive, time.Now(), sess.adapters)
		})

		// Hooks of consecutive saves may overlap; never overwrite a newer snapshot.
		w.mu.Lock()
		defer w.mu.Unlock()
		if !snapshot.SavedAt.After(w.written) {
			return
		}
		if err := w.store.Save(ctx, snapshot); err != nil {
			w.logger.Error().Err(err).Msg("persist watch state failed")
			return
		}
		w.written = snapshot.SavedAt
	}
}
