package save

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/nholik/zksave/internal/archive"
	"github.com/nholik/zksave/internal/metrics"
	"github.com/nholik/zksave/internal/status"
	"github.com/nholik/zksave/internal/store"
	"github.com/rs/zerolog"
)

// TargetResolver supplies the archive path. It returns false when no path is set.
type TargetResolver interface {
	MainDataFile() (string, bool)
}

// Config carries the collaborators of one save.
type Config struct {
	Settings TargetResolver
	Status   status.Sink
	Progress status.Progress
	Messages status.Messages
	Logger   zerolog.Logger
	Metrics  *metrics.Metrics
	Manifest []string
}

// State is the lifecycle position of an Orchestrator.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateSucceeded
	StateFailed
	StateTornDown
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	case StateTornDown:
		return "torn-down"
	default:
		return "unknown"
	}
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithArchiveOptions passes options through to the archive writer.
func WithArchiveOptions(opts ...archive.Option) Option {
	return func(o *Orchestrator) {
		o.archiveOpts = append(o.archiveOpts, opts...)
	}
}

// WithClock overrides the time source used for durations and timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// Orchestrator persists a fixed set of stores into one archive. It runs a
// single save: Run on a worker, then Reconcile and Teardown on the
// interactive goroutine. Instances are not reused.
type Orchestrator struct {
	id          string
	cfg         Config
	messages    status.Messages
	logger      zerolog.Logger
	adapters    []store.Adapter
	archiveOpts []archive.Option
	now         func() time.Time
	state       atomic.Int32
	teardown    sync.Once
}

// New validates the adapters against the manifest and orders them by it.
// It announces the pending save on the status sink.
func New(cfg Config, adapters []store.Adapter, opts ...Option) (*Orchestrator, error) {
	if len(cfg.Manifest) == 0 {
		cfg.Manifest = archive.DefaultManifest
	}
	if cfg.Status == nil {
		cfg.Status = status.Nop{}
	}
	if cfg.Progress == nil {
		cfg.Progress = status.Nop{}
	}

	ordered, err := orderAdapters(cfg.Manifest, adapters)
	if err != nil {
		return nil, err
	}

	o := &Orchestrator{
		id:       uuid.NewString(),
		cfg:      cfg,
		messages: status.DefaultMessages().Merge(cfg.Messages),
		adapters: ordered,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = cfg.Logger.With().Str("save_id", o.id).Logger()
	o.archiveOpts = append([]archive.Option{
		archive.WithManifest(cfg.Manifest),
		archive.WithLogger(o.logger),
	}, o.archiveOpts...)

	target, _ := o.configuredTarget()
	cfg.Status.SetText(status.Render(o.messages.Pending, target, ""))

	return o, nil
}

func orderAdapters(manifest []string, adapters []store.Adapter) ([]store.Adapter, error) {
	slots := make([]store.Adapter, len(manifest))
	for i, adapter := range adapters {
		if adapter == nil {
			return nil, fmt.Errorf("adapter %d is nil", i)
		}
		index := -1
		for j, name := range manifest {
			if name == adapter.Name() {
				index = j
				break
			}
		}
		if index < 0 {
			return nil, fmt.Errorf("adapter %q is not in the archive manifest", adapter.Name())
		}
		if slots[index] != nil {
			return nil, fmt.Errorf("adapter %q registered twice", adapter.Name())
		}
		slots[index] = adapter
	}

	ordered := make([]store.Adapter, 0, len(adapters))
	for _, adapter := range slots {
		if adapter != nil {
			ordered = append(ordered, adapter)
		}
	}
	return ordered, nil
}

// ID identifies this save in logs.
func (o *Orchestrator) ID() string {
	return o.id
}

// State reports the current lifecycle state.
func (o *Orchestrator) State() State {
	return State(o.state.Load())
}

// Adapters returns the participating adapters in manifest order.
func (o *Orchestrator) Adapters() []store.Adapter {
	return append([]store.Adapter(nil), o.adapters...)
}

// Run is the background phase. It never panics and always returns a
// determinate Outcome; on failure the existing target is left untouched.
// The context is handed to the adapters; Run itself does not stop early
// when it is canceled.
func (o *Orchestrator) Run(ctx context.Context) (outcome Outcome) {
	if !o.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		return failure("", ErrNotIdle)
	}

	start := o.now()
	configured, _ := o.configuredTarget()
	o.cfg.Status.SetText(status.Render(o.messages.Saving, configured, ""))
	o.logger.Info().Str("target", configured).Int("stores", len(o.adapters)).Msg("save started")

	defer func() {
		if r := recover(); r != nil {
			outcome = failure(configured, fmt.Errorf("%w: %v", ErrInternal, r))
		}
		outcome.Duration = o.now().Sub(start)
		o.finish(outcome)
	}()

	target, err := o.resolveTarget()
	if err != nil {
		return failure(configured, err)
	}

	size, err := o.write(ctx, target)
	if err != nil {
		return failure(target, err)
	}
	return Outcome{Success: true, Target: target, Bytes: size}
}

func (o *Orchestrator) write(ctx context.Context, target string) (int64, error) {
	writer, err := archive.Create(target, o.archiveOpts...)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidTarget, err)
	}
	// Abort is a no-op once Commit has succeeded.
	defer writer.Abort()

	for _, adapter := range o.adapters {
		data, err := serialize(ctx, adapter)
		if err != nil {
			return 0, &SerializationError{Store: adapter.Name(), Err: err}
		}
		if err := writer.WriteEntry(adapter.Name(), data); err != nil {
			return 0, err
		}
		o.logger.Debug().Str("store", adapter.Name()).Int("bytes", len(data)).Msg("store serialized")
	}

	if err := writer.Commit(); err != nil {
		return 0, err
	}
	return writer.Size(), nil
}

func serialize(ctx context.Context, adapter store.Adapter) (data []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			data = nil
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return adapter.Serialize(ctx)
}

func (o *Orchestrator) configuredTarget() (string, bool) {
	if o.cfg.Settings == nil {
		return "", false
	}
	return o.cfg.Settings.MainDataFile()
}

// resolveTarget checks the target before anything is written.
func (o *Orchestrator) resolveTarget() (string, error) {
	target, ok := o.configuredTarget()
	if !ok || target == "" {
		return "", fmt.Errorf("%w: no data file configured", ErrInvalidTarget)
	}
	if !filepath.IsAbs(target) {
		return "", fmt.Errorf("%w: %q is not an absolute path", ErrInvalidTarget, target)
	}

	info, err := os.Stat(target)
	switch {
	case err == nil && !info.Mode().IsRegular():
		return "", fmt.Errorf("%w: %q is not a regular file", ErrInvalidTarget, target)
	case err != nil && !errors.Is(err, os.ErrNotExist):
		return "", fmt.Errorf("%w: %w", ErrInvalidTarget, err)
	}

	dir := filepath.Dir(target)
	dirInfo, err := os.Stat(dir)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidTarget, err)
	}
	if !dirInfo.IsDir() {
		return "", fmt.Errorf("%w: %q is not a directory", ErrInvalidTarget, dir)
	}
	if err := checkWritable(dir); err != nil {
		return "", fmt.Errorf("%w: directory %q is not writable: %w", ErrInvalidTarget, dir, err)
	}
	// The rename would replace a read-only archive, so refuse it here.
	if info != nil {
		if err := checkWritable(target); err != nil {
			return "", fmt.Errorf("%w: %q is not writable: %w", ErrInvalidTarget, target, err)
		}
	}
	return target, nil
}

func (o *Orchestrator) finish(outcome Outcome) {
	kind := outcome.Kind()
	o.cfg.Metrics.ObserveSaveDuration(outcome.Duration)
	o.cfg.Metrics.IncSaves(outcome.Success, string(kind))

	if outcome.Success {
		o.state.Store(int32(StateSucceeded))
		o.cfg.Metrics.SetArchiveBytes(outcome.Bytes)
		o.cfg.Metrics.SetLastSuccessfulSaveTimestamp(o.now())
		o.cfg.Status.SetText(status.Render(o.messages.Saved, outcome.Target, ""))
		o.logger.Info().
			Str("target", outcome.Target).
			Int64("bytes", outcome.Bytes).
			Dur("duration", outcome.Duration).
			Msg("save completed")
		return
	}

	o.state.Store(int32(StateFailed))
	o.cfg.Status.SetText(status.Render(o.failureMessage(kind), outcome.Target, FailedStore(outcome.Err)))
	o.logger.Error().
		Err(outcome.Err).
		Str("target", outcome.Target).
		Str("kind", string(kind)).
		Dur("duration", outcome.Duration).
		Msg("save failed")
}

func (o *Orchestrator) failureMessage(kind Kind) string {
	switch kind {
	case KindInvalidTarget:
		return o.messages.InvalidTarget
	case KindSerialization:
		return o.messages.SerializationFailed
	case KindEntryWrite:
		return o.messages.WriteFailed
	case KindCommit:
		return o.messages.CommitFailed
	default:
		return o.messages.Failed
	}
}

// Reconcile clears the dirty flag of every participating store when the
// outcome reports success for this orchestrator's save. Otherwise no flag
// changes.
func (o *Orchestrator) Reconcile(outcome Outcome) {
	if !outcome.Success || o.State() != StateSucceeded {
		dirty := store.DirtyNames(o.adapters)
		o.cfg.Metrics.SetDirtyStores(len(dirty))
		o.logger.Debug().Strs("dirty_stores", dirty).Msg("save not confirmed, keeping dirty flags")
		return
	}

	for _, adapter := range o.adapters {
		adapter.ClearDirty()
	}
	o.cfg.Metrics.SetDirtyStores(len(store.DirtyNames(o.adapters)))
	o.logger.Debug().Int("stores", len(o.adapters)).Msg("dirty flags cleared")
}

// Teardown releases the progress indicator. Only the first call has an effect.
func (o *Orchestrator) Teardown() {
	o.teardown.Do(func() {
		defer o.state.Store(int32(StateTornDown))
		o.cfg.Progress.Dispose()
	})
}
