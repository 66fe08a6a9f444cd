package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/nholik/zksave/internal/store"
	"github.com/rs/zerolog"
)

// Ticker is the minimal interface needed for driving the autosave loop.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct {
	ticker *time.Ticker
}

func (t timeTicker) C() <-chan time.Time {
	return t.ticker.C
}

func (t timeTicker) Stop() {
	t.ticker.Stop()
}

// TaskFactory builds a fresh save task; orchestrators are single-use.
type TaskFactory func() (Task, error)

// Autosaver submits a save whenever a tick finds unsaved changes.
type Autosaver struct {
	logger        zerolog.Logger
	interval      time.Duration
	tickerFactory func(time.Duration) Ticker
	saveOnce      func(context.Context) error
	scheduler     *Scheduler
	adapters      []store.Adapter
	newTask       TaskFactory
	afterCheck    func()
}

// AutosaveOption customizes autosaver behavior.
type AutosaveOption func(*Autosaver)

// WithTickerFactory overrides how tickers are created.
func WithTickerFactory(factory func(time.Duration) Ticker) AutosaveOption {
	return func(a *Autosaver) {
		a.tickerFactory = factory
	}
}

// WithSaveOnce overrides the single-cycle step.
func WithSaveOnce(saveOnce func(context.Context) error) AutosaveOption {
	return func(a *Autosaver) {
		a.saveOnce = saveOnce
	}
}

// WithAfterCheck registers a callback run after every check, including
// checks that found nothing to save.
func WithAfterCheck(fn func()) AutosaveOption {
	return func(a *Autosaver) {
		a.afterCheck = fn
	}
}

// NewAutosaver constructs an Autosaver for the given adapters.
func NewAutosaver(logger zerolog.Logger, interval time.Duration, scheduler *Scheduler, adapters []store.Adapter, newTask TaskFactory, opts ...AutosaveOption) *Autosaver {
	a := &Autosaver{
		logger:    logger,
		interval:  interval,
		scheduler: scheduler,
		adapters:  adapters,
		newTask:   newTask,
		tickerFactory: func(d time.Duration) Ticker {
			return timeTicker{ticker: time.NewTicker(d)}
		},
	}
	a.saveOnce = a.defaultSaveOnce

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Run checks for unsaved changes immediately and then on every tick, until
// the context is canceled.
func (a *Autosaver) Run(ctx context.Context) error {
	if a.interval <= 0 {
		return errors.New("autosave interval must be greater than zero")
	}

	if err := a.SaveOnce(ctx); err != nil {
		a.logger.Error().Err(err).Msg("initial autosave failed")
	}

	ticker := a.tickerFactory(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.logger.Info().Msg("autosave stopped")
			return nil
		case <-ticker.C():
			if err := a.SaveOnce(ctx); err != nil {
				a.logger.Error().Err(err).Msg("autosave failed")
			}
		}
	}
}

// SaveOnce executes a single autosave check.
func (a *Autosaver) SaveOnce(ctx context.Context) error {
	err := a.saveOnce(ctx)
	if a.afterCheck != nil {
		a.afterCheck()
	}
	return err
}

func (a *Autosaver) defaultSaveOnce(ctx context.Context) error {
	dirty := store.DirtyNames(a.adapters)
	if len(dirty) == 0 {
		a.logger.Debug().Msg("no unsaved changes")
		return nil
	}
	if a.scheduler.InFlight() {
		a.logger.Debug().Msg("save in progress, skipping autosave")
		return nil
	}

	task, err := a.newTask()
	if err != nil {
		return err
	}

	if _, err := a.scheduler.Submit(ctx, task); err != nil {
		if errors.Is(err, ErrSaveInFlight) {
			// Nothing ran, so the progress indicator still has to go.
			task.Teardown()
			return nil
		}
		return err
	}

	a.logger.Info().Strs("dirty_stores", dirty).Msg("autosave submitted")
	return nil
}
