package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nholik/zksave/internal/metrics"
	"github.com/nholik/zksave/internal/save"
	"github.com/nholik/zksave/internal/uiloop"
	"github.com/rs/zerolog"
)

// ErrSaveInFlight is returned when a save is requested while another is running.
var ErrSaveInFlight = errors.New("save already in progress")

// DefaultHookTimeout bounds each outcome hook so Wait cannot block forever.
const DefaultHookTimeout = time.Minute

// Task is the three-phase save protocol driven by the Scheduler.
type Task interface {
	Run(ctx context.Context) save.Outcome
	Reconcile(outcome save.Outcome)
	Teardown()
}

// OutcomeHook observes a finished background phase. Hooks run on the
// worker goroutine, never on the interactive loop, and their context is
// canceled once the hook timeout passes.
type OutcomeHook func(ctx context.Context, outcome save.Outcome)

// Scheduler runs one save at a time: the background phase on a worker
// goroutine, then Reconcile and Teardown on the interactive loop, each
// exactly once and in that order.
type Scheduler struct {
	logger      zerolog.Logger
	loop        *uiloop.Loop
	metrics     *metrics.Metrics
	hooks       []OutcomeHook
	hookTimeout time.Duration
	inFlight    atomic.Bool
	wg          sync.WaitGroup
}

// Option customizes scheduler behavior.
type Option func(*Scheduler)

// WithMetrics records rejected requests.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scheduler) {
		s.metrics = m
	}
}

// WithOutcomeHook registers a hook called after every background phase.
func WithOutcomeHook(hook OutcomeHook) Option {
	return func(s *Scheduler) {
		if hook != nil {
			s.hooks = append(s.hooks, hook)
		}
	}
}

// WithHookTimeout overrides DefaultHookTimeout. Non-positive values are ignored.
func WithHookTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.hookTimeout = d
		}
	}
}

// New constructs a Scheduler bound to the interactive loop.
func New(logger zerolog.Logger, loop *uiloop.Loop, opts ...Option) *Scheduler {
	s := &Scheduler{
		logger:      logger,
		loop:        loop,
		hookTimeout: DefaultHookTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// InFlight reports whether a save is running or awaiting its completion phases.
func (s *Scheduler) InFlight() bool {
	return s.inFlight.Load()
}

// Submit starts task. The returned channel delivers the outcome once
// Teardown has finished. The background phase is detached from ctx's
// cancellation; ctx only carries values.
func (s *Scheduler) Submit(ctx context.Context, task Task) (<-chan save.Outcome, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		s.metrics.IncRejectedSaves()
		s.logger.Warn().Msg("save request rejected, another save is in progress")
		return nil, ErrSaveInFlight
	}

	done := make(chan save.Outcome, 1)
	runCtx := context.WithoutCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		outcome := s.run(runCtx, task)
		complete := func() { s.complete(task, outcome, done) }
		if !s.loop.Post(complete) {
			s.logger.Warn().Msg("interactive loop stopped, completing save on worker")
			complete()
		}

		for _, hook := range s.hooks {
			s.callHook(runCtx, hook, outcome)
		}
	}()

	return done, nil
}

// Wait blocks until every submitted worker, including its hooks, has returned.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) run(ctx context.Context, task Task) (outcome save.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Interface("panic", r).Msg("save task panicked")
			outcome = save.Outcome{Err: fmt.Errorf("%w: %v", save.ErrInternal, r)}
		}
	}()
	return task.Run(ctx)
}

// complete runs on the interactive loop.
func (s *Scheduler) complete(task Task, outcome save.Outcome, done chan<- save.Outcome) {
	defer func() {
		s.teardown(task)
		s.inFlight.Store(false)
		done <- outcome
		close(done)
	}()
	s.reconcile(task, outcome)
}

func (s *Scheduler) reconcile(task Task, outcome save.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Interface("panic", r).Msg("save reconciliation panicked")
		}
	}()
	task.Reconcile(outcome)
}

func (s *Scheduler) teardown(task Task) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Interface("panic", r).Msg("save teardown panicked")
		}
	}()
	task.Teardown()
}

func (s *Scheduler) callHook(ctx context.Context, hook OutcomeHook, outcome save.Outcome) {
	ctx, cancel := context.WithTimeout(ctx, s.hookTimeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Interface("panic", r).Msg("save outcome hook panicked")
		}
	}()
	hook(ctx, outcome)
}
