package uiloop

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/nholik/zksave/internal/status"
	"github.com/rs/zerolog"
)

// ErrAlreadyRunning is returned when Run is called twice.
var ErrAlreadyRunning = errors.New("loop already running")

// Loop is the interactive goroutine: posted functions run one at a time,
// in the order they were posted. Every accepted function runs exactly once,
// including those still queued when the loop stops.
type Loop struct {
	logger  zerolog.Logger
	mu      sync.Mutex
	queue   []func()
	stopped bool
	running atomic.Bool
	wake    chan struct{}
	stop    chan struct{}
	done    chan struct{}
	once    sync.Once
}

// New constructs an idle Loop.
func New(logger zerolog.Logger) *Loop {
	return &Loop{
		logger: logger,
		wake:   make(chan struct{}, 1),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Post queues fn. It returns false when the loop has stopped and fn will not run.
func (l *Loop) Post(fn func()) bool {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Call runs fn on the loop and waits for it to finish.
func (l *Loop) Call(fn func()) bool {
	finished := make(chan struct{})
	if !l.Post(func() {
		defer close(finished)
		fn()
	}) {
		return false
	}
	<-finished
	return true
}

// Stop asks the loop to finish the queued work and return.
func (l *Loop) Stop() {
	l.once.Do(func() { close(l.stop) })
}

// Done is closed once Run has returned.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Run executes posted functions until the context is canceled or Stop is called.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer close(l.done)

	for {
		l.drain()
		select {
		case <-ctx.Done():
			l.shutdown()
			return nil
		case <-l.stop:
			l.shutdown()
			return nil
		case <-l.wake:
		}
	}
}

func (l *Loop) shutdown() {
	l.mu.Lock()
	l.stopped = true
	l.mu.Unlock()
	l.drain()
	l.logger.Debug().Msg("interactive loop stopped")
}

func (l *Loop) drain() {
	for {
		l.mu.Lock()
		if len(l.queue) == 0 {
			l.mu.Unlock()
			return
		}
		fn := l.queue[0]
		l.queue[0] = nil
		l.queue = l.queue[1:]
		l.mu.Unlock()

		l.execute(fn)
	}
}

func (l *Loop) execute(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error().Interface("panic", r).Msg("interactive task panicked")
		}
	}()
	fn()
}

// sink forwards status updates onto the loop.
type sink struct {
	loop  *Loop
	inner status.Sink
}

// Sink wraps inner so SetText always executes on the loop. Once the loop
// has stopped, updates go straight to inner.
func Sink(loop *Loop, inner status.Sink) status.Sink {
	return &sink{loop: loop, inner: inner}
}

// SetText implements status.Sink.
func (s *sink) SetText(text string) {
	if !s.loop.Post(func() { s.inner.SetText(text) }) {
		s.inner.SetText(text)
	}
}
