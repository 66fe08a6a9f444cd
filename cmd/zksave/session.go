package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/nholik/zksave/internal/config"
	"github.com/nholik/zksave/internal/metrics"
	"github.com/nholik/zksave/internal/notify"
	"github.com/nholik/zksave/internal/save"
	"github.com/nholik/zksave/internal/scheduler"
	"github.com/nholik/zksave/internal/status"
	"github.com/nholik/zksave/internal/store"
	"github.com/nholik/zksave/internal/uiloop"
	"github.com/rs/zerolog"
)

// session holds what every save of one process shares: the stores, the
// interactive loop and the scheduler bound to it.
type session struct {
	logger    zerolog.Logger
	settings  *config.Settings
	adapters  []store.Adapter
	messages  status.Messages
	metrics   *metrics.Metrics
	status    status.Sink
	loop      *uiloop.Loop
	scheduler *scheduler.Scheduler
	hooks     []scheduler.OutcomeHook
}

func newSession(cfg config.Config, logger zerolog.Logger, sink status.Sink) (*session, error) {
	adapters, err := buildAdapters(cfg)
	if err != nil {
		return nil, err
	}

	messages, err := config.LoadMessages(cfg.MessagesFile)
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	loop := uiloop.New(logger)

	s := &session{
		logger:   logger,
		settings: config.NewSettings(cfg.DataFile),
		adapters: adapters,
		messages: messages,
		metrics:  m,
		status:   uiloop.Sink(loop, sink),
		loop:     loop,
	}
	s.scheduler = scheduler.New(logger, loop,
		scheduler.WithMetrics(m),
		scheduler.WithOutcomeHook(s.dispatch),
	)
	return s, nil
}

// addHook registers a hook for every finished save. Hooks must be added
// before start.
func (s *session) addHook(hook scheduler.OutcomeHook) {
	s.hooks = append(s.hooks, hook)
}

// dispatch runs every registered hook in order. A panicking hook is
// logged and the rest still run.
func (s *session) dispatch(ctx context.Context, outcome save.Outcome) {
	for i, hook := range s.hooks {
		s.runHook(ctx, i, hook, outcome)
	}
}

func (s *session) runHook(ctx context.Context, index int, hook scheduler.OutcomeHook, outcome save.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Interface("panic", r).Int("hook", index).Msg("save outcome hook panicked")
		}
	}()
	hook(ctx, outcome)
}

// afterCompletion runs fn on the interactive loop once the completion
// phases already queued there have run. If the loop has stopped those
// phases ran on the worker, so fn runs directly.
func (s *session) afterCompletion(fn func()) {
	if !s.loop.Call(fn) {
		fn()
	}
}

func buildAdapters(cfg config.Config) ([]store.Adapter, error) {
	if cfg.SourcesFile == "" {
		return nil, errors.New("no stores configured: set ZK_SOURCES_FILE or --sources")
	}
	sources, err := config.LoadSourcesFile(cfg.SourcesFile)
	if err != nil {
		return nil, err
	}
	adapters := make([]store.Adapter, 0, len(sources))
	for _, source := range sources {
		adapters = append(adapters, store.NewFileStore(source.Name, source.Path))
	}
	return adapters, nil
}

func buildNotifier(logger zerolog.Logger, cfg config.Config) (notify.Notifier, error) {
	webhook, err := notify.NewWebhookNotifier(logger, cfg.WebhookURL, cfg.WebhookTemplate)
	if err != nil {
		return nil, err
	}
	if cfg.NotifyDryRun {
		return notify.NewDryRunNotifier(logger), nil
	}
	return notify.NewMultiNotifier(webhook, notify.NewSlackNotifier(logger, cfg.SlackWebhookURL)), nil
}

// start runs the interactive loop until close is called.
func (s *session) start() {
	go func() {
		if err := s.loop.Run(context.Background()); err != nil {
			s.logger.Error().Err(err).Msg("interactive loop failed")
		}
	}()
}

// close waits for a running save to finish all three phases, then stops the loop.
func (s *session) close() {
	s.scheduler.Wait()
	s.loop.Stop()
	<-s.loop.Done()
}

// newTask builds a fresh orchestrator for one save.
func (s *session) newTask() (scheduler.Task, error) {
	progress := status.NewIndicator(func() {
		s.logger.Debug().Msg("save indicator released")
	})
	orchestrator, err := save.New(save.Config{
		Settings: s.settings,
		Status:   s.status,
		Progress: progress,
		Messages: s.messages,
		Logger:   s.logger,
		Metrics:  s.metrics,
	}, s.adapters)
	if err != nil {
		return nil, fmt.Errorf("prepare save: %w", err)
	}
	return orchestrator, nil
}

// saveNow submits one save and waits for it to be torn down.
func (s *session) saveNow(ctx context.Context) (save.Outcome, error) {
	task, err := s.newTask()
	if err != nil {
		return save.Outcome{}, err
	}
	done, err := s.scheduler.Submit(ctx, task)
	if err != nil {
		task.Teardown()
		return save.Outcome{}, err
	}
	select {
	case outcome := <-done:
		return outcome, nil
	case <-ctx.Done():
		// The save keeps running; close waits for it.
		return save.Outcome{}, ctx.Err()
	}
}
