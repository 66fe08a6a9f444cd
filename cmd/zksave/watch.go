package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/nholik/zksave/internal/healthcheck"
	"github.com/nholik/zksave/internal/notify"
	"github.com/nholik/zksave/internal/save"
	"github.com/nholik/zksave/internal/scheduler"
	"github.com/nholik/zksave/internal/server"
	"github.com/nholik/zksave/internal/status"
	"github.com/nholik/zksave/internal/store"
	"github.com/spf13/cobra"
)

func newWatchCmd(opts *rootOptions) *cobra.Command {
	var finalSave bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Autosave the stores whenever their sources change",
		Long: `Check the configured stores every ZK_AUTOSAVE_INTERVAL and save them
when any has unsaved changes. Health and metrics endpoints are served on
ZK_HEALTH_PORT and ZK_METRICS_PORT when set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			logger := newLogger(cmd.ErrOrStderr(), cfg)

			notifier, err := buildNotifier(logger, cfg)
			if err != nil {
				return err
			}

			sess, err := newSession(cfg, logger, status.NewLogSink(logger))
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			tracker := healthcheck.NewTracker()
			sess.addHook(func(_ context.Context, outcome save.Outcome) {
				tracker.RecordSave(outcome.Duration, outcome.Success)
			})
			if ws := newWatchState(logger, cfg); ws != nil {
				ws.restore(ctx, sess)
				sess.addHook(ws.hook(sess))
			}
			// Delivery may retry for a while, so it goes last.
			sess.addHook(notify.Hook(logger, notifier, cfg.NotifyOnSuccess))

			sess.start()
			defer sess.close()

			server.Start(ctx, logger, server.Options{
				HealthPort:       cfg.HealthPort,
				MetricsPort:      cfg.MetricsPort,
				AutosaveInterval: cfg.AutosaveInterval,
				Tracker:          tracker,
				Metrics:          sess.metrics,
			})

			autosaver := scheduler.NewAutosaver(logger, cfg.AutosaveInterval, sess.scheduler, sess.adapters, sess.newTask,
				scheduler.WithAfterCheck(tracker.RecordCheck),
			)

			logger.Info().
				Str("data_file", cfg.DataFile).
				Dur("interval", cfg.AutosaveInterval).
				Int("stores", len(sess.adapters)).
				Msg("zksave watching")

			if err := autosaver.Run(ctx); err != nil {
				return err
			}

			if finalSave && store.AnyDirty(sess.adapters) {
				sess.scheduler.Wait()
				if err := autosaver.SaveOnce(context.Background()); err != nil {
					logger.Error().Err(err).Msg("final save failed")
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&finalSave, "final-save", true, "Save unsaved changes once more before exiting")
	return cmd
}
