package main

import (
	"fmt"

	"github.com/nholik/zksave/internal/notify"
	"github.com/nholik/zksave/internal/status"
	"github.com/spf13/cobra"
)

func newSaveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "save",
		Short: "Save all stores into the archive once",
		Long: `Serialize every configured store into the archive and replace it
atomically. The command exits non-zero when the save fails; the previous
archive is then left unchanged.`,
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

			sess, err := newSession(cfg, logger, status.NewLine(cmd.OutOrStdout()))
			if err != nil {
				return err
			}
			sess.addHook(notify.Hook(logger, notifier, cfg.NotifyOnSuccess))
			sess.start()
			defer sess.close()

			outcome, err := sess.saveNow(cmd.Context())
			if err != nil {
				return err
			}
			if !outcome.Success {
				return fmt.Errorf("save failed: %w", outcome.Err)
			}
			return nil
		},
	}
}
