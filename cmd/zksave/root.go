package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/nholik/zksave/internal/config"
	"github.com/nholik/zksave/internal/logging"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	logLevel    string
	dataFile    string
	sourcesFile string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "zksave",
		Short: "Save application stores into a single archive",
		Long: `zksave writes a fixed set of stores into one zip archive. The archive
is replaced atomically, so a failed save never damages the previous version.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides ZK_LOG_LEVEL")
	cmd.PersistentFlags().StringVarP(&opts.dataFile, "file", "f", "", "Archive to write; overrides ZK_DATA_FILE")
	cmd.PersistentFlags().StringVar(&opts.sourcesFile, "sources", "", "YAML file binding stores to source files; overrides ZK_SOURCES_FILE")

	cmd.AddCommand(newSaveCmd(opts))
	cmd.AddCommand(newWatchCmd(opts))
	cmd.AddCommand(newInspectCmd())

	return cmd
}

// loadConfig reads the environment and applies command-line overrides.
func (o *rootOptions) loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if o.dataFile != "" {
		cfg.DataFile = o.dataFile
	}
	if o.sourcesFile != "" {
		cfg.SourcesFile = o.sourcesFile
	}
	if cfg.DataFile != "" && !filepath.IsAbs(cfg.DataFile) {
		abs, err := filepath.Abs(cfg.DataFile)
		if err != nil {
			return config.Config{}, fmt.Errorf("resolve data file: %w", err)
		}
		cfg.DataFile = abs
	}
	return cfg, nil
}

func newLogger(w io.Writer, cfg config.Config) zerolog.Logger {
	return logging.NewWithWriter(w, cfg.LogLevel)
}
