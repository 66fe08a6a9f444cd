package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nholik/zksave/internal/healthcheck"
	"github.com/nholik/zksave/internal/metrics"
	"github.com/rs/zerolog"
)

const shutdownTimeout = 5 * time.Second

// Options selects which endpoints are served and on which ports. A port of
// 0 disables that endpoint group; equal ports share one listener.
type Options struct {
	HealthPort       int
	MetricsPort      int
	AutosaveInterval time.Duration
	Tracker          *healthcheck.Tracker
	Metrics          *metrics.Metrics
}

type listener struct {
	label   string
	port    int
	handler http.Handler
}

// Start launches the configured HTTP listeners in the background. They shut
// down when ctx is canceled.
func Start(ctx context.Context, logger zerolog.Logger, opts Options) {
	for _, l := range plan(opts) {
		serve(ctx, logger, l)
	}
}

func plan(opts Options) []listener {
	var listeners []listener
	switch {
	case opts.HealthPort > 0 && opts.HealthPort == opts.MetricsPort:
		mux := http.NewServeMux()
		opts.registerHealth(mux)
		opts.registerMetrics(mux)
		listeners = append(listeners, listener{label: "health/metrics", port: opts.HealthPort, handler: mux})
	default:
		if opts.HealthPort > 0 {
			mux := http.NewServeMux()
			opts.registerHealth(mux)
			listeners = append(listeners, listener{label: "health", port: opts.HealthPort, handler: mux})
		}
		if opts.MetricsPort > 0 {
			mux := http.NewServeMux()
			opts.registerMetrics(mux)
			listeners = append(listeners, listener{label: "metrics", port: opts.MetricsPort, handler: mux})
		}
	}
	return listeners
}

func (o Options) registerHealth(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", healthcheck.HealthHandler(o.Tracker, o.AutosaveInterval))
	mux.HandleFunc("/readyz", healthcheck.ReadyHandler(o.Tracker))
}

func (o Options) registerMetrics(mux *http.ServeMux) {
	if o.Metrics != nil {
		mux.Handle("/metrics", o.Metrics.Handler())
	}
}

func serve(ctx context.Context, logger zerolog.Logger, l listener) {
	log := logger.With().Str("server", l.label).Int("port", l.port).Logger()
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", l.port),
		Handler:           l.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Msg("http server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("http server shutdown failed")
		}
	}()
}
