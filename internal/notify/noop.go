package notify

import (
	"context"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// NoopNotifier drops events when no channel is configured.
type NoopNotifier struct {
	dropped atomic.Int64
}

// NewNoop returns a notifier that drops every event. reason is logged once.
func NewNoop(logger zerolog.Logger, reason string) *NoopNotifier {
	if reason != "" {
		logger.Info().Msg(reason)
	}
	return &NoopNotifier{}
}

// Notify implements Notifier.
func (n *NoopNotifier) Notify(context.Context, Event) error {
	n.dropped.Add(1)
	return nil
}

// Dropped reports how many events were discarded.
func (n *NoopNotifier) Dropped() int64 {
	return n.dropped.Load()
}
