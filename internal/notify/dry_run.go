package notify

import (
	"context"

	"github.com/rs/zerolog"
)

// DryRunNotifier logs events without sending notifications.
type DryRunNotifier struct {
	logger zerolog.Logger
}

// NewDryRunNotifier returns a notifier that logs events instead of delivering them.
func NewDryRunNotifier(logger zerolog.Logger) *DryRunNotifier {
	return &DryRunNotifier{logger: logger}
}

// Notify implements Notifier.
func (n *DryRunNotifier) Notify(_ context.Context, event Event) error {
	n.logger.Info().
		Str("target", event.Target).
		Bool("success", event.Success).
		Str("kind", event.Kind).
		Str("store", event.Store).
		Str("error", event.Error).
		Msg("[DRY-RUN] Would notify")
	return nil
}
