package notify

import (
	"context"
	"time"

	"github.com/nholik/zksave/internal/save"
	"github.com/rs/zerolog"
)

// Event describes a finished save for external systems.
type Event struct {
	Target     string        `json:"target"`
	Success    bool          `json:"success"`
	Kind       string        `json:"kind,omitempty"`
	Store      string        `json:"store,omitempty"`
	Error      string        `json:"error,omitempty"`
	Bytes      int64         `json:"bytes"`
	Duration   time.Duration `json:"duration_ns"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// EventFromOutcome converts a save outcome into an Event.
func EventFromOutcome(outcome save.Outcome, at time.Time) Event {
	event := Event{
		Target:     outcome.Target,
		Success:    outcome.Success,
		Kind:       string(outcome.Kind()),
		Store:      save.FailedStore(outcome.Err),
		Bytes:      outcome.Bytes,
		Duration:   outcome.Duration,
		OccurredAt: at.UTC(),
	}
	if outcome.Err != nil {
		event.Error = outcome.Err.Error()
	}
	return event
}

// Notifier delivers save events to external systems.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// Hook returns a scheduler outcome hook that forwards failed saves to
// notifier. Delivery errors are logged, never returned to the save.
func Hook(logger zerolog.Logger, notifier Notifier, includeSuccess bool) func(context.Context, save.Outcome) {
	return func(ctx context.Context, outcome save.Outcome) {
		if notifier == nil || (outcome.Success && !includeSuccess) {
			return
		}
		event := EventFromOutcome(outcome, time.Now())
		if err := notifier.Notify(ctx, event); err != nil {
			logger.Error().Err(err).Str("target", event.Target).Msg("save notification failed")
		}
	}
}

func targetKey(target string) string {
	if target == "" {
		return "unset"
	}
	return target
}
