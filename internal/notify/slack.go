package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/slack-go/slack"
)

// SlackNotifier posts save events to a Slack incoming webhook.
type SlackNotifier struct {
	logger     zerolog.Logger
	webhookURL string
	timing     timingConfig
	poster     *httpPoster
}

// SlackOption customizes SlackNotifier behavior.
type SlackOption func(*SlackNotifier)

// WithSlackTiming overrides timing parameters (primarily for testing).
func WithSlackTiming(rateInterval time.Duration, rateBurst int, backoffInitial, backoffMax, backoffMaxElapsed time.Duration) SlackOption {
	return func(s *SlackNotifier) {
		s.timing.rateInterval = rateInterval
		s.timing.rateBurst = rateBurst
		s.timing.backoffInitial = backoffInitial
		s.timing.backoffMax = backoffMax
		s.timing.backoffMaxElapsed = backoffMaxElapsed
	}
}

// NewSlackNotifier creates a Slack notifier or a noop notifier when the webhook is empty.
func NewSlackNotifier(logger zerolog.Logger, webhookURL string, opts ...SlackOption) Notifier {
	if webhookURL == "" {
		return NewNoop(logger, "slack webhook not configured; notifications disabled")
	}

	notifier := &SlackNotifier{
		logger:     logger,
		webhookURL: webhookURL,
		timing:     defaultTiming,
	}

	for _, opt := range opts {
		opt(notifier)
	}

	notifier.poster = newHTTPPoster(logger, "slack", webhookURL, "application/json", notifier.timing)

	return notifier
}

// Notify implements Notifier.
func (n *SlackNotifier) Notify(ctx context.Context, event Event) error {
	key := targetKey(event.Target)
	if err := n.poster.waitForRateLimit(ctx, key); err != nil {
		return err
	}

	payload, err := json.Marshal(buildSlackMessage(event))
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}
	if err := n.poster.postWithRetry(ctx, payload); err != nil {
		return err
	}

	n.logger.Debug().
		Str("target", key).
		Bool("success", event.Success).
		Msg("slack notification sent")

	return nil
}

func (n *SlackNotifier) postOnce(ctx context.Context, payload []byte) error {
	return n.poster.postOnce(ctx, payload)
}

func buildSlackMessage(event Event) slack.WebhookMessage {
	text := summary(event)
	header := slack.NewHeaderBlock(slack.NewTextBlockObject("plain_text", text, false, false))

	fields := []*slack.TextBlockObject{
		slack.NewTextBlockObject("mrkdwn", fmt.Sprintf("*File:*\n`%s`", targetKey(event.Target)), false, false),
		slack.NewTextBlockObject("mrkdwn", fmt.Sprintf("*Result:*\n%s", resultLabel(event)), false, false),
	}
	if event.Store != "" {
		fields = append(fields, slack.NewTextBlockObject("mrkdwn", fmt.Sprintf("*Store:*\n%s", event.Store), false, false))
	}
	if event.Error != "" {
		fields = append(fields, slack.NewTextBlockObject("mrkdwn", fmt.Sprintf("*Error:*\n```%s```", event.Error), false, false))
	}
	section := slack.NewSectionBlock(nil, fields, nil)

	footer := slack.NewContextBlock("",
		slack.NewTextBlockObject("mrkdwn", fmt.Sprintf("Took %s", event.Duration.Round(time.Millisecond)), false, false),
	)

	blockSet := slack.Blocks{BlockSet: []slack.Block{header, section, footer}}
	return slack.WebhookMessage{
		Text:   text,
		Blocks: &blockSet,
	}
}

func resultLabel(event Event) string {
	if event.Success {
		return "SAVED"
	}
	if event.Kind == "" {
		return "FAILED"
	}
	return "FAILED (" + event.Kind + ")"
}
