package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"text/template"
	"time"

	"github.com/rs/zerolog"
)

const defaultWebhookTemplate = `{"event":{{ toJson .Event }},"message":{{ toJson .Message }}}`

// WebhookPayload is the template context for webhook notifications.
type WebhookPayload struct {
	Event       Event
	Message     string
	GeneratedAt time.Time
}

// WebhookNotifier sends save events to a generic webhook.
type WebhookNotifier struct {
	logger   zerolog.Logger
	template *template.Template
	poster   *httpPoster
}

// NewWebhookNotifier creates a webhook notifier with the provided template.
// It returns nil when no URL is configured.
func NewWebhookNotifier(logger zerolog.Logger, webhookURL string, tmpl string) (*WebhookNotifier, error) {
	if webhookURL == "" {
		return nil, nil
	}
	if tmpl == "" {
		tmpl = defaultWebhookTemplate
	}

	parsed, err := template.New("webhook").Funcs(template.FuncMap{
		"toJson": func(v any) (string, error) {
			encoded, err := json.Marshal(v)
			if err != nil {
				return "", err
			}
			return string(encoded), nil
		},
	}).Parse(tmpl)
	if err != nil {
		return nil, fmt.Errorf("parse webhook template: %w", err)
	}

	return &WebhookNotifier{
		logger:   logger,
		template: parsed,
		poster:   newHTTPPoster(logger, "webhook", webhookURL, "application/json", defaultTiming),
	}, nil
}

// Notify implements Notifier.
func (n *WebhookNotifier) Notify(ctx context.Context, event Event) error {
	if n == nil {
		return nil
	}

	key := targetKey(event.Target)
	if err := n.poster.waitForRateLimit(ctx, key); err != nil {
		return err
	}

	payload := WebhookPayload{
		Event:       event,
		Message:     summary(event),
		GeneratedAt: time.Now().UTC(),
	}

	var buf bytes.Buffer
	if err := n.template.Execute(&buf, payload); err != nil {
		return fmt.Errorf("render webhook template: %w", err)
	}

	if err := n.poster.postWithRetry(ctx, buf.Bytes()); err != nil {
		return err
	}

	n.logger.Debug().
		Str("target", key).
		Bool("success", event.Success).
		Msg("webhook notification sent")

	return nil
}

func summary(event Event) string {
	target := targetKey(event.Target)
	if event.Success {
		return fmt.Sprintf("Saved %s (%d bytes)", target, event.Bytes)
	}
	if event.Store != "" {
		return fmt.Sprintf("Save of %s failed: %s store could not be serialized", target, event.Store)
	}
	return fmt.Sprintf("Save of %s failed (%s)", target, event.Kind)
}
