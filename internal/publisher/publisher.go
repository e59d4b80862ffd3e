package publisher

import (
	"context"
	"fmt"
	"os"

	"github.com/ternarybob/arbor"

	"github.com/ryosukesatoh/daily-brief/internal/config"
)

// Notifier delivers briefs to subscribers and alerts to the operator.
type Notifier interface {
	// SendBatch sends one message to every recipient. Recipients do not see
	// each other's addresses.
	SendBatch(ctx context.Context, subject, body string, recipients []string) error
	SendAdminAlert(ctx context.Context, subject, body string) error
}

// Alerter delivers operator alerts only.
type Alerter interface {
	SendAdminAlert(ctx context.Context, subject, body string) error
}

// Router sends batches through Batch and admin alerts through Alerts.
type Router struct {
	Batch  Notifier
	Alerts Alerter
}

var _ Notifier = (*Router)(nil)

func (r *Router) SendBatch(ctx context.Context, subject, body string, recipients []string) error {
	return r.Batch.SendBatch(ctx, subject, body, recipients)
}

func (r *Router) SendAdminAlert(ctx context.Context, subject, body string) error {
	return r.Alerts.SendAdminAlert(ctx, subject, body)
}

// New creates the notifier selected by cfg.Type. When a Discord webhook is
// configured, admin alerts go there instead.
func New(cfg config.NotifierConfig, logger arbor.ILogger) (Notifier, error) {
	var n Notifier
	switch cfg.Type {
	case "email":
		n = NewEmailNotifier(cfg, logger)
	case "stdout":
		n = NewStdoutNotifier(os.Stdout)
	default:
		return nil, fmt.Errorf("publisher: unsupported notifier type %q", cfg.Type)
	}

	if cfg.Discord.WebhookURL != "" {
		return &Router{Batch: n, Alerts: NewDiscordAlerter(cfg.Discord.WebhookURL)}, nil
	}
	return n, nil
}
