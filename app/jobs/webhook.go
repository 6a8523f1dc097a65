// Package jobs holds the queue jobs the application dispatches.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gebeta-app/gebeta/pkg/notification"
	"github.com/gebeta-app/gebeta/pkg/queue"
)

const WebhookName = "webhook"

// Webhook delivers one domain event to an external endpoint. A failed POST
// returns an error so the queue retries it.
type Webhook struct {
	URL     string          `json:"url"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

func (Webhook) Name() string { return WebhookName }

func (w *Webhook) Handle(ctx context.Context) error {
	d := notification.Dispatcher{WebhookURL: w.URL, Timeout: 10 * time.Second}
	return errors.Join(d.Send(ctx, outbound{w})...)
}

type outbound struct{ w *Webhook }

func (outbound) Via() []string { return []string{notification.Webhook} }

func (o outbound) ToWebhook() notification.WebhookData {
	return notification.WebhookData{Event: o.w.Event, Payload: o.w.Payload}
}

// Register adds every job in this package to q.
func Register(q *queue.Queue) {
	q.Register(WebhookName, func() queue.Job { return &Webhook{} })
}
