// Package notification fans a message out over several channels: the
// in-app inbox, a websocket push, an outbound webhook and Slack.
//
//	type OrderReady struct{ Order models.Order }
//
//	func (n OrderReady) Via() []string { return []string{notification.Database, notification.Push} }
//	func (n OrderReady) ToDatabase() notification.DatabaseData { ... }
//	func (n OrderReady) ToPush() notification.PushData { ... }
//
//	errs := dispatcher.Send(ctx, OrderReady{Order: o})
package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gebeta-app/gebeta/pkg/http"
	"github.com/gebeta-app/gebeta/pkg/logger"
	"github.com/gebeta-app/gebeta/pkg/metrics"
)

// Channel names.
const (
	Database = "database"
	Push     = "push"
	Webhook  = "webhook"
	Slack    = "slack"
)

// DatabaseData is an inbox entry for one user.
type DatabaseData struct {
	UserID      uint
	Type        string
	Title       string
	Message     string
	RelatedKind string
	RelatedID   uint
	Data        map[string]any
}

// PushData is a realtime event for one user.
type PushData struct {
	UserID uint
	Event  string
	Data   any
}

// WebhookData is a JSON POST. An empty URL falls back to the dispatcher's.
type WebhookData struct {
	URL     string
	Event   string
	Payload any
	Headers map[string]string
}

// SlackData is an incoming-webhook message.
type SlackData struct {
	WebhookURL  string
	Text        string
	Attachments []SlackAttachment
}

type SlackAttachment struct {
	Color  string `json:"color,omitempty"`
	Title  string `json:"title,omitempty"`
	Text   string `json:"text,omitempty"`
	Footer string `json:"footer,omitempty"`
}

// Notification names the channels it goes out on and implements the matching
// To* method for each.
type Notification interface {
	Via() []string
}

type Databaseable interface{ ToDatabase() DatabaseData }

type Pushable interface{ ToPush() PushData }

type Webhookable interface{ ToWebhook() WebhookData }

type Slackable interface{ ToSlack() SlackData }

// Inbox persists database notifications.
type Inbox interface {
	Store(ctx context.Context, d DatabaseData) error
}

// Pusher delivers realtime events; *ws.Hub satisfies it.
type Pusher interface {
	SendTo(userID uint, event string, data any)
}

// Dispatcher routes notifications to the configured channels. A channel
// without a backend fails with ErrChannelDisabled.
type Dispatcher struct {
	Inbox      Inbox
	Pusher     Pusher
	WebhookURL string
	SlackURL   string
	Timeout    time.Duration
}

var ErrChannelDisabled = errors.New("notification: channel not configured")

// Send delivers n on every channel it names and returns one error per
// failed channel.
func (d *Dispatcher) Send(ctx context.Context, n Notification) []error {
	var errs []error
	for _, channel := range n.Via() {
		err := d.dispatch(ctx, channel, n)
		status := "sent"
		if err != nil {
			status = "failed"
			if !errors.Is(err, ErrChannelDisabled) {
				logger.WithCtx(ctx).Error("notification: channel failed", "channel", channel, "error", err)
			}
			errs = append(errs, err)
		}
		metrics.NotificationsSent.WithLabelValues(channel, status).Inc()
	}
	return errs
}

func (d *Dispatcher) dispatch(ctx context.Context, channel string, n Notification) error {
	switch channel {
	case Database:
		m, ok := n.(Databaseable)
		if !ok {
			return fmt.Errorf("notification: %T is not Databaseable", n)
		}
		if d.Inbox == nil {
			return ErrChannelDisabled
		}
		return d.Inbox.Store(ctx, m.ToDatabase())

	case Push:
		m, ok := n.(Pushable)
		if !ok {
			return fmt.Errorf("notification: %T is not Pushable", n)
		}
		if d.Pusher == nil {
			return ErrChannelDisabled
		}
		p := m.ToPush()
		d.Pusher.SendTo(p.UserID, p.Event, p.Data)
		return nil

	case Webhook:
		m, ok := n.(Webhookable)
		if !ok {
			return fmt.Errorf("notification: %T is not Webhookable", n)
		}
		return d.sendWebhook(ctx, m.ToWebhook())

	case Slack:
		m, ok := n.(Slackable)
		if !ok {
			return fmt.Errorf("notification: %T is not Slackable", n)
		}
		return d.sendSlack(ctx, m.ToSlack())

	default:
		return fmt.Errorf("notification: unknown channel %q", channel)
	}
}

func (d *Dispatcher) timeout() time.Duration {
	if d.Timeout > 0 {
		return d.Timeout
	}
	return 10 * time.Second
}

// sendWebhook posts {"event","data"} to the webhook URL.
func (d *Dispatcher) sendWebhook(ctx context.Context, w WebhookData) error {
	url := w.URL
	if url == "" {
		url = d.WebhookURL
	}
	if url == "" {
		return ErrChannelDisabled
	}
	resp, err := http.Post(url).
		WithContext(ctx).
		Timeout(d.timeout()).
		Headers(w.Headers).
		Header("X-Gebeta-Event", w.Event).
		Body(map[string]any{"event": w.Event, "data": w.Payload}).
		Send()
	if err != nil {
		return fmt.Errorf("notification: webhook: %w", err)
	}
	return resp.Throw()
}

func (d *Dispatcher) sendSlack(ctx context.Context, s SlackData) error {
	url := s.WebhookURL
	if url == "" {
		url = d.SlackURL
	}
	if url == "" {
		return ErrChannelDisabled
	}
	resp, err := http.Post(url).
		WithContext(ctx).
		Timeout(d.timeout()).
		Body(map[string]any{"text": s.Text, "attachments": s.Attachments}).
		Send()
	if err != nil {
		return fmt.Errorf("notification: slack: %w", err)
	}
	return resp.Throw()
}
