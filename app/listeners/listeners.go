// Package listeners turns domain events into side effects: inbox entries,
// websocket pushes, Slack alerts and webhook jobs.
package listeners

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gebeta-app/gebeta/app/jobs"
	"github.com/gebeta-app/gebeta/app/models"
	"github.com/gebeta-app/gebeta/app/services"
	"github.com/gebeta-app/gebeta/pkg/event"
	"github.com/gebeta-app/gebeta/pkg/logger"
	"github.com/gebeta-app/gebeta/pkg/notification"
	"github.com/gebeta-app/gebeta/pkg/queue"
)

// Deps are the backends listeners write to. Queue and WebhookURL are
// optional; without both, webhook deliveries are skipped.
type Deps struct {
	Notifications *services.NotificationService
	Pusher        notification.Pusher
	Queue         *queue.Queue
	WebhookURL    string
	SlackURL      string
}

type listeners struct {
	dispatcher *notification.Dispatcher
	queue      *queue.Queue
	webhookURL string
}

// Register subscribes the application listeners on bus.
func Register(bus *event.Bus, d Deps) {
	l := &listeners{
		dispatcher: &notification.Dispatcher{
			Inbox:    inbox{d.Notifications},
			Pusher:   d.Pusher,
			SlackURL: d.SlackURL,
		},
		queue:      d.Queue,
		webhookURL: d.WebhookURL,
	}

	bus.Listen(services.EventOrderCreated, l.orderCreated)
	bus.Listen(services.EventOrderStatusChanged, l.orderStatusChanged)
	bus.Listen(services.EventOrderPaymentChanged, l.orderPaymentChanged)
	bus.Listen(services.EventReviewCreated, l.reviewCreated)
}

func (l *listeners) orderCreated(ctx context.Context, payload any) {
	e, ok := payload.(services.OrderEvent)
	if !ok {
		return
	}
	l.send(ctx, orderReceived{e})
	l.webhook(ctx, services.EventOrderCreated, e.Order)
}

func (l *listeners) orderStatusChanged(ctx context.Context, payload any) {
	e, ok := payload.(services.OrderEvent)
	if !ok {
		return
	}
	l.send(ctx, orderStatus{e})
	l.webhook(ctx, services.EventOrderStatusChanged, e.Order)
}

func (l *listeners) orderPaymentChanged(ctx context.Context, payload any) {
	e, ok := payload.(services.OrderEvent)
	if !ok {
		return
	}
	l.send(ctx, paymentUpdate{e})
	l.webhook(ctx, services.EventOrderPaymentChanged, e.Order)
}

func (l *listeners) reviewCreated(ctx context.Context, payload any) {
	e, ok := payload.(services.ReviewEvent)
	if !ok || e.OwnerID == 0 {
		return
	}
	l.send(ctx, newReview{e})
}

func (l *listeners) send(ctx context.Context, n notification.Notification) {
	// Channel errors are logged and counted by the dispatcher.
	_ = l.dispatcher.Send(ctx, n)
}

func (l *listeners) webhook(ctx context.Context, name string, v any) {
	if l.queue == nil || l.webhookURL == "" {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		logger.WithCtx(ctx).Error("listeners: encode webhook payload", "event", name, "error", err)
		return
	}
	if err := l.queue.Dispatch(ctx, &jobs.Webhook{URL: l.webhookURL, Event: name, Payload: raw}); err != nil {
		logger.WithCtx(ctx).Error("listeners: dispatch webhook", "event", name, "error", err)
	}
}

// inbox stores database notifications through the notification service.
type inbox struct {
	svc *services.NotificationService
}

func (i inbox) Store(ctx context.Context, d notification.DatabaseData) error {
	if i.svc == nil {
		return notification.ErrChannelDisabled
	}
	return i.svc.Notify(ctx, &models.Notification{
		UserID:      d.UserID,
		Type:        d.Type,
		Title:       d.Title,
		Message:     d.Message,
		RelatedKind: d.RelatedKind,
		RelatedID:   d.RelatedID,
		Metadata:    d.Data,
	})
}

// ─── Notifications ────────────────────────────────────────────────────────────

const (
	PushOrderCreated = "order.created"
	PushOrderUpdated = "order.updated"
)

func orderData(o models.Order) map[string]any {
	return map[string]any{
		"orderNumber": o.OrderNumber,
		"status":      o.Status,
		"total":       o.Total.StringFixed(2),
	}
}

// orderReceived tells the restaurant owner about a new order.
type orderReceived struct{ e services.OrderEvent }

func (n orderReceived) Via() []string {
	return []string{notification.Database, notification.Push}
}

func (n orderReceived) ToDatabase() notification.DatabaseData {
	o := n.e.Order
	return notification.DatabaseData{
		UserID:      n.e.OwnerID,
		Type:        models.NotifyOrderReceived,
		Title:       "New order received",
		Message:     fmt.Sprintf("Order %s for %s %s at %s", o.OrderNumber, o.Total.StringFixed(2), o.Payment.Currency, n.e.RestaurantName),
		RelatedKind: "order",
		RelatedID:   o.ID,
		Data:        orderData(o),
	}
}

func (n orderReceived) ToPush() notification.PushData {
	return notification.PushData{UserID: n.e.OwnerID, Event: PushOrderCreated, Data: n.e.Order}
}

// orderStatus tells the buyer their order moved.
type orderStatus struct{ e services.OrderEvent }

func (n orderStatus) Via() []string {
	via := []string{notification.Database, notification.Push}
	if n.e.Order.Status == models.OrderCancelled {
		via = append(via, notification.Slack)
	}
	return via
}

var statusTitles = map[string]string{
	models.OrderConfirmed:      "Order confirmed",
	models.OrderPreparing:      "Your order is being prepared",
	models.OrderReadyForPickup: "Your order is ready",
	models.OrderOutForDelivery: "Your order is on the way",
	models.OrderDelivered:      "Order delivered",
	models.OrderCancelled:      "Order cancelled",
}

func (n orderStatus) ToDatabase() notification.DatabaseData {
	o := n.e.Order
	title, ok := statusTitles[o.Status]
	if !ok {
		title = "Order updated"
	}
	msg := fmt.Sprintf("Order %s from %s is now %s", o.OrderNumber, n.e.RestaurantName, o.Status)
	if o.Status == models.OrderCancelled && o.CancellationReason != "" {
		msg += ": " + o.CancellationReason
	}
	data := orderData(o)
	data["previousStatus"] = n.e.PreviousStatus
	return notification.DatabaseData{
		UserID:      o.UserID,
		Type:        models.OrderNotificationType(o.Status),
		Title:       title,
		Message:     msg,
		RelatedKind: "order",
		RelatedID:   o.ID,
		Data:        data,
	}
}

func (n orderStatus) ToPush() notification.PushData {
	return notification.PushData{UserID: n.e.Order.UserID, Event: PushOrderUpdated, Data: n.e.Order}
}

func (n orderStatus) ToSlack() notification.SlackData {
	o := n.e.Order
	return notification.SlackData{
		Text: fmt.Sprintf("Order %s cancelled", o.OrderNumber),
		Attachments: []notification.SlackAttachment{{
			Color:  "danger",
			Title:  n.e.RestaurantName,
			Text:   o.CancellationReason,
			Footer: fmt.Sprintf("was %s, total %s", n.e.PreviousStatus, o.Total.StringFixed(2)),
		}},
	}
}

// paymentUpdate pushes the new payment state to the buyer.
type paymentUpdate struct{ e services.OrderEvent }

func (paymentUpdate) Via() []string { return []string{notification.Push} }

func (n paymentUpdate) ToPush() notification.PushData {
	return notification.PushData{UserID: n.e.Order.UserID, Event: PushOrderUpdated, Data: n.e.Order}
}

// newReview tells the restaurant owner about a review.
type newReview struct{ e services.ReviewEvent }

func (newReview) Via() []string { return []string{notification.Database} }

func (n newReview) ToDatabase() notification.DatabaseData {
	r := n.e.Review
	return notification.DatabaseData{
		UserID:      n.e.OwnerID,
		Type:        models.NotifyNewReview,
		Title:       "New review",
		Message:     fmt.Sprintf("%s received a %d-star review", n.e.RestaurantName, r.Rating),
		RelatedKind: "review",
		RelatedID:   r.ID,
		Data:        map[string]any{"restaurantId": r.RestaurantID, "rating": r.Rating},
	}
}
