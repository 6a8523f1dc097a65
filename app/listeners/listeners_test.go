package listeners

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gebeta-app/gebeta/app/jobs"
	"github.com/gebeta-app/gebeta/app/models"
	"github.com/gebeta-app/gebeta/app/repositories/memory"
	"github.com/gebeta-app/gebeta/app/services"
	"github.com/gebeta-app/gebeta/pkg/event"
	"github.com/gebeta-app/gebeta/pkg/queue"
	"github.com/gebeta-app/gebeta/pkg/rbac"
)

type push struct {
	userID uint
	event  string
}

type recordingPusher struct {
	mu     sync.Mutex
	pushes []push
}

func (p *recordingPusher) SendTo(userID uint, event string, _ any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pushes = append(p.pushes, push{userID, event})
}

type harness struct {
	bus    *event.Bus
	notes  *services.NotificationService
	pusher *recordingPusher
	driver *queue.MemoryDriver
	queue  *queue.Queue
	ctx    context.Context
}

func newHarness(webhookURL string) *harness {
	store := memory.NewStore()
	h := &harness{
		bus:    event.New(nil),
		notes:  services.NewNotificationService(store),
		pusher: &recordingPusher{},
		driver: queue.NewMemoryDriver(8),
		ctx:    context.Background(),
	}
	h.queue = queue.New(h.driver)
	jobs.Register(h.queue)
	Register(h.bus, Deps{
		Notifications: h.notes,
		Pusher:        h.pusher,
		Queue:         h.queue,
		WebhookURL:    webhookURL,
	})
	return h
}

func (h *harness) inbox(t *testing.T, userID uint) []models.Notification {
	t.Helper()
	page, err := h.notes.List(h.ctx, rbac.Actor{ID: userID, Role: rbac.RoleUser}, false, 1, 50)
	require.NoError(t, err)
	return page.Items
}

func sampleOrder(status string) models.Order {
	o := models.Order{
		OrderNumber: "ORD-20260314-ABCD",
		UserID:      10,
		Status:      status,
		Total:       decimal.RequireFromString("317.5"),
		Payment:     models.Payment{Currency: models.DefaultCurrency},
	}
	o.ID = 7
	return o
}

func TestOrderCreatedNotifiesOwner(t *testing.T) {
	h := newHarness("http://hooks.example/orders")

	h.bus.Fire(h.ctx, services.EventOrderCreated, services.OrderEvent{
		Order: sampleOrder(models.OrderPending), OwnerID: 20, RestaurantName: "Habesha",
	})

	items := h.inbox(t, 20)
	require.Len(t, items, 1)
	assert.Equal(t, models.NotifyOrderReceived, items[0].Type)
	assert.Equal(t, "order", items[0].RelatedKind)
	assert.Equal(t, uint(7), items[0].RelatedID)
	assert.Contains(t, items[0].Message, "ORD-20260314-ABCD")
	assert.Contains(t, items[0].Message, "317.50 ETB")
	assert.NotNil(t, items[0].ExpiresAt)
	assert.Empty(t, h.inbox(t, 10))

	assert.Equal(t, []push{{20, PushOrderCreated}}, h.pusher.pushes)

	require.Equal(t, 1, h.driver.Len())
	raw, err := h.driver.Pop(h.ctx)
	require.NoError(t, err)
	var env struct {
		Name    string       `json:"name"`
		Payload jobs.Webhook `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(raw, &env))
	assert.Equal(t, jobs.WebhookName, env.Name)
	assert.Equal(t, services.EventOrderCreated, env.Payload.Event)
	assert.Equal(t, "http://hooks.example/orders", env.Payload.URL)
}

func TestStatusChangeNotifiesBuyerWithMappedType(t *testing.T) {
	cases := map[string]string{
		models.OrderConfirmed:      models.NotifyOrderConfirmed,
		models.OrderPreparing:      models.NotifyOrderPreparing,
		models.OrderReadyForPickup: models.NotifyOrderReady,
		models.OrderOutForDelivery: models.NotifyOrderOnTheWay,
		models.OrderDelivered:      models.NotifyOrderDelivered,
		models.OrderCancelled:      models.NotifyOrderCancelled,
	}
	for status, want := range cases {
		t.Run(status, func(t *testing.T) {
			h := newHarness("")
			o := sampleOrder(status)
			o.CancellationReason = "out of injera"
			h.bus.Fire(h.ctx, services.EventOrderStatusChanged, services.OrderEvent{
				Order: o, OwnerID: 20, RestaurantName: "Habesha", PreviousStatus: models.OrderPending,
			})

			items := h.inbox(t, 10)
			require.Len(t, items, 1)
			assert.Equal(t, want, items[0].Type)
			assert.Equal(t, models.OrderPending, items[0].Metadata["previousStatus"])
			if status == models.OrderCancelled {
				assert.Contains(t, items[0].Message, "out of injera")
			}
			assert.Equal(t, []push{{10, PushOrderUpdated}}, h.pusher.pushes)
			assert.Equal(t, 0, h.driver.Len())
		})
	}
}

func TestPaymentChangeOnlyPushes(t *testing.T) {
	h := newHarness("")
	h.bus.Fire(h.ctx, services.EventOrderPaymentChanged, services.OrderEvent{Order: sampleOrder(models.OrderConfirmed), OwnerID: 20})

	assert.Empty(t, h.inbox(t, 10))
	assert.Equal(t, []push{{10, PushOrderUpdated}}, h.pusher.pushes)
}

func TestReviewCreatedNotifiesOwner(t *testing.T) {
	h := newHarness("")
	rev := models.Review{RestaurantID: 3, Rating: 4}
	rev.ID = 12
	h.bus.Fire(h.ctx, services.EventReviewCreated, services.ReviewEvent{Review: rev, OwnerID: 20, RestaurantName: "Habesha"})

	items := h.inbox(t, 20)
	require.Len(t, items, 1)
	assert.Equal(t, models.NotifyNewReview, items[0].Type)
	assert.Equal(t, "Habesha received a 4-star review", items[0].Message)
	assert.Equal(t, uint(12), items[0].RelatedID)
}

func TestUnexpectedPayloadIsIgnored(t *testing.T) {
	h := newHarness("http://hooks.example")
	h.bus.Fire(h.ctx, services.EventOrderCreated, "not an order")

	assert.Empty(t, h.inbox(t, 20))
	assert.Empty(t, h.pusher.pushes)
	assert.Equal(t, 0, h.driver.Len())
}
