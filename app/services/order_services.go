package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gebeta-app/gebeta/app/models"
	"github.com/gebeta-app/gebeta/app/repositories"
	"github.com/gebeta-app/gebeta/pkg/apperror"
	"github.com/gebeta-app/gebeta/pkg/event"
	"github.com/gebeta-app/gebeta/pkg/metrics"
	"github.com/gebeta-app/gebeta/pkg/orm"
	"github.com/gebeta-app/gebeta/pkg/rbac"
)

var (
	// TaxRate is applied to the subtotal of every order.
	TaxRate = decimal.NewFromFloat(0.15)

	// PreparationEstimate is added to the clock when an order starts preparing.
	PreparationEstimate = 30 * time.Minute
)

// maxVersionAttempts bounds the compare-and-swap loop on order writes.
const maxVersionAttempts = 3

type OrderItemInput struct {
	MenuItemID          uint   `json:"menuItem" validate:"required"`
	Quantity            int    `json:"quantity" validate:"required,gte=1"`
	SpecialInstructions string `json:"specialInstructions" validate:"nullable,max=500"`
}

type CreateOrderInput struct {
	RestaurantID         uint             `json:"restaurant" validate:"required"`
	Items                []OrderItemInput `json:"items" validate:"required,min=1,dive"`
	DeliveryAddress      *models.Address  `json:"deliveryAddress"`
	DeliveryInstructions string           `json:"deliveryInstructions" validate:"nullable,max=500"`
	ScheduledFor         *time.Time       `json:"scheduledFor"`
	PaymentMethod        string           `json:"paymentMethod" validate:"nullable,in=cash|card|mobile_money"`
}

type TransitionInput struct {
	Status             string `json:"status" validate:"required"`
	CancellationReason string `json:"cancellationReason" validate:"nullable,max=500"`
}

type PaymentInput struct {
	Status        string `json:"status" validate:"required,in=pending|completed|failed|refunded"`
	TransactionID string `json:"transactionId" validate:"nullable,max=100"`
}

type OrderQuery struct {
	Status string
	Page   int
	Limit  int
}

// paymentFlow lists the payment statuses reachable from each status.
var paymentFlow = map[string][]string{
	models.PaymentPending:   {models.PaymentCompleted, models.PaymentFailed},
	models.PaymentFailed:    {models.PaymentPending, models.PaymentCompleted},
	models.PaymentCompleted: {models.PaymentRefunded},
}

// OrderService prices carts into orders and moves them through their
// lifecycle.
type OrderService struct {
	orders      repositories.OrderRepository
	restaurants repositories.RestaurantRepository
	menu        repositories.MenuItemRepository
	events      *event.Bus
	now         Clock
}

func NewOrderService(store *repositories.Store, events *event.Bus) *OrderService {
	return &OrderService{
		orders:      store.Orders,
		restaurants: store.Restaurants,
		menu:        store.MenuItems,
		events:      events,
		now:         time.Now,
	}
}

// WithClock replaces the time source.
func (s *OrderService) WithClock(now Clock) *OrderService {
	s.now = now
	return s
}

// Create prices the cart with current menu prices and stores a pending order.
func (s *OrderService) Create(ctx context.Context, buyer rbac.Actor, in CreateOrderInput) (*models.Order, error) {
	if buyer.IsAnonymous() {
		return nil, apperror.Authentication("Authentication required")
	}
	if len(in.Items) == 0 {
		return nil, apperror.Validation("Order must contain at least one item")
	}

	rest, err := s.restaurants.FindByID(ctx, in.RestaurantID)
	if err != nil {
		return nil, lookup(err, "Restaurant")
	}
	if !rest.IsActive {
		return nil, apperror.Validation("Restaurant %s is not accepting orders", rest.Name)
	}

	ids := make([]uint, len(in.Items))
	for i, it := range in.Items {
		ids[i] = it.MenuItemID
	}
	found, err := s.menu.FindByIDs(ctx, ids)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	byID := make(map[uint]models.MenuItem, len(found))
	for _, m := range found {
		byID[m.ID] = m
	}

	items := make([]models.OrderItem, 0, len(in.Items))
	subtotal := decimal.Zero
	for _, it := range in.Items {
		m, ok := byID[it.MenuItemID]
		switch {
		case !ok:
			return nil, apperror.Validation("Menu item %d not found", it.MenuItemID)
		case m.RestaurantID != rest.ID:
			return nil, apperror.Validation("Menu item %s does not belong to this restaurant", m.Name)
		case !m.IsAvailable:
			return nil, apperror.Validation("Menu item %s is not available", m.Name)
		case it.Quantity < 1:
			return nil, apperror.Validation("Quantity for %s must be at least 1", m.Name)
		}
		line := models.OrderItem{
			MenuItemID:          m.ID,
			Name:                m.Name,
			UnitPrice:           m.Price,
			Quantity:            it.Quantity,
			SpecialInstructions: strings.TrimSpace(it.SpecialInstructions),
		}
		subtotal = subtotal.Add(line.LineTotal())
		items = append(items, line)
	}

	subtotal = subtotal.Round(2)
	tax := subtotal.Mul(TaxRate).Round(2)
	fee := rest.DeliveryFee.Round(2)
	total := subtotal.Add(tax).Add(fee)

	method := in.PaymentMethod
	if method == "" {
		method = models.PaymentCash
	}
	address := rest.Address
	if in.DeliveryAddress != nil {
		address = *in.DeliveryAddress
	}

	order := &models.Order{
		OrderNumber:          s.orderNumber(),
		UserID:               buyer.ID,
		RestaurantID:         rest.ID,
		Items:                items,
		Status:               models.OrderPending,
		DeliveryAddress:      address.WithDefaults(),
		DeliveryInstructions: strings.TrimSpace(in.DeliveryInstructions),
		Subtotal:             subtotal,
		Tax:                  tax,
		DeliveryFee:          fee,
		Total:                total,
		Payment: models.Payment{
			Method:   method,
			Status:   models.PaymentPending,
			Amount:   total,
			Currency: models.DefaultCurrency,
		},
		ScheduledFor: in.ScheduledFor,
		Version:      1,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, apperror.Internal(err)
	}
	order.Restaurant = rest.Summary()

	metrics.OrdersCreated.Inc()
	s.events.FireAsync(ctx, EventOrderCreated, OrderEvent{
		Order:          *order,
		OwnerID:        rest.OwnerID,
		RestaurantName: rest.Name,
		ActorID:        buyer.ID,
	})
	return order, nil
}

// orderNumber is ORD-<yyyymmdd>-<8 hex chars>.
func (s *OrderService) orderNumber() string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return fmt.Sprintf("ORD-%s-%s", s.now().Format("20060102"), id[:8])
}

// Transition moves the order to status. Only the restaurant's owner or an
// admin may do so. Delivered and cancelled are terminal; otherwise the order
// may skip ahead along the flow or be cancelled, never move back.
func (s *OrderService) Transition(ctx context.Context, actor rbac.Actor, orderID uint, in TransitionInput) (*models.Order, error) {
	if !models.ValidOrderStatus(in.Status) {
		return nil, apperror.Validation("Invalid order status: %s", in.Status)
	}
	reason := strings.TrimSpace(in.CancellationReason)
	if in.Status == models.OrderCancelled && reason == "" {
		return nil, apperror.Validation("Cancellation reason is required")
	}

	var previous string
	order, rest, err := s.mutate(ctx, actor, orderID, func(o *models.Order) error {
		if err := checkTransition(o.Status, in.Status); err != nil {
			return err
		}
		previous = o.Status
		now := s.now()
		o.Status = in.Status
		switch in.Status {
		case models.OrderPreparing:
			o.EstimatedDeliveryTime = ptr(now.Add(PreparationEstimate))
		case models.OrderDelivered:
			o.ActualDeliveryTime = ptr(now)
		case models.OrderCancelled:
			o.CancellationReason = reason
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.OrderTransitions.WithLabelValues(order.Status).Inc()
	s.events.FireAsync(ctx, EventOrderStatusChanged, OrderEvent{
		Order:          *order,
		OwnerID:        rest.OwnerID,
		RestaurantName: rest.Name,
		PreviousStatus: previous,
		ActorID:        actor.ID,
	})
	return order, nil
}

func checkTransition(from, to string) error {
	if models.TerminalOrderStatus(from) {
		return apperror.Validation("Order is already %s", from)
	}
	if to == models.OrderCancelled {
		return nil
	}
	if models.OrderStage(to) <= models.OrderStage(from) {
		return apperror.Validation("Cannot move order from %s to %s", from, to)
	}
	return nil
}

// UpdatePayment records a payment status change made by the restaurant.
func (s *OrderService) UpdatePayment(ctx context.Context, actor rbac.Actor, orderID uint, in PaymentInput) (*models.Order, error) {
	var previous string
	order, rest, err := s.mutate(ctx, actor, orderID, func(o *models.Order) error {
		if !allowedPayment(o.Payment.Status, in.Status) {
			return apperror.Validation("Cannot change payment from %s to %s", o.Payment.Status, in.Status)
		}
		previous = o.Payment.Status
		o.Payment.Status = in.Status
		if tx := strings.TrimSpace(in.TransactionID); tx != "" {
			o.Payment.TransactionID = tx
		}
		if in.Status == models.PaymentCompleted {
			o.Payment.PaidAt = ptr(s.now())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.events.FireAsync(ctx, EventOrderPaymentChanged, OrderEvent{
		Order:          *order,
		OwnerID:        rest.OwnerID,
		RestaurantName: rest.Name,
		PreviousStatus: previous,
		ActorID:        actor.ID,
	})
	return order, nil
}

func allowedPayment(from, to string) bool {
	for _, s := range paymentFlow[from] {
		if s == to {
			return true
		}
	}
	return false
}

// mutate loads the order, checks that actor may manage it, applies change and
// writes it guarded by the version column. A lost race re-reads and re-applies
// change, so its validation always runs against the latest state.
func (s *OrderService) mutate(ctx context.Context, actor rbac.Actor, orderID uint, change func(*models.Order) error) (*models.Order, *models.Restaurant, error) {
	for attempt := 1; attempt <= maxVersionAttempts; attempt++ {
		order, err := s.orders.FindByID(ctx, orderID)
		if err != nil {
			return nil, nil, lookup(err, "Order")
		}
		rest, err := s.restaurants.FindByID(ctx, order.RestaurantID)
		if err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return nil, nil, apperror.Internal(err)
		}
		if rest == nil {
			rest = &models.Restaurant{Base: models.Base{ID: order.RestaurantID}}
		}
		if !actor.OwnsOrAdmin(rest.OwnerID) {
			return nil, nil, apperror.Authorization("You do not have permission to update this order")
		}

		if err := change(order); err != nil {
			return nil, nil, err
		}

		err = s.orders.UpdateVersioned(ctx, order)
		if err == nil {
			order.Restaurant = rest.Summary()
			return order, rest, nil
		}
		if !errors.Is(err, repositories.ErrStale) {
			return nil, nil, apperror.Internal(err)
		}
		metrics.OrderConflicts.Inc()
	}
	return nil, nil, apperror.Conflict("Order was modified concurrently, please retry")
}

// Get returns one order to its buyer, the restaurant's owner or an admin.
func (s *OrderService) Get(ctx context.Context, actor rbac.Actor, id uint) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "Order")
	}
	rest, err := s.restaurants.FindByID(ctx, order.RestaurantID)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, apperror.Internal(err)
	}

	ownerID := uint(0)
	if rest != nil {
		ownerID = rest.OwnerID
		order.Restaurant = rest.Summary()
	}
	if !actor.Is(order.UserID) && !actor.OwnsOrAdmin(ownerID) {
		return nil, apperror.Authorization("You do not have permission to view this order")
	}
	return order, nil
}

// List scopes the listing by role: buyers see their own orders, restaurant
// owners the orders of their restaurants, admins everything.
func (s *OrderService) List(ctx context.Context, actor rbac.Actor, q OrderQuery) ([]models.Order, orm.Pagination, error) {
	f := repositories.OrderFilter{Status: q.Status, Page: q.Page, Limit: q.Limit}
	switch actor.Role {
	case rbac.RoleAdmin:
	case rbac.RoleRestaurantOwner:
		ids, err := s.restaurants.IDsByOwner(ctx, actor.ID)
		if err != nil {
			return nil, orm.Pagination{}, apperror.Internal(err)
		}
		f.RestaurantIDs = ids
	default:
		f.UserID = actor.ID
	}
	return s.list(ctx, f)
}

// ListByRestaurant lists a restaurant's orders for its owner or an admin.
func (s *OrderService) ListByRestaurant(ctx context.Context, actor rbac.Actor, restaurantID uint, q OrderQuery) ([]models.Order, orm.Pagination, error) {
	rest, err := s.restaurants.FindByID(ctx, restaurantID)
	if err != nil {
		return nil, orm.Pagination{}, lookup(err, "Restaurant")
	}
	if !actor.OwnsOrAdmin(rest.OwnerID) {
		return nil, orm.Pagination{}, apperror.Authorization("You do not have permission to view these orders")
	}
	return s.list(ctx, repositories.OrderFilter{
		RestaurantIDs: []uint{restaurantID},
		Status:        q.Status,
		Page:          q.Page,
		Limit:         q.Limit,
	})
}

// ListByUser lists a buyer's orders for that buyer or an admin.
func (s *OrderService) ListByUser(ctx context.Context, actor rbac.Actor, userID uint, q OrderQuery) ([]models.Order, orm.Pagination, error) {
	if !actor.OwnsOrAdmin(userID) {
		return nil, orm.Pagination{}, apperror.Authorization("You do not have permission to view these orders")
	}
	return s.list(ctx, repositories.OrderFilter{UserID: userID, Status: q.Status, Page: q.Page, Limit: q.Limit})
}

func (s *OrderService) list(ctx context.Context, f repositories.OrderFilter) ([]models.Order, orm.Pagination, error) {
	if f.Status != "" && !models.ValidOrderStatus(f.Status) {
		return nil, orm.Pagination{}, apperror.Validation("Invalid order status: %s", f.Status)
	}
	orders, p, err := s.orders.List(ctx, f)
	if err != nil {
		return nil, orm.Pagination{}, apperror.Internal(err)
	}

	summaries := map[uint]*models.RestaurantSummary{}
	for i := range orders {
		rid := orders[i].RestaurantID
		sum, ok := summaries[rid]
		if !ok {
			if rest, err := s.restaurants.FindByID(ctx, rid); err == nil {
				sum = rest.Summary()
			}
			summaries[rid] = sum
		}
		orders[i].Restaurant = sum
	}
	return orders, p, nil
}
