package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gebeta-app/gebeta/app/models"
	"github.com/gebeta-app/gebeta/app/repositories"
	"github.com/gebeta-app/gebeta/pkg/apperror"
	"github.com/gebeta-app/gebeta/pkg/rbac"
)

func assertKind(t *testing.T, err error, kind apperror.Kind, msg ...string) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, kind, apperror.KindOf(err), err.Error())
	if len(msg) > 0 {
		e, ok := apperror.As(err)
		require.True(t, ok)
		assert.Equal(t, msg[0], e.Message)
	}
}

func placeOrder(t *testing.T, f *fixture, svc *OrderService) (*models.Order, *models.Restaurant) {
	t.Helper()
	rest, menu := f.restaurant(t, owner.ID)
	order, err := svc.Create(f.ctx, buyer, CreateOrderInput{
		RestaurantID: rest.ID,
		Items: []OrderItemInput{
			{MenuItemID: menu[0].ID, Quantity: 2},
			{MenuItemID: menu[1].ID, Quantity: 1, SpecialInstructions: "  extra spicy "},
		},
	})
	require.NoError(t, err)
	return order, rest
}

func TestCreateOrderPricesCart(t *testing.T) {
	f := newFixture(t)
	order, rest := placeOrder(t, f, f.orders())

	assert.True(t, decimal.NewFromInt(250).Equal(order.Subtotal), order.Subtotal.String())
	assert.True(t, decimal.RequireFromString("37.5").Equal(order.Tax), order.Tax.String())
	assert.True(t, decimal.NewFromInt(30).Equal(order.DeliveryFee), order.DeliveryFee.String())
	assert.True(t, decimal.RequireFromString("317.5").Equal(order.Total), order.Total.String())

	assert.Equal(t, models.OrderPending, order.Status)
	assert.Equal(t, models.PaymentPending, order.Payment.Status)
	assert.Equal(t, models.PaymentCash, order.Payment.Method)
	assert.True(t, order.Total.Equal(order.Payment.Amount))
	assert.Equal(t, models.DefaultCurrency, order.Payment.Currency)
	assert.Equal(t, uint(1), order.Version)
	assert.Equal(t, buyer.ID, order.UserID)
	assert.Regexp(t, `^ORD-20260314-[0-9A-F]{8}$`, order.OrderNumber)

	require.Len(t, order.Items, 2)
	assert.Equal(t, "Doro Wat", order.Items[0].Name)
	assert.Equal(t, "extra spicy", order.Items[1].SpecialInstructions)
	assert.Equal(t, rest.Address.City, order.DeliveryAddress.City)
	require.NotNil(t, order.Restaurant)
	assert.Equal(t, rest.Name, order.Restaurant.Name)

	assert.Equal(t, []string{EventOrderCreated}, f.fired)
}

func TestCreateOrderSnapshotsPrices(t *testing.T) {
	f := newFixture(t)
	order, _ := placeOrder(t, f, f.orders())

	item, err := f.store.MenuItems.FindByID(f.ctx, order.Items[0].MenuItemID)
	require.NoError(t, err)
	item.Price = decimal.NewFromInt(999)
	require.NoError(t, f.store.MenuItems.Update(f.ctx, item))

	got, err := f.store.Orders.FindByID(f.ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(100).Equal(got.Items[0].UnitPrice))
	assert.True(t, decimal.RequireFromString("317.5").Equal(got.Total))
}

func TestCreateOrderRejectsBadCarts(t *testing.T) {
	f := newFixture(t)
	svc := f.orders()
	rest, menu := f.restaurant(t, owner.ID)
	other, otherMenu := f.restaurant(t, rival.ID)

	_, err := svc.Create(f.ctx, buyer, CreateOrderInput{RestaurantID: rest.ID})
	assertKind(t, err, apperror.KindValidation)

	_, err = svc.Create(f.ctx, buyer, CreateOrderInput{
		RestaurantID: rest.ID,
		Items:        []OrderItemInput{{MenuItemID: otherMenu[0].ID, Quantity: 1}},
	})
	assertKind(t, err, apperror.KindValidation)

	_, err = svc.Create(f.ctx, buyer, CreateOrderInput{
		RestaurantID: rest.ID,
		Items:        []OrderItemInput{{MenuItemID: menu[0].ID, Quantity: 0}},
	})
	assertKind(t, err, apperror.KindValidation)

	_, err = svc.Create(f.ctx, buyer, CreateOrderInput{
		RestaurantID: 404,
		Items:        []OrderItemInput{{MenuItemID: menu[0].ID, Quantity: 1}},
	})
	assertKind(t, err, apperror.KindNotFound, "Restaurant not found")

	other.IsActive = false
	require.NoError(t, f.store.Restaurants.Update(f.ctx, other))
	_, err = svc.Create(f.ctx, buyer, CreateOrderInput{
		RestaurantID: other.ID,
		Items:        []OrderItemInput{{MenuItemID: otherMenu[0].ID, Quantity: 1}},
	})
	assertKind(t, err, apperror.KindValidation)

	_, err = svc.Create(f.ctx, rbac.Actor{}, CreateOrderInput{RestaurantID: rest.ID})
	assertKind(t, err, apperror.KindAuthentication)

	all, err := f.store.Orders.All(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestTransitionSkipsForwardAndStampsTimes(t *testing.T) {
	f := newFixture(t)
	svc := f.orders()
	order, _ := placeOrder(t, f, svc)

	got, err := svc.Transition(f.ctx, owner, order.ID, TransitionInput{Status: models.OrderPreparing})
	require.NoError(t, err)
	assert.Equal(t, models.OrderPreparing, got.Status)
	require.NotNil(t, got.EstimatedDeliveryTime)
	assert.Equal(t, fixedNow.Add(PreparationEstimate), *got.EstimatedDeliveryTime)
	assert.Equal(t, uint(2), got.Version)

	got, err = svc.Transition(f.ctx, admin, order.ID, TransitionInput{Status: models.OrderDelivered})
	require.NoError(t, err)
	require.NotNil(t, got.ActualDeliveryTime)
	assert.Equal(t, fixedNow, *got.ActualDeliveryTime)

	_, err = svc.Transition(f.ctx, owner, order.ID, TransitionInput{Status: models.OrderCancelled, CancellationReason: "late"})
	assertKind(t, err, apperror.KindValidation, "Order is already delivered")

	assert.Equal(t, []string{EventOrderCreated, EventOrderStatusChanged, EventOrderStatusChanged}, f.fired)
}

func TestTransitionRejectsBackwardAndSameState(t *testing.T) {
	f := newFixture(t)
	svc := f.orders()
	order, _ := placeOrder(t, f, svc)

	_, err := svc.Transition(f.ctx, owner, order.ID, TransitionInput{Status: models.OrderReadyForPickup})
	require.NoError(t, err)

	for _, status := range []string{models.OrderReadyForPickup, models.OrderConfirmed, models.OrderPending} {
		_, err = svc.Transition(f.ctx, owner, order.ID, TransitionInput{Status: status})
		assertKind(t, err, apperror.KindValidation)
	}

	_, err = svc.Transition(f.ctx, owner, order.ID, TransitionInput{Status: "teleported"})
	assertKind(t, err, apperror.KindValidation)

	got, err := f.store.Orders.FindByID(f.ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderReadyForPickup, got.Status)
}

func TestCancelRequiresReasonAndIsTerminal(t *testing.T) {
	f := newFixture(t)
	svc := f.orders()
	order, _ := placeOrder(t, f, svc)

	_, err := svc.Transition(f.ctx, owner, order.ID, TransitionInput{Status: models.OrderCancelled, CancellationReason: "   "})
	assertKind(t, err, apperror.KindValidation, "Cancellation reason is required")

	got, err := svc.Transition(f.ctx, owner, order.ID, TransitionInput{Status: models.OrderCancelled, CancellationReason: "out of injera"})
	require.NoError(t, err)
	assert.Equal(t, "out of injera", got.CancellationReason)

	_, err = svc.Transition(f.ctx, owner, order.ID, TransitionInput{Status: models.OrderConfirmed})
	assertKind(t, err, apperror.KindValidation, "Order is already cancelled")
}

func TestTransitionRequiresRestaurantOwner(t *testing.T) {
	f := newFixture(t)
	svc := f.orders()
	order, _ := placeOrder(t, f, svc)

	for _, who := range []rbac.Actor{buyer, rival, stranger} {
		_, err := svc.Transition(f.ctx, who, order.ID, TransitionInput{Status: models.OrderConfirmed})
		assertKind(t, err, apperror.KindAuthorization)
	}

	_, err := svc.Transition(f.ctx, owner, 404, TransitionInput{Status: models.OrderConfirmed})
	assertKind(t, err, apperror.KindNotFound, "Order not found")
}

func TestUpdatePaymentFollowsFlow(t *testing.T) {
	f := newFixture(t)
	svc := f.orders()
	order, _ := placeOrder(t, f, svc)

	got, err := svc.UpdatePayment(f.ctx, owner, order.ID, PaymentInput{Status: models.PaymentCompleted, TransactionID: "tx-1"})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentCompleted, got.Payment.Status)
	assert.Equal(t, "tx-1", got.Payment.TransactionID)
	require.NotNil(t, got.Payment.PaidAt)
	assert.Equal(t, fixedNow, *got.Payment.PaidAt)

	_, err = svc.UpdatePayment(f.ctx, owner, order.ID, PaymentInput{Status: models.PaymentPending})
	assertKind(t, err, apperror.KindValidation)

	got, err = svc.UpdatePayment(f.ctx, owner, order.ID, PaymentInput{Status: models.PaymentRefunded})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentRefunded, got.Payment.Status)

	_, err = svc.UpdatePayment(f.ctx, owner, order.ID, PaymentInput{Status: models.PaymentCompleted})
	assertKind(t, err, apperror.KindValidation)

	_, err = svc.UpdatePayment(f.ctx, buyer, order.ID, PaymentInput{Status: models.PaymentFailed})
	assertKind(t, err, apperror.KindAuthorization)
}

// racingOrders makes another writer bump the stored version right before
// each of the first n versioned writes.
type racingOrders struct {
	repositories.OrderRepository
	n int
}

func (r *racingOrders) UpdateVersioned(ctx context.Context, o *models.Order) error {
	if r.n > 0 {
		r.n--
		other, err := r.OrderRepository.FindByID(ctx, o.ID)
		if err != nil {
			return err
		}
		if err := r.OrderRepository.UpdateVersioned(ctx, other); err != nil {
			return err
		}
	}
	return r.OrderRepository.UpdateVersioned(ctx, o)
}

func TestTransitionRetriesLostRaces(t *testing.T) {
	f := newFixture(t)
	order, _ := placeOrder(t, f, f.orders())

	racing := &racingOrders{OrderRepository: f.store.Orders, n: maxVersionAttempts - 1}
	f.store.Orders = racing
	svc := f.orders()

	got, err := svc.Transition(f.ctx, owner, order.ID, TransitionInput{Status: models.OrderConfirmed})
	require.NoError(t, err)
	assert.Equal(t, models.OrderConfirmed, got.Status)
	assert.Equal(t, uint(maxVersionAttempts+1), got.Version)
}

func TestTransitionGivesUpWithConflict(t *testing.T) {
	f := newFixture(t)
	order, _ := placeOrder(t, f, f.orders())

	f.store.Orders = &racingOrders{OrderRepository: f.store.Orders, n: maxVersionAttempts}
	svc := f.orders()

	_, err := svc.Transition(f.ctx, owner, order.ID, TransitionInput{Status: models.OrderConfirmed})
	assertKind(t, err, apperror.KindConflict)
	assert.Equal(t, 409, apperror.HTTPStatus(err))
}

func TestOrderVisibilityByRole(t *testing.T) {
	f := newFixture(t)
	svc := f.orders()
	order, rest := placeOrder(t, f, svc)

	_, err := svc.Get(f.ctx, buyer, order.ID)
	require.NoError(t, err)
	_, err = svc.Get(f.ctx, owner, order.ID)
	require.NoError(t, err)
	_, err = svc.Get(f.ctx, admin, order.ID)
	require.NoError(t, err)
	_, err = svc.Get(f.ctx, stranger, order.ID)
	assertKind(t, err, apperror.KindAuthorization)
	_, err = svc.Get(f.ctx, rival, order.ID)
	assertKind(t, err, apperror.KindAuthorization)

	rows, p, err := svc.List(f.ctx, buyer, OrderQuery{})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, int64(1), p.Total)

	rows, _, err = svc.List(f.ctx, owner, OrderQuery{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].Restaurant)
	assert.Equal(t, rest.Name, rows[0].Restaurant.Name)

	rows, _, err = svc.List(f.ctx, rival, OrderQuery{})
	require.NoError(t, err)
	assert.Empty(t, rows)

	rows, _, err = svc.List(f.ctx, stranger, OrderQuery{})
	require.NoError(t, err)
	assert.Empty(t, rows)

	rows, _, err = svc.List(f.ctx, admin, OrderQuery{Status: models.OrderPending})
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	_, _, err = svc.List(f.ctx, admin, OrderQuery{Status: "lost"})
	assertKind(t, err, apperror.KindValidation)

	_, _, err = svc.ListByRestaurant(f.ctx, rival, rest.ID, OrderQuery{})
	assertKind(t, err, apperror.KindAuthorization)
	_, _, err = svc.ListByUser(f.ctx, stranger, buyer.ID, OrderQuery{})
	assertKind(t, err, apperror.KindAuthorization)
	rows, _, err = svc.ListByUser(f.ctx, admin, buyer.ID, OrderQuery{})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
