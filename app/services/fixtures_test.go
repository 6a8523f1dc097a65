package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/gebeta-app/gebeta/app/models"
	"github.com/gebeta-app/gebeta/app/repositories"
	"github.com/gebeta-app/gebeta/app/repositories/memory"
	"github.com/gebeta-app/gebeta/pkg/event"
	"github.com/gebeta-app/gebeta/pkg/rbac"
)

var fixedNow = time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

var (
	buyer    = rbac.Actor{ID: 10, Role: rbac.RoleUser}
	stranger = rbac.Actor{ID: 11, Role: rbac.RoleUser}
	owner    = rbac.Actor{ID: 20, Role: rbac.RoleRestaurantOwner}
	rival    = rbac.Actor{ID: 21, Role: rbac.RoleRestaurantOwner}
	admin    = rbac.Actor{ID: 99, Role: rbac.RoleAdmin}
)

type fixture struct {
	ctx   context.Context
	store *repositories.Store
	bus   *event.Bus
	fired []string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{ctx: context.Background(), store: memory.NewStore(), bus: event.New(nil)}
	for _, name := range []string{
		EventOrderCreated, EventOrderStatusChanged, EventOrderPaymentChanged,
		EventReviewCreated, EventRatingRecomputed,
	} {
		name := name
		f.bus.Listen(name, func(context.Context, any) { f.fired = append(f.fired, name) })
	}
	return f
}

// restaurant seeds an active restaurant of ownerID with a delivery fee of 30
// and two dishes priced 100 and 50.
func (f *fixture) restaurant(t *testing.T, ownerID uint) (*models.Restaurant, []models.MenuItem) {
	t.Helper()
	rest := &models.Restaurant{
		Name:         "Habesha Kitchen",
		OwnerID:      ownerID,
		Phone:        "+251911000000",
		Address:      models.Address{Street: "Bole Rd", City: "Addis Ababa", Country: models.DefaultCountry},
		CuisineTypes: []string{"ethiopian"},
		DeliveryFee:  decimal.NewFromInt(30),
		IsActive:     true,
	}
	require.NoError(t, f.store.Restaurants.Create(f.ctx, rest))

	items := []models.MenuItem{
		{RestaurantID: rest.ID, Name: "Doro Wat", Price: decimal.NewFromInt(100), Category: models.CategoryMain, IsAvailable: true},
		{RestaurantID: rest.ID, Name: "Shiro", Price: decimal.NewFromInt(50), Category: models.CategoryMain, IsAvailable: true},
	}
	for i := range items {
		require.NoError(t, f.store.MenuItems.Create(f.ctx, &items[i]))
	}
	return rest, items
}

func (f *fixture) orders() *OrderService {
	return NewOrderService(f.store, f.bus).WithClock(fixedClock)
}

func (f *fixture) ratings() *RatingService {
	return NewRatingService(f.store, f.bus)
}

func (f *fixture) reviews() *ReviewService {
	return NewReviewService(f.store, f.ratings(), f.bus).WithAutoApprove(true)
}
