package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gebeta-app/gebeta/app/models"
)

func TestGrowthBuckets(t *testing.T) {
	created := []time.Time{
		fixedNow.Add(-time.Hour),
		fixedNow.AddDate(0, 0, -10),
		fixedNow.AddDate(0, 0, -45),
		fixedNow.AddDate(0, -6, 0),
	}
	g := growth(fixedNow, created)

	assert.Equal(t, 4, g.Total)
	assert.Equal(t, 1, g.Last7Days)
	assert.Equal(t, 2, g.Last30Days)
	assert.Equal(t, []MonthCount{
		{Month: "Sep 2025", Count: 1},
		{Month: "Jan 2026", Count: 1},
		{Month: "Mar 2026", Count: 2},
	}, g.ByMonth)

	empty := growth(fixedNow, nil)
	assert.Zero(t, empty.Total)
	assert.NotNil(t, empty.ByMonth)
}

func TestAnalyticsReports(t *testing.T) {
	f := newFixture(t)
	analytics := NewAnalyticsService(f.store).WithClock(fixedClock)

	old := &models.User{Name: "Abebe", Role: models.RoleUser, Base: models.Base{CreatedAt: fixedNow.AddDate(0, -2, 0)}}
	require.NoError(t, f.store.Users.Create(f.ctx, old))
	recent := &models.User{Name: "Sara", Role: models.RoleUser, Base: models.Base{CreatedAt: fixedNow.AddDate(0, 0, -1)}}
	require.NoError(t, f.store.Users.Create(f.ctx, recent))

	users, err := analytics.Users(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, users.Total)
	assert.Equal(t, 1, users.Last7Days)
	assert.Len(t, users.ByMonth, 2)

	svc := f.orders()
	first, _ := placeOrder(t, f, svc)
	second, _ := placeOrder(t, f, svc)
	_, err = svc.Transition(f.ctx, owner, second.ID, TransitionInput{Status: models.OrderCancelled, CancellationReason: "closed"})
	require.NoError(t, err)

	orders, err := analytics.Orders(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, orders.Total)
	require.Contains(t, orders.ByStatus, models.OrderPending)
	assert.Equal(t, 1, orders.ByStatus[models.OrderPending].Count)
	assert.True(t, first.Total.Equal(orders.ByStatus[models.OrderPending].TotalAmount))
	assert.True(t, decimal.RequireFromString("317.5").Equal(orders.ByStatus[models.OrderCancelled].TotalAmount))

	rests, err := analytics.Restaurants(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, rests.Total)
	assert.Equal(t, map[string]int{"ethiopian": 2}, rests.ByCuisine)
}
