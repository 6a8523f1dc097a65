package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gebeta-app/gebeta/app/models"
	"github.com/gebeta-app/gebeta/app/repositories"
)

func TestUsersRejectDuplicatePhone(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	phone := "+251911223344"

	require.NoError(t, store.Users.Create(ctx, &models.User{PhoneNumber: &phone, Role: models.RoleUser}))
	err := store.Users.Create(ctx, &models.User{PhoneNumber: &phone, Role: models.RoleUser})
	assert.ErrorIs(t, err, repositories.ErrDuplicate)

	u, err := store.Users.FindByPhone(ctx, phone)
	require.NoError(t, err)
	assert.Equal(t, uint(1), u.ID)
}

func TestOrderUpdateVersionedDetectsStaleWrites(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	o := &models.Order{OrderNumber: "ORD-1", Status: models.OrderPending, Items: []models.OrderItem{{Name: "Tibs", Quantity: 1}}}
	require.NoError(t, store.Orders.Create(ctx, o))
	assert.Equal(t, uint(1), o.Version)

	first, _ := store.Orders.FindByID(ctx, o.ID)
	second, _ := store.Orders.FindByID(ctx, o.ID)

	first.Status = models.OrderConfirmed
	require.NoError(t, store.Orders.UpdateVersioned(ctx, first))
	assert.Equal(t, uint(2), first.Version)

	second.Status = models.OrderCancelled
	assert.ErrorIs(t, store.Orders.UpdateVersioned(ctx, second), repositories.ErrStale)

	got, _ := store.Orders.FindByID(ctx, o.ID)
	assert.Equal(t, models.OrderConfirmed, got.Status)
	assert.Len(t, got.Items, 1)
}

func TestOrderListRestaurantScope(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	for i, rid := range []uint{1, 2, 1} {
		o := &models.Order{OrderNumber: string(rune('A' + i)), RestaurantID: rid}
		require.NoError(t, store.Orders.Create(ctx, o))
	}

	rows, p, err := store.Orders.List(ctx, repositories.OrderFilter{RestaurantIDs: []uint{1}})
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Equal(t, int64(2), p.Total)

	rows, _, _ = store.Orders.List(ctx, repositories.OrderFilter{RestaurantIDs: []uint{}})
	assert.Empty(t, rows)
}

func TestRestaurantRecomputeCountsApprovedOnly(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	rest := &models.Restaurant{Name: "Yod Abyssinia", IsActive: true}
	require.NoError(t, store.Restaurants.Create(ctx, rest))

	for uid, r := range map[uint]int{1: 5, 2: 4, 3: 1} {
		status := models.ReviewApproved
		if r == 1 {
			status = models.ReviewPending
		}
		require.NoError(t, store.Reviews.Create(ctx, &models.Review{UserID: uid, RestaurantID: rest.ID, Rating: r, Status: status}))
	}

	var seen []int
	got, err := store.Restaurants.RecomputeRating(ctx, rest.ID, func(ratings []int) (*float64, int) {
		seen = ratings
		avg := 4.5
		return &avg, len(ratings)
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{5, 4}, seen)
	assert.Equal(t, 2, got.ReviewCount)
	require.NotNil(t, got.AverageRating)
	assert.Equal(t, 4.5, *got.AverageRating)
}

func TestToggleHelpfulIsIdempotentPerUser(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	rev := &models.Review{UserID: 1, RestaurantID: 1, Rating: 5}
	require.NoError(t, store.Reviews.Create(ctx, rev))

	count, voted, err := store.Reviews.ToggleHelpful(ctx, rev.ID, 7)
	require.NoError(t, err)
	assert.True(t, voted)
	assert.Equal(t, 1, count)

	count, voted, _ = store.Reviews.ToggleHelpful(ctx, rev.ID, 7)
	assert.False(t, voted)
	assert.Equal(t, 0, count)

	_, _, err = store.Reviews.ToggleHelpful(ctx, 99, 7)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestNotificationsExpireAndMarkRead(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	past := time.Now().Add(-time.Hour)

	require.NoError(t, store.Notifications.Create(ctx, &models.Notification{UserID: 1, Title: "a", ExpiresAt: &past}))
	require.NoError(t, store.Notifications.Create(ctx, &models.Notification{UserID: 1, Title: "b"}))

	unread, _ := store.Notifications.UnreadCount(ctx, 1)
	assert.Equal(t, int64(2), unread)

	n, err := store.Notifications.MarkRead(ctx, 2, 1, time.Now())
	require.NoError(t, err)
	assert.True(t, n.IsRead)

	_, err = store.Notifications.MarkRead(ctx, 2, 9, time.Now())
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	deleted, _ := store.Notifications.DeleteExpired(ctx, time.Now())
	assert.Equal(t, int64(1), deleted)
}

func TestPaginationWindow(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	for i := 0; i < 25; i++ {
		require.NoError(t, store.Favorites.Create(ctx, &models.Favorite{UserID: 1, Type: models.FavoriteRecipe, ItemID: uint(i + 1)}))
	}

	rows, p, err := store.Favorites.List(ctx, 1, "", 3, 10)
	require.NoError(t, err)
	assert.Len(t, rows, 5)
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, int64(25), p.Total)

	err = store.Favorites.Create(ctx, &models.Favorite{UserID: 1, Type: models.FavoriteRecipe, ItemID: 1})
	assert.ErrorIs(t, err, repositories.ErrDuplicate)
}
