package seeders

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gebeta-app/gebeta/app/models"
	"github.com/gebeta-app/gebeta/app/repositories"
	"github.com/gebeta-app/gebeta/app/repositories/memory"
	"github.com/gebeta-app/gebeta/pkg/auth"
)

func TestSeedersAreIdempotent(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	require.NoError(t, RunAll(ctx, store))
	require.NoError(t, RunAll(ctx, store))

	users, err := store.Users.All(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	admin, err := store.Users.FindByEmail(ctx, AdminEmail)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.True(t, auth.CheckPassword(admin.Password, "password123"))

	rests, err := store.Restaurants.All(ctx)
	require.NoError(t, err)
	require.Len(t, rests, 1)
	menu, err := store.MenuItems.ListByRestaurant(ctx, rests[0].ID)
	require.NoError(t, err)
	assert.Len(t, menu, 4)

	recipes, p, err := store.Recipes.List(ctx, repositories.RecipeFilter{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, recipes, 1)
	assert.Equal(t, int64(1), p.Total)
}

func TestNamesFollowRegistrationOrder(t *testing.T) {
	assert.Equal(t, []string{"users", "restaurants", "recipes"}, Names())
}
