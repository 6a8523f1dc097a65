package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gebeta-app/gebeta/app/models"
	"github.com/gebeta-app/gebeta/pkg/apperror"
	"github.com/gebeta-app/gebeta/pkg/rbac"
)

func TestAverage(t *testing.T) {
	cases := []struct {
		ratings []int
		want    float64
	}{
		{[]int{5}, 5.0},
		{[]int{4, 5}, 4.5},
		{[]int{1, 2, 2}, 1.7},
		{[]int{4, 4, 5}, 4.3},
		{[]int{4, 4, 4, 5}, 4.3}, // 4.25 rounds half up
		{[]int{1, 1, 1, 2}, 1.3},
	}
	for _, tc := range cases {
		avg, n := Average(tc.ratings)
		require.NotNil(t, avg, "%v", tc.ratings)
		assert.InDelta(t, tc.want, *avg, 1e-9, "%v", tc.ratings)
		assert.Equal(t, len(tc.ratings), n)
	}

	avg, n := Average(nil)
	assert.Nil(t, avg)
	assert.Zero(t, n)
}

func TestRestaurantRatingFollowsApprovedReviews(t *testing.T) {
	f := newFixture(t)
	rest, _ := f.restaurant(t, owner.ID)
	reviews := f.reviews()

	first, err := reviews.Create(f.ctx, rbac.Actor{ID: 1, Role: rbac.RoleUser}, CreateReviewInput{RestaurantID: rest.ID, Rating: 4})
	require.NoError(t, err)
	_, err = reviews.Create(f.ctx, rbac.Actor{ID: 2, Role: rbac.RoleUser}, CreateReviewInput{RestaurantID: rest.ID, Rating: 5})
	require.NoError(t, err)

	got, err := f.store.Restaurants.FindByID(f.ctx, rest.ID)
	require.NoError(t, err)
	require.NotNil(t, got.AverageRating)
	assert.Equal(t, 4.5, *got.AverageRating)
	assert.Equal(t, 2, got.ReviewCount)

	require.NoError(t, reviews.Delete(f.ctx, rbac.Actor{ID: 1, Role: rbac.RoleUser}, first.ID))
	got, err = f.store.Restaurants.FindByID(f.ctx, rest.ID)
	require.NoError(t, err)
	require.NotNil(t, got.AverageRating)
	assert.Equal(t, 5.0, *got.AverageRating)
	assert.Equal(t, 1, got.ReviewCount)

	again, err := f.ratings().RecomputeRestaurant(f.ctx, rest.ID)
	require.NoError(t, err)
	assert.Equal(t, 5.0, *again.AverageRating)
	assert.Equal(t, 1, again.ReviewCount)
}

func TestPendingReviewsDoNotCount(t *testing.T) {
	f := newFixture(t)
	rest, _ := f.restaurant(t, owner.ID)
	reviews := f.reviews().WithAutoApprove(false)

	rev, err := reviews.Create(f.ctx, buyer, CreateReviewInput{RestaurantID: rest.ID, Rating: 2})
	require.NoError(t, err)
	assert.Equal(t, models.ReviewPending, rev.Status)

	got, _ := f.store.Restaurants.FindByID(f.ctx, rest.ID)
	assert.Nil(t, got.AverageRating)
	assert.Zero(t, got.ReviewCount)

	_, err = reviews.Update(f.ctx, buyer, rev.ID, UpdateReviewInput{Status: models.ReviewApproved})
	assertKind(t, err, apperror.KindAuthorization)

	_, err = reviews.Update(f.ctx, admin, rev.ID, UpdateReviewInput{Status: models.ReviewApproved})
	require.NoError(t, err)
	got, _ = f.store.Restaurants.FindByID(f.ctx, rest.ID)
	require.NotNil(t, got.AverageRating)
	assert.Equal(t, 2.0, *got.AverageRating)
	assert.Equal(t, 1, got.ReviewCount)

	_, err = reviews.Update(f.ctx, admin, rev.ID, UpdateReviewInput{Status: models.ReviewRejected})
	require.NoError(t, err)
	got, _ = f.store.Restaurants.FindByID(f.ctx, rest.ID)
	assert.Nil(t, got.AverageRating)
	assert.Zero(t, got.ReviewCount)
}

func TestRecomputeFiresEvent(t *testing.T) {
	f := newFixture(t)
	rest, _ := f.restaurant(t, owner.ID)

	var got RatingEvent
	f.bus.Listen(EventRatingRecomputed, func(_ context.Context, payload any) {
		got = payload.(RatingEvent)
	})

	_, err := f.ratings().RecomputeRestaurant(f.ctx, rest.ID)
	require.NoError(t, err)
	assert.Equal(t, RatingTargetRestaurant, got.Target)
	assert.Equal(t, rest.ID, got.ID)
	assert.Nil(t, got.Average)

	_, err = f.ratings().RecomputeRestaurant(f.ctx, 404)
	assertKind(t, err, apperror.KindNotFound)
}

func TestRecipeRatingReplacesPerUser(t *testing.T) {
	f := newFixture(t)
	recipes := NewRecipeService(f.store, f.ratings())
	rec, err := recipes.Create(f.ctx, owner, RecipeInput{
		Title:        "Misir Wot",
		Description:  "Spicy red lentils",
		Ingredients:  []models.Ingredient{{Name: "lentils", Quantity: "2 cups"}},
		Instructions: []models.Instruction{{Step: 1, Description: "Simmer"}},
		Servings:     4,
		Difficulty:   models.DifficultyEasy,
	})
	require.NoError(t, err)

	_, err = recipes.Rate(f.ctx, buyer, rec.ID, RateInput{Rating: 3})
	require.NoError(t, err)
	_, err = recipes.Rate(f.ctx, stranger, rec.ID, RateInput{Rating: 4})
	require.NoError(t, err)
	got, err := recipes.Rate(f.ctx, buyer, rec.ID, RateInput{Rating: 5})
	require.NoError(t, err)
	require.NotNil(t, got.AverageRating)
	assert.Equal(t, 4.5, *got.AverageRating)
	assert.Equal(t, 2, got.RatingCount)

	_, err = recipes.Rate(f.ctx, buyer, rec.ID, RateInput{Rating: 6})
	assertKind(t, err, apperror.KindValidation)

	got, err = recipes.Unrate(f.ctx, stranger, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, 5.0, *got.AverageRating)
	assert.Equal(t, 1, got.RatingCount)
}
