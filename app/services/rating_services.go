package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/gebeta-app/gebeta/app/models"
	"github.com/gebeta-app/gebeta/app/repositories"
	"github.com/gebeta-app/gebeta/pkg/cache"
	"github.com/gebeta-app/gebeta/pkg/event"
	"github.com/gebeta-app/gebeta/pkg/metrics"
)

const (
	RatingTargetRestaurant = "restaurant"
	RatingTargetRecipe     = "recipe"
)

// RatingService is the only writer of averageRating and the rating counts.
// Every recompute starts from the source rows; nothing is incremented.
type RatingService struct {
	restaurants repositories.RestaurantRepository
	recipes     repositories.RecipeRepository
	events      *event.Bus
}

func NewRatingService(store *repositories.Store, events *event.Bus) *RatingService {
	return &RatingService{restaurants: store.Restaurants, recipes: store.Recipes, events: events}
}

// Average is the mean of ratings rounded half-up to one decimal. No ratings
// yields a nil average and a zero count.
func Average(ratings []int) (*float64, int) {
	if len(ratings) == 0 {
		return nil, 0
	}
	var sum int64
	for _, r := range ratings {
		sum += int64(r)
	}
	avg, _ := decimal.NewFromInt(sum).
		Div(decimal.NewFromInt(int64(len(ratings)))).
		Round(1).
		Float64()
	return &avg, len(ratings)
}

// RecomputeRestaurant aggregates the approved reviews of restaurant id.
func (s *RatingService) RecomputeRestaurant(ctx context.Context, id uint) (*models.Restaurant, error) {
	rest, err := s.restaurants.RecomputeRating(ctx, id, Average)
	if err != nil {
		return nil, lookup(err, "Restaurant")
	}
	_ = cache.Del(RestaurantCacheKey(id))
	s.recorded(ctx, RatingTargetRestaurant, id, rest.AverageRating, rest.ReviewCount)
	return rest, nil
}

// RecomputeRecipe aggregates every rating of recipe id.
func (s *RatingService) RecomputeRecipe(ctx context.Context, id uint) (*models.Recipe, error) {
	rec, err := s.recipes.RecomputeRating(ctx, id, Average)
	if err != nil {
		return nil, lookup(err, "Recipe")
	}
	s.recorded(ctx, RatingTargetRecipe, id, rec.AverageRating, rec.RatingCount)
	return rec, nil
}

func (s *RatingService) recorded(ctx context.Context, target string, id uint, avg *float64, count int) {
	metrics.RatingRecomputes.WithLabelValues(target).Inc()
	s.events.FireAsync(ctx, EventRatingRecomputed, RatingEvent{Target: target, ID: id, Average: avg, Count: count})
}

// RestaurantCacheKey is the Redis key of a cached restaurant document.
func RestaurantCacheKey(id uint) string {
	return fmt.Sprintf("gebeta:restaurant:%d", id)
}
