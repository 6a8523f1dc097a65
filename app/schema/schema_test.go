package schema

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gebeta-app/gebeta/app/models"
	"github.com/gebeta-app/gebeta/app/repositories/memory"
	"github.com/gebeta-app/gebeta/app/services"
	gql "github.com/gebeta-app/gebeta/pkg/graphql"
)

func seededHandler(t *testing.T) http.HandlerFunc {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()

	rest := &models.Restaurant{
		Name: "Habesha Kitchen", OwnerID: 20, IsActive: true,
		Address:      models.Address{City: "Addis Ababa"},
		CuisineTypes: []string{"ethiopian"},
		DeliveryFee:  decimal.NewFromInt(30),
	}
	require.NoError(t, store.Restaurants.Create(ctx, rest))
	require.NoError(t, store.MenuItems.Create(ctx, &models.MenuItem{
		RestaurantID: rest.ID, Name: "Doro Wat", Price: decimal.NewFromInt(100),
		Category: models.CategoryMain, IsAvailable: true,
	}))
	require.NoError(t, store.Recipes.Create(ctx, &models.Recipe{
		Title: "Shiro", Difficulty: models.DifficultyEasy, Cuisine: "ethiopian",
		Servings: 2, AuthorID: 10, MealTypes: []string{"dinner"},
	}))

	ratings := services.NewRatingService(store, nil)
	s, err := New(services.NewRestaurantService(store), services.NewRecipeService(store, ratings))
	require.NoError(t, err)
	return gql.Handler(s)
}

func query(t *testing.T, h http.HandlerFunc, q string) map[string]any {
	t.Helper()
	body, _ := json.Marshal(gql.Request{Query: q})
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(string(body))))
	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		Data   map[string]any `json:"data"`
		Errors []any          `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Empty(t, out.Errors)
	return out.Data
}

func TestRestaurantsWithMenu(t *testing.T) {
	h := seededHandler(t)
	data := query(t, h, `{ restaurants(cuisine: "ethiopian") { id name city deliveryFee averageRating menu { name price } } }`)

	list := data["restaurants"].([]any)
	require.Len(t, list, 1)
	rest := list[0].(map[string]any)
	assert.Equal(t, "Habesha Kitchen", rest["name"])
	assert.Equal(t, "Addis Ababa", rest["city"])
	assert.Equal(t, "30.00", rest["deliveryFee"])
	assert.Nil(t, rest["averageRating"])
	assert.Equal(t, []any{map[string]any{"name": "Doro Wat", "price": "100.00"}}, rest["menu"])
}

func TestSingleRestaurantAndRecipes(t *testing.T) {
	h := seededHandler(t)

	data := query(t, h, `{ restaurant(id: 1) { name } recipes(mealType: "dinner") { title difficulty mealTypes } }`)
	assert.Equal(t, map[string]any{"name": "Habesha Kitchen"}, data["restaurant"])
	assert.Equal(t, []any{map[string]any{
		"title": "Shiro", "difficulty": "easy", "mealTypes": []any{"dinner"},
	}}, data["recipes"])
}

func TestBadRequests(t *testing.T) {
	h := seededHandler(t)

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader("{")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/graphql", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/graphql?query="+`%7B%20restaurant(id%3A%2099)%20%7B%20name%20%7D%20%7D`, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Restaurant not found")
}
