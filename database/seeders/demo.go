package seeders

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/gebeta-app/gebeta/app/models"
	"github.com/gebeta-app/gebeta/app/repositories"
	"github.com/gebeta-app/gebeta/config"
	"github.com/gebeta-app/gebeta/pkg/auth"
)

const (
	AdminEmail = "admin@gebeta.local"
	OwnerEmail = "owner@gebeta.local"
	DemoName   = "Gebeta Demo Kitchen"
)

func init() {
	Register("users", SeedUsers)
	Register("restaurants", SeedRestaurants)
	Register("recipes", SeedRecipes)
}

// SeedUsers creates an admin and a restaurant owner. Their password comes
// from SEED_PASSWORD.
func SeedUsers(ctx context.Context, store *repositories.Store) error {
	for _, u := range []struct{ name, email, role string }{
		{"Gebeta Admin", AdminEmail, models.RoleAdmin},
		{"Demo Owner", OwnerEmail, models.RoleRestaurantOwner},
	} {
		absent, err := missing(lookupErr(store.Users.FindByEmail(ctx, u.email)))
		if err != nil {
			return err
		}
		if !absent {
			continue
		}
		hash, err := auth.HashPassword(config.Get("SEED_PASSWORD", "password123"))
		if err != nil {
			return err
		}
		email := u.email
		if err := store.Users.Create(ctx, &models.User{Name: u.name, Email: &email, Password: hash, Role: u.role}); err != nil {
			return err
		}
	}
	return nil
}

// SeedRestaurants gives the demo owner one restaurant with a small menu.
func SeedRestaurants(ctx context.Context, store *repositories.Store) error {
	owner, err := store.Users.FindByEmail(ctx, OwnerEmail)
	if err != nil {
		return err
	}
	ids, err := store.Restaurants.IDsByOwner(ctx, owner.ID)
	if err != nil || len(ids) > 0 {
		return err
	}

	rest := &models.Restaurant{
		Name:                     DemoName,
		Description:              "Injera, wots and tibs.",
		OwnerID:                  owner.ID,
		Address:                  models.Address{Street: "Bole Road", City: "Addis Ababa", Country: models.DefaultCountry},
		Phone:                    "+251911000000",
		CuisineTypes:             []string{"ethiopian"},
		DeliveryFee:              decimal.NewFromInt(30),
		MinimumOrder:             decimal.NewFromInt(100),
		EstimatedDeliveryMinutes: 40,
		IsActive:                 true,
	}
	if err := store.Restaurants.Create(ctx, rest); err != nil {
		return err
	}

	menu := []models.MenuItem{
		{Name: "Doro Wat", Price: decimal.NewFromInt(320), Category: models.CategoryMain, IsSpicy: true},
		{Name: "Shiro", Price: decimal.NewFromInt(150), Category: models.CategoryMain, IsVegan: true, IsVegetarian: true},
		{Name: "Sambusa", Price: decimal.NewFromInt(60), Category: models.CategoryAppetizer, IsVegetarian: true},
		{Name: "Buna", Price: decimal.NewFromInt(40), Category: models.CategoryBeverage, IsVegan: true, IsVegetarian: true},
	}
	for i := range menu {
		menu[i].RestaurantID = rest.ID
		menu[i].IsAvailable = true
		if err := store.MenuItems.Create(ctx, &menu[i]); err != nil {
			return err
		}
	}
	return nil
}

// SeedRecipes adds one recipe by the admin when there are none.
func SeedRecipes(ctx context.Context, store *repositories.Store) error {
	existing, _, err := store.Recipes.List(ctx, repositories.RecipeFilter{Page: 1, Limit: 1})
	if err != nil || len(existing) > 0 {
		return err
	}
	admin, err := store.Users.FindByEmail(ctx, AdminEmail)
	if err != nil {
		return err
	}
	return store.Recipes.Create(ctx, &models.Recipe{
		Title:       "Shiro Wat",
		Description: "Chickpea stew simmered with berbere.",
		Ingredients: []models.Ingredient{
			{Name: "shiro powder", Quantity: "1", Unit: "cup"},
			{Name: "red onion", Quantity: "2"},
			{Name: "berbere", Quantity: "1", Unit: "tbsp"},
		},
		Instructions: []models.Instruction{
			{Step: 1, Description: "Cook the onions down without oil.", Minutes: 10},
			{Step: 2, Description: "Add oil and berbere, then water.", Minutes: 5},
			{Step: 3, Description: "Whisk in the shiro and simmer.", Minutes: 20},
		},
		PrepTimeMinutes: 10,
		CookTimeMinutes: 35,
		Servings:        4,
		Difficulty:      models.DifficultyEasy,
		Cuisine:         "ethiopian",
		MealTypes:       []string{"lunch", "dinner"},
		AuthorID:        admin.ID,
	})
}
