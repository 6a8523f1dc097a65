// Package schema is the read-only GraphQL view of restaurants, menus and
// recipes.
package schema

import (
	"github.com/graphql-go/graphql"

	"github.com/gebeta-app/gebeta/app/models"
	"github.com/gebeta-app/gebeta/app/services"
	gql "github.com/gebeta-app/gebeta/pkg/graphql"
)

// prop resolves a field from a *T or T source.
func prop[T any](typ graphql.Output, fn func(*T) any) *graphql.Field {
	return &graphql.Field{
		Type: typ,
		Resolve: func(p graphql.ResolveParams) (any, error) {
			switch v := p.Source.(type) {
			case *T:
				return fn(v), nil
			case T:
				return fn(&v), nil
			}
			return nil, nil
		},
	}
}

func rating(avg *float64) any {
	if avg == nil {
		return nil
	}
	return *avg
}

var stringList = graphql.NewList(graphql.String)

var menuItemType = graphql.NewObject(graphql.ObjectConfig{
	Name: "MenuItem",
	Fields: graphql.Fields{
		"id":           prop(graphql.Int, func(m *models.MenuItem) any { return int(m.ID) }),
		"name":         prop(graphql.String, func(m *models.MenuItem) any { return m.Name }),
		"description":  prop(graphql.String, func(m *models.MenuItem) any { return m.Description }),
		"price":        prop(graphql.String, func(m *models.MenuItem) any { return m.Price.StringFixed(2) }),
		"category":     prop(graphql.String, func(m *models.MenuItem) any { return m.Category }),
		"isVegetarian": prop(graphql.Boolean, func(m *models.MenuItem) any { return m.IsVegetarian }),
		"isVegan":      prop(graphql.Boolean, func(m *models.MenuItem) any { return m.IsVegan }),
		"isAvailable":  prop(graphql.Boolean, func(m *models.MenuItem) any { return m.IsAvailable }),
	},
})

var recipeType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Recipe",
	Fields: graphql.Fields{
		"id":            prop(graphql.Int, func(r *models.Recipe) any { return int(r.ID) }),
		"title":         prop(graphql.String, func(r *models.Recipe) any { return r.Title }),
		"description":   prop(graphql.String, func(r *models.Recipe) any { return r.Description }),
		"cuisine":       prop(graphql.String, func(r *models.Recipe) any { return r.Cuisine }),
		"difficulty":    prop(graphql.String, func(r *models.Recipe) any { return r.Difficulty }),
		"mealTypes":     prop(stringList, func(r *models.Recipe) any { return r.MealTypes }),
		"servings":      prop(graphql.Int, func(r *models.Recipe) any { return r.Servings }),
		"prepTime":      prop(graphql.Int, func(r *models.Recipe) any { return r.PrepTimeMinutes }),
		"cookTime":      prop(graphql.Int, func(r *models.Recipe) any { return r.CookTimeMinutes }),
		"likesCount":    prop(graphql.Int, func(r *models.Recipe) any { return r.LikesCount }),
		"averageRating": prop(graphql.Float, func(r *models.Recipe) any { return rating(r.AverageRating) }),
		"ratingCount":   prop(graphql.Int, func(r *models.Recipe) any { return r.RatingCount }),
	},
})

// New builds the schema over the given services.
func New(restaurants *services.RestaurantService, recipes *services.RecipeService) (graphql.Schema, error) {
	restaurantType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Restaurant",
		Fields: graphql.Fields{
			"id":            prop(graphql.Int, func(r *models.Restaurant) any { return int(r.ID) }),
			"name":          prop(graphql.String, func(r *models.Restaurant) any { return r.Name }),
			"description":   prop(graphql.String, func(r *models.Restaurant) any { return r.Description }),
			"city":          prop(graphql.String, func(r *models.Restaurant) any { return r.Address.City }),
			"cuisineTypes":  prop(stringList, func(r *models.Restaurant) any { return r.CuisineTypes }),
			"deliveryFee":   prop(graphql.String, func(r *models.Restaurant) any { return r.DeliveryFee.StringFixed(2) }),
			"averageRating": prop(graphql.Float, func(r *models.Restaurant) any { return rating(r.AverageRating) }),
			"reviewCount":   prop(graphql.Int, func(r *models.Restaurant) any { return r.ReviewCount }),
			"menu": &graphql.Field{
				Type: graphql.NewList(menuItemType),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					var id uint
					switch v := p.Source.(type) {
					case *models.Restaurant:
						id = v.ID
					case models.Restaurant:
						id = v.ID
					}
					return restaurants.Menu(p.Context, id)
				},
			},
		},
	})

	page := graphql.FieldConfigArgument{
		"page":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 1},
		"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
	}
	withPage := func(extra graphql.FieldConfigArgument) graphql.FieldConfigArgument {
		for k, v := range page {
			extra[k] = v
		}
		return extra
	}

	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"restaurants": &graphql.Field{
				Type: graphql.NewList(restaurantType),
				Args: withPage(graphql.FieldConfigArgument{
					"cuisine": &graphql.ArgumentConfig{Type: graphql.String},
					"city":    &graphql.ArgumentConfig{Type: graphql.String},
					"search":  &graphql.ArgumentConfig{Type: graphql.String},
				}),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					rows, _, err := restaurants.List(p.Context, services.RestaurantQuery{
						Cuisine: str(p.Args, "cuisine"),
						City:    str(p.Args, "city"),
						Search:  str(p.Args, "search"),
						Page:    num(p.Args, "page"),
						Limit:   num(p.Args, "limit"),
					})
					return rows, err
				},
			},
			"restaurant": &graphql.Field{
				Type: restaurantType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return restaurants.Get(p.Context, uint(num(p.Args, "id")))
				},
			},
			"recipes": &graphql.Field{
				Type: graphql.NewList(recipeType),
				Args: withPage(graphql.FieldConfigArgument{
					"cuisine":    &graphql.ArgumentConfig{Type: graphql.String},
					"difficulty": &graphql.ArgumentConfig{Type: graphql.String},
					"mealType":   &graphql.ArgumentConfig{Type: graphql.String},
					"search":     &graphql.ArgumentConfig{Type: graphql.String},
				}),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					rows, _, err := recipes.List(p.Context, services.RecipeQuery{
						Cuisine:    str(p.Args, "cuisine"),
						Difficulty: str(p.Args, "difficulty"),
						MealType:   str(p.Args, "mealType"),
						Search:     str(p.Args, "search"),
						Page:       num(p.Args, "page"),
						Limit:      num(p.Args, "limit"),
					})
					return rows, err
				},
			},
			"recipe": &graphql.Field{
				Type: recipeType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return recipes.Get(p.Context, uint(num(p.Args, "id")))
				},
			},
		},
	})
	return gql.NewSchema(query)
}

func str(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

func num(args map[string]any, key string) int {
	n, _ := args[key].(int)
	return n
}
