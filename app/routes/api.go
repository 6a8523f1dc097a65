// Package routes is the HTTP route table.
package routes

import (
	"net/http"

	"github.com/gebeta-app/gebeta/app/controllers"
	"github.com/gebeta-app/gebeta/pkg/ctx"
	"github.com/gebeta-app/gebeta/pkg/metrics"
	"github.com/gebeta-app/gebeta/pkg/middleware"
	"github.com/gebeta-app/gebeta/pkg/rbac"
	"github.com/gebeta-app/gebeta/pkg/response"
	"github.com/gebeta-app/gebeta/pkg/router"
)

// Prefix is where the REST API is mounted.
const Prefix = "/api/v1"

// Handlers is everything the route table dispatches to.
type Handlers struct {
	Auth          *controllers.AuthController
	Restaurants   *controllers.RestaurantController
	Orders        *controllers.OrderController
	Reviews       *controllers.ReviewController
	Recipes       *controllers.RecipeController
	Favorites     *controllers.FavoriteController
	Notifications *controllers.NotificationController
	Users         *controllers.UserController
	Search        *controllers.SearchController
	Analytics     *controllers.AnalyticsController
	Realtime      *controllers.RealtimeController
	Health        *controllers.HealthController
	GraphQL       http.Handler
}

var w = ctx.Wrap

func Register(r *router.Router, h Handlers) {
	r.NotFound(func(rw http.ResponseWriter, _ *http.Request) { response.NotFound(rw) })
	r.MethodNotAllowed(func(rw http.ResponseWriter, _ *http.Request) {
		response.Error(rw, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Get("/health", "health", w(h.Health.Show))
	r.HandleFunc("/metrics", "metrics", metrics.Handler())

	api := r.Group(Prefix)

	auth := api.Group("/auth")
	auth.Post("/register", "auth.register", w(h.Auth.Register))
	auth.Post("/login", "auth.login", w(h.Auth.Login))
	auth.Get("/me", "auth.me", w(h.Auth.Me), middleware.AuthMiddleware)
	auth.Post("/otp/request", "auth.otp.request", w(h.Auth.RequestOTP))
	auth.Post("/otp/verify", "auth.otp.verify", w(h.Auth.VerifyOTP))
	auth.Post("/otp/resend", "auth.otp.resend", w(h.Auth.ResendOTP))

	users := api.Group("/users", middleware.AuthMiddleware)
	users.Get("/me", "users.me", w(h.Users.Me))
	users.Patch("/me", "users.me.update", w(h.Users.UpdateMe))
	users.Delete("/me", "users.me.destroy", w(h.Users.DeleteMe))
	directory := users.Group("", rbac.Admin)
	directory.Get("", "users.index", w(h.Users.Index))
	directory.Get("/{id}", "users.show", w(h.Users.Show))
	directory.Patch("/{id}", "users.update", w(h.Users.Update))
	directory.Delete("/{id}", "users.destroy", w(h.Users.Destroy))

	owners := rbac.HasRole(rbac.RoleRestaurantOwner, rbac.RoleAdmin)

	restaurants := api.Group("/restaurants")
	restaurants.Get("", "restaurants.index", w(h.Restaurants.Index))
	restaurants.Get("/owner/{ownerId}", "restaurants.owner", w(h.Restaurants.ByOwner))
	restaurants.Get("/{id}", "restaurants.show", w(h.Restaurants.Show))
	restaurants.Get("/{id}/menu", "restaurants.menu", w(h.Restaurants.Menu))
	restaurants.Get("/{restaurantId}/reviews", "restaurants.reviews", w(h.Reviews.ForRestaurant), middleware.OptionalAuth)
	managed := restaurants.Group("", middleware.AuthMiddleware, owners)
	managed.Post("", "restaurants.store", w(h.Restaurants.Store))
	managed.Put("/{id}", "restaurants.update", w(h.Restaurants.Update))
	managed.Delete("/{id}", "restaurants.destroy", w(h.Restaurants.Destroy))
	managed.Patch("/{id}/menu", "restaurants.menu.replace", w(h.Restaurants.ReplaceMenu))

	menu := api.Group("/menu-items")
	menu.Get("/{id}", "menu-items.show", w(h.Restaurants.ShowMenuItem))
	managedMenu := menu.Group("", middleware.AuthMiddleware, owners)
	managedMenu.Post("", "menu-items.store", w(h.Restaurants.StoreMenuItem))
	managedMenu.Put("/{id}", "menu-items.update", w(h.Restaurants.UpdateMenuItem))
	managedMenu.Delete("/{id}", "menu-items.destroy", w(h.Restaurants.DestroyMenuItem))

	orders := api.Group("/orders", middleware.AuthMiddleware)
	orders.Post("", "orders.store", w(h.Orders.Store))
	orders.Get("", "orders.index", w(h.Orders.Index))
	orders.Get("/user/{userId}", "orders.user", w(h.Orders.ByUser))
	orders.Get("/{id}", "orders.show", w(h.Orders.Show))
	orders.Get("/restaurant/{restaurantId}", "orders.restaurant", w(h.Orders.ByRestaurant), owners)
	orders.Put("/{id}/status", "orders.status", w(h.Orders.UpdateStatus), owners)
	orders.Put("/{id}/payment", "orders.payment", w(h.Orders.UpdatePayment), owners)

	reviews := api.Group("/reviews")
	reviews.Get("", "reviews.index", w(h.Reviews.Index), middleware.OptionalAuth)
	reviews.Get("/{id}", "reviews.show", w(h.Reviews.Show), middleware.OptionalAuth)
	authedReviews := reviews.Group("", middleware.AuthMiddleware)
	authedReviews.Post("", "reviews.store", w(h.Reviews.Store))
	authedReviews.Put("/{id}", "reviews.update", w(h.Reviews.Update))
	authedReviews.Delete("/{id}", "reviews.destroy", w(h.Reviews.Destroy))
	authedReviews.Post("/{id}/helpful", "reviews.helpful", w(h.Reviews.Helpful))
	authedReviews.Post("/{id}/reply", "reviews.reply", w(h.Reviews.Reply), owners)
	api.Get("/users/{userId}/reviews", "users.reviews", w(h.Reviews.ForUser), middleware.OptionalAuth)

	recipes := api.Group("/recipes")
	recipes.Get("", "recipes.index", w(h.Recipes.Index))
	recipes.Get("/user/{userId}", "recipes.user", w(h.Recipes.ByUser))
	recipes.Get("/{id}", "recipes.show", w(h.Recipes.Show))
	authedRecipes := recipes.Group("", middleware.AuthMiddleware)
	authedRecipes.Post("", "recipes.store", w(h.Recipes.Store))
	authedRecipes.Patch("/{id}", "recipes.update", w(h.Recipes.Update))
	authedRecipes.Delete("/{id}", "recipes.destroy", w(h.Recipes.Destroy))
	authedRecipes.Post("/{id}/like", "recipes.like", w(h.Recipes.Like))
	authedRecipes.Post("/{id}/comment", "recipes.comment", w(h.Recipes.Comment))
	authedRecipes.Post("/{id}/rate", "recipes.rate", w(h.Recipes.Rate))
	authedRecipes.Delete("/{id}/rate", "recipes.unrate", w(h.Recipes.Unrate))

	favorites := api.Group("/favorites", middleware.AuthMiddleware)
	favorites.Post("", "favorites.store", w(h.Favorites.Store))
	favorites.Get("", "favorites.index", w(h.Favorites.Index))
	favorites.Delete("/{id}", "favorites.destroy", w(h.Favorites.Destroy))

	notifications := api.Group("/notifications", middleware.AuthMiddleware)
	notifications.Get("", "notifications.index", w(h.Notifications.Index))
	notifications.Get("/unread-count", "notifications.unread-count", w(h.Notifications.UnreadCount))
	notifications.Put("/read-all", "notifications.read-all", w(h.Notifications.MarkAllRead))
	notifications.Put("/{id}/read", "notifications.read", w(h.Notifications.MarkRead))
	notifications.Delete("/{id}", "notifications.destroy", w(h.Notifications.Destroy))

	analytics := api.Group("/analytics", middleware.AuthMiddleware, rbac.Admin)
	analytics.Get("/users", "analytics.users", w(h.Analytics.Users))
	analytics.Get("/orders", "analytics.orders", w(h.Analytics.Orders))
	analytics.Get("/restaurants", "analytics.restaurants", w(h.Analytics.Restaurants))

	api.Get("/search", "search", w(h.Search.Index))

	api.Get("/ws/orders", "ws.orders", w(h.Realtime.Orders))
	api.Post("/graphql", "graphql", h.GraphQL.ServeHTTP)
	api.Get("/graphql", "graphql.get", h.GraphQL.ServeHTTP)
}
