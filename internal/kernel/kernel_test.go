package kernel

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gebeta-app/gebeta/app/models"
	"github.com/gebeta-app/gebeta/app/repositories/memory"
	"github.com/gebeta-app/gebeta/app/services"
	"github.com/gebeta-app/gebeta/pkg/rbac"
	"github.com/gebeta-app/gebeta/pkg/testkit"
)

const forbidden = "You do not have permission to perform this action"

type app struct {
	k   *Kernel
	api *testkit.Client
}

func boot(t *testing.T) *app {
	t.Helper()
	k, err := New(
		WithStore(memory.NewStore()),
		WithSyncEvents(),
		WithOTPGenerator(func() (string, error) { return "123456", nil }),
	)
	require.NoError(t, err)
	t.Cleanup(k.Close)
	return &app{k: k, api: testkit.New(t, k.Handler())}
}

func (a *app) user(t *testing.T, name, role string) (*models.User, string) {
	t.Helper()
	email := strings.ToLower(name) + "@example.com"
	u := &models.User{Name: name, Email: &email, Role: role}
	require.NoError(t, a.k.Store.Users.Create(context.Background(), u))
	return u, testkit.Token(t, u.ID, role)
}

// kitchen seeds an active restaurant with a delivery fee of 30 and dishes
// priced 100 and 50.
func (a *app) kitchen(t *testing.T, ownerID uint) (*models.Restaurant, []models.MenuItem) {
	t.Helper()
	ctx := context.Background()
	rest := &models.Restaurant{
		Name:         "Habesha Kitchen",
		OwnerID:      ownerID,
		Phone:        "+251911000000",
		Address:      models.Address{Street: "Bole Rd", City: "Addis Ababa", Country: models.DefaultCountry},
		CuisineTypes: []string{"ethiopian"},
		DeliveryFee:  decimal.NewFromInt(30),
		IsActive:     true,
	}
	require.NoError(t, a.k.Store.Restaurants.Create(ctx, rest))
	items := []models.MenuItem{
		{RestaurantID: rest.ID, Name: "Doro Wat", Price: decimal.NewFromInt(100), Category: models.CategoryMain, IsAvailable: true},
		{RestaurantID: rest.ID, Name: "Shiro", Price: decimal.NewFromInt(50), Category: models.CategoryMain, IsAvailable: true},
	}
	for i := range items {
		require.NoError(t, a.k.Store.MenuItems.Create(ctx, &items[i]))
	}
	return rest, items
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	a := boot(t)
	owner, ownerToken := a.user(t, "Owner", rbac.RoleRestaurantOwner)
	rest, menu := a.kitchen(t, owner.ID)

	var session services.AuthResult
	a.api.Post("/api/v1/auth/register", map[string]string{
		"name": "Abebe", "email": "abebe@example.com", "password": "secret-pass",
	}).Do().AssertStatus(http.StatusCreated).Data(&session)
	require.NotEmpty(t, session.Token)
	assert.Equal(t, rbac.RoleUser, session.User.Role)

	var order models.Order
	a.api.Post("/api/v1/orders", map[string]any{
		"restaurant": rest.ID,
		"items": []map[string]any{
			{"menuItem": menu[0].ID, "quantity": 2},
			{"menuItem": menu[1].ID, "quantity": 1},
		},
	}).As(session.Token).Do().AssertStatus(http.StatusCreated).Data(&order)

	assert.True(t, decimal.NewFromInt(250).Equal(order.Subtotal), order.Subtotal.String())
	assert.True(t, decimal.RequireFromString("37.5").Equal(order.Tax), order.Tax.String())
	assert.True(t, decimal.RequireFromString("317.5").Equal(order.Total), order.Total.String())
	assert.Equal(t, models.OrderPending, order.Status)

	path := "/api/v1/orders/" + jsonID(order.ID)

	a.api.Put(path+"/status", map[string]string{"status": "confirmed"}).As(session.Token).Do().
		AssertError(http.StatusForbidden, forbidden)

	var confirmed models.Order
	a.api.Put(path+"/status", map[string]string{"status": "confirmed"}).As(ownerToken).Do().
		AssertStatus(http.StatusOK).Data(&confirmed)
	assert.Equal(t, models.OrderConfirmed, confirmed.Status)

	a.api.Put(path+"/status", map[string]string{"status": "pending"}).As(ownerToken).Do().
		AssertError(http.StatusBadRequest, "Cannot move order from confirmed to pending")

	a.api.Put(path+"/status", map[string]string{"status": "cancelled"}).As(ownerToken).Do().
		AssertError(http.StatusBadRequest, "Cancellation reason is required")

	_, rivalToken := a.user(t, "Rival", rbac.RoleRestaurantOwner)
	a.api.Get(path).As(rivalToken).Do().
		AssertError(http.StatusForbidden, "You do not have permission to view this order")

	var fetched models.Order
	a.api.Get(path).As(session.Token).Do().AssertStatus(http.StatusOK).Data(&fetched)
	assert.Equal(t, order.OrderNumber, fetched.OrderNumber)

	env := a.api.Get("/api/v1/orders").As(ownerToken).Do().AssertStatus(http.StatusOK).Envelope()
	assert.Equal(t, 1, env.Results)
	assert.Equal(t, int64(1), env.Total)

	// Owner got order_received, buyer got order_confirmed.
	res := a.api.Get("/api/v1/notifications").As(ownerToken).Do().AssertStatus(http.StatusOK)
	var inbox struct {
		Results     int                   `json:"results"`
		UnreadCount int64                 `json:"unreadCount"`
		Data        []models.Notification `json:"data"`
	}
	require.NoError(t, json.Unmarshal(res.Body, &inbox))
	require.Equal(t, 1, inbox.Results)
	assert.Equal(t, int64(1), inbox.UnreadCount)

	var updated map[string]int64
	a.api.Put("/api/v1/notifications/read-all", nil).As(session.Token).Do().
		AssertStatus(http.StatusOK).Data(&updated)
	assert.Equal(t, int64(1), updated["updated"])
}

func TestReviewRecomputesRestaurantRating(t *testing.T) {
	a := boot(t)
	owner, _ := a.user(t, "Owner", rbac.RoleRestaurantOwner)
	rest, _ := a.kitchen(t, owner.ID)
	_, alice := a.user(t, "Alice", rbac.RoleUser)
	_, bob := a.user(t, "Bob", rbac.RoleUser)

	for token, rating := range map[string]int{alice: 5, bob: 4} {
		a.api.Post("/api/v1/reviews", map[string]any{"restaurant": rest.ID, "rating": rating}).
			As(token).Do().AssertStatus(http.StatusCreated)
	}
	a.api.Post("/api/v1/reviews", map[string]any{"restaurant": rest.ID, "rating": 1}).
		As(alice).Do().AssertError(http.StatusBadRequest, "You have already reviewed this restaurant")

	var got models.Restaurant
	a.api.Get("/api/v1/restaurants/" + jsonID(rest.ID)).Do().AssertStatus(http.StatusOK).Data(&got)
	require.NotNil(t, got.AverageRating)
	assert.InDelta(t, 4.5, *got.AverageRating, 0.001)
	assert.Equal(t, 2, got.ReviewCount)

	env := a.api.Get("/api/v1/restaurants/" + jsonID(rest.ID) + "/reviews").Do().
		AssertStatus(http.StatusOK).Envelope()
	assert.Equal(t, 2, env.Results)
}

func TestOTPFlow(t *testing.T) {
	a := boot(t)
	phone := map[string]string{"phoneNumber": "+251911223344"}

	a.api.Post("/api/v1/auth/otp/verify", map[string]string{"phoneNumber": "+251911223344", "otp": "123456"}).Do().
		AssertError(http.StatusUnauthorized, "OTP expired or not requested")

	a.api.Post("/api/v1/auth/otp/request", phone).Do().AssertStatus(http.StatusOK)

	a.api.Post("/api/v1/auth/otp/verify", map[string]string{"phoneNumber": "+251911223344", "otp": "000000"}).Do().
		AssertError(http.StatusUnauthorized, "Invalid OTP")

	var session services.AuthResult
	a.api.Post("/api/v1/auth/otp/verify", map[string]string{"phoneNumber": "+251911223344", "otp": "123456"}).Do().
		AssertStatus(http.StatusOK).Data(&session)
	require.NotEmpty(t, session.Token)
	assert.True(t, session.IsNewUser)
	assert.True(t, session.User.IsPhoneVerified)

	a.api.Post("/api/v1/auth/otp/verify", map[string]string{"phoneNumber": "+251911223344", "otp": "123456"}).Do().
		AssertError(http.StatusUnauthorized, "OTP expired or not requested")

	var me models.User
	a.api.Get("/api/v1/auth/me").As(session.Token).Do().AssertStatus(http.StatusOK).Data(&me)
	assert.Equal(t, session.User.ID, me.ID)
}

func TestRoleGates(t *testing.T) {
	a := boot(t)
	_, userToken := a.user(t, "Plain", rbac.RoleUser)
	_, adminToken := a.user(t, "Root", rbac.RoleAdmin)

	a.api.Get("/api/v1/analytics/users").Do().
		AssertError(http.StatusUnauthorized, "Authentication required")
	a.api.Get("/api/v1/analytics/users").As("not-a-token").Do().
		AssertError(http.StatusUnauthorized, "Invalid or expired token")
	a.api.Get("/api/v1/analytics/users").As(userToken).Do().
		AssertError(http.StatusForbidden, forbidden)
	a.api.Get("/api/v1/analytics/users").As(adminToken).Do().AssertStatus(http.StatusOK)

	a.api.Post("/api/v1/restaurants", map[string]any{"name": "Nope"}).As(userToken).Do().
		AssertError(http.StatusForbidden, forbidden)
}

func TestEnvelopesForMissingThings(t *testing.T) {
	a := boot(t)
	_, adminToken := a.user(t, "Root", rbac.RoleAdmin)

	a.api.Get("/api/v1/nowhere").Do().AssertError(http.StatusNotFound, "Route not found")
	a.api.Get("/api/v1/orders/999").As(adminToken).Do().AssertError(http.StatusNotFound, "Order not found")
	a.api.Get("/api/v1/restaurants/abc").Do().AssertStatus(http.StatusBadRequest)
}

func TestHealthGraphQLAndRoutes(t *testing.T) {
	a := boot(t)
	owner, _ := a.user(t, "Owner", rbac.RoleRestaurantOwner)
	a.kitchen(t, owner.ID)

	res := a.api.Get("/health").Do().AssertStatus(http.StatusOK)
	assert.JSONEq(t, `{"status":"ok","checks":{"database":"ok","redis":"ok"}}`, string(res.Body))

	res = a.api.Post("/api/v1/graphql", map[string]string{"query": "{ restaurants { name menu { name } } }"}).Do().
		AssertStatus(http.StatusOK)
	var out struct {
		Data struct {
			Restaurants []struct {
				Name string `json:"name"`
				Menu []struct {
					Name string `json:"name"`
				} `json:"menu"`
			} `json:"restaurants"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(res.Body, &out))
	require.Len(t, out.Data.Restaurants, 1)
	assert.Len(t, out.Data.Restaurants[0].Menu, 2)

	path, ok := a.k.Router.Path("orders.status")
	require.True(t, ok)
	assert.Equal(t, "/api/v1/orders/{id}/status", path)
	assert.Contains(t, a.k.Scheduler.List(), "notifications:prune  [every 1h0m0s]")
}

func jsonID(id uint) string {
	raw, _ := json.Marshal(id)
	return string(raw)
}

func TestProfileSearchAndInboxRoutes(t *testing.T) {
	a := boot(t)
	owner, _ := a.user(t, "Owner", rbac.RoleRestaurantOwner)
	a.kitchen(t, owner.ID)
	me, token := a.user(t, "Abebe", rbac.RoleUser)
	_, adminToken := a.user(t, "Root", rbac.RoleAdmin)

	var profile models.User
	a.api.Patch("/api/v1/users/me", map[string]string{"name": "Abebe Bikila"}).As(token).Do().
		AssertStatus(http.StatusOK).Data(&profile)
	assert.Equal(t, "Abebe Bikila", profile.Name)
	a.api.Patch("/api/v1/users/me", map[string]string{"email": "not-an-email"}).As(token).Do().
		AssertStatus(http.StatusBadRequest)

	a.api.Get("/api/v1/users").As(token).Do().AssertError(http.StatusForbidden, forbidden)
	env := a.api.Get("/api/v1/users?role=restaurant_owner").As(adminToken).Do().AssertStatus(http.StatusOK).Envelope()
	assert.Equal(t, 1, env.Results)
	a.api.Get("/api/v1/users/" + jsonID(me.ID)).As(adminToken).Do().AssertStatus(http.StatusOK)

	env = a.api.Get("/api/v1/search?query=habesha").Do().AssertStatus(http.StatusOK).Envelope()
	assert.Equal(t, 1, env.Results)
	a.api.Get("/api/v1/search").Do().AssertError(http.StatusBadRequest, "Search query is required")

	env = a.api.Get("/api/v1/recipes/user/" + jsonID(me.ID)).Do().AssertStatus(http.StatusOK).Envelope()
	assert.Equal(t, 0, env.Results)

	require.NoError(t, a.k.Notifications.Notify(context.Background(), &models.Notification{UserID: me.ID, Title: "Hi", Message: "Hi"}))
	var unread map[string]int64
	a.api.Get("/api/v1/notifications/unread-count").As(token).Do().AssertStatus(http.StatusOK).Data(&unread)
	assert.Equal(t, int64(1), unread["unreadCount"])
	a.api.Delete("/api/v1/notifications/1").As(adminToken).Do().AssertError(http.StatusNotFound, "Notification not found")
	a.api.Delete("/api/v1/notifications/1").As(token).Do().AssertStatus(http.StatusOK)

	a.api.Delete("/api/v1/users/me").As(token).Do().AssertStatus(http.StatusOK)
	a.api.Get("/api/v1/auth/me").As(token).Do().
		AssertError(http.StatusUnauthorized, "This account has been deactivated")
}
