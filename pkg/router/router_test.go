package router_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gebeta-app/gebeta/pkg/router"
)

func ok(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }

func TestGroupJoinsPrefixAndNamesRoutes(t *testing.T) {
	r := router.New()
	api := r.Group("/api/v1")
	api.Get("/orders/{id}", "orders.show", ok)
	api.Put("/orders/{id}/status", "orders.status", ok)

	url, err := r.URL("orders.show", map[string]string{"id": "7"})
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/orders/7", url)

	_, err = r.URL("orders.status", nil)
	assert.Error(t, err)

	_, err = r.URL("missing", nil)
	assert.Error(t, err)
}

func TestGroupMiddlewareOrder(t *testing.T) {
	var seen []string
	tag := func(name string) router.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = append(seen, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	r := router.New()
	g := r.Group("/a", tag("outer")).Group("/b", tag("inner"))
	g.Delete("/c", "c", ok, tag("route"))

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/a/b/c", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"outer", "inner", "route"}, seen)
}

func TestRoutesListing(t *testing.T) {
	r := router.New()
	r.Get("/health", "health", ok)
	r.HandleFunc("/graphql", "graphql", ok)
	r.Group("/api").Patch("/x", "", ok)

	routes := r.Routes()
	require.Len(t, routes, 3)
	assert.Equal(t, router.RouteInfo{Method: http.MethodPatch, Path: "/api/x"}, routes[0])
	assert.Equal(t, "*", routes[1].Method)
	assert.Equal(t, "health", routes[2].Name)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/graphql", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
