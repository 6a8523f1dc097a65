// Package ctx provides the request context handed to controllers.
//
// Instead of (http.ResponseWriter, *http.Request) a handler receives one
// *Context with helpers for params, binding, the authenticated actor and the
// response envelope:
//
//	func (oc *OrderController) Show(c *ctx.Context) {
//	    id, ok := c.ParamUint("id")
//	    if !ok {
//	        return
//	    }
//	    order, err := oc.orders.Get(c.Context(), c.Actor(), id)
//	    if err != nil {
//	        c.Fail(err)
//	        return
//	    }
//	    c.Success(order)
//	}
//
//	router.Get("/orders/{id}", "orders.show", ctx.Wrap(oc.Show))
package ctx

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/gebeta-app/gebeta/pkg/apperror"
	"github.com/gebeta-app/gebeta/pkg/middleware"
	"github.com/gebeta-app/gebeta/pkg/orm"
	"github.com/gebeta-app/gebeta/pkg/rbac"
	"github.com/gebeta-app/gebeta/pkg/response"
)

// HandlerFunc is the context-aware handler signature.
type HandlerFunc func(c *Context)

// Wrap converts a HandlerFunc to a standard http.HandlerFunc.
func Wrap(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := acquire(w, r)
		defer release(c)
		h(c)
	}
}

// ─── Context ──────────────────────────────────────────────────────────────────

// Context wraps a request/response pair.
type Context struct {
	W      http.ResponseWriter
	R      *http.Request
	mu     sync.RWMutex
	store  map[string]any
	status int
}

var pool = sync.Pool{
	New: func() any { return &Context{store: make(map[string]any)} },
}

func acquire(w http.ResponseWriter, r *http.Request) *Context {
	c := pool.Get().(*Context)
	c.W = w
	c.R = r
	c.status = 0
	for k := range c.store {
		delete(c.store, k)
	}
	return c
}

func release(c *Context) {
	c.W = nil
	c.R = nil
	pool.Put(c)
}

// ─── Request helpers ──────────────────────────────────────────────────────────

// Param returns a URL path parameter ("/orders/{id}" → c.Param("id")).
func (c *Context) Param(key string) string {
	return chi.URLParam(c.R, key)
}

// ParamUint parses a numeric path parameter. On failure it answers 400 and
// returns false.
func (c *Context) ParamUint(key string) (uint, bool) {
	n, err := strconv.ParseUint(c.Param(key), 10, 64)
	if err != nil || n == 0 {
		c.Fail(apperror.Validation("Invalid %s", key))
		return 0, false
	}
	return uint(n), true
}

// Query returns a query-string value, or "".
func (c *Context) Query(key string) string {
	return c.R.URL.Query().Get(key)
}

// DefaultQuery returns a query-string value, or def if it is empty.
func (c *Context) DefaultQuery(key, def string) string {
	if v := c.Query(key); v != "" {
		return v
	}
	return def
}

// QueryInt parses an integer query value, falling back to def.
func (c *Context) QueryInt(key string, def int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	return n
}

// QueryUint parses an id-like query value; 0 when absent or malformed.
func (c *Context) QueryUint(key string) uint {
	n, _ := strconv.ParseUint(c.Query(key), 10, 64)
	return uint(n)
}

// QueryBool is true for "true" or "1".
func (c *Context) QueryBool(key string) bool {
	v := strings.ToLower(c.Query(key))
	return v == "true" || v == "1"
}

// Page reads ?page= and ?limit= and clamps them.
func (c *Context) Page() (page, limit int) {
	return orm.Normalize(c.QueryInt("page", 1), c.QueryInt("limit", orm.DefaultPageSize))
}

// Header returns the value of a request header.
func (c *Context) Header(key string) string {
	return c.R.Header.Get(key)
}

// ClientIP returns the caller's address.
func (c *Context) ClientIP() string { return middleware.ClientIP(c.R) }

// Context returns the underlying request context.
func (c *Context) Context() context.Context { return c.R.Context() }

// ─── Authenticated actor ─────────────────────────────────────────────────────

// UserID is the authenticated user id, or 0 for anonymous requests.
func (c *Context) UserID() uint {
	id, _ := middleware.UserIDFromCtx(c.R)
	return id
}

// Role is the authenticated role, or "".
func (c *Context) Role() string {
	role, _ := middleware.RoleFromCtx(c.R)
	return role
}

// Actor bundles UserID and Role for service calls.
func (c *Context) Actor() rbac.Actor {
	return rbac.Actor{ID: c.UserID(), Role: c.Role()}
}

// ─── Per-request store ────────────────────────────────────────────────────────

// Set stores a value in the per-request store.
func (c *Context) Set(key string, val any) {
	c.mu.Lock()
	c.store[key] = val
	c.mu.Unlock()
}

// Get retrieves a value from the per-request store.
func (c *Context) Get(key string) (any, bool) {
	c.mu.RLock()
	v, ok := c.store[key]
	c.mu.RUnlock()
	return v, ok
}

// ─── Binding ──────────────────────────────────────────────────────────────────

// BindJSON decodes the JSON body into dest and validates it. On failure the
// 400 response is already written and false is returned.
//
//	var in CreateOrderInput
//	if !c.BindJSON(&in) {
//	    return
//	}
func (c *Context) BindJSON(dest any) bool {
	errs, err := decodeJSON(c.W, c.R, dest)
	if err != nil {
		c.Error(http.StatusBadRequest, err.Error())
		return false
	}
	if len(errs) > 0 {
		c.ValidationError(errs)
		return false
	}
	return true
}

// ─── Response helpers ─────────────────────────────────────────────────────────

// JSON writes v as-is with the given status code.
func (c *Context) JSON(code int, v any) {
	c.status = code
	response.JSON(c.W, code, v)
}

// Success sends {"status":"success","data":...}.
func (c *Context) Success(data any) {
	c.status = http.StatusOK
	response.Success(c.W, data)
}

// Created sends a 201 success envelope.
func (c *Context) Created(data any) {
	c.status = http.StatusCreated
	response.Created(c.W, data)
}

// Message sends a success envelope with only a message.
func (c *Context) Message(msg string) {
	c.status = http.StatusOK
	response.Message(c.W, msg)
}

// Paginated sends one page of items with its pagination metadata.
func (c *Context) Paginated(items any, results int, p orm.Pagination) {
	c.status = http.StatusOK
	response.Paginated(c.W, items, results, p)
}

// Error sends an error envelope with the given status and message.
func (c *Context) Error(code int, message string) {
	c.status = code
	response.Error(c.W, code, message)
}

// ValidationError sends a 400 with field-level errors.
func (c *Context) ValidationError(errs map[string]string) {
	c.status = http.StatusBadRequest
	response.ValidationError(c.W, errs)
}

// Fail maps a service error to its status and envelope.
func (c *Context) Fail(err error) {
	c.status = apperror.HTTPStatus(err)
	response.Fail(c.W, c.R, err)
}

// WrittenStatus returns the status code written so far, or 0.
func (c *Context) WrittenStatus() int { return c.status }
