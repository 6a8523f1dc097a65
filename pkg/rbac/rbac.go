// Package rbac provides role gates for routes. Resource-level checks (owner
// of this restaurant, author of this review) live in the services.
package rbac

import (
	"net/http"

	"github.com/gebeta-app/gebeta/pkg/middleware"
	"github.com/gebeta-app/gebeta/pkg/response"
)

const (
	RoleUser            = "user"
	RoleRestaurantOwner = "restaurant_owner"
	RoleAdmin           = "admin"
)

// HasRole allows only users with one of the given roles. AuthMiddleware must
// run first.
func HasRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := middleware.RoleFromCtx(r)
			if !ok {
				response.Unauthorized(w, "Authentication required")
				return
			}
			if !allowed[role] {
				response.Forbidden(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Admin is HasRole(RoleAdmin).
func Admin(next http.Handler) http.Handler { return HasRole(RoleAdmin)(next) }

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	switch role {
	case RoleUser, RoleRestaurantOwner, RoleAdmin:
		return true
	}
	return false
}

// Actor is the authenticated caller as seen by services. The zero value is
// an anonymous caller.
type Actor struct {
	ID   uint
	Role string
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

func (a Actor) IsAnonymous() bool { return a.ID == 0 }

// Is reports whether the actor is user id.
func (a Actor) Is(id uint) bool { return a.ID != 0 && a.ID == id }

// OwnsOrAdmin reports whether the actor is ownerID or an admin.
func (a Actor) OwnsOrAdmin(ownerID uint) bool { return a.IsAdmin() || a.Is(ownerID) }
