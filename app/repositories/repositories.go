// Package repositories defines the persistence contracts used by services and
// their gorm implementations. app/repositories/memory provides an in-process
// implementation of the same contracts.
package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/gebeta-app/gebeta/app/models"
	"github.com/gebeta-app/gebeta/pkg/orm"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a write violates a unique constraint.
	ErrDuplicate = errors.New("duplicate record")
	// ErrStale is returned by versioned writes whose expected version no
	// longer matches the stored row.
	ErrStale = errors.New("stale record version")
)

// RatingFunc turns the qualifying ratings into (average, count). The rating
// service supplies it; repositories run it inside the write transaction.
type RatingFunc func(ratings []int) (average *float64, count int)

// ─── Filters ──────────────────────────────────────────────────────────────────

type UserFilter struct {
	Search     string // name or email
	Name       string // name only
	Role       string
	ActiveOnly bool
	Page       int
	Limit      int
}

type RestaurantFilter struct {
	Cuisine    string
	City       string
	Search     string
	OwnerID    uint
	ActiveOnly bool
	Page       int
	Limit      int
}

type OrderFilter struct {
	UserID        uint
	RestaurantIDs []uint // match any; nil means no restaurant restriction
	Status        string
	Page          int
	Limit         int
}

type ReviewFilter struct {
	RestaurantID uint
	UserID       uint
	Status       string
	MinRating    int
	Sort         string // newest, oldest, highest, lowest, mostHelpful
	Page         int
	Limit        int
}

type RecipeFilter struct {
	Cuisine    string
	Difficulty string
	MealType   string
	AuthorID   uint
	Search     string
	Page       int
	Limit      int
}

const (
	SortNewest      = "newest"
	SortOldest      = "oldest"
	SortHighest     = "highest"
	SortLowest      = "lowest"
	SortMostHelpful = "mostHelpful"
)

// ─── Contracts ────────────────────────────────────────────────────────────────

type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	Update(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id uint) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByPhone(ctx context.Context, phone string) (*models.User, error)
	List(ctx context.Context, f UserFilter) ([]models.User, orm.Pagination, error)
	Delete(ctx context.Context, id uint) error
	All(ctx context.Context) ([]models.User, error)
}

type RestaurantRepository interface {
	Create(ctx context.Context, r *models.Restaurant) error
	Update(ctx context.Context, r *models.Restaurant) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*models.Restaurant, error)
	List(ctx context.Context, f RestaurantFilter) ([]models.Restaurant, orm.Pagination, error)
	IDsByOwner(ctx context.Context, ownerID uint) ([]uint, error)
	All(ctx context.Context) ([]models.Restaurant, error)
	// RecomputeRating aggregates the approved review ratings and stores the
	// result on the restaurant in one transaction.
	RecomputeRating(ctx context.Context, id uint, fn RatingFunc) (*models.Restaurant, error)
}

type MenuItemRepository interface {
	Create(ctx context.Context, m *models.MenuItem) error
	Update(ctx context.Context, m *models.MenuItem) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*models.MenuItem, error)
	FindByIDs(ctx context.Context, ids []uint) ([]models.MenuItem, error)
	ListByRestaurant(ctx context.Context, restaurantID uint) ([]models.MenuItem, error)
	// ReplaceMenu deletes the restaurant's items and inserts items atomically.
	ReplaceMenu(ctx context.Context, restaurantID uint, items []models.MenuItem) ([]models.MenuItem, error)
}

type OrderRepository interface {
	Create(ctx context.Context, o *models.Order) error
	FindByID(ctx context.Context, id uint) (*models.Order, error)
	List(ctx context.Context, f OrderFilter) ([]models.Order, orm.Pagination, error)
	// UpdateVersioned writes o if the stored version equals o.Version, and
	// bumps the version. Returns ErrStale otherwise.
	UpdateVersioned(ctx context.Context, o *models.Order) error
	All(ctx context.Context) ([]models.Order, error)
}

type ReviewRepository interface {
	Create(ctx context.Context, r *models.Review) error
	Update(ctx context.Context, r *models.Review) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*models.Review, error)
	List(ctx context.Context, f ReviewFilter) ([]models.Review, orm.Pagination, error)
	// ToggleHelpful adds or removes userID's vote and returns the new count.
	ToggleHelpful(ctx context.Context, reviewID, userID uint) (count int, voted bool, err error)
}

type RecipeRepository interface {
	Create(ctx context.Context, r *models.Recipe) error
	Update(ctx context.Context, r *models.Recipe) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*models.Recipe, error)
	List(ctx context.Context, f RecipeFilter) ([]models.Recipe, orm.Pagination, error)
	ToggleLike(ctx context.Context, recipeID, userID uint) (liked bool, count int, err error)
	AddComment(ctx context.Context, c *models.RecipeComment) error
	UpsertRating(ctx context.Context, r *models.RecipeRating) error
	DeleteRating(ctx context.Context, recipeID, userID uint) error
	// RecomputeRating aggregates every rating of the recipe and stores the
	// result in one transaction.
	RecomputeRating(ctx context.Context, id uint, fn RatingFunc) (*models.Recipe, error)
}

type FavoriteRepository interface {
	Create(ctx context.Context, f *models.Favorite) error
	List(ctx context.Context, userID uint, typ string, page, limit int) ([]models.Favorite, orm.Pagination, error)
	Delete(ctx context.Context, id, userID uint) error
}

type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	List(ctx context.Context, userID uint, unreadOnly bool, page, limit int) ([]models.Notification, orm.Pagination, error)
	UnreadCount(ctx context.Context, userID uint) (int64, error)
	MarkRead(ctx context.Context, id, userID uint, at time.Time) (*models.Notification, error)
	MarkAllRead(ctx context.Context, userID uint, at time.Time) (int64, error)
	// Delete removes one of userID's notifications.
	Delete(ctx context.Context, id, userID uint) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Store bundles every repository. Services take the ones they need.
type Store struct {
	Users         UserRepository
	Restaurants   RestaurantRepository
	MenuItems     MenuItemRepository
	Orders        OrderRepository
	Reviews       ReviewRepository
	Recipes       RecipeRepository
	Favorites     FavoriteRepository
	Notifications NotificationRepository
}
