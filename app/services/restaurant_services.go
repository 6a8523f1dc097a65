package services

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/gebeta-app/gebeta/app/models"
	"github.com/gebeta-app/gebeta/app/repositories"
	"github.com/gebeta-app/gebeta/config"
	"github.com/gebeta-app/gebeta/pkg/apperror"
	"github.com/gebeta-app/gebeta/pkg/cache"
	"github.com/gebeta-app/gebeta/pkg/orm"
	"github.com/gebeta-app/gebeta/pkg/rbac"
)

type RestaurantInput struct {
	Name                     string                `json:"name" validate:"required,min=2,max=100"`
	Description              string                `json:"description" validate:"nullable,max=1000"`
	Address                  models.Address        `json:"address"`
	Phone                    string                `json:"phone" validate:"required,phone"`
	Email                    string                `json:"email" validate:"nullable,email"`
	Website                  string                `json:"website" validate:"nullable,max=255"`
	CuisineTypes             []string              `json:"cuisineTypes" validate:"required,min=1"`
	OpeningHours             []models.OpeningHours `json:"openingHours"`
	DeliveryFee              decimal.Decimal       `json:"deliveryFee"`
	MinimumOrder             decimal.Decimal       `json:"minimumOrder"`
	EstimatedDeliveryMinutes int                   `json:"estimatedDeliveryTime" validate:"nullable,gte=0,lte=300"`
	IsActive                 *bool                 `json:"isActive"`
}

type MenuItemInput struct {
	RestaurantID       uint            `json:"restaurant"`
	Name               string          `json:"name" validate:"required,min=1,max=100"`
	Description        string          `json:"description" validate:"nullable,max=500"`
	Price              decimal.Decimal `json:"price"`
	Category           string          `json:"category" validate:"required,in=appetizer|main|dessert|beverage|side"`
	IsVegetarian       bool            `json:"isVegetarian"`
	IsVegan            bool            `json:"isVegan"`
	IsGlutenFree       bool            `json:"isGlutenFree"`
	IsSpicy            bool            `json:"isSpicy"`
	IsAvailable        *bool           `json:"isAvailable"`
	PreparationMinutes int             `json:"preparationTime" validate:"nullable,gte=0"`
}

type ReplaceMenuInput struct {
	Items []MenuItemInput `json:"menu" validate:"required,dive"`
}

type RestaurantQuery struct {
	Cuisine string
	City    string
	Search  string
	Page    int
	Limit   int
}

// RestaurantService manages restaurants and their menus. Single restaurants
// are served through Redis when it is connected.
type RestaurantService struct {
	restaurants repositories.RestaurantRepository
	menu        repositories.MenuItemRepository
}

func NewRestaurantService(store *repositories.Store) *RestaurantService {
	return &RestaurantService{restaurants: store.Restaurants, menu: store.MenuItems}
}

func (s *RestaurantService) List(ctx context.Context, q RestaurantQuery) ([]models.Restaurant, orm.Pagination, error) {
	rows, p, err := s.restaurants.List(ctx, repositories.RestaurantFilter{
		Cuisine:    strings.TrimSpace(q.Cuisine),
		City:       strings.TrimSpace(q.City),
		Search:     strings.TrimSpace(q.Search),
		ActiveOnly: true,
		Page:       q.Page,
		Limit:      q.Limit,
	})
	if err != nil {
		return nil, orm.Pagination{}, apperror.Internal(err)
	}
	return rows, p, nil
}

func (s *RestaurantService) ListByOwner(ctx context.Context, ownerID uint, page, limit int) ([]models.Restaurant, orm.Pagination, error) {
	rows, p, err := s.restaurants.List(ctx, repositories.RestaurantFilter{OwnerID: ownerID, Page: page, Limit: limit})
	if err != nil {
		return nil, orm.Pagination{}, apperror.Internal(err)
	}
	return rows, p, nil
}

func (s *RestaurantService) Get(ctx context.Context, id uint) (*models.Restaurant, error) {
	var cached models.Restaurant
	if cache.Get(RestaurantCacheKey(id), &cached) {
		return &cached, nil
	}
	rest, err := s.restaurants.FindByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "Restaurant")
	}
	_ = cache.Set(RestaurantCacheKey(id), rest, config.CacheTTL())
	return rest, nil
}

func (s *RestaurantService) Create(ctx context.Context, actor rbac.Actor, in RestaurantInput) (*models.Restaurant, error) {
	if actor.Role != rbac.RoleRestaurantOwner && !actor.IsAdmin() {
		return nil, apperror.Authorization("Only restaurant owners can create restaurants")
	}
	rest := &models.Restaurant{OwnerID: actor.ID, IsActive: true, EstimatedDeliveryMinutes: 30}
	if err := applyRestaurant(rest, in); err != nil {
		return nil, err
	}
	if err := s.restaurants.Create(ctx, rest); err != nil {
		return nil, apperror.Internal(err)
	}
	return rest, nil
}

func (s *RestaurantService) Update(ctx context.Context, actor rbac.Actor, id uint, in RestaurantInput) (*models.Restaurant, error) {
	rest, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := applyRestaurant(rest, in); err != nil {
		return nil, err
	}
	if err := s.restaurants.Update(ctx, rest); err != nil {
		return nil, apperror.Internal(err)
	}
	_ = cache.Del(RestaurantCacheKey(id))
	return rest, nil
}

func (s *RestaurantService) Delete(ctx context.Context, actor rbac.Actor, id uint) error {
	if _, err := s.owned(ctx, actor, id); err != nil {
		return err
	}
	if err := s.restaurants.Delete(ctx, id); err != nil {
		return lookup(err, "Restaurant")
	}
	_ = cache.Del(RestaurantCacheKey(id))
	return nil
}

// owned loads restaurant id and checks actor is its owner or an admin.
func (s *RestaurantService) owned(ctx context.Context, actor rbac.Actor, id uint) (*models.Restaurant, error) {
	rest, err := s.restaurants.FindByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "Restaurant")
	}
	if !actor.OwnsOrAdmin(rest.OwnerID) {
		return nil, apperror.Authorization("You do not have permission to manage this restaurant")
	}
	return rest, nil
}

func applyRestaurant(rest *models.Restaurant, in RestaurantInput) error {
	if in.DeliveryFee.IsNegative() || in.MinimumOrder.IsNegative() {
		return apperror.Validation("Fees cannot be negative")
	}
	rest.Name = strings.TrimSpace(in.Name)
	rest.Description = in.Description
	rest.Address = in.Address.WithDefaults()
	rest.Phone = in.Phone
	rest.Email = in.Email
	rest.Website = in.Website
	rest.CuisineTypes = in.CuisineTypes
	rest.OpeningHours = in.OpeningHours
	rest.DeliveryFee = in.DeliveryFee.Round(2)
	rest.MinimumOrder = in.MinimumOrder.Round(2)
	if in.EstimatedDeliveryMinutes > 0 {
		rest.EstimatedDeliveryMinutes = in.EstimatedDeliveryMinutes
	}
	if in.IsActive != nil {
		rest.IsActive = *in.IsActive
	}
	return nil
}

// ─── Menu ─────────────────────────────────────────────────────────────────────

func (s *RestaurantService) Menu(ctx context.Context, restaurantID uint) ([]models.MenuItem, error) {
	if _, err := s.restaurants.FindByID(ctx, restaurantID); err != nil {
		return nil, lookup(err, "Restaurant")
	}
	items, err := s.menu.ListByRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return items, nil
}

// ReplaceMenu swaps the whole menu of a restaurant in one transaction.
func (s *RestaurantService) ReplaceMenu(ctx context.Context, actor rbac.Actor, restaurantID uint, in ReplaceMenuInput) ([]models.MenuItem, error) {
	if _, err := s.owned(ctx, actor, restaurantID); err != nil {
		return nil, err
	}
	items := make([]models.MenuItem, len(in.Items))
	for i, it := range in.Items {
		if err := applyMenuItem(&items[i], it); err != nil {
			return nil, err
		}
	}
	out, err := s.menu.ReplaceMenu(ctx, restaurantID, items)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, apperror.Validation("Menu item names must be unique within a restaurant")
		}
		return nil, apperror.Internal(err)
	}
	return out, nil
}

func (s *RestaurantService) GetMenuItem(ctx context.Context, id uint) (*models.MenuItem, error) {
	m, err := s.menu.FindByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "Menu item")
	}
	return m, nil
}

func (s *RestaurantService) CreateMenuItem(ctx context.Context, actor rbac.Actor, in MenuItemInput) (*models.MenuItem, error) {
	if in.RestaurantID == 0 {
		return nil, apperror.Validation("Restaurant is required")
	}
	if _, err := s.owned(ctx, actor, in.RestaurantID); err != nil {
		return nil, err
	}
	m := &models.MenuItem{RestaurantID: in.RestaurantID}
	if err := applyMenuItem(m, in); err != nil {
		return nil, err
	}
	if err := s.menu.Create(ctx, m); err != nil {
		return nil, menuWriteError(err)
	}
	return m, nil
}

func (s *RestaurantService) UpdateMenuItem(ctx context.Context, actor rbac.Actor, id uint, in MenuItemInput) (*models.MenuItem, error) {
	m, err := s.menu.FindByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "Menu item")
	}
	if _, err := s.owned(ctx, actor, m.RestaurantID); err != nil {
		return nil, err
	}
	if err := applyMenuItem(m, in); err != nil {
		return nil, err
	}
	if err := s.menu.Update(ctx, m); err != nil {
		return nil, menuWriteError(err)
	}
	return m, nil
}

func (s *RestaurantService) DeleteMenuItem(ctx context.Context, actor rbac.Actor, id uint) error {
	m, err := s.menu.FindByID(ctx, id)
	if err != nil {
		return lookup(err, "Menu item")
	}
	if _, err := s.owned(ctx, actor, m.RestaurantID); err != nil {
		return err
	}
	if err := s.menu.Delete(ctx, id); err != nil {
		return lookup(err, "Menu item")
	}
	return nil
}

func applyMenuItem(m *models.MenuItem, in MenuItemInput) error {
	if in.Price.IsNegative() {
		return apperror.Validation("Price of %s cannot be negative", in.Name)
	}
	m.Name = strings.TrimSpace(in.Name)
	m.Description = in.Description
	m.Price = in.Price.Round(2)
	m.Category = in.Category
	m.IsVegetarian = in.IsVegetarian
	m.IsVegan = in.IsVegan
	m.IsGlutenFree = in.IsGlutenFree
	m.IsSpicy = in.IsSpicy
	m.PreparationMinutes = in.PreparationMinutes
	m.IsAvailable = in.IsAvailable == nil || *in.IsAvailable
	return nil
}

func menuWriteError(err error) error {
	if errors.Is(err, repositories.ErrDuplicate) {
		return apperror.Validation("A menu item with this name already exists")
	}
	return apperror.Internal(err)
}
