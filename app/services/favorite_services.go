package services

import (
	"context"
	"errors"

	"github.com/gebeta-app/gebeta/app/models"
	"github.com/gebeta-app/gebeta/app/repositories"
	"github.com/gebeta-app/gebeta/pkg/apperror"
	"github.com/gebeta-app/gebeta/pkg/orm"
	"github.com/gebeta-app/gebeta/pkg/rbac"
)

type FavoriteInput struct {
	Type   string `json:"type" validate:"required,in=recipe|restaurant|menu"`
	ItemID uint   `json:"itemId" validate:"required"`
}

type FavoriteService struct {
	favorites   repositories.FavoriteRepository
	recipes     repositories.RecipeRepository
	restaurants repositories.RestaurantRepository
	menu        repositories.MenuItemRepository
}

func NewFavoriteService(store *repositories.Store) *FavoriteService {
	return &FavoriteService{
		favorites:   store.Favorites,
		recipes:     store.Recipes,
		restaurants: store.Restaurants,
		menu:        store.MenuItems,
	}
}

// Add bookmarks an existing item for the caller.
func (s *FavoriteService) Add(ctx context.Context, actor rbac.Actor, in FavoriteInput) (*models.Favorite, error) {
	if actor.IsAnonymous() {
		return nil, apperror.Authentication("Authentication required")
	}
	if !models.ValidFavoriteType(in.Type) {
		return nil, apperror.Validation("Invalid favorite type: %s", in.Type)
	}
	if err := s.exists(ctx, in.Type, in.ItemID); err != nil {
		return nil, err
	}

	f := &models.Favorite{UserID: actor.ID, Type: in.Type, ItemID: in.ItemID}
	if err := s.favorites.Create(ctx, f); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, apperror.Validation("Already favorited")
		}
		return nil, apperror.Internal(err)
	}
	return f, nil
}

func (s *FavoriteService) exists(ctx context.Context, typ string, id uint) error {
	var err error
	switch typ {
	case models.FavoriteRecipe:
		_, err = s.recipes.FindByID(ctx, id)
		return lookupIf(err, "Recipe")
	case models.FavoriteRestaurant:
		_, err = s.restaurants.FindByID(ctx, id)
		return lookupIf(err, "Restaurant")
	default:
		_, err = s.menu.FindByID(ctx, id)
		return lookupIf(err, "Menu item")
	}
}

func lookupIf(err error, what string) error {
	if err == nil {
		return nil
	}
	return lookup(err, what)
}

func (s *FavoriteService) List(ctx context.Context, actor rbac.Actor, typ string, page, limit int) ([]models.Favorite, orm.Pagination, error) {
	if typ != "" && !models.ValidFavoriteType(typ) {
		return nil, orm.Pagination{}, apperror.Validation("Invalid favorite type: %s", typ)
	}
	rows, p, err := s.favorites.List(ctx, actor.ID, typ, page, limit)
	if err != nil {
		return nil, orm.Pagination{}, apperror.Internal(err)
	}
	return rows, p, nil
}

// Remove deletes one of the caller's favorites. Another user's favorite is
// reported as not found.
func (s *FavoriteService) Remove(ctx context.Context, actor rbac.Actor, id uint) error {
	if err := s.favorites.Delete(ctx, id, actor.ID); err != nil {
		return lookup(err, "Favorite")
	}
	return nil
}
