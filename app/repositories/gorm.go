package repositories

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/gebeta-app/gebeta/pkg/orm"
)

// NewGormStore wires every repository to db.
func NewGormStore(db *gorm.DB) *Store {
	return &Store{
		Users:         NewUserRepository(db),
		Restaurants:   NewRestaurantRepository(db),
		MenuItems:     NewMenuItemRepository(db),
		Orders:        NewOrderRepository(db),
		Reviews:       NewReviewRepository(db),
		Recipes:       NewRecipeRepository(db),
		Favorites:     NewFavoriteRepository(db),
		Notifications: NewNotificationRepository(db),
	}
}

// base is embedded by every gorm repository.
type base struct {
	db *gorm.DB
}

func (b base) q(ctx context.Context) *orm.Query {
	return orm.Use(b.db).WithContext(ctx)
}

// translate maps driver errors onto the package sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key") || strings.Contains(msg, "duplicate entry") {
		return ErrDuplicate
	}
	return err
}

func like(s string) string {
	return "%" + strings.ToLower(s) + "%"
}
