package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/gebeta-app/gebeta/app/models"
	"github.com/gebeta-app/gebeta/pkg/orm"
)

type menuItemRepository struct{ base }

func NewMenuItemRepository(db *gorm.DB) MenuItemRepository {
	return &menuItemRepository{base{db}}
}

func (r *menuItemRepository) Create(ctx context.Context, m *models.MenuItem) error {
	return translate(r.q(ctx).Create(m))
}

func (r *menuItemRepository) Update(ctx context.Context, m *models.MenuItem) error {
	return translate(r.q(ctx).Save(m))
}

func (r *menuItemRepository) Delete(ctx context.Context, id uint) error {
	n, err := r.q(ctx).Where("id = ?", id).Delete(&models.MenuItem{})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *menuItemRepository) FindByID(ctx context.Context, id uint) (*models.MenuItem, error) {
	var m models.MenuItem
	if err := r.q(ctx).Where("id = ?", id).First(&m); err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

func (r *menuItemRepository) FindByIDs(ctx context.Context, ids []uint) ([]models.MenuItem, error) {
	var out []models.MenuItem
	if len(ids) == 0 {
		return out, nil
	}
	err := r.q(ctx).Where("id IN ?", ids).Get(&out)
	return out, err
}

func (r *menuItemRepository) ListByRestaurant(ctx context.Context, restaurantID uint) ([]models.MenuItem, error) {
	var out []models.MenuItem
	err := r.q(ctx).Where("restaurant_id = ?", restaurantID).Order("category, name").Get(&out)
	return out, err
}

func (r *menuItemRepository) ReplaceMenu(ctx context.Context, restaurantID uint, items []models.MenuItem) ([]models.MenuItem, error) {
	err := orm.Transaction(ctx, r.db, func(tx *gorm.DB) error {
		if err := tx.Where("restaurant_id = ?", restaurantID).Delete(&models.MenuItem{}).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		for i := range items {
			items[i].ID = 0
			items[i].RestaurantID = restaurantID
		}
		return translate(tx.Create(&items).Error)
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}
