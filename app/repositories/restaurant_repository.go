package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/gebeta-app/gebeta/app/models"
	"github.com/gebeta-app/gebeta/pkg/orm"
)

type restaurantRepository struct{ base }

func NewRestaurantRepository(db *gorm.DB) RestaurantRepository {
	return &restaurantRepository{base{db}}
}

func (r *restaurantRepository) Create(ctx context.Context, rest *models.Restaurant) error {
	return translate(r.q(ctx).Create(rest))
}

// Update saves the editable columns. The rating aggregate is never written
// here.
func (r *restaurantRepository) Update(ctx context.Context, rest *models.Restaurant) error {
	return translate(r.q(ctx).Raw().Omit("average_rating", "review_count", "created_at").Save(rest).Error)
}

// Delete removes the restaurant with its menu and reviews. Orders are kept.
func (r *restaurantRepository) Delete(ctx context.Context, id uint) error {
	return orm.Transaction(ctx, r.db, func(tx *gorm.DB) error {
		res := tx.Delete(&models.Restaurant{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		if err := tx.Where("restaurant_id = ?", id).Delete(&models.MenuItem{}).Error; err != nil {
			return err
		}
		var reviewIDs []uint
		if err := tx.Model(&models.Review{}).Where("restaurant_id = ?", id).Pluck("id", &reviewIDs).Error; err != nil {
			return err
		}
		if len(reviewIDs) > 0 {
			if err := tx.Where("review_id IN ?", reviewIDs).Delete(&models.ReviewHelpfulVote{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", reviewIDs).Delete(&models.Review{}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *restaurantRepository) FindByID(ctx context.Context, id uint) (*models.Restaurant, error) {
	var rest models.Restaurant
	if err := r.q(ctx).Where("id = ?", id).First(&rest); err != nil {
		return nil, translate(err)
	}
	return &rest, nil
}

func (r *restaurantRepository) List(ctx context.Context, f RestaurantFilter) ([]models.Restaurant, orm.Pagination, error) {
	q := r.q(ctx).Model(&models.Restaurant{})
	if f.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}
	if f.OwnerID != 0 {
		q = q.Where("owner_id = ?", f.OwnerID)
	}
	if f.City != "" {
		q = q.Where("LOWER(address_city) = LOWER(?)", f.City)
	}
	if f.Search != "" {
		q = q.Where("LOWER(name) LIKE ?", like(f.Search))
	}
	if f.Cuisine != "" {
		// cuisine_types is a JSON array of strings.
		q = q.Where("LOWER(cuisine_types) LIKE ?", like(`"`+f.Cuisine+`"`))
	}

	var out []models.Restaurant
	p, err := q.Order("id DESC").GetWithPagination(&out, f.Page, f.Limit)
	return out, p, err
}

func (r *restaurantRepository) IDsByOwner(ctx context.Context, ownerID uint) ([]uint, error) {
	var ids []uint
	err := r.q(ctx).Model(&models.Restaurant{}).Where("owner_id = ?", ownerID).Pluck("id", &ids)
	return ids, err
}

func (r *restaurantRepository) All(ctx context.Context) ([]models.Restaurant, error) {
	var out []models.Restaurant
	err := r.q(ctx).Model(&models.Restaurant{}).Order("id").Get(&out)
	return out, err
}

func (r *restaurantRepository) RecomputeRating(ctx context.Context, id uint, fn RatingFunc) (*models.Restaurant, error) {
	var rest models.Restaurant
	err := orm.Transaction(ctx, r.db, func(tx *gorm.DB) error {
		if err := orm.Use(tx).Where("id = ?", id).First(&rest); err != nil {
			return translate(err)
		}

		var ratings []int
		if err := orm.Use(tx).Model(&models.Review{}).
			Where("restaurant_id = ? AND status = ?", id, models.ReviewApproved).
			Pluck("rating", &ratings); err != nil {
			return err
		}

		rest.AverageRating, rest.ReviewCount = fn(ratings)
		_, err := orm.Use(tx).Model(&models.Restaurant{}).Where("id = ?", id).Updates(map[string]any{
			"average_rating": rest.AverageRating,
			"review_count":   rest.ReviewCount,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return &rest, nil
}
