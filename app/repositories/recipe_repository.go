package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gebeta-app/gebeta/app/models"
	"github.com/gebeta-app/gebeta/pkg/orm"
)

type recipeRepository struct{ base }

func NewRecipeRepository(db *gorm.DB) RecipeRepository {
	return &recipeRepository{base{db}}
}

func (r *recipeRepository) Create(ctx context.Context, rec *models.Recipe) error {
	return translate(r.q(ctx).Raw().Omit(clause.Associations).Create(rec).Error)
}

// Update saves the author-editable columns; counters and aggregates are
// maintained by their own operations.
func (r *recipeRepository) Update(ctx context.Context, rec *models.Recipe) error {
	return translate(r.q(ctx).Raw().
		Omit(clause.Associations, "likes_count", "comments_count", "average_rating", "rating_count", "created_at").
		Save(rec).Error)
}

func (r *recipeRepository) Delete(ctx context.Context, id uint) error {
	return orm.Transaction(ctx, r.db, func(tx *gorm.DB) error {
		res := tx.Delete(&models.Recipe{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		for _, m := range []any{&models.RecipeLike{}, &models.RecipeComment{}, &models.RecipeRating{}} {
			if err := tx.Where("recipe_id = ?", id).Delete(m).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *recipeRepository) FindByID(ctx context.Context, id uint) (*models.Recipe, error) {
	var rec models.Recipe
	err := r.q(ctx).
		Preload("Comments", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("id = ?", id).
		First(&rec)
	if err != nil {
		return nil, translate(err)
	}
	return &rec, nil
}

func (r *recipeRepository) List(ctx context.Context, f RecipeFilter) ([]models.Recipe, orm.Pagination, error) {
	q := r.q(ctx).Model(&models.Recipe{})
	if f.Cuisine != "" {
		q = q.Where("LOWER(cuisine) = LOWER(?)", f.Cuisine)
	}
	if f.Difficulty != "" {
		q = q.Where("difficulty = ?", f.Difficulty)
	}
	if f.AuthorID != 0 {
		q = q.Where("author_id = ?", f.AuthorID)
	}
	if f.MealType != "" {
		q = q.Where("meal_types LIKE ?", "%\""+f.MealType+"\"%")
	}
	if f.Search != "" {
		q = q.Where("(LOWER(title) LIKE ? OR LOWER(description) LIKE ?)", like(f.Search), like(f.Search))
	}

	var out []models.Recipe
	p, err := q.Order("id DESC").GetWithPagination(&out, f.Page, f.Limit)
	return out, p, err
}

func (r *recipeRepository) ToggleLike(ctx context.Context, recipeID, userID uint) (bool, int, error) {
	var (
		liked bool
		count int64
	)
	err := orm.Transaction(ctx, r.db, func(tx *gorm.DB) error {
		if err := tx.Select("id").First(&models.Recipe{}, recipeID).Error; err != nil {
			return translate(err)
		}

		var existing models.RecipeLike
		err := tx.Where("recipe_id = ? AND user_id = ?", recipeID, userID).First(&existing).Error
		switch {
		case err == nil:
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := tx.Create(&models.RecipeLike{RecipeID: recipeID, UserID: userID}).Error; err != nil {
				return translate(err)
			}
			liked = true
		default:
			return err
		}

		if err := tx.Model(&models.RecipeLike{}).Where("recipe_id = ?", recipeID).Count(&count).Error; err != nil {
			return err
		}
		return tx.Model(&models.Recipe{}).Where("id = ?", recipeID).UpdateColumn("likes_count", count).Error
	})
	if err != nil {
		return false, 0, err
	}
	return liked, int(count), nil
}

func (r *recipeRepository) AddComment(ctx context.Context, c *models.RecipeComment) error {
	return orm.Transaction(ctx, r.db, func(tx *gorm.DB) error {
		if err := tx.Select("id").First(&models.Recipe{}, c.RecipeID).Error; err != nil {
			return translate(err)
		}
		if err := tx.Create(c).Error; err != nil {
			return err
		}
		return tx.Model(&models.Recipe{}).Where("id = ?", c.RecipeID).
			UpdateColumn("comments_count", gorm.Expr("comments_count + 1")).Error
	})
}

// UpsertRating inserts the user's rating or overwrites the existing one.
func (r *recipeRepository) UpsertRating(ctx context.Context, rating *models.RecipeRating) error {
	return orm.Transaction(ctx, r.db, func(tx *gorm.DB) error {
		var existing models.RecipeRating
		err := tx.Where("recipe_id = ? AND user_id = ?", rating.RecipeID, rating.UserID).First(&existing).Error
		switch {
		case err == nil:
			existing.Rating = rating.Rating
			if err := tx.Save(&existing).Error; err != nil {
				return err
			}
			*rating = existing
			return nil
		case errors.Is(err, gorm.ErrRecordNotFound):
			return translate(tx.Create(rating).Error)
		default:
			return err
		}
	})
}

func (r *recipeRepository) DeleteRating(ctx context.Context, recipeID, userID uint) error {
	n, err := r.q(ctx).Where("recipe_id = ? AND user_id = ?", recipeID, userID).Delete(&models.RecipeRating{})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *recipeRepository) RecomputeRating(ctx context.Context, id uint, fn RatingFunc) (*models.Recipe, error) {
	var rec models.Recipe
	err := orm.Transaction(ctx, r.db, func(tx *gorm.DB) error {
		if err := orm.Use(tx).Where("id = ?", id).First(&rec); err != nil {
			return translate(err)
		}

		var ratings []int
		if err := orm.Use(tx).Model(&models.RecipeRating{}).Where("recipe_id = ?", id).Pluck("rating", &ratings); err != nil {
			return err
		}

		rec.AverageRating, rec.RatingCount = fn(ratings)
		_, err := orm.Use(tx).Model(&models.Recipe{}).Where("id = ?", id).Updates(map[string]any{
			"average_rating": rec.AverageRating,
			"rating_count":   rec.RatingCount,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
