package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/gebeta-app/gebeta/app/models"
	"github.com/gebeta-app/gebeta/pkg/orm"
)

type reviewRepository struct{ base }

func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{base{db}}
}

func (r *reviewRepository) Create(ctx context.Context, rev *models.Review) error {
	return translate(r.q(ctx).Create(rev))
}

func (r *reviewRepository) Update(ctx context.Context, rev *models.Review) error {
	return translate(r.q(ctx).Raw().Omit("helpful_count", "created_at").Save(rev).Error)
}

func (r *reviewRepository) Delete(ctx context.Context, id uint) error {
	return orm.Transaction(ctx, r.db, func(tx *gorm.DB) error {
		res := tx.Delete(&models.Review{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Where("review_id = ?", id).Delete(&models.ReviewHelpfulVote{}).Error
	})
}

func (r *reviewRepository) FindByID(ctx context.Context, id uint) (*models.Review, error) {
	var rev models.Review
	if err := r.q(ctx).Where("id = ?", id).First(&rev); err != nil {
		return nil, translate(err)
	}
	return &rev, nil
}

func (r *reviewRepository) List(ctx context.Context, f ReviewFilter) ([]models.Review, orm.Pagination, error) {
	q := r.q(ctx).Model(&models.Review{})
	if f.RestaurantID != 0 {
		q = q.Where("restaurant_id = ?", f.RestaurantID)
	}
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.MinRating > 0 {
		q = q.Where("rating >= ?", f.MinRating)
	}

	var out []models.Review
	p, err := q.Order(reviewOrder(f.Sort)).GetWithPagination(&out, f.Page, f.Limit)
	return out, p, err
}

func reviewOrder(sort string) string {
	switch sort {
	case SortOldest:
		return "created_at ASC, id ASC"
	case SortHighest:
		return "rating DESC, id DESC"
	case SortLowest:
		return "rating ASC, id DESC"
	case SortMostHelpful:
		return "helpful_count DESC, id DESC"
	default:
		return "created_at DESC, id DESC"
	}
}

func (r *reviewRepository) ToggleHelpful(ctx context.Context, reviewID, userID uint) (int, bool, error) {
	var (
		count int64
		voted bool
	)
	err := orm.Transaction(ctx, r.db, func(tx *gorm.DB) error {
		if err := tx.Select("id").First(&models.Review{}, reviewID).Error; err != nil {
			return translate(err)
		}

		var vote models.ReviewHelpfulVote
		err := tx.Where("review_id = ? AND user_id = ?", reviewID, userID).First(&vote).Error
		switch {
		case err == nil:
			if err := tx.Delete(&vote).Error; err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := tx.Create(&models.ReviewHelpfulVote{ReviewID: reviewID, UserID: userID}).Error; err != nil {
				return translate(err)
			}
			voted = true
		default:
			return err
		}

		if err := tx.Model(&models.ReviewHelpfulVote{}).Where("review_id = ?", reviewID).Count(&count).Error; err != nil {
			return err
		}
		return tx.Model(&models.Review{}).Where("id = ?", reviewID).UpdateColumn("helpful_count", count).Error
	})
	if err != nil {
		return 0, false, err
	}
	return int(count), voted, nil
}
