package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/gebeta-app/gebeta/app/models"
	"github.com/gebeta-app/gebeta/pkg/orm"
)

type favoriteRepository struct{ base }

func NewFavoriteRepository(db *gorm.DB) FavoriteRepository {
	return &favoriteRepository{base{db}}
}

func (r *favoriteRepository) Create(ctx context.Context, f *models.Favorite) error {
	return translate(r.q(ctx).Create(f))
}

func (r *favoriteRepository) List(ctx context.Context, userID uint, typ string, page, limit int) ([]models.Favorite, orm.Pagination, error) {
	q := r.q(ctx).Model(&models.Favorite{}).Where("user_id = ?", userID)
	if typ != "" {
		q = q.Where("type = ?", typ)
	}
	var out []models.Favorite
	p, err := q.Order("id DESC").GetWithPagination(&out, page, limit)
	return out, p, err
}

// Delete removes the favorite only when it belongs to userID.
func (r *favoriteRepository) Delete(ctx context.Context, id, userID uint) error {
	n, err := r.q(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.Favorite{})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
