package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/gebeta-app/gebeta/app/models"
	"github.com/gebeta-app/gebeta/pkg/orm"
)

type userRepository struct{ base }

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{base{db}}
}

func (r *userRepository) Create(ctx context.Context, u *models.User) error {
	return translate(r.q(ctx).Create(u))
}

func (r *userRepository) Update(ctx context.Context, u *models.User) error {
	return translate(r.q(ctx).Save(u))
}

func (r *userRepository) FindByID(ctx context.Context, id uint) (*models.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.first(ctx, "LOWER(email) = LOWER(?)", email)
}

func (r *userRepository) FindByPhone(ctx context.Context, phone string) (*models.User, error) {
	return r.first(ctx, "phone_number = ?", phone)
}

func (r *userRepository) List(ctx context.Context, f UserFilter) ([]models.User, orm.Pagination, error) {
	q := r.q(ctx).Model(&models.User{})
	if f.Search != "" {
		q = q.Where("(LOWER(name) LIKE ? OR LOWER(email) LIKE ?)", like(f.Search), like(f.Search))
	}
	if f.Name != "" {
		q = q.Where("LOWER(name) LIKE ?", like(f.Name))
	}
	if f.Role != "" {
		q = q.Where("role = ?", f.Role)
	}
	if f.ActiveOnly {
		q = q.Where("deactivated_at IS NULL")
	}

	var out []models.User
	p, err := q.Order("id DESC").GetWithPagination(&out, f.Page, f.Limit)
	return out, p, err
}

func (r *userRepository) Delete(ctx context.Context, id uint) error {
	n, err := r.q(ctx).Where("id = ?", id).Delete(&models.User{})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepository) All(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := r.q(ctx).Model(&models.User{}).Order("id").Get(&users)
	return users, err
}

func (r *userRepository) first(ctx context.Context, query string, args ...any) (*models.User, error) {
	var u models.User
	if err := r.q(ctx).Where(query, args...).First(&u); err != nil {
		return nil, translate(err)
	}
	return &u, nil
}
