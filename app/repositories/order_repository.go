package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/gebeta-app/gebeta/app/models"
	"github.com/gebeta-app/gebeta/pkg/orm"
)

type orderRepository struct{ base }

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{base{db}}
}

// Create inserts the order and its items in one statement batch.
func (r *orderRepository) Create(ctx context.Context, o *models.Order) error {
	if o.Version == 0 {
		o.Version = 1
	}
	return translate(r.q(ctx).Create(o))
}

func (r *orderRepository) FindByID(ctx context.Context, id uint) (*models.Order, error) {
	var o models.Order
	if err := r.q(ctx).Preload("Items").Where("id = ?", id).First(&o); err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

func (r *orderRepository) List(ctx context.Context, f OrderFilter) ([]models.Order, orm.Pagination, error) {
	q := r.q(ctx).Model(&models.Order{})
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.RestaurantIDs != nil {
		if len(f.RestaurantIDs) == 0 {
			return []models.Order{}, orm.NewPagination(f.Page, f.Limit, 0), nil
		}
		q = q.Where("restaurant_id IN ?", f.RestaurantIDs)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	var out []models.Order
	p, err := q.Preload("Items").Order("id DESC").GetWithPagination(&out, f.Page, f.Limit)
	return out, p, err
}

// UpdateVersioned writes the mutable columns guarded by the version column.
func (r *orderRepository) UpdateVersioned(ctx context.Context, o *models.Order) error {
	expected := o.Version
	now := time.Now()

	n, err := r.q(ctx).Model(&models.Order{}).
		Where("id = ? AND version = ?", o.ID, expected).
		Updates(map[string]any{
			"status":                  o.Status,
			"cancellation_reason":     o.CancellationReason,
			"estimated_delivery_time": o.EstimatedDeliveryTime,
			"actual_delivery_time":    o.ActualDeliveryTime,
			"payment_status":          o.Payment.Status,
			"payment_transaction_id":  o.Payment.TransactionID,
			"payment_paid_at":         o.Payment.PaidAt,
			"version":                 expected + 1,
			"updated_at":              now,
		})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrStale
	}

	o.Version = expected + 1
	o.UpdatedAt = now
	return nil
}

func (r *orderRepository) All(ctx context.Context) ([]models.Order, error) {
	var out []models.Order
	err := r.q(ctx).Model(&models.Order{}).Order("id").Get(&out)
	return out, err
}
