package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/gebeta-app/gebeta/app/models"
	"github.com/gebeta-app/gebeta/pkg/orm"
)

type notificationRepository struct{ base }

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{base{db}}
}

func (r *notificationRepository) Create(ctx context.Context, n *models.Notification) error {
	return translate(r.q(ctx).Create(n))
}

func (r *notificationRepository) List(ctx context.Context, userID uint, unreadOnly bool, page, limit int) ([]models.Notification, orm.Pagination, error) {
	q := r.q(ctx).Model(&models.Notification{}).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	var out []models.Notification
	p, err := q.Order("created_at DESC, id DESC").GetWithPagination(&out, page, limit)
	return out, p, err
}

func (r *notificationRepository) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	return r.q(ctx).Model(&models.Notification{}).Where("user_id = ? AND is_read = ?", userID, false).Count()
}

func (r *notificationRepository) MarkRead(ctx context.Context, id, userID uint, at time.Time) (*models.Notification, error) {
	var n models.Notification
	err := orm.Transaction(ctx, r.db, func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&n).Error; err != nil {
			return translate(err)
		}
		if n.IsRead {
			return nil
		}
		n.IsRead = true
		n.ReadAt = &at
		return tx.Model(&n).Updates(map[string]any{"is_read": true, "read_at": at}).Error
	})
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID uint, at time.Time) (int64, error) {
	return r.q(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]any{"is_read": true, "read_at": at})
}

func (r *notificationRepository) Delete(ctx context.Context, id, userID uint) error {
	n, err := r.q(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.Notification{})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *notificationRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return r.q(ctx).Where("expires_at IS NOT NULL AND expires_at <= ?", now).Delete(&models.Notification{})
}
