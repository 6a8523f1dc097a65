package services

import (
	"context"
	"time"

	"github.com/gebeta-app/gebeta/app/models"
	"github.com/gebeta-app/gebeta/app/repositories"
	"github.com/gebeta-app/gebeta/pkg/apperror"
	"github.com/gebeta-app/gebeta/pkg/orm"
	"github.com/gebeta-app/gebeta/pkg/rbac"
)

// NotificationRetention is how long a notification lives before pruning.
const NotificationRetention = 30 * 24 * time.Hour

// NotificationPage is a page of notifications plus the unread total.
type NotificationPage struct {
	Items       []models.Notification
	Pagination  orm.Pagination
	UnreadCount int64
}

type NotificationService struct {
	notifications repositories.NotificationRepository
	now           Clock
}

func NewNotificationService(store *repositories.Store) *NotificationService {
	return &NotificationService{notifications: store.Notifications, now: time.Now}
}

// Notify stores an in-app notification for a user.
func (s *NotificationService) Notify(ctx context.Context, n *models.Notification) error {
	if n.Type == "" {
		n.Type = models.NotifyOther
	}
	if n.ExpiresAt == nil {
		n.ExpiresAt = ptr(s.now().Add(NotificationRetention))
	}
	return s.notifications.Create(ctx, n)
}

func (s *NotificationService) List(ctx context.Context, actor rbac.Actor, unreadOnly bool, page, limit int) (*NotificationPage, error) {
	rows, p, err := s.notifications.List(ctx, actor.ID, unreadOnly, page, limit)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	unread, err := s.notifications.UnreadCount(ctx, actor.ID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return &NotificationPage{Items: rows, Pagination: p, UnreadCount: unread}, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, actor rbac.Actor, id uint) (*models.Notification, error) {
	n, err := s.notifications.MarkRead(ctx, id, actor.ID, s.now())
	if err != nil {
		return nil, lookup(err, "Notification")
	}
	return n, nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, actor rbac.Actor) (int64, error) {
	n, err := s.notifications.MarkAllRead(ctx, actor.ID, s.now())
	if err != nil {
		return 0, apperror.Internal(err)
	}
	return n, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, actor rbac.Actor) (int64, error) {
	n, err := s.notifications.UnreadCount(ctx, actor.ID)
	if err != nil {
		return 0, apperror.Internal(err)
	}
	return n, nil
}

// Delete removes one of the actor's notifications. Another user's
// notification reads as missing.
func (s *NotificationService) Delete(ctx context.Context, actor rbac.Actor, id uint) error {
	if err := s.notifications.Delete(ctx, id, actor.ID); err != nil {
		return lookup(err, "Notification")
	}
	return nil
}

// Prune deletes expired notifications and reports how many went.
func (s *NotificationService) Prune(ctx context.Context) (int64, error) {
	return s.notifications.DeleteExpired(ctx, s.now())
}
