package memory

import (
	"context"
	"sort"
	"time"

	"github.com/gebeta-app/gebeta/app/models"
	"github.com/gebeta-app/gebeta/app/repositories"
	"github.com/gebeta-app/gebeta/pkg/orm"
)

type favoriteRepo struct{ s *state }

func (r *favoriteRepo) Create(_ context.Context, f *models.Favorite) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.favorites {
		if other.UserID == f.UserID && other.Type == f.Type && other.ItemID == f.ItemID {
			return repositories.ErrDuplicate
		}
	}
	f.ID = 0
	r.s.stamp("favorites", &f.Base)
	r.s.favorites[f.ID] = *f
	return nil
}

func (r *favoriteRepo) List(_ context.Context, userID uint, typ string, p, limit int) ([]models.Favorite, orm.Pagination, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var rows []models.Favorite
	for _, f := range r.s.favorites {
		if f.UserID == userID && (typ == "" || f.Type == typ) {
			rows = append(rows, f)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID > rows[j].ID })
	out, pg := page(rows, p, limit)
	return out, pg, nil
}

func (r *favoriteRepo) Delete(_ context.Context, id, userID uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	f, ok := r.s.favorites[id]
	if !ok || f.UserID != userID {
		return repositories.ErrNotFound
	}
	delete(r.s.favorites, id)
	return nil
}

type notificationRepo struct{ s *state }

func (r *notificationRepo) Create(_ context.Context, n *models.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n.ID = 0
	r.s.stamp("notifications", &n.Base)
	r.s.notifications[n.ID] = cloneNotification(*n)
	return nil
}

func (r *notificationRepo) List(_ context.Context, userID uint, unreadOnly bool, p, limit int) ([]models.Notification, orm.Pagination, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var rows []models.Notification
	for _, n := range r.s.notifications {
		if n.UserID == userID && (!unreadOnly || !n.IsRead) {
			rows = append(rows, cloneNotification(n))
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID > rows[j].ID })
	out, pg := page(rows, p, limit)
	return out, pg, nil
}

func (r *notificationRepo) UnreadCount(_ context.Context, userID uint) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, x := range r.s.notifications {
		if x.UserID == userID && !x.IsRead {
			n++
		}
	}
	return n, nil
}

func (r *notificationRepo) MarkRead(_ context.Context, id, userID uint, at time.Time) (*models.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n, ok := r.s.notifications[id]
	if !ok || n.UserID != userID {
		return nil, repositories.ErrNotFound
	}
	if !n.IsRead {
		n.IsRead = true
		n.ReadAt = &at
		n.UpdatedAt = r.s.now()
		r.s.notifications[id] = n
	}
	out := cloneNotification(n)
	return &out, nil
}

func (r *notificationRepo) MarkAllRead(_ context.Context, userID uint, at time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var count int64
	for id, n := range r.s.notifications {
		if n.UserID != userID || n.IsRead {
			continue
		}
		readAt := at
		n.IsRead = true
		n.ReadAt = &readAt
		r.s.notifications[id] = n
		count++
	}
	return count, nil
}

func (r *notificationRepo) Delete(_ context.Context, id, userID uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n, ok := r.s.notifications[id]
	if !ok || n.UserID != userID {
		return repositories.ErrNotFound
	}
	delete(r.s.notifications, id)
	return nil
}

func (r *notificationRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var count int64
	for id, n := range r.s.notifications {
		if n.ExpiresAt != nil && !n.ExpiresAt.After(now) {
			delete(r.s.notifications, id)
			count++
		}
	}
	return count, nil
}

func cloneNotification(n models.Notification) models.Notification {
	n.ReadAt = cloneTime(n.ReadAt)
	n.ExpiresAt = cloneTime(n.ExpiresAt)
	if n.Metadata != nil {
		md := make(map[string]any, len(n.Metadata))
		for k, v := range n.Metadata {
			md[k] = v
		}
		n.Metadata = md
	}
	return n
}
