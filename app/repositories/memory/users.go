package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/gebeta-app/gebeta/app/models"
	"github.com/gebeta-app/gebeta/app/repositories"
	"github.com/gebeta-app/gebeta/pkg/orm"
)

type userRepo struct{ s *state }

func (r *userRepo) Create(_ context.Context, u *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.conflicts(u) {
		return repositories.ErrDuplicate
	}
	u.ID = 0
	r.s.stamp("users", &u.Base)
	r.s.users[u.ID] = cloneUser(*u)
	return nil
}

func (r *userRepo) Update(_ context.Context, u *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[u.ID]; !ok {
		return repositories.ErrNotFound
	}
	if r.conflicts(u) {
		return repositories.ErrDuplicate
	}
	r.s.stamp("users", &u.Base)
	r.s.users[u.ID] = cloneUser(*u)
	return nil
}

// conflicts reports whether another user already holds u's email or phone.
func (r *userRepo) conflicts(u *models.User) bool {
	for id, other := range r.s.users {
		if id == u.ID {
			continue
		}
		if u.Email != nil && other.Email != nil && strings.EqualFold(*u.Email, *other.Email) {
			return true
		}
		if u.PhoneNumber != nil && other.PhoneNumber != nil && *u.PhoneNumber == *other.PhoneNumber {
			return true
		}
	}
	return false
}

func (r *userRepo) FindByID(_ context.Context, id uint) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	out := cloneUser(u)
	return &out, nil
}

func (r *userRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	return r.find(func(u models.User) bool {
		return u.Email != nil && strings.EqualFold(*u.Email, email)
	})
}

func (r *userRepo) FindByPhone(_ context.Context, phone string) (*models.User, error) {
	return r.find(func(u models.User) bool {
		return u.PhoneNumber != nil && *u.PhoneNumber == phone
	})
}

func (r *userRepo) List(_ context.Context, f repositories.UserFilter) ([]models.User, orm.Pagination, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var rows []models.User
	for _, u := range r.s.users {
		email := ""
		if u.Email != nil {
			email = *u.Email
		}
		switch {
		case f.Search != "" && !containsFold(u.Name, f.Search) && !containsFold(email, f.Search):
			continue
		case f.Name != "" && !containsFold(u.Name, f.Name):
			continue
		case f.Role != "" && u.Role != f.Role:
			continue
		case f.ActiveOnly && !u.Active():
			continue
		}
		rows = append(rows, cloneUser(u))
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID > rows[j].ID })

	out, p := page(rows, f.Page, f.Limit)
	return out, p, nil
}

func (r *userRepo) Delete(_ context.Context, id uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.s.users, id)
	return nil
}

func (r *userRepo) All(_ context.Context) ([]models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]models.User, 0, len(r.s.users))
	for _, id := range sortedIDs(r.s.users) {
		out = append(out, cloneUser(r.s.users[id]))
	}
	return out, nil
}

func (r *userRepo) find(match func(models.User) bool) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, id := range sortedIDs(r.s.users) {
		if u := r.s.users[id]; match(u) {
			out := cloneUser(u)
			return &out, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func cloneUser(u models.User) models.User {
	if u.Email != nil {
		e := *u.Email
		u.Email = &e
	}
	if u.PhoneNumber != nil {
		p := *u.PhoneNumber
		u.PhoneNumber = &p
	}
	u.DeactivatedAt = cloneTime(u.DeactivatedAt)
	return u
}
