package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/gebeta-app/gebeta/app/models"
	"github.com/gebeta-app/gebeta/app/repositories"
	"github.com/gebeta-app/gebeta/pkg/orm"
)

type restaurantRepo struct{ s *state }

func (r *restaurantRepo) Create(_ context.Context, rest *models.Restaurant) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rest.ID = 0
	r.s.stamp("restaurants", &rest.Base)
	r.s.restaurants[rest.ID] = cloneRestaurant(*rest)
	return nil
}

func (r *restaurantRepo) Update(_ context.Context, rest *models.Restaurant) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.restaurants[rest.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	rest.AverageRating = cloneFloat(stored.AverageRating)
	rest.ReviewCount = stored.ReviewCount
	rest.CreatedAt = stored.CreatedAt
	r.s.stamp("restaurants", &rest.Base)
	r.s.restaurants[rest.ID] = cloneRestaurant(*rest)
	return nil
}

func (r *restaurantRepo) Delete(_ context.Context, id uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.restaurants[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.s.restaurants, id)
	for mid, m := range r.s.menuItems {
		if m.RestaurantID == id {
			delete(r.s.menuItems, mid)
		}
	}
	for rid, rev := range r.s.reviews {
		if rev.RestaurantID != id {
			continue
		}
		delete(r.s.reviews, rid)
		for k := range r.s.helpfulVotes {
			if k[0] == rid {
				delete(r.s.helpfulVotes, k)
			}
		}
	}
	return nil
}

func (r *restaurantRepo) FindByID(_ context.Context, id uint) (*models.Restaurant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rest, ok := r.s.restaurants[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	out := cloneRestaurant(rest)
	return &out, nil
}

func (r *restaurantRepo) List(_ context.Context, f repositories.RestaurantFilter) ([]models.Restaurant, orm.Pagination, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var rows []models.Restaurant
	for _, rest := range r.s.restaurants {
		switch {
		case f.ActiveOnly && !rest.IsActive:
			continue
		case f.OwnerID != 0 && rest.OwnerID != f.OwnerID:
			continue
		case f.City != "" && !strings.EqualFold(rest.Address.City, f.City):
			continue
		case f.Search != "" && !containsFold(rest.Name, f.Search):
			continue
		case f.Cuisine != "" && !containsAnyFold(rest.CuisineTypes, f.Cuisine):
			continue
		}
		rows = append(rows, cloneRestaurant(rest))
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID > rows[j].ID })

	out, p := page(rows, f.Page, f.Limit)
	return out, p, nil
}

func (r *restaurantRepo) IDsByOwner(_ context.Context, ownerID uint) ([]uint, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ids := []uint{}
	for _, id := range sortedIDs(r.s.restaurants) {
		if r.s.restaurants[id].OwnerID == ownerID {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (r *restaurantRepo) All(_ context.Context) ([]models.Restaurant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]models.Restaurant, 0, len(r.s.restaurants))
	for _, id := range sortedIDs(r.s.restaurants) {
		out = append(out, cloneRestaurant(r.s.restaurants[id]))
	}
	return out, nil
}

func (r *restaurantRepo) RecomputeRating(_ context.Context, id uint, fn repositories.RatingFunc) (*models.Restaurant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rest, ok := r.s.restaurants[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}

	var ratings []int
	for _, rev := range r.s.reviews {
		if rev.RestaurantID == id && rev.Status == models.ReviewApproved {
			ratings = append(ratings, rev.Rating)
		}
	}
	rest.AverageRating, rest.ReviewCount = fn(ratings)
	r.s.restaurants[id] = rest

	out := cloneRestaurant(rest)
	return &out, nil
}

func cloneRestaurant(r models.Restaurant) models.Restaurant {
	r.CuisineTypes = cloneStrings(r.CuisineTypes)
	if r.OpeningHours != nil {
		r.OpeningHours = append([]models.OpeningHours(nil), r.OpeningHours...)
	}
	r.AverageRating = cloneFloat(r.AverageRating)
	r.Address = cloneAddress(r.Address)
	return r
}

func cloneAddress(a models.Address) models.Address {
	a.Latitude = cloneFloat(a.Latitude)
	a.Longitude = cloneFloat(a.Longitude)
	return a
}

type menuItemRepo struct{ s *state }

func (r *menuItemRepo) Create(_ context.Context, m *models.MenuItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.nameTaken(m.RestaurantID, m.Name, 0) {
		return repositories.ErrDuplicate
	}
	m.ID = 0
	r.s.stamp("menu_items", &m.Base)
	r.s.menuItems[m.ID] = *m
	return nil
}

func (r *menuItemRepo) Update(_ context.Context, m *models.MenuItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.menuItems[m.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	if r.nameTaken(m.RestaurantID, m.Name, m.ID) {
		return repositories.ErrDuplicate
	}
	m.CreatedAt = stored.CreatedAt
	r.s.stamp("menu_items", &m.Base)
	r.s.menuItems[m.ID] = *m
	return nil
}

func (r *menuItemRepo) nameTaken(restaurantID uint, name string, except uint) bool {
	for id, m := range r.s.menuItems {
		if id != except && m.RestaurantID == restaurantID && m.Name == name {
			return true
		}
	}
	return false
}

func (r *menuItemRepo) Delete(_ context.Context, id uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.menuItems[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.s.menuItems, id)
	return nil
}

func (r *menuItemRepo) FindByID(_ context.Context, id uint) (*models.MenuItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.menuItems[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &m, nil
}

func (r *menuItemRepo) FindByIDs(_ context.Context, ids []uint) ([]models.MenuItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.MenuItem{}
	seen := map[uint]bool{}
	for _, id := range ids {
		if m, ok := r.s.menuItems[id]; ok && !seen[id] {
			seen[id] = true
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *menuItemRepo) ListByRestaurant(_ context.Context, restaurantID uint) ([]models.MenuItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.MenuItem{}
	for _, m := range r.s.menuItems {
		if m.RestaurantID == restaurantID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r *menuItemRepo) ReplaceMenu(_ context.Context, restaurantID uint, items []models.MenuItem) ([]models.MenuItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	names := map[string]bool{}
	for _, it := range items {
		if names[it.Name] {
			return nil, repositories.ErrDuplicate
		}
		names[it.Name] = true
	}

	for id, m := range r.s.menuItems {
		if m.RestaurantID == restaurantID {
			delete(r.s.menuItems, id)
		}
	}
	out := make([]models.MenuItem, len(items))
	for i, it := range items {
		it.ID = 0
		it.RestaurantID = restaurantID
		r.s.stamp("menu_items", &it.Base)
		r.s.menuItems[it.ID] = it
		out[i] = it
	}
	return out, nil
}
