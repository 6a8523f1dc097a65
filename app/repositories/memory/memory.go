// Package memory implements the repository contracts in process memory. It
// backs DB_DRIVER=memory and the service and controller tests.
package memory

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gebeta-app/gebeta/app/models"
	"github.com/gebeta-app/gebeta/app/repositories"
	"github.com/gebeta-app/gebeta/pkg/orm"
)

// state holds every table behind one lock.
type state struct {
	mu  sync.Mutex
	seq map[string]uint

	users         map[uint]models.User
	restaurants   map[uint]models.Restaurant
	menuItems     map[uint]models.MenuItem
	orders        map[uint]models.Order
	reviews       map[uint]models.Review
	helpfulVotes  map[[2]uint]bool
	recipes       map[uint]models.Recipe
	recipeLikes   map[[2]uint]bool
	comments      map[uint]models.RecipeComment
	recipeRatings map[uint]models.RecipeRating
	favorites     map[uint]models.Favorite
	notifications map[uint]models.Notification

	now func() time.Time
}

// NewStore returns a Store whose repositories share one empty in-memory
// database.
func NewStore() *repositories.Store {
	s := &state{
		seq:           map[string]uint{},
		users:         map[uint]models.User{},
		restaurants:   map[uint]models.Restaurant{},
		menuItems:     map[uint]models.MenuItem{},
		orders:        map[uint]models.Order{},
		reviews:       map[uint]models.Review{},
		helpfulVotes:  map[[2]uint]bool{},
		recipes:       map[uint]models.Recipe{},
		recipeLikes:   map[[2]uint]bool{},
		comments:      map[uint]models.RecipeComment{},
		recipeRatings: map[uint]models.RecipeRating{},
		favorites:     map[uint]models.Favorite{},
		notifications: map[uint]models.Notification{},
		now:           time.Now,
	}
	return &repositories.Store{
		Users:         &userRepo{s},
		Restaurants:   &restaurantRepo{s},
		MenuItems:     &menuItemRepo{s},
		Orders:        &orderRepo{s},
		Reviews:       &reviewRepo{s},
		Recipes:       &recipeRepo{s},
		Favorites:     &favoriteRepo{s},
		Notifications: &notificationRepo{s},
	}
}

func (s *state) next(table string) uint {
	s.seq[table]++
	return s.seq[table]
}

// stamp assigns an id on first write and refreshes the timestamps.
func (s *state) stamp(table string, b *models.Base) {
	now := s.now()
	if b.ID == 0 {
		b.ID = s.next(table)
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
}

// page cuts one page out of already ordered rows.
func page[T any](rows []T, p, limit int) ([]T, orm.Pagination) {
	pg := orm.NewPagination(p, limit, int64(len(rows)))
	start, end := pg.Window(len(rows))
	out := make([]T, end-start)
	copy(out, rows[start:end])
	return out, pg
}

func sortedIDs[T any](m map[uint]T) []uint {
	ids := make([]uint, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func containsAnyFold(values []string, v string) bool {
	for _, x := range values {
		if strings.EqualFold(x, v) {
			return true
		}
	}
	return false
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
