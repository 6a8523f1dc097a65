package memory

import (
	"context"
	"sort"

	"github.com/gebeta-app/gebeta/app/models"
	"github.com/gebeta-app/gebeta/app/repositories"
	"github.com/gebeta-app/gebeta/pkg/orm"
)

type reviewRepo struct{ s *state }

func (r *reviewRepo) Create(_ context.Context, rev *models.Review) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.reviews {
		if other.UserID == rev.UserID && other.RestaurantID == rev.RestaurantID {
			return repositories.ErrDuplicate
		}
	}
	rev.ID = 0
	r.s.stamp("reviews", &rev.Base)
	r.s.reviews[rev.ID] = cloneReview(*rev)
	return nil
}

func (r *reviewRepo) Update(_ context.Context, rev *models.Review) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.reviews[rev.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	rev.HelpfulCount = stored.HelpfulCount
	rev.CreatedAt = stored.CreatedAt
	r.s.stamp("reviews", &rev.Base)
	r.s.reviews[rev.ID] = cloneReview(*rev)
	return nil
}

func (r *reviewRepo) Delete(_ context.Context, id uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.reviews[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.s.reviews, id)
	for k := range r.s.helpfulVotes {
		if k[0] == id {
			delete(r.s.helpfulVotes, k)
		}
	}
	return nil
}

func (r *reviewRepo) FindByID(_ context.Context, id uint) (*models.Review, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rev, ok := r.s.reviews[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	out := cloneReview(rev)
	return &out, nil
}

func (r *reviewRepo) List(_ context.Context, f repositories.ReviewFilter) ([]models.Review, orm.Pagination, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var rows []models.Review
	for _, rev := range r.s.reviews {
		switch {
		case f.RestaurantID != 0 && rev.RestaurantID != f.RestaurantID:
			continue
		case f.UserID != 0 && rev.UserID != f.UserID:
			continue
		case f.Status != "" && rev.Status != f.Status:
			continue
		case f.MinRating > 0 && rev.Rating < f.MinRating:
			continue
		}
		rows = append(rows, cloneReview(rev))
	}
	sort.Slice(rows, reviewLess(rows, f.Sort))

	out, p := page(rows, f.Page, f.Limit)
	return out, p, nil
}

// reviewLess orders by the requested key, newest id first on ties. IDs are
// monotonic, so they stand in for creation time.
func reviewLess(rows []models.Review, sortKey string) func(i, j int) bool {
	return func(i, j int) bool {
		a, b := rows[i], rows[j]
		switch sortKey {
		case repositories.SortOldest:
			return a.ID < b.ID
		case repositories.SortHighest:
			if a.Rating != b.Rating {
				return a.Rating > b.Rating
			}
		case repositories.SortLowest:
			if a.Rating != b.Rating {
				return a.Rating < b.Rating
			}
		case repositories.SortMostHelpful:
			if a.HelpfulCount != b.HelpfulCount {
				return a.HelpfulCount > b.HelpfulCount
			}
		}
		return a.ID > b.ID
	}
}

func (r *reviewRepo) ToggleHelpful(_ context.Context, reviewID, userID uint) (int, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rev, ok := r.s.reviews[reviewID]
	if !ok {
		return 0, false, repositories.ErrNotFound
	}

	key := [2]uint{reviewID, userID}
	voted := !r.s.helpfulVotes[key]
	if voted {
		r.s.helpfulVotes[key] = true
	} else {
		delete(r.s.helpfulVotes, key)
	}

	count := 0
	for k := range r.s.helpfulVotes {
		if k[0] == reviewID {
			count++
		}
	}
	rev.HelpfulCount = count
	r.s.reviews[reviewID] = rev
	return count, voted, nil
}

func cloneReview(rev models.Review) models.Review {
	rev.Reply.RepliedAt = cloneTime(rev.Reply.RepliedAt)
	return rev
}
