package services

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/gebeta-app/gebeta/app/repositories"
	"github.com/gebeta-app/gebeta/pkg/apperror"
	"github.com/gebeta-app/gebeta/pkg/orm"
)

const (
	SearchRecipe     = "recipe"
	SearchRestaurant = "restaurant"
	SearchUser       = "user"
)

type SearchQuery struct {
	Query string
	Type  string // empty searches every kind
	Page  int
	Limit int
}

// SearchResult is one hit, whatever its kind.
type SearchResult struct {
	Type        string   `json:"type"`
	ID          uint     `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Rating      *float64 `json:"rating,omitempty"`
	Category    string   `json:"category,omitempty"`
}

// SearchPage holds the hits of every searched kind, in recipe, restaurant,
// user order. Each kind contributes at most one page; Total sums them all.
type SearchPage struct {
	Items      []SearchResult
	Pagination orm.Pagination
}

// SearchService matches a free-text query against recipes, active
// restaurants and active users.
type SearchService struct {
	recipes     repositories.RecipeRepository
	restaurants repositories.RestaurantRepository
	users       repositories.UserRepository
}

func NewSearchService(store *repositories.Store) *SearchService {
	return &SearchService{recipes: store.Recipes, restaurants: store.Restaurants, users: store.Users}
}

func (s *SearchService) Search(ctx context.Context, q SearchQuery) (*SearchPage, error) {
	text := strings.TrimSpace(q.Query)
	if text == "" {
		return nil, apperror.Validation("Search query is required")
	}
	switch q.Type {
	case "", SearchRecipe, SearchRestaurant, SearchUser:
	default:
		return nil, apperror.Validation("Invalid search type %q", q.Type)
	}
	page, limit := orm.Normalize(q.Page, q.Limit)
	wants := func(kind string) bool { return q.Type == "" || q.Type == kind }

	var (
		hits   [3][]SearchResult
		totals [3]int64
	)
	g, gctx := errgroup.WithContext(ctx)

	if wants(SearchRecipe) {
		g.Go(func() error {
			rows, p, err := s.recipes.List(gctx, repositories.RecipeFilter{Search: text, Page: page, Limit: limit})
			if err != nil {
				return err
			}
			for _, r := range rows {
				hits[0] = append(hits[0], SearchResult{
					Type: SearchRecipe, ID: r.ID, Name: r.Title,
					Description: r.Description, Rating: r.AverageRating, Category: r.Cuisine,
				})
			}
			totals[0] = p.Total
			return nil
		})
	}
	if wants(SearchRestaurant) {
		g.Go(func() error {
			rows, p, err := s.restaurants.List(gctx, repositories.RestaurantFilter{Search: text, ActiveOnly: true, Page: page, Limit: limit})
			if err != nil {
				return err
			}
			for _, r := range rows {
				hits[1] = append(hits[1], SearchResult{
					Type: SearchRestaurant, ID: r.ID, Name: r.Name,
					Description: r.Description, Rating: r.AverageRating,
				})
			}
			totals[1] = p.Total
			return nil
		})
	}
	if wants(SearchUser) {
		g.Go(func() error {
			rows, p, err := s.users.List(gctx, repositories.UserFilter{Name: text, ActiveOnly: true, Page: page, Limit: limit})
			if err != nil {
				return err
			}
			for _, u := range rows {
				hits[2] = append(hits[2], SearchResult{Type: SearchUser, ID: u.ID, Name: u.Name})
			}
			totals[2] = p.Total
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, apperror.Internal(err)
	}

	items := make([]SearchResult, 0, len(hits[0])+len(hits[1])+len(hits[2]))
	var total int64
	for i := range hits {
		items = append(items, hits[i]...)
		total += totals[i]
	}
	return &SearchPage{Items: items, Pagination: orm.NewPagination(page, limit, total)}, nil
}
