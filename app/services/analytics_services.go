package services

import (
	"context"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gebeta-app/gebeta/app/models"
	"github.com/gebeta-app/gebeta/app/repositories"
	"github.com/gebeta-app/gebeta/pkg/apperror"
	"github.com/gebeta-app/gebeta/pkg/collection"
)

// MonthLayout labels the byMonth buckets.
const MonthLayout = "Jan 2006"

type MonthCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// Growth is the shared shape of every analytics report.
type Growth struct {
	Total      int          `json:"total"`
	Last7Days  int          `json:"last7Days"`
	Last30Days int          `json:"last30Days"`
	ByMonth    []MonthCount `json:"byMonth"`
}

type StatusTotals struct {
	Count       int             `json:"count"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

type OrderAnalytics struct {
	Growth
	ByStatus map[string]StatusTotals `json:"byStatus"`
}

type RestaurantAnalytics struct {
	Growth
	ByCuisine map[string]int `json:"byCuisine"`
}

// AnalyticsService builds admin reports from full table scans.
type AnalyticsService struct {
	store *repositories.Store
	now   Clock
}

func NewAnalyticsService(store *repositories.Store) *AnalyticsService {
	return &AnalyticsService{store: store, now: time.Now}
}

// WithClock fixes the reference time of the rolling windows.
func (s *AnalyticsService) WithClock(now Clock) *AnalyticsService {
	s.now = now
	return s
}

func (s *AnalyticsService) Users(ctx context.Context) (*Growth, error) {
	users, err := s.store.Users.All(ctx)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	g := growth(s.now(), collection.Map(users, func(u models.User) time.Time { return u.CreatedAt }))
	return &g, nil
}

func (s *AnalyticsService) Orders(ctx context.Context) (*OrderAnalytics, error) {
	orders, err := s.store.Orders.All(ctx)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	byStatus := make(map[string]StatusTotals)
	for status, group := range collection.GroupBy(orders, func(o models.Order) string { return o.Status }) {
		byStatus[status] = StatusTotals{
			Count: len(group),
			TotalAmount: collection.Reduce(group, decimal.Zero, func(sum decimal.Decimal, o models.Order) decimal.Decimal {
				return sum.Add(o.Total)
			}),
		}
	}
	return &OrderAnalytics{
		Growth:   growth(s.now(), collection.Map(orders, func(o models.Order) time.Time { return o.CreatedAt })),
		ByStatus: byStatus,
	}, nil
}

func (s *AnalyticsService) Restaurants(ctx context.Context) (*RestaurantAnalytics, error) {
	rests, err := s.store.Restaurants.All(ctx)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return &RestaurantAnalytics{
		Growth: growth(s.now(), collection.Map(rests, func(r models.Restaurant) time.Time { return r.CreatedAt })),
		ByCuisine: collection.CountBy(rests, func(r models.Restaurant) []string {
			return collection.Unique(r.CuisineTypes)
		}),
	}, nil
}

// growth counts creation times overall, inside the trailing 7 and 30 days,
// and per calendar month in chronological order.
func growth(now time.Time, created []time.Time) Growth {
	week, month := now.AddDate(0, 0, -7), now.AddDate(0, 0, -30)
	g := Growth{
		Total:      len(created),
		Last7Days:  collection.Count(created, func(t time.Time) bool { return !t.Before(week) }),
		Last30Days: collection.Count(created, func(t time.Time) bool { return !t.Before(month) }),
		ByMonth:    []MonthCount{},
	}

	buckets := collection.GroupBy(created, func(t time.Time) time.Time {
		t = t.In(now.Location())
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, now.Location())
	})
	starts := make([]time.Time, 0, len(buckets))
	for start := range buckets {
		starts = append(starts, start)
	}
	slices.SortFunc(starts, func(a, b time.Time) int { return a.Compare(b) })
	for _, start := range starts {
		g.ByMonth = append(g.ByMonth, MonthCount{Month: start.Format(MonthLayout), Count: len(buckets[start])})
	}
	return g
}
