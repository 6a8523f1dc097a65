package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gebeta-app/gebeta/app/models"
	"github.com/gebeta-app/gebeta/app/repositories"
	"github.com/gebeta-app/gebeta/config"
	"github.com/gebeta-app/gebeta/pkg/apperror"
	"github.com/gebeta-app/gebeta/pkg/event"
	"github.com/gebeta-app/gebeta/pkg/orm"
	"github.com/gebeta-app/gebeta/pkg/rbac"
)

type CreateReviewInput struct {
	RestaurantID uint   `json:"restaurant" validate:"required"`
	Rating       int    `json:"rating" validate:"required,gte=1,lte=5"`
	Comment      string `json:"comment" validate:"nullable,max=1000"`
}

type UpdateReviewInput struct {
	Rating  *int    `json:"rating" validate:"nullable,gte=1,lte=5"`
	Comment *string `json:"comment" validate:"nullable,max=1000"`
	Status  string  `json:"status" validate:"nullable,in=pending|approved|rejected"`
}

type ReplyInput struct {
	Text string `json:"text" validate:"required,min=1,max=1000"`
}

type ReviewQuery struct {
	RestaurantID uint
	UserID       uint
	Status       string
	MinRating    int
	Sort         string
	Page         int
	Limit        int
}

// HelpfulResult is the outcome of a helpful-vote toggle.
type HelpfulResult struct {
	HelpfulCount int  `json:"helpfulCount"`
	HasVoted     bool `json:"hasVoted"`
}

// ReviewService manages restaurant reviews. Every write that can change the
// set of approved ratings triggers a recompute.
type ReviewService struct {
	reviews     repositories.ReviewRepository
	restaurants repositories.RestaurantRepository
	ratings     *RatingService
	events      *event.Bus
	autoApprove bool
	now         Clock
}

func NewReviewService(store *repositories.Store, ratings *RatingService, events *event.Bus) *ReviewService {
	return &ReviewService{
		reviews:     store.Reviews,
		restaurants: store.Restaurants,
		ratings:     ratings,
		events:      events,
		autoApprove: config.ReviewAutoApprove(),
		now:         time.Now,
	}
}

// WithAutoApprove overrides REVIEW_AUTO_APPROVE.
func (s *ReviewService) WithAutoApprove(on bool) *ReviewService {
	s.autoApprove = on
	return s
}

func (s *ReviewService) List(ctx context.Context, q ReviewQuery) ([]models.Review, orm.Pagination, error) {
	if q.Status != "" && !models.ValidReviewStatus(q.Status) {
		return nil, orm.Pagination{}, apperror.Validation("Invalid review status: %s", q.Status)
	}
	switch q.Sort {
	case "", repositories.SortNewest, repositories.SortOldest, repositories.SortHighest,
		repositories.SortLowest, repositories.SortMostHelpful:
	default:
		return nil, orm.Pagination{}, apperror.Validation("Invalid sort: %s", q.Sort)
	}
	rows, p, err := s.reviews.List(ctx, repositories.ReviewFilter(q))
	if err != nil {
		return nil, orm.Pagination{}, apperror.Internal(err)
	}
	return rows, p, nil
}

// ListForRestaurant lists the approved reviews of a restaurant.
func (s *ReviewService) ListForRestaurant(ctx context.Context, restaurantID uint, q ReviewQuery) ([]models.Review, orm.Pagination, error) {
	if _, err := s.restaurants.FindByID(ctx, restaurantID); err != nil {
		return nil, orm.Pagination{}, lookup(err, "Restaurant")
	}
	q.RestaurantID = restaurantID
	q.Status = models.ReviewApproved
	return s.List(ctx, q)
}

func (s *ReviewService) Get(ctx context.Context, id uint) (*models.Review, error) {
	rev, err := s.reviews.FindByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "Review")
	}
	return rev, nil
}

// Create stores the caller's review of a restaurant. A user reviews a
// restaurant at most once.
func (s *ReviewService) Create(ctx context.Context, actor rbac.Actor, in CreateReviewInput) (*models.Review, error) {
	if actor.IsAnonymous() {
		return nil, apperror.Authentication("Authentication required")
	}
	if in.Rating < 1 || in.Rating > 5 {
		return nil, apperror.Validation("Rating must be between 1 and 5")
	}
	rest, err := s.restaurants.FindByID(ctx, in.RestaurantID)
	if err != nil {
		return nil, lookup(err, "Restaurant")
	}

	status := models.ReviewPending
	if s.autoApprove {
		status = models.ReviewApproved
	}
	rev := &models.Review{
		UserID:       actor.ID,
		RestaurantID: rest.ID,
		Rating:       in.Rating,
		Comment:      strings.TrimSpace(in.Comment),
		Status:       status,
	}
	if err := s.reviews.Create(ctx, rev); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, apperror.Validation("You have already reviewed this restaurant")
		}
		return nil, apperror.Internal(err)
	}

	if status == models.ReviewApproved {
		if _, err := s.ratings.RecomputeRestaurant(ctx, rest.ID); err != nil {
			return nil, err
		}
	}
	s.events.FireAsync(ctx, EventReviewCreated, ReviewEvent{Review: *rev, OwnerID: rest.OwnerID, RestaurantName: rest.Name})
	return rev, nil
}

// Update lets the author change rating and comment. Admins may also moderate
// the status.
func (s *ReviewService) Update(ctx context.Context, actor rbac.Actor, id uint, in UpdateReviewInput) (*models.Review, error) {
	rev, err := s.reviews.FindByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "Review")
	}
	if !actor.OwnsOrAdmin(rev.UserID) {
		return nil, apperror.Authorization("You do not have permission to update this review")
	}

	before := *rev
	if in.Rating != nil {
		if *in.Rating < 1 || *in.Rating > 5 {
			return nil, apperror.Validation("Rating must be between 1 and 5")
		}
		rev.Rating = *in.Rating
	}
	if in.Comment != nil {
		rev.Comment = strings.TrimSpace(*in.Comment)
	}
	if in.Status != "" && in.Status != rev.Status {
		if !actor.IsAdmin() {
			return nil, apperror.Authorization("Only admins can moderate reviews")
		}
		if !models.ValidReviewStatus(in.Status) {
			return nil, apperror.Validation("Invalid review status: %s", in.Status)
		}
		rev.Status = in.Status
	}

	if err := s.reviews.Update(ctx, rev); err != nil {
		return nil, apperror.Internal(err)
	}

	counted := before.Status == models.ReviewApproved || rev.Status == models.ReviewApproved
	if counted && (before.Rating != rev.Rating || before.Status != rev.Status) {
		if _, err := s.ratings.RecomputeRestaurant(ctx, rev.RestaurantID); err != nil {
			return nil, err
		}
	}
	return rev, nil
}

func (s *ReviewService) Delete(ctx context.Context, actor rbac.Actor, id uint) error {
	rev, err := s.reviews.FindByID(ctx, id)
	if err != nil {
		return lookup(err, "Review")
	}
	if !actor.OwnsOrAdmin(rev.UserID) {
		return apperror.Authorization("You do not have permission to delete this review")
	}
	if err := s.reviews.Delete(ctx, id); err != nil {
		return lookup(err, "Review")
	}
	if rev.Status == models.ReviewApproved {
		if _, err := s.ratings.RecomputeRestaurant(ctx, rev.RestaurantID); err != nil && !apperror.Is(err, apperror.KindNotFound) {
			return err
		}
	}
	return nil
}

// ToggleHelpful adds the caller's helpful vote, or removes it if present.
func (s *ReviewService) ToggleHelpful(ctx context.Context, actor rbac.Actor, id uint) (*HelpfulResult, error) {
	if actor.IsAnonymous() {
		return nil, apperror.Authentication("Authentication required")
	}
	count, voted, err := s.reviews.ToggleHelpful(ctx, id, actor.ID)
	if err != nil {
		return nil, lookup(err, "Review")
	}
	return &HelpfulResult{HelpfulCount: count, HasVoted: voted}, nil
}

// Reply attaches the restaurant's answer to a review.
func (s *ReviewService) Reply(ctx context.Context, actor rbac.Actor, id uint, in ReplyInput) (*models.Review, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, apperror.Validation("Reply text is required")
	}
	rev, err := s.reviews.FindByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "Review")
	}
	rest, err := s.restaurants.FindByID(ctx, rev.RestaurantID)
	if err != nil {
		return nil, lookup(err, "Restaurant")
	}
	if !actor.OwnsOrAdmin(rest.OwnerID) {
		return nil, apperror.Authorization("Only the restaurant owner can reply to this review")
	}

	rev.Reply = models.ReviewReply{Text: text, RepliedBy: actor.ID, RepliedAt: ptr(s.now())}
	if err := s.reviews.Update(ctx, rev); err != nil {
		return nil, apperror.Internal(err)
	}
	return rev, nil
}
