// Package services holds the business rules. Services take repositories and
// an event bus, return *apperror.Error for anything a client may see, and
// never touch HTTP.
package services

import (
	"errors"
	"time"

	"github.com/gebeta-app/gebeta/app/models"
	"github.com/gebeta-app/gebeta/app/repositories"
	"github.com/gebeta-app/gebeta/pkg/apperror"
)

// Event names fired on the bus.
const (
	EventOrderCreated        = "order.created"
	EventOrderStatusChanged  = "order.status_changed"
	EventOrderPaymentChanged = "order.payment_changed"
	EventReviewCreated       = "review.created"
	EventRatingRecomputed    = "rating.recomputed"
)

// OrderEvent is the payload of the order.* events.
type OrderEvent struct {
	Order          models.Order
	OwnerID        uint
	RestaurantName string
	PreviousStatus string
	ActorID        uint
}

// ReviewEvent is the payload of review.created.
type ReviewEvent struct {
	Review         models.Review
	OwnerID        uint
	RestaurantName string
}

// RatingEvent is the payload of rating.recomputed.
type RatingEvent struct {
	Target  string // "restaurant" or "recipe"
	ID      uint
	Average *float64
	Count   int
}

// Clock returns the current time. Tests swap it for a fixed one.
type Clock func() time.Time

// lookup maps a repository read error onto the client-facing taxonomy.
func lookup(err error, what string) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return apperror.NotFound("%s not found", what)
	}
	return apperror.Internal(err)
}

// internal passes application errors through and wraps everything else.
func internal(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperror.As(err); ok {
		return err
	}
	return apperror.Internal(err)
}

func ptr[T any](v T) *T { return &v }
