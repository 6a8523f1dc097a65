package models

import "time"

const (
	ReviewPending  = "pending"
	ReviewApproved = "approved"
	ReviewRejected = "rejected"
)

func ValidReviewStatus(s string) bool {
	return s == ReviewPending || s == ReviewApproved || s == ReviewRejected
}

// ReviewReply is the restaurant's public answer to a review.
type ReviewReply struct {
	Text      string     `gorm:"type:text" json:"text,omitempty"`
	RepliedBy uint       `json:"repliedBy,omitempty"`
	RepliedAt *time.Time `json:"repliedAt,omitempty"`
}

// Review is one user's rating of one restaurant. Only approved reviews count
// towards the restaurant's average.
type Review struct {
	Base
	UserID       uint        `gorm:"not null;uniqueIndex:idx_reviews_user_restaurant" json:"userId"`
	RestaurantID uint        `gorm:"not null;uniqueIndex:idx_reviews_user_restaurant;index" json:"restaurantId"`
	Rating       int         `gorm:"not null" json:"rating"`
	Comment      string      `gorm:"type:text" json:"comment"`
	Status       string      `gorm:"size:20;not null;index" json:"status"`
	Reply        ReviewReply `gorm:"embedded;embeddedPrefix:reply_" json:"reply"`
	HelpfulCount int         `gorm:"not null;default:0" json:"helpfulCount"`
}

// ReviewHelpfulVote records that a user found a review helpful.
type ReviewHelpfulVote struct {
	ID        uint      `gorm:"primaryKey"`
	ReviewID  uint      `gorm:"not null;uniqueIndex:idx_review_votes_review_user"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_review_votes_review_user"`
	CreatedAt time.Time
}
