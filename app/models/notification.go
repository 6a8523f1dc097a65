package models

import "time"

const (
	NotifyOrderReceived  = "order_received"
	NotifyOrderConfirmed = "order_confirmed"
	NotifyOrderPreparing = "order_preparing"
	NotifyOrderReady     = "order_ready"
	NotifyOrderOnTheWay  = "order_on_the_way"
	NotifyOrderDelivered = "order_delivered"
	NotifyOrderCancelled = "order_cancelled"
	NotifyNewReview      = "new_review"
	NotifyPromotion      = "promotion"
	NotifySystem         = "system"
	NotifyOther          = "other"
)

// OrderNotificationType maps an order status to the buyer-facing type.
func OrderNotificationType(status string) string {
	switch status {
	case OrderConfirmed:
		return NotifyOrderConfirmed
	case OrderPreparing:
		return NotifyOrderPreparing
	case OrderReadyForPickup:
		return NotifyOrderReady
	case OrderOutForDelivery:
		return NotifyOrderOnTheWay
	case OrderDelivered:
		return NotifyOrderDelivered
	case OrderCancelled:
		return NotifyOrderCancelled
	default:
		return NotifyOther
	}
}

// Notification is an in-app message for one user.
type Notification struct {
	Base
	UserID      uint           `gorm:"not null;index" json:"userId"`
	Type        string         `gorm:"size:30;not null" json:"type"`
	Title       string         `gorm:"size:255;not null" json:"title"`
	Message     string         `gorm:"type:text;not null" json:"message"`
	IsRead      bool           `gorm:"not null;default:false;index" json:"isRead"`
	ReadAt      *time.Time     `json:"readAt,omitempty"`
	RelatedKind string         `gorm:"size:30" json:"relatedKind,omitempty"`
	RelatedID   uint           `json:"relatedId,omitempty"`
	Metadata    map[string]any `gorm:"serializer:json" json:"metadata,omitempty"`
	ExpiresAt   *time.Time     `gorm:"index" json:"expiresAt,omitempty"`
}
