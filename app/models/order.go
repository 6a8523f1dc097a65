package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	OrderPending        = "pending"
	OrderConfirmed      = "confirmed"
	OrderPreparing      = "preparing"
	OrderReadyForPickup = "ready_for_pickup"
	OrderOutForDelivery = "out_for_delivery"
	OrderDelivered      = "delivered"
	OrderCancelled      = "cancelled"
)

// OrderFlow is the forward lifecycle; cancelled sits outside it.
var OrderFlow = []string{
	OrderPending,
	OrderConfirmed,
	OrderPreparing,
	OrderReadyForPickup,
	OrderOutForDelivery,
	OrderDelivered,
}

// ValidOrderStatus reports whether s is a known status.
func ValidOrderStatus(s string) bool {
	return s == OrderCancelled || contains(OrderFlow, s)
}

// OrderStage is the position of s in OrderFlow, or -1.
func OrderStage(s string) int {
	for i, v := range OrderFlow {
		if v == s {
			return i
		}
	}
	return -1
}

// TerminalOrderStatus reports whether no transition may leave s.
func TerminalOrderStatus(s string) bool {
	return s == OrderDelivered || s == OrderCancelled
}

const (
	PaymentCash        = "cash"
	PaymentCard        = "card"
	PaymentMobileMoney = "mobile_money"

	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
	PaymentRefunded  = "refunded"

	DefaultCurrency = "ETB"
)

// Payment is embedded in the order row.
type Payment struct {
	Method        string          `gorm:"size:20;not null" json:"method"`
	Status        string          `gorm:"size:20;not null;index" json:"status"`
	Amount        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Currency      string          `gorm:"size:3;not null" json:"currency"`
	TransactionID string          `gorm:"size:100" json:"transactionId,omitempty"`
	PaidAt        *time.Time      `json:"paidAt,omitempty"`
}

// Order is a customer's purchase from one restaurant. Totals are computed
// once at creation. Version guards concurrent status and payment writes.
type Order struct {
	Base
	OrderNumber           string             `gorm:"size:32;not null;uniqueIndex" json:"orderNumber"`
	UserID                uint               `gorm:"not null;index" json:"userId"`
	RestaurantID          uint               `gorm:"not null;index" json:"restaurantId"`
	Restaurant            *RestaurantSummary `gorm:"-" json:"restaurant,omitempty"`
	Items                 []OrderItem        `gorm:"foreignKey:OrderID" json:"items"`
	Status                string             `gorm:"size:20;not null;index" json:"status"`
	DeliveryAddress       Address            `gorm:"embedded;embeddedPrefix:delivery_" json:"deliveryAddress"`
	DeliveryInstructions  string             `gorm:"type:text" json:"deliveryInstructions,omitempty"`
	Subtotal              decimal.Decimal    `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	Tax                   decimal.Decimal    `gorm:"type:decimal(12,2);not null" json:"tax"`
	DeliveryFee           decimal.Decimal    `gorm:"type:decimal(12,2);not null" json:"deliveryFee"`
	Total                 decimal.Decimal    `gorm:"type:decimal(12,2);not null" json:"total"`
	Payment               Payment            `gorm:"embedded;embeddedPrefix:payment_" json:"payment"`
	ScheduledFor          *time.Time         `json:"scheduledFor,omitempty"`
	EstimatedDeliveryTime *time.Time         `json:"estimatedDeliveryTime,omitempty"`
	ActualDeliveryTime    *time.Time         `json:"actualDeliveryTime,omitempty"`
	CancellationReason    string             `gorm:"type:text" json:"cancellationReason,omitempty"`
	Version               uint               `gorm:"not null;default:1" json:"version"`
}

// OrderItem snapshots the menu item's name and price at order time.
type OrderItem struct {
	ID                  uint            `gorm:"primaryKey" json:"id"`
	OrderID             uint            `gorm:"not null;index" json:"-"`
	MenuItemID          uint            `gorm:"not null" json:"menuItemId"`
	Name                string          `gorm:"size:100;not null" json:"name"`
	UnitPrice           decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unitPrice"`
	Quantity            int             `gorm:"not null" json:"quantity"`
	SpecialInstructions string          `gorm:"type:text" json:"specialInstructions,omitempty"`
}

// LineTotal is UnitPrice x Quantity.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
