package models

import "github.com/shopspring/decimal"

// OpeningHours is one day's schedule, e.g. {"day":"monday","opens":"08:00","closes":"22:00"}.
type OpeningHours struct {
	Day    string `json:"day"`
	IsOpen bool   `json:"isOpen"`
	Opens  string `json:"opens,omitempty"`
	Closes string `json:"closes,omitempty"`
}

// Restaurant is a venue that sells menu items. AverageRating and ReviewCount
// are derived from approved reviews and written only by the rating service.
type Restaurant struct {
	Base
	Name                     string          `gorm:"size:100;not null;index" json:"name"`
	Description              string          `gorm:"type:text" json:"description"`
	OwnerID                  uint            `gorm:"not null;index" json:"ownerId"`
	Address                  Address         `gorm:"embedded;embeddedPrefix:address_" json:"address"`
	Phone                    string          `gorm:"size:32" json:"phone"`
	Email                    string          `gorm:"size:255" json:"email,omitempty"`
	Website                  string          `gorm:"size:255" json:"website,omitempty"`
	CuisineTypes             []string        `gorm:"serializer:json" json:"cuisineTypes"`
	OpeningHours             []OpeningHours  `gorm:"serializer:json" json:"openingHours"`
	DeliveryFee              decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"deliveryFee"`
	MinimumOrder             decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"minimumOrder"`
	EstimatedDeliveryMinutes int             `gorm:"not null;default:30" json:"estimatedDeliveryMinutes"`
	IsActive                 bool            `gorm:"not null;index" json:"isActive"`
	AverageRating            *float64        `json:"averageRating"`
	ReviewCount              int             `gorm:"not null;default:0" json:"reviewCount"`
}

// ServesCuisine reports whether cuisine is one of the restaurant's types.
func (r *Restaurant) ServesCuisine(cuisine string) bool {
	return contains(r.CuisineTypes, cuisine)
}

// RestaurantSummary is the short form attached to orders.
type RestaurantSummary struct {
	ID      uint    `json:"id"`
	Name    string  `json:"name"`
	Phone   string  `json:"phone"`
	Address Address `json:"address"`
}

func (r *Restaurant) Summary() *RestaurantSummary {
	return &RestaurantSummary{ID: r.ID, Name: r.Name, Phone: r.Phone, Address: r.Address}
}

const (
	CategoryAppetizer = "appetizer"
	CategoryMain      = "main"
	CategoryDessert   = "dessert"
	CategoryBeverage  = "beverage"
	CategorySide      = "side"
)

// MenuCategories lists the valid menu item categories.
var MenuCategories = []string{CategoryAppetizer, CategoryMain, CategoryDessert, CategoryBeverage, CategorySide}

// MenuItem belongs to exactly one restaurant; names are unique per restaurant.
type MenuItem struct {
	Base
	RestaurantID       uint            `gorm:"not null;uniqueIndex:idx_menu_items_restaurant_name" json:"restaurantId"`
	Name               string          `gorm:"size:100;not null;uniqueIndex:idx_menu_items_restaurant_name" json:"name"`
	Description        string          `gorm:"type:text" json:"description"`
	Price              decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Category           string          `gorm:"size:20;not null;index" json:"category"`
	IsVegetarian       bool            `json:"isVegetarian"`
	IsVegan            bool            `json:"isVegan"`
	IsGlutenFree       bool            `json:"isGlutenFree"`
	IsSpicy            bool            `json:"isSpicy"`
	IsAvailable        bool            `gorm:"not null;index" json:"isAvailable"`
	PreparationMinutes int             `json:"preparationMinutes,omitempty"`
}
