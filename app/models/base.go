// Package models holds the persisted domain records. Every type maps to one
// table through gorm tags and serialises with camelCase JSON.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Money is emitted as a JSON number, not a quoted string.
	decimal.MarshalJSONWithoutQuotes = true
}

// Base carries the primary key and timestamps shared by all records.
type Base struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Address is embedded with a column prefix wherever a location is stored.
type Address struct {
	Street    string   `gorm:"size:255" json:"street"`
	City      string   `gorm:"size:100;index" json:"city"`
	State     string   `gorm:"size:100" json:"state,omitempty"`
	ZipCode   string   `gorm:"size:20" json:"zipCode,omitempty"`
	Country   string   `gorm:"size:100" json:"country"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// DefaultCountry is stamped on addresses that omit one.
const DefaultCountry = "Ethiopia"

// WithDefaults fills the country when it is blank.
func (a Address) WithDefaults() Address {
	if a.Country == "" {
		a.Country = DefaultCountry
	}
	return a
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

// All lists every persisted model, in migration order.
func All() []any {
	return []any{
		&User{},
		&Restaurant{},
		&MenuItem{},
		&Order{},
		&OrderItem{},
		&Review{},
		&ReviewHelpfulVote{},
		&Recipe{},
		&RecipeLike{},
		&RecipeComment{},
		&RecipeRating{},
		&Favorite{},
		&Notification{},
	}
}
