package models

const (
	FavoriteRecipe     = "recipe"
	FavoriteRestaurant = "restaurant"
	FavoriteMenu       = "menu"
)

func ValidFavoriteType(t string) bool {
	return t == FavoriteRecipe || t == FavoriteRestaurant || t == FavoriteMenu
}

// Favorite is a bookmark; (user, type, item) is unique.
type Favorite struct {
	Base
	UserID uint   `gorm:"not null;uniqueIndex:idx_favorites_user_type_item" json:"userId"`
	Type   string `gorm:"size:20;not null;uniqueIndex:idx_favorites_user_type_item" json:"type"`
	ItemID uint   `gorm:"not null;uniqueIndex:idx_favorites_user_type_item" json:"itemId"`
}
