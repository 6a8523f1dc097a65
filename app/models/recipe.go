package models

import "time"

const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

type Ingredient struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
	Unit     string `json:"unit,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

type Instruction struct {
	Step        int    `json:"step"`
	Description string `json:"description"`
	Minutes     int    `json:"minutes,omitempty"`
}

// Recipe is a user-published recipe. AverageRating and RatingCount are
// derived from RecipeRating rows by the rating service.
type Recipe struct {
	Base
	Title               string          `gorm:"size:150;not null;index" json:"title"`
	Description         string          `gorm:"type:text" json:"description"`
	Ingredients         []Ingredient    `gorm:"serializer:json" json:"ingredients"`
	Instructions        []Instruction   `gorm:"serializer:json" json:"instructions"`
	PrepTimeMinutes     int             `json:"prepTime"`
	CookTimeMinutes     int             `json:"cookTime"`
	Servings            int             `json:"servings"`
	Difficulty          string          `gorm:"size:10;not null;index" json:"difficulty"`
	Cuisine             string          `gorm:"size:50;index" json:"cuisine"`
	MealTypes           []string        `gorm:"serializer:json" json:"mealTypes"`
	DietaryRestrictions []string        `gorm:"serializer:json" json:"dietaryRestrictions"`
	AuthorID            uint            `gorm:"not null;index" json:"authorId"`
	LikesCount          int             `gorm:"not null;default:0" json:"likesCount"`
	CommentsCount       int             `gorm:"not null;default:0" json:"commentsCount"`
	AverageRating       *float64        `json:"averageRating"`
	RatingCount         int             `gorm:"not null;default:0" json:"ratingCount"`
	Comments            []RecipeComment `gorm:"foreignKey:RecipeID" json:"comments,omitempty"`
}

// HasMealType reports whether the recipe is tagged with meal type m.
func (r *Recipe) HasMealType(m string) bool { return contains(r.MealTypes, m) }

type RecipeLike struct {
	ID        uint `gorm:"primaryKey"`
	RecipeID  uint `gorm:"not null;uniqueIndex:idx_recipe_likes_recipe_user"`
	UserID    uint `gorm:"not null;uniqueIndex:idx_recipe_likes_recipe_user"`
	CreatedAt time.Time
}

type RecipeComment struct {
	Base
	RecipeID uint   `gorm:"not null;index" json:"recipeId"`
	UserID   uint   `gorm:"not null" json:"userId"`
	Content  string `gorm:"type:text;not null" json:"content"`
}

// RecipeRating is one user's 1-5 score for a recipe.
type RecipeRating struct {
	Base
	RecipeID uint `gorm:"not null;uniqueIndex:idx_recipe_ratings_recipe_user" json:"recipeId"`
	UserID   uint `gorm:"not null;uniqueIndex:idx_recipe_ratings_recipe_user" json:"userId"`
	Rating   int  `gorm:"not null" json:"rating"`
}
