package services

import (
	"context"
	"strings"

	"github.com/gebeta-app/gebeta/app/models"
	"github.com/gebeta-app/gebeta/app/repositories"
	"github.com/gebeta-app/gebeta/pkg/apperror"
	"github.com/gebeta-app/gebeta/pkg/orm"
	"github.com/gebeta-app/gebeta/pkg/rbac"
)

type RecipeInput struct {
	Title               string               `json:"title" validate:"required,min=3,max=150"`
	Description         string               `json:"description" validate:"required,max=2000"`
	Ingredients         []models.Ingredient  `json:"ingredients" validate:"required,min=1"`
	Instructions        []models.Instruction `json:"instructions" validate:"required,min=1"`
	PrepTimeMinutes     int                  `json:"prepTime" validate:"nullable,gte=0"`
	CookTimeMinutes     int                  `json:"cookTime" validate:"nullable,gte=0"`
	Servings            int                  `json:"servings" validate:"required,gte=1"`
	Difficulty          string               `json:"difficulty" validate:"required,in=easy|medium|hard"`
	Cuisine             string               `json:"cuisine" validate:"nullable,max=50"`
	MealTypes           []string             `json:"mealTypes" validate:"nullable,in=breakfast|lunch|dinner|snack|dessert"`
	DietaryRestrictions []string             `json:"dietaryRestrictions"`
}

type CommentInput struct {
	Content string `json:"content" validate:"required,min=1,max=1000"`
}

type RateInput struct {
	Rating int `json:"rating" validate:"required,gte=1,lte=5"`
}

type RecipeQuery struct {
	Cuisine    string
	Difficulty string
	MealType   string
	AuthorID   uint
	Search     string
	Page       int
	Limit      int
}

// LikeResult is the outcome of a like toggle.
type LikeResult struct {
	Liked      bool `json:"liked"`
	LikesCount int  `json:"likesCount"`
}

type RecipeService struct {
	recipes repositories.RecipeRepository
	ratings *RatingService
}

func NewRecipeService(store *repositories.Store, ratings *RatingService) *RecipeService {
	return &RecipeService{recipes: store.Recipes, ratings: ratings}
}

func (s *RecipeService) List(ctx context.Context, q RecipeQuery) ([]models.Recipe, orm.Pagination, error) {
	rows, p, err := s.recipes.List(ctx, repositories.RecipeFilter(q))
	if err != nil {
		return nil, orm.Pagination{}, apperror.Internal(err)
	}
	return rows, p, nil
}

func (s *RecipeService) Get(ctx context.Context, id uint) (*models.Recipe, error) {
	rec, err := s.recipes.FindByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "Recipe")
	}
	return rec, nil
}

func (s *RecipeService) Create(ctx context.Context, actor rbac.Actor, in RecipeInput) (*models.Recipe, error) {
	if actor.IsAnonymous() {
		return nil, apperror.Authentication("Authentication required")
	}
	rec := &models.Recipe{AuthorID: actor.ID}
	applyRecipe(rec, in)
	if err := s.recipes.Create(ctx, rec); err != nil {
		return nil, apperror.Internal(err)
	}
	return rec, nil
}

func (s *RecipeService) Update(ctx context.Context, actor rbac.Actor, id uint, in RecipeInput) (*models.Recipe, error) {
	rec, err := s.authored(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	applyRecipe(rec, in)
	if err := s.recipes.Update(ctx, rec); err != nil {
		return nil, apperror.Internal(err)
	}
	return rec, nil
}

func (s *RecipeService) Delete(ctx context.Context, actor rbac.Actor, id uint) error {
	if _, err := s.authored(ctx, actor, id); err != nil {
		return err
	}
	if err := s.recipes.Delete(ctx, id); err != nil {
		return lookup(err, "Recipe")
	}
	return nil
}

func (s *RecipeService) authored(ctx context.Context, actor rbac.Actor, id uint) (*models.Recipe, error) {
	rec, err := s.recipes.FindByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "Recipe")
	}
	if !actor.OwnsOrAdmin(rec.AuthorID) {
		return nil, apperror.Authorization("You do not have permission to modify this recipe")
	}
	return rec, nil
}

func applyRecipe(rec *models.Recipe, in RecipeInput) {
	rec.Title = strings.TrimSpace(in.Title)
	rec.Description = strings.TrimSpace(in.Description)
	rec.Ingredients = in.Ingredients
	rec.Instructions = in.Instructions
	rec.PrepTimeMinutes = in.PrepTimeMinutes
	rec.CookTimeMinutes = in.CookTimeMinutes
	rec.Servings = in.Servings
	rec.Difficulty = in.Difficulty
	rec.Cuisine = strings.TrimSpace(in.Cuisine)
	rec.MealTypes = in.MealTypes
	rec.DietaryRestrictions = in.DietaryRestrictions
}

func (s *RecipeService) ToggleLike(ctx context.Context, actor rbac.Actor, id uint) (*LikeResult, error) {
	if actor.IsAnonymous() {
		return nil, apperror.Authentication("Authentication required")
	}
	liked, count, err := s.recipes.ToggleLike(ctx, id, actor.ID)
	if err != nil {
		return nil, lookup(err, "Recipe")
	}
	return &LikeResult{Liked: liked, LikesCount: count}, nil
}

func (s *RecipeService) Comment(ctx context.Context, actor rbac.Actor, id uint, in CommentInput) (*models.RecipeComment, error) {
	if actor.IsAnonymous() {
		return nil, apperror.Authentication("Authentication required")
	}
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, apperror.Validation("Comment cannot be empty")
	}
	c := &models.RecipeComment{RecipeID: id, UserID: actor.ID, Content: content}
	if err := s.recipes.AddComment(ctx, c); err != nil {
		return nil, lookup(err, "Recipe")
	}
	return c, nil
}

// Rate records the caller's 1-5 rating, replacing any earlier one, and
// recomputes the recipe's aggregate.
func (s *RecipeService) Rate(ctx context.Context, actor rbac.Actor, id uint, in RateInput) (*models.Recipe, error) {
	if actor.IsAnonymous() {
		return nil, apperror.Authentication("Authentication required")
	}
	if in.Rating < 1 || in.Rating > 5 {
		return nil, apperror.Validation("Rating must be between 1 and 5")
	}
	if _, err := s.recipes.FindByID(ctx, id); err != nil {
		return nil, lookup(err, "Recipe")
	}
	if err := s.recipes.UpsertRating(ctx, &models.RecipeRating{RecipeID: id, UserID: actor.ID, Rating: in.Rating}); err != nil {
		return nil, apperror.Internal(err)
	}
	return s.ratings.RecomputeRecipe(ctx, id)
}

// Unrate removes the caller's rating.
func (s *RecipeService) Unrate(ctx context.Context, actor rbac.Actor, id uint) (*models.Recipe, error) {
	if actor.IsAnonymous() {
		return nil, apperror.Authentication("Authentication required")
	}
	if err := s.recipes.DeleteRating(ctx, id, actor.ID); err != nil {
		return nil, lookup(err, "Rating")
	}
	return s.ratings.RecomputeRecipe(ctx, id)
}
