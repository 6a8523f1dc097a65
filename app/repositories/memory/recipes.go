package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/gebeta-app/gebeta/app/models"
	"github.com/gebeta-app/gebeta/app/repositories"
	"github.com/gebeta-app/gebeta/pkg/orm"
)

type recipeRepo struct{ s *state }

func (r *recipeRepo) Create(_ context.Context, rec *models.Recipe) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rec.ID = 0
	rec.Comments = nil
	r.s.stamp("recipes", &rec.Base)
	r.s.recipes[rec.ID] = cloneRecipe(*rec)
	return nil
}

func (r *recipeRepo) Update(_ context.Context, rec *models.Recipe) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.recipes[rec.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	rec.LikesCount = stored.LikesCount
	rec.CommentsCount = stored.CommentsCount
	rec.AverageRating = cloneFloat(stored.AverageRating)
	rec.RatingCount = stored.RatingCount
	rec.CreatedAt = stored.CreatedAt
	r.s.stamp("recipes", &rec.Base)
	saved := cloneRecipe(*rec)
	saved.Comments = nil
	r.s.recipes[rec.ID] = saved
	return nil
}

func (r *recipeRepo) Delete(_ context.Context, id uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.recipes[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.s.recipes, id)
	for k := range r.s.recipeLikes {
		if k[0] == id {
			delete(r.s.recipeLikes, k)
		}
	}
	for cid, c := range r.s.comments {
		if c.RecipeID == id {
			delete(r.s.comments, cid)
		}
	}
	for rid, rt := range r.s.recipeRatings {
		if rt.RecipeID == id {
			delete(r.s.recipeRatings, rid)
		}
	}
	return nil
}

func (r *recipeRepo) FindByID(_ context.Context, id uint) (*models.Recipe, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rec, ok := r.s.recipes[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	out := cloneRecipe(rec)
	out.Comments = []models.RecipeComment{}
	for _, cid := range sortedIDs(r.s.comments) {
		if c := r.s.comments[cid]; c.RecipeID == id {
			out.Comments = append(out.Comments, c)
		}
	}
	return &out, nil
}

func (r *recipeRepo) List(_ context.Context, f repositories.RecipeFilter) ([]models.Recipe, orm.Pagination, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var rows []models.Recipe
	for _, rec := range r.s.recipes {
		switch {
		case f.Cuisine != "" && !strings.EqualFold(rec.Cuisine, f.Cuisine):
			continue
		case f.Difficulty != "" && rec.Difficulty != f.Difficulty:
			continue
		case f.AuthorID != 0 && rec.AuthorID != f.AuthorID:
			continue
		case f.MealType != "" && !rec.HasMealType(f.MealType):
			continue
		case f.Search != "" && !containsFold(rec.Title, f.Search) && !containsFold(rec.Description, f.Search):
			continue
		}
		rows = append(rows, cloneRecipe(rec))
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID > rows[j].ID })

	out, p := page(rows, f.Page, f.Limit)
	return out, p, nil
}

func (r *recipeRepo) ToggleLike(_ context.Context, recipeID, userID uint) (bool, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rec, ok := r.s.recipes[recipeID]
	if !ok {
		return false, 0, repositories.ErrNotFound
	}

	key := [2]uint{recipeID, userID}
	liked := !r.s.recipeLikes[key]
	if liked {
		r.s.recipeLikes[key] = true
	} else {
		delete(r.s.recipeLikes, key)
	}

	count := 0
	for k := range r.s.recipeLikes {
		if k[0] == recipeID {
			count++
		}
	}
	rec.LikesCount = count
	r.s.recipes[recipeID] = rec
	return liked, count, nil
}

func (r *recipeRepo) AddComment(_ context.Context, c *models.RecipeComment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rec, ok := r.s.recipes[c.RecipeID]
	if !ok {
		return repositories.ErrNotFound
	}
	c.ID = 0
	r.s.stamp("recipe_comments", &c.Base)
	r.s.comments[c.ID] = *c
	rec.CommentsCount++
	r.s.recipes[c.RecipeID] = rec
	return nil
}

func (r *recipeRepo) UpsertRating(_ context.Context, rating *models.RecipeRating) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, existing := range r.s.recipeRatings {
		if existing.RecipeID == rating.RecipeID && existing.UserID == rating.UserID {
			existing.Rating = rating.Rating
			r.s.stamp("recipe_ratings", &existing.Base)
			r.s.recipeRatings[id] = existing
			*rating = existing
			return nil
		}
	}
	rating.ID = 0
	r.s.stamp("recipe_ratings", &rating.Base)
	r.s.recipeRatings[rating.ID] = *rating
	return nil
}

func (r *recipeRepo) DeleteRating(_ context.Context, recipeID, userID uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, existing := range r.s.recipeRatings {
		if existing.RecipeID == recipeID && existing.UserID == userID {
			delete(r.s.recipeRatings, id)
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (r *recipeRepo) RecomputeRating(_ context.Context, id uint, fn repositories.RatingFunc) (*models.Recipe, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rec, ok := r.s.recipes[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}

	var ratings []int
	for _, rt := range r.s.recipeRatings {
		if rt.RecipeID == id {
			ratings = append(ratings, rt.Rating)
		}
	}
	rec.AverageRating, rec.RatingCount = fn(ratings)
	r.s.recipes[id] = rec

	out := cloneRecipe(rec)
	return &out, nil
}

func cloneRecipe(rec models.Recipe) models.Recipe {
	if rec.Ingredients != nil {
		rec.Ingredients = append([]models.Ingredient(nil), rec.Ingredients...)
	}
	if rec.Instructions != nil {
		rec.Instructions = append([]models.Instruction(nil), rec.Instructions...)
	}
	if rec.Comments != nil {
		rec.Comments = append([]models.RecipeComment(nil), rec.Comments...)
	}
	rec.MealTypes = cloneStrings(rec.MealTypes)
	rec.DietaryRestrictions = cloneStrings(rec.DietaryRestrictions)
	rec.AverageRating = cloneFloat(rec.AverageRating)
	return rec
}
