package controllers

import (
	"github.com/gebeta-app/gebeta/app/services"
	"github.com/gebeta-app/gebeta/pkg/ctx"
)

type RecipeController struct {
	recipes *services.RecipeService
}

func NewRecipeController(recipes *services.RecipeService) *RecipeController {
	return &RecipeController{recipes: recipes}
}

func (rc *RecipeController) Index(c *ctx.Context) {
	page, limit := c.Page()
	rows, p, err := rc.recipes.List(c.Context(), services.RecipeQuery{
		Cuisine:    c.Query("cuisine"),
		Difficulty: c.Query("difficulty"),
		MealType:   c.Query("mealType"),
		AuthorID:   c.QueryUint("author"),
		Search:     c.Query("search"),
		Page:       page,
		Limit:      limit,
	})
	if err != nil {
		c.Fail(err)
		return
	}
	c.Paginated(rows, len(rows), p)
}

// ByUser lists the recipes authored by {userId}.
func (rc *RecipeController) ByUser(c *ctx.Context) {
	authorID, ok := c.ParamUint("userId")
	if !ok {
		return
	}
	page, limit := c.Page()
	rows, p, err := rc.recipes.List(c.Context(), services.RecipeQuery{AuthorID: authorID, Page: page, Limit: limit})
	if err != nil {
		c.Fail(err)
		return
	}
	c.Paginated(rows, len(rows), p)
}

func (rc *RecipeController) Show(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		return
	}
	rec, err := rc.recipes.Get(c.Context(), id)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(rec)
}

func (rc *RecipeController) Store(c *ctx.Context) {
	var in services.RecipeInput
	if !c.BindJSON(&in) {
		return
	}
	rec, err := rc.recipes.Create(c.Context(), c.Actor(), in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Created(rec)
}

func (rc *RecipeController) Update(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		return
	}
	var in services.RecipeInput
	if !c.BindJSON(&in) {
		return
	}
	rec, err := rc.recipes.Update(c.Context(), c.Actor(), id, in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(rec)
}

func (rc *RecipeController) Destroy(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		return
	}
	if err := rc.recipes.Delete(c.Context(), c.Actor(), id); err != nil {
		c.Fail(err)
		return
	}
	c.Message("Recipe deleted")
}

func (rc *RecipeController) Like(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		return
	}
	res, err := rc.recipes.ToggleLike(c.Context(), c.Actor(), id)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(res)
}

func (rc *RecipeController) Comment(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		return
	}
	var in services.CommentInput
	if !c.BindJSON(&in) {
		return
	}
	comment, err := rc.recipes.Comment(c.Context(), c.Actor(), id, in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Created(comment)
}

func (rc *RecipeController) Rate(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		return
	}
	var in services.RateInput
	if !c.BindJSON(&in) {
		return
	}
	rec, err := rc.recipes.Rate(c.Context(), c.Actor(), id, in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(rec)
}

func (rc *RecipeController) Unrate(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		return
	}
	rec, err := rc.recipes.Unrate(c.Context(), c.Actor(), id)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(rec)
}
