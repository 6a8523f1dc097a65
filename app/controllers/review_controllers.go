package controllers

import (
	"github.com/gebeta-app/gebeta/app/models"
	"github.com/gebeta-app/gebeta/app/services"
	"github.com/gebeta-app/gebeta/pkg/ctx"
)

type ReviewController struct {
	reviews *services.ReviewService
}

func NewReviewController(reviews *services.ReviewService) *ReviewController {
	return &ReviewController{reviews: reviews}
}

func reviewQuery(c *ctx.Context) services.ReviewQuery {
	page, limit := c.Page()
	return services.ReviewQuery{
		RestaurantID: c.QueryUint("restaurant"),
		UserID:       c.QueryUint("user"),
		Status:       c.Query("status"),
		MinRating:    c.QueryInt("minRating", 0),
		Sort:         c.Query("sort"),
		Page:         page,
		Limit:        limit,
	}
}

// Index lists reviews. Only admins see pending and rejected ones.
func (rc *ReviewController) Index(c *ctx.Context) {
	q := reviewQuery(c)
	if !c.Actor().IsAdmin() {
		q.Status = models.ReviewApproved
	}
	rc.list(c, q)
}

func (rc *ReviewController) ForRestaurant(c *ctx.Context) {
	id, ok := c.ParamUint("restaurantId")
	if !ok {
		return
	}
	rows, p, err := rc.reviews.ListForRestaurant(c.Context(), id, reviewQuery(c))
	if err != nil {
		c.Fail(err)
		return
	}
	c.Paginated(rows, len(rows), p)
}

// ForUser lists a user's reviews; the user and admins also see unapproved
// ones.
func (rc *ReviewController) ForUser(c *ctx.Context) {
	id, ok := c.ParamUint("userId")
	if !ok {
		return
	}
	q := reviewQuery(c)
	q.RestaurantID = 0
	q.UserID = id
	if !c.Actor().OwnsOrAdmin(id) {
		q.Status = models.ReviewApproved
	}
	rc.list(c, q)
}

func (rc *ReviewController) list(c *ctx.Context, q services.ReviewQuery) {
	rows, p, err := rc.reviews.List(c.Context(), q)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Paginated(rows, len(rows), p)
}

func (rc *ReviewController) Show(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		return
	}
	rev, err := rc.reviews.Get(c.Context(), id)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(rev)
}

func (rc *ReviewController) Store(c *ctx.Context) {
	var in services.CreateReviewInput
	if !c.BindJSON(&in) {
		return
	}
	rev, err := rc.reviews.Create(c.Context(), c.Actor(), in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Created(rev)
}

func (rc *ReviewController) Update(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		return
	}
	var in services.UpdateReviewInput
	if !c.BindJSON(&in) {
		return
	}
	rev, err := rc.reviews.Update(c.Context(), c.Actor(), id, in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(rev)
}

func (rc *ReviewController) Destroy(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		return
	}
	if err := rc.reviews.Delete(c.Context(), c.Actor(), id); err != nil {
		c.Fail(err)
		return
	}
	c.Message("Review deleted")
}

func (rc *ReviewController) Helpful(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		return
	}
	res, err := rc.reviews.ToggleHelpful(c.Context(), c.Actor(), id)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(res)
}

func (rc *ReviewController) Reply(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		return
	}
	var in services.ReplyInput
	if !c.BindJSON(&in) {
		return
	}
	rev, err := rc.reviews.Reply(c.Context(), c.Actor(), id, in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(rev)
}
