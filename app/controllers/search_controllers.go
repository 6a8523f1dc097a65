package controllers

import (
	"github.com/gebeta-app/gebeta/app/services"
	"github.com/gebeta-app/gebeta/pkg/ctx"
)

type SearchController struct {
	search *services.SearchService
}

func NewSearchController(search *services.SearchService) *SearchController {
	return &SearchController{search: search}
}

// Index answers GET /search?query=&type=recipe|restaurant|user.
func (sc *SearchController) Index(c *ctx.Context) {
	page, limit := c.Page()
	res, err := sc.search.Search(c.Context(), services.SearchQuery{
		Query: c.Query("query"),
		Type:  c.Query("type"),
		Page:  page,
		Limit: limit,
	})
	if err != nil {
		c.Fail(err)
		return
	}
	c.Paginated(res.Items, len(res.Items), res.Pagination)
}
