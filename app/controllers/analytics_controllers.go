package controllers

import (
	"github.com/gebeta-app/gebeta/app/services"
	"github.com/gebeta-app/gebeta/pkg/ctx"
)

// AnalyticsController serves the admin dashboards.
type AnalyticsController struct {
	analytics *services.AnalyticsService
}

func NewAnalyticsController(analytics *services.AnalyticsService) *AnalyticsController {
	return &AnalyticsController{analytics: analytics}
}

func (ac *AnalyticsController) Users(c *ctx.Context) {
	res, err := ac.analytics.Users(c.Context())
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(res)
}

func (ac *AnalyticsController) Orders(c *ctx.Context) {
	res, err := ac.analytics.Orders(c.Context())
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(res)
}

func (ac *AnalyticsController) Restaurants(c *ctx.Context) {
	res, err := ac.analytics.Restaurants(c.Context())
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(res)
}
