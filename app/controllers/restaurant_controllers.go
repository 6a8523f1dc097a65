package controllers

import (
	"github.com/gebeta-app/gebeta/app/services"
	"github.com/gebeta-app/gebeta/pkg/ctx"
)

// RestaurantController serves restaurants and their menu items.
type RestaurantController struct {
	restaurants *services.RestaurantService
}

func NewRestaurantController(restaurants *services.RestaurantService) *RestaurantController {
	return &RestaurantController{restaurants: restaurants}
}

func (rc *RestaurantController) Index(c *ctx.Context) {
	page, limit := c.Page()
	rows, p, err := rc.restaurants.List(c.Context(), services.RestaurantQuery{
		Cuisine: c.Query("cuisine"),
		City:    c.Query("city"),
		Search:  c.Query("search"),
		Page:    page,
		Limit:   limit,
	})
	if err != nil {
		c.Fail(err)
		return
	}
	c.Paginated(rows, len(rows), p)
}

func (rc *RestaurantController) Show(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		return
	}
	rest, err := rc.restaurants.Get(c.Context(), id)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(rest)
}

func (rc *RestaurantController) ByOwner(c *ctx.Context) {
	ownerID, ok := c.ParamUint("ownerId")
	if !ok {
		return
	}
	page, limit := c.Page()
	rows, p, err := rc.restaurants.ListByOwner(c.Context(), ownerID, page, limit)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Paginated(rows, len(rows), p)
}

func (rc *RestaurantController) Store(c *ctx.Context) {
	var in services.RestaurantInput
	if !c.BindJSON(&in) {
		return
	}
	rest, err := rc.restaurants.Create(c.Context(), c.Actor(), in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Created(rest)
}

func (rc *RestaurantController) Update(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		return
	}
	var in services.RestaurantInput
	if !c.BindJSON(&in) {
		return
	}
	rest, err := rc.restaurants.Update(c.Context(), c.Actor(), id, in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(rest)
}

func (rc *RestaurantController) Destroy(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		return
	}
	if err := rc.restaurants.Delete(c.Context(), c.Actor(), id); err != nil {
		c.Fail(err)
		return
	}
	c.Message("Restaurant deleted")
}

func (rc *RestaurantController) Menu(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		return
	}
	items, err := rc.restaurants.Menu(c.Context(), id)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(items)
}

// ReplaceMenu swaps the whole menu in one write.
func (rc *RestaurantController) ReplaceMenu(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		return
	}
	var in services.ReplaceMenuInput
	if !c.BindJSON(&in) {
		return
	}
	items, err := rc.restaurants.ReplaceMenu(c.Context(), c.Actor(), id, in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(items)
}

func (rc *RestaurantController) ShowMenuItem(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		return
	}
	item, err := rc.restaurants.GetMenuItem(c.Context(), id)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(item)
}

func (rc *RestaurantController) StoreMenuItem(c *ctx.Context) {
	var in services.MenuItemInput
	if !c.BindJSON(&in) {
		return
	}
	item, err := rc.restaurants.CreateMenuItem(c.Context(), c.Actor(), in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Created(item)
}

func (rc *RestaurantController) UpdateMenuItem(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		return
	}
	var in services.MenuItemInput
	if !c.BindJSON(&in) {
		return
	}
	item, err := rc.restaurants.UpdateMenuItem(c.Context(), c.Actor(), id, in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(item)
}

func (rc *RestaurantController) DestroyMenuItem(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		return
	}
	if err := rc.restaurants.DeleteMenuItem(c.Context(), c.Actor(), id); err != nil {
		c.Fail(err)
		return
	}
	c.Message("Menu item deleted")
}
