package controllers

import (
	"github.com/gebeta-app/gebeta/app/services"
	"github.com/gebeta-app/gebeta/pkg/ctx"
)

type OrderController struct {
	orders *services.OrderService
}

func NewOrderController(orders *services.OrderService) *OrderController {
	return &OrderController{orders: orders}
}

func orderQuery(c *ctx.Context) services.OrderQuery {
	page, limit := c.Page()
	return services.OrderQuery{Status: c.Query("status"), Page: page, Limit: limit}
}

// Store places an order for the caller.
func (oc *OrderController) Store(c *ctx.Context) {
	var in services.CreateOrderInput
	if !c.BindJSON(&in) {
		return
	}
	order, err := oc.orders.Create(c.Context(), c.Actor(), in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Created(order)
}

// Index lists the orders visible to the caller's role.
func (oc *OrderController) Index(c *ctx.Context) {
	rows, p, err := oc.orders.List(c.Context(), c.Actor(), orderQuery(c))
	if err != nil {
		c.Fail(err)
		return
	}
	c.Paginated(rows, len(rows), p)
}

func (oc *OrderController) Show(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		return
	}
	order, err := oc.orders.Get(c.Context(), c.Actor(), id)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(order)
}

func (oc *OrderController) UpdateStatus(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		return
	}
	var in services.TransitionInput
	if !c.BindJSON(&in) {
		return
	}
	order, err := oc.orders.Transition(c.Context(), c.Actor(), id, in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(order)
}

func (oc *OrderController) UpdatePayment(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		return
	}
	var in services.PaymentInput
	if !c.BindJSON(&in) {
		return
	}
	order, err := oc.orders.UpdatePayment(c.Context(), c.Actor(), id, in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(order)
}

func (oc *OrderController) ByRestaurant(c *ctx.Context) {
	id, ok := c.ParamUint("restaurantId")
	if !ok {
		return
	}
	rows, p, err := oc.orders.ListByRestaurant(c.Context(), c.Actor(), id, orderQuery(c))
	if err != nil {
		c.Fail(err)
		return
	}
	c.Paginated(rows, len(rows), p)
}

func (oc *OrderController) ByUser(c *ctx.Context) {
	id, ok := c.ParamUint("userId")
	if !ok {
		return
	}
	rows, p, err := oc.orders.ListByUser(c.Context(), c.Actor(), id, orderQuery(c))
	if err != nil {
		c.Fail(err)
		return
	}
	c.Paginated(rows, len(rows), p)
}
