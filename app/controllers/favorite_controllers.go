package controllers

import (
	"net/http"

	"github.com/gebeta-app/gebeta/app/services"
	"github.com/gebeta-app/gebeta/pkg/ctx"
	"github.com/gebeta-app/gebeta/pkg/response"
)

type FavoriteController struct {
	favorites *services.FavoriteService
}

func NewFavoriteController(favorites *services.FavoriteService) *FavoriteController {
	return &FavoriteController{favorites: favorites}
}

func (fc *FavoriteController) Store(c *ctx.Context) {
	var in services.FavoriteInput
	if !c.BindJSON(&in) {
		return
	}
	fav, err := fc.favorites.Add(c.Context(), c.Actor(), in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Created(fav)
}

func (fc *FavoriteController) Index(c *ctx.Context) {
	page, limit := c.Page()
	rows, p, err := fc.favorites.List(c.Context(), c.Actor(), c.Query("type"), page, limit)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Paginated(rows, len(rows), p)
}

func (fc *FavoriteController) Destroy(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		return
	}
	if err := fc.favorites.Remove(c.Context(), c.Actor(), id); err != nil {
		c.Fail(err)
		return
	}
	c.Message("Removed from favorites")
}

// NotificationController serves the caller's inbox.
type NotificationController struct {
	notifications *services.NotificationService
}

func NewNotificationController(notifications *services.NotificationService) *NotificationController {
	return &NotificationController{notifications: notifications}
}

type notificationPage struct {
	response.PageBody
	UnreadCount int64 `json:"unreadCount"`
}

func (nc *NotificationController) Index(c *ctx.Context) {
	page, limit := c.Page()
	res, err := nc.notifications.List(c.Context(), c.Actor(), c.QueryBool("unreadOnly"), page, limit)
	if err != nil {
		c.Fail(err)
		return
	}
	c.JSON(http.StatusOK, notificationPage{
		PageBody: response.PageBody{
			Status:      response.StatusSuccess,
			Results:     len(res.Items),
			Total:       res.Pagination.Total,
			TotalPages:  res.Pagination.TotalPages,
			CurrentPage: res.Pagination.Page,
			Data:        res.Items,
		},
		UnreadCount: res.UnreadCount,
	})
}

func (nc *NotificationController) MarkRead(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		return
	}
	n, err := nc.notifications.MarkRead(c.Context(), c.Actor(), id)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(n)
}

func (nc *NotificationController) MarkAllRead(c *ctx.Context) {
	n, err := nc.notifications.MarkAllRead(c.Context(), c.Actor())
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(map[string]int64{"updated": n})
}

func (nc *NotificationController) UnreadCount(c *ctx.Context) {
	n, err := nc.notifications.UnreadCount(c.Context(), c.Actor())
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(map[string]int64{"unreadCount": n})
}

func (nc *NotificationController) Destroy(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		return
	}
	if err := nc.notifications.Delete(c.Context(), c.Actor(), id); err != nil {
		c.Fail(err)
		return
	}
	c.Message("Notification deleted")
}
