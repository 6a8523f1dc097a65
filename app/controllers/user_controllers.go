package controllers

import (
	"github.com/gebeta-app/gebeta/app/services"
	"github.com/gebeta-app/gebeta/pkg/ctx"
)

// UserController serves the caller's profile and the admin user directory.
type UserController struct {
	users *services.UserService
}

func NewUserController(users *services.UserService) *UserController {
	return &UserController{users: users}
}

func (uc *UserController) Me(c *ctx.Context) {
	user, err := uc.users.Profile(c.Context(), c.Actor())
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(user)
}

func (uc *UserController) UpdateMe(c *ctx.Context) {
	var in services.ProfileInput
	if !c.BindJSON(&in) {
		return
	}
	user, err := uc.users.UpdateProfile(c.Context(), c.Actor(), in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(user)
}

func (uc *UserController) DeleteMe(c *ctx.Context) {
	if err := uc.users.Deactivate(c.Context(), c.Actor()); err != nil {
		c.Fail(err)
		return
	}
	c.Message("Account deactivated")
}

func (uc *UserController) Index(c *ctx.Context) {
	page, limit := c.Page()
	rows, p, err := uc.users.List(c.Context(), services.UserQuery{
		Search: c.Query("search"),
		Role:   c.Query("role"),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		c.Fail(err)
		return
	}
	c.Paginated(rows, len(rows), p)
}

func (uc *UserController) Show(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		return
	}
	user, err := uc.users.Get(c.Context(), id)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(user)
}

func (uc *UserController) Update(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		return
	}
	var in services.AdminUserInput
	if !c.BindJSON(&in) {
		return
	}
	user, err := uc.users.Update(c.Context(), id, in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(user)
}

func (uc *UserController) Destroy(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		return
	}
	if err := uc.users.Delete(c.Context(), c.Actor(), id); err != nil {
		c.Fail(err)
		return
	}
	c.Message("User deleted")
}
