package controllers

import (
	"github.com/gebeta-app/gebeta/app/services"
	"github.com/gebeta-app/gebeta/pkg/ctx"
)

type AuthController struct {
	auth *services.AuthService
	otp  *services.OTPService
}

func NewAuthController(auth *services.AuthService, otp *services.OTPService) *AuthController {
	return &AuthController{auth: auth, otp: otp}
}

// Register creates an email/password account and signs it in.
func (ac *AuthController) Register(c *ctx.Context) {
	var in services.RegisterInput
	if !c.BindJSON(&in) {
		return
	}
	res, err := ac.auth.Register(c.Context(), in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Created(res)
}

func (ac *AuthController) Login(c *ctx.Context) {
	var in services.LoginInput
	if !c.BindJSON(&in) {
		return
	}
	res, err := ac.auth.Login(c.Context(), in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(res)
}

func (ac *AuthController) Me(c *ctx.Context) {
	user, err := ac.auth.Me(c.Context(), c.Actor())
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(user)
}

// RequestOTP sends a one-time code to a phone number.
func (ac *AuthController) RequestOTP(c *ctx.Context) {
	var in services.OTPRequestInput
	if !c.BindJSON(&in) {
		return
	}
	issued, err := ac.otp.RequestCode(c.Context(), in.Phone, in.Role)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(issued)
}

func (ac *AuthController) VerifyOTP(c *ctx.Context) {
	var in services.OTPVerifyInput
	if !c.BindJSON(&in) {
		return
	}
	res, err := ac.otp.VerifyCode(c.Context(), in.Phone, in.Code)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(res)
}

func (ac *AuthController) ResendOTP(c *ctx.Context) {
	var in services.OTPResendInput
	if !c.BindJSON(&in) {
		return
	}
	issued, err := ac.otp.ResendCode(c.Context(), in.Phone)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(issued)
}
