package controllers

import (
	"net/http"

	"github.com/gebeta-app/gebeta/pkg/auth"
	"github.com/gebeta-app/gebeta/pkg/ctx"
	"github.com/gebeta-app/gebeta/pkg/ws"
)

// RealtimeController upgrades clients to the order-tracking websocket.
type RealtimeController struct {
	hub *ws.Hub
}

func NewRealtimeController(hub *ws.Hub) *RealtimeController {
	return &RealtimeController{hub: hub}
}

// Orders authenticates with ?token= because browsers cannot set headers on
// a websocket handshake.
func (rc *RealtimeController) Orders(c *ctx.Context) {
	claims, err := auth.ValidateToken(c.Query("token"))
	if err != nil {
		c.Error(http.StatusUnauthorized, "Invalid or expired token")
		return
	}
	rc.hub.Serve(c.W, c.R, claims.UserID)
}
