package router

import (
	"plan-beyond-server/internal/handler"

	"github.com/gin-gonic/gin"
)

func registerPublicRoutes(api *gin.RouterGroup, h *handler.SessionHandler, sessionAuth gin.HandlerFunc) {
	api.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"success": true, "message": "pong"})
	})
	api.POST("/logout", h.Logout)
	api.GET("/check-session", sessionAuth, h.CheckSession)
}
