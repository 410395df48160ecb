package router

import (
	"plan-beyond-server/internal/handler"

	"github.com/gin-gonic/gin"
)

func registerAmbassadorRoutes(api *gin.RouterGroup, sessionAuth gin.HandlerFunc, h *handler.AmbassadorHandler) {
	group := api.Group("/ambassador")
	group.POST("/invite", sessionAuth, h.Invite)
	group.POST("/accept", h.Accept)
}
