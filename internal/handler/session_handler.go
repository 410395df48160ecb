package handler

import (
	"net/http"
	"plan-beyond-server/internal/consts"
	"plan-beyond-server/internal/middleware"

	"github.com/gin-gonic/gin"
)

func (h *SessionHandler) Logout(c *gin.Context) {
	if err := h.sessions.SignOut(c.Writer, c.Request); err != nil {
		writeError(c, h.log, "session.sign_out", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": consts.MsgLoggedOut})
}

// CheckSession 必须挂在 SessionAuth 之后
func (h *SessionHandler) CheckSession(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	userType, _ := c.Get(middleware.ContextUserType)
	c.JSON(http.StatusOK, gin.H{"success": true, "userId": userID, "userType": userType})
}
