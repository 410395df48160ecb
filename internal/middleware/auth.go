package middleware

import (
	"net/http"
	"plan-beyond-server/internal/common/httpx"
	"plan-beyond-server/internal/consts"
	"plan-beyond-server/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	ContextUserID   = "userId"
	ContextUserType = "userType"
)

// SessionAuth 要求请求携带有效会话，并把用户身份写入上下文
func SessionAuth(sessions *service.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, userType, ok := sessions.CurrentUser(c.Request)
		if !ok {
			httpx.WriteError(c, http.StatusUnauthorized, consts.MsgNotAuthenticated)
			c.Abort()
			return
		}

		c.Set(ContextUserID, userID)
		c.Set(ContextUserType, userType)
		c.Next()
	}
}

// CurrentUserID 读取 SessionAuth 写入的用户 ID
func CurrentUserID(c *gin.Context) (uint, bool) {
	v, exists := c.Get(ContextUserID)
	if !exists {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok && id != 0
}
