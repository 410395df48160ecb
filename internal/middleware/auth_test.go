package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"plan-beyond-server/internal/config"
	"plan-beyond-server/internal/consts"
	"plan-beyond-server/internal/service"

	"github.com/gin-gonic/gin"
)

// 测试内容：验证无会话返回 401，有会话时用户身份写入上下文。
func TestSessionAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)

	sessions := service.NewSessionService(config.Config{Session: config.SessionConfig{Secret: "middleware_test_secret"}})

	r := gin.New()
	r.POST("/signin", func(c *gin.Context) {
		_ = sessions.SignIn(c.Writer, c.Request, 42, consts.UserTypeAmbassador)
		c.Status(http.StatusOK)
	})
	r.GET("/me", SessionAuth(sessions), func(c *gin.Context) {
		id, ok := CurrentUserID(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		userType, _ := c.Get(ContextUserType)
		c.JSON(http.StatusOK, gin.H{"id": id, "type": userType})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("期望 401，实际为 %d", w.Code)
	}

	signin := httptest.NewRecorder()
	r.ServeHTTP(signin, httptest.NewRequest(http.MethodPost, "/signin", nil))
	cookies := signin.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatalf("期望写入会话 Cookie")
	}

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, req)
	if w2.Code != http.StatusOK {
		t.Fatalf("期望 200，实际为 %d body=%s", w2.Code, w2.Body.String())
	}
	if body := w2.Body.String(); body != `{"id":42,"type":"ambassador"}` {
		t.Fatalf("非预期响应: %s", body)
	}
}
