package router

import (
	"plan-beyond-server/internal/handler"

	"github.com/gin-gonic/gin"
)

func registerAuthRoutes(api *gin.RouterGroup, passwordLimiter gin.HandlerFunc, h *handler.AuthHandler) {
	api.POST("/register", h.Register)
	api.POST("/verify-otp", h.VerifyOTP)
	api.POST("/resend-otp", h.ResendOTP)
	api.POST("/login", h.Login)
	api.POST("/verify-login-otp", h.VerifyLoginOTP)

	// 忘记/重置密码按 IP 限流（默认 15 分钟 5 次），两个接口共用额度
	api.POST("/forgot-password", passwordLimiter, h.ForgotPassword)
	api.POST("/reset-password", passwordLimiter, h.ResetPassword)
}
