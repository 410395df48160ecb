package router

import (
	"plan-beyond-server/internal/handler"

	"github.com/gin-gonic/gin"
)

func registerBiometricRoutes(api *gin.RouterGroup, sessionAuth gin.HandlerFunc, h *handler.BiometricHandler) {
	api.POST("/login-biometric", h.LoginBiometric)
	api.POST("/verify-biometric-login", h.VerifyBiometricLogin)

	api.POST("/register-biometric", sessionAuth, h.RegisterBiometric)
	api.POST("/verify-biometric-registration", sessionAuth, h.VerifyBiometricRegistration)
	api.DELETE("/delete-biometric", sessionAuth, h.DeleteBiometric)
	api.GET("/check-biometric", sessionAuth, h.CheckBiometric)
}
