package handler

import (
	"net/http"
	"plan-beyond-server/internal/common/httpx"
	"plan-beyond-server/internal/consts"
	"plan-beyond-server/internal/usecase/app"
	"plan-beyond-server/internal/utils"

	"github.com/gin-gonic/gin"
)

func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.WriteError(c, http.StatusBadRequest, utils.BindingErrorMessage(err))
		return
	}

	userID, err := h.auth.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, h.log, "auth.register", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": consts.MsgRegisterSuccess, "userId": userID})
}

func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req struct {
		Email           string `json:"email" binding:"required"`
		OTP             string `json:"otp" binding:"required"`
		IsPasswordReset bool   `json:"isPasswordReset"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.WriteError(c, http.StatusBadRequest, utils.BindingErrorMessage(err))
		return
	}

	userID, err := h.auth.VerifyOTP(req.Email, req.OTP, req.IsPasswordReset)
	if err != nil {
		writeError(c, h.log, "auth.verify_otp", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": consts.MsgOTPVerified, "userId": userID})
}

func (h *AuthHandler) ResendOTP(c *gin.Context) {
	var req struct {
		Email   string `json:"email" binding:"required"`
		Purpose string `json:"purpose"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.WriteError(c, http.StatusBadRequest, utils.BindingErrorMessage(err))
		return
	}

	if err := h.auth.ResendOTP(c.Request.Context(), req.Email, consts.OTPPurpose(req.Purpose)); err != nil {
		writeError(c, h.log, "auth.resend_otp", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": consts.MsgOTPResent})
}

func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.WriteError(c, http.StatusBadRequest, utils.BindingErrorMessage(err))
		return
	}

	if err := h.auth.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		writeError(c, h.log, "auth.forgot_password", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": consts.MsgPasswordResetOTPSent})
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req struct {
		Email              string `json:"email" binding:"required"`
		OTP                string `json:"otp" binding:"required"`
		NewPassword        string `json:"newPassword" binding:"required"`
		ConfirmNewPassword string `json:"confirmNewPassword" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.WriteError(c, http.StatusBadRequest, utils.BindingErrorMessage(err))
		return
	}

	if err := h.auth.ResetPassword(app.ResetPasswordInput{
		Email:              req.Email,
		OTP:                req.OTP,
		NewPassword:        req.NewPassword,
		ConfirmNewPassword: req.ConfirmNewPassword,
	}); err != nil {
		writeError(c, h.log, "auth.reset_password", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": consts.MsgPasswordResetSuccess})
}

// Login 需要二次验证时返回 400 + requiresOtp，客户端据此进入验证码步骤
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email      string `json:"email" binding:"required"`
		Password   string `json:"password" binding:"required"`
		RememberMe bool   `json:"rememberMe"`
		DeviceID   string `json:"deviceId"`
		UserAgent  string `json:"userAgent"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.WriteError(c, http.StatusBadRequest, utils.BindingErrorMessage(err))
		return
	}

	result, err := h.auth.Login(c.Request.Context(), app.LoginInput{
		Email:      req.Email,
		Password:   req.Password,
		RememberMe: req.RememberMe,
		DeviceID:   req.DeviceID,
		DeviceName: deviceName(c, req.UserAgent),
	})
	if err != nil {
		writeError(c, h.log, "auth.login", err)
		return
	}

	if result.RequiresOTP {
		c.JSON(http.StatusBadRequest, gin.H{
			"success":     false,
			"message":     result.Message,
			"requiresOtp": true,
			"deviceId":    result.DeviceID,
			"userId":      result.UserID,
		})
		return
	}

	if !signIn(c, h.sessions, h.log, result.UserID, result.UserType) {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"message":  result.Message,
		"userId":   result.UserID,
		"userType": result.UserType,
	})
}

func (h *AuthHandler) VerifyLoginOTP(c *gin.Context) {
	var req struct {
		Email       string `json:"email" binding:"required"`
		OTP         string `json:"otp" binding:"required"`
		DeviceID    string `json:"deviceId"`
		TrustDevice bool   `json:"trustDevice"`
		UserAgent   string `json:"userAgent"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.WriteError(c, http.StatusBadRequest, utils.BindingErrorMessage(err))
		return
	}

	result, err := h.auth.VerifyLoginOTP(app.VerifyLoginOTPInput{
		Email:       req.Email,
		OTP:         req.OTP,
		DeviceID:    req.DeviceID,
		TrustDevice: req.TrustDevice,
		DeviceName:  deviceName(c, req.UserAgent),
	})
	if err != nil {
		writeError(c, h.log, "auth.verify_login_otp", err)
		return
	}

	if !signIn(c, h.sessions, h.log, result.UserID, result.UserType) {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"message":  result.Message,
		"userId":   result.UserID,
		"userType": result.UserType,
	})
}
