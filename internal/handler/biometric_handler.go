package handler

import (
	"encoding/json"
	"net/http"
	"plan-beyond-server/internal/common/httpx"
	"plan-beyond-server/internal/consts"
	"plan-beyond-server/internal/middleware"
	"plan-beyond-server/internal/usecase/app"
	"plan-beyond-server/internal/utils"

	"github.com/gin-gonic/gin"
)

// ceremonyID 优先使用请求体中的 ceremonyId，缺省时取会话中记住的令牌
func (h *BiometricHandler) ceremonyID(c *gin.Context, fromBody string) string {
	if fromBody != "" {
		return fromBody
	}
	return h.sessions.TakeCeremony(c.Writer, c.Request)
}

func (h *BiometricHandler) rememberCeremony(c *gin.Context, id string) {
	if err := h.sessions.RememberCeremony(c.Writer, c.Request, id); err != nil {
		h.log.Warn().Err(err).Msg("remember ceremony id in session failed")
	}
}

func (h *BiometricHandler) RegisterBiometric(c *gin.Context) {
	var req struct {
		Email         string `json:"email"`
		UserID        uint   `json:"userId"`
		BiometricType string `json:"biometricType" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.WriteError(c, http.StatusBadRequest, utils.BindingErrorMessage(err))
		return
	}
	userID, _ := middleware.CurrentUserID(c)

	result, err := h.biometric.BeginRegistration(c.Request.Context(), userID, req.UserID, req.BiometricType)
	if err != nil {
		writeError(c, h.log, "biometric.begin_registration", err)
		return
	}

	h.rememberCeremony(c, result.CeremonyID)
	c.JSON(http.StatusOK, gin.H{"success": true, "options": result.Options, "ceremonyId": result.CeremonyID})
}

func (h *BiometricHandler) VerifyBiometricRegistration(c *gin.Context) {
	var req struct {
		Response      json.RawMessage `json:"response" binding:"required"`
		UserID        uint            `json:"userId"`
		BiometricType string          `json:"biometricType" binding:"required"`
		CeremonyID    string          `json:"ceremonyId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.WriteError(c, http.StatusBadRequest, utils.BindingErrorMessage(err))
		return
	}
	userID, _ := middleware.CurrentUserID(c)
	if req.UserID != 0 && req.UserID != userID {
		httpx.WriteError(c, http.StatusForbidden, consts.MsgForbidden)
		return
	}

	if err := h.biometric.FinishRegistration(c.Request.Context(), userID, h.ceremonyID(c, req.CeremonyID), req.Response, req.BiometricType); err != nil {
		writeError(c, h.log, "biometric.finish_registration", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": consts.MsgBiometricRegistered})
}

func (h *BiometricHandler) LoginBiometric(c *gin.Context) {
	var req struct {
		BiometricType string `json:"biometricType"`
	}
	// 请求体可为空
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.WriteError(c, http.StatusBadRequest, utils.BindingErrorMessage(err))
			return
		}
	}

	result, err := h.biometric.BeginLogin(c.Request.Context(), req.BiometricType)
	if err != nil {
		writeError(c, h.log, "biometric.begin_login", err)
		return
	}

	h.rememberCeremony(c, result.CeremonyID)
	c.JSON(http.StatusOK, gin.H{"success": true, "options": result.Options, "ceremonyId": result.CeremonyID})
}

func (h *BiometricHandler) VerifyBiometricLogin(c *gin.Context) {
	var req struct {
		Response      json.RawMessage `json:"response" binding:"required"`
		BiometricType string          `json:"biometricType"`
		CeremonyID    string          `json:"ceremonyId"`
		DeviceID      string          `json:"deviceId"`
		UserAgent     string          `json:"userAgent"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.WriteError(c, http.StatusBadRequest, utils.BindingErrorMessage(err))
		return
	}

	result, err := h.biometric.FinishLogin(c.Request.Context(), app.FinishBiometricLoginInput{
		CeremonyID:    h.ceremonyID(c, req.CeremonyID),
		Response:      req.Response,
		BiometricType: req.BiometricType,
		DeviceID:      req.DeviceID,
		DeviceName:    deviceName(c, req.UserAgent),
	})
	if err != nil {
		writeError(c, h.log, "biometric.finish_login", err)
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

func (h *BiometricHandler) DeleteBiometric(c *gin.Context) {
	var req struct {
		BiometricType string `json:"biometricType"`
	}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.WriteError(c, http.StatusBadRequest, utils.BindingErrorMessage(err))
			return
		}
	}
	if req.BiometricType == "" {
		req.BiometricType = c.Query("biometricType")
	}
	userID, _ := middleware.CurrentUserID(c)

	if err := h.biometric.Delete(userID, req.BiometricType); err != nil {
		writeError(c, h.log, "biometric.delete", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": consts.MsgBiometricDeleted})
}

func (h *BiometricHandler) CheckBiometric(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)

	registered, err := h.biometric.Check(userID, c.Query("biometricType"))
	if err != nil {
		writeError(c, h.log, "biometric.check", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "isRegistered": registered})
}
