package handler

import (
	"net/http"
	"plan-beyond-server/internal/common/httpx"
	"plan-beyond-server/internal/consts"
	"plan-beyond-server/internal/middleware"
	"plan-beyond-server/internal/utils"

	"github.com/gin-gonic/gin"
)

func (h *AmbassadorHandler) Invite(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.WriteError(c, http.StatusBadRequest, utils.BindingErrorMessage(err))
		return
	}
	inviterID, _ := middleware.CurrentUserID(c)

	if err := h.ambassador.Invite(c.Request.Context(), inviterID, req.Email); err != nil {
		writeError(c, h.log, "ambassador.invite", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": consts.MsgInviteSent})
}

func (h *AmbassadorHandler) Accept(c *gin.Context) {
	var req struct {
		Token    string `json:"token" binding:"required"`
		Password string `json:"password" binding:"omitempty,strongpwd"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.WriteError(c, http.StatusBadRequest, utils.BindingErrorMessage(err))
		return
	}

	userID, err := h.ambassador.Accept(c.Request.Context(), req.Token, req.Password)
	if err != nil {
		writeError(c, h.log, "ambassador.accept", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": consts.MsgInviteAccepted, "userId": userID})
}
