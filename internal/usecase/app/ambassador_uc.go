package app

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	commonpkg "plan-beyond-server/internal/common"
	"plan-beyond-server/internal/consts"
	"plan-beyond-server/internal/model"
	"plan-beyond-server/internal/service"
	"plan-beyond-server/internal/utils"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Invite 将 email 对应的用户登记为 inviter 的大使，并发送带签名令牌的接受链接。
// 邮箱尚未注册时创建一个未验证、持随机密码的占位账号。
func (c *AmbassadorUseCase) Invite(ctx context.Context, inviterID uint, email string) error {
	email = service.NormalizeEmail(email)
	if ok, msg := utils.ValidateEmail(email); !ok {
		return commonpkg.NewValidationError(msg)
	}

	inviter, err := c.userStore.FindByID(inviterID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return commonpkg.NewNotFoundError(consts.MsgUserNotFound)
		}
		return fmt.Errorf("find inviter: %w", err)
	}
	if inviter.Email == email {
		return commonpkg.NewValidationError(consts.MsgCannotInviteSelf)
	}

	pending := false
	invitee, err := c.userStore.FindByEmail(email)
	switch {
	case err == nil:
		if err := c.userStore.UpdateByID(invitee.ID, map[string]interface{}{
			"ambassador_user_id": inviter.ID,
			"ambassador_accept":  pending,
		}); err != nil {
			return fmt.Errorf("link ambassador: %w", err)
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		placeholder, err := service.HashPassword(uuid.NewString())
		if err != nil {
			return fmt.Errorf("hash placeholder password: %w", err)
		}
		invitee = &model.User{
			Email:            email,
			Password:         placeholder,
			AmbassadorUserID: &inviter.ID,
			AmbassadorAccept: &pending,
		}
		if err := c.userStore.Create(invitee); err != nil {
			if isUniqueConflict(err) {
				return commonpkg.NewConflictError(consts.MsgUserAlreadyExists)
			}
			return fmt.Errorf("create ambassador: %w", err)
		}
	default:
		return fmt.Errorf("find invitee: %w", err)
	}

	hours := c.cfg.JWT.InviteExpirationHours
	if hours <= 0 {
		hours = 72
	}
	token, err := utils.GenerateAmbassadorInviteToken(invitee.ID, inviter.ID, email, time.Duration(hours)*time.Hour)
	if err != nil {
		return fmt.Errorf("sign invite token: %w", err)
	}

	acceptURL := strings.TrimRight(c.cfg.Frontend.BaseURL, "/") + "/ambassador/accept?token=" + url.QueryEscape(token)
	if err := c.mailer.SendAmbassadorInvite(ctx, email, inviter.Email, acceptURL); err != nil {
		return fmt.Errorf("send invite: %w", err)
	}

	c.log.Info().Uint("inviter_id", inviter.ID).Uint("ambassador_id", invitee.ID).Msg("📨 ambassador invite sent")
	return nil
}

// Accept 校验邀请令牌并将 ambassador_accept 置为 true。
// 未验证的账号必须同时设置登录密码。
func (c *AmbassadorUseCase) Accept(ctx context.Context, token, password string) (uint, error) {
	claims, err := utils.ParseAmbassadorInviteToken(strings.TrimSpace(token))
	if err != nil {
		return 0, commonpkg.NewValidationError(consts.MsgInvalidInvite)
	}

	user, err := c.userStore.FindByID(claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, commonpkg.NewValidationError(consts.MsgInvalidInvite)
		}
		return 0, fmt.Errorf("find ambassador: %w", err)
	}
	if user.Email != claims.Email || user.AmbassadorUserID == nil || *user.AmbassadorUserID != claims.InviterID {
		return 0, commonpkg.NewValidationError(consts.MsgInvalidInvite)
	}

	updates := map[string]interface{}{"ambassador_accept": true}
	if !user.IsVerified {
		if password == "" {
			return 0, commonpkg.NewValidationError(consts.MsgPasswordRequired)
		}
		if ok, msg := utils.ValidatePassword(password); !ok {
			return 0, commonpkg.NewValidationError(msg)
		}
		hashed, err := service.HashPassword(password)
		if err != nil {
			return 0, fmt.Errorf("hash password: %w", err)
		}
		updates["password"] = hashed
	}

	if err := c.userStore.UpdateByID(user.ID, updates); err != nil {
		return 0, fmt.Errorf("accept invite: %w", err)
	}
	c.log.Info().Uint("ambassador_id", user.ID).Msg("✅ ambassador invite accepted")
	return user.ID, nil
}
