package app

import (
	"context"
	"errors"
	"fmt"
	commonpkg "plan-beyond-server/internal/common"
	"plan-beyond-server/internal/consts"
	"plan-beyond-server/internal/model"
	"plan-beyond-server/internal/repository"
	"plan-beyond-server/internal/service"
	"plan-beyond-server/internal/utils"
	"strings"

	"gorm.io/gorm"
)

// LoginResult 描述一次登录尝试的结果；RequiresOTP 为真时尚未授予会话
type LoginResult struct {
	UserID      uint
	UserType    consts.UserType
	RequiresOTP bool
	DeviceID    string
	Message     string
}

type LoginInput struct {
	Email      string
	Password   string
	RememberMe bool
	DeviceID   string
	DeviceName string
}

type VerifyLoginOTPInput struct {
	Email       string
	OTP         string
	DeviceID    string
	TrustDevice bool
	DeviceName  string
}

type ResetPasswordInput struct {
	Email              string
	OTP                string
	NewPassword        string
	ConfirmNewPassword string
}

// Register 创建未验证用户并发送注册验证码；未验证的邮箱重复注册时刷新密码并重发验证码。
func (c *AuthUseCase) Register(ctx context.Context, email, password string) (uint, error) {
	email = service.NormalizeEmail(email)
	if ok, msg := utils.ValidateEmail(email); !ok {
		return 0, commonpkg.NewValidationError(msg)
	}
	if ok, msg := utils.ValidatePassword(password); !ok {
		return 0, commonpkg.NewValidationError(msg)
	}

	existing, err := c.userStore.FindByEmail(email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, fmt.Errorf("find user by email: %w", err)
	}
	if existing != nil && existing.IsVerified {
		return 0, commonpkg.NewValidationError(consts.MsgUserAlreadyExists)
	}

	hashed, err := service.HashPassword(password)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}

	user := existing
	if user == nil {
		user = &model.User{Email: email, Password: hashed}
		if err := c.userStore.Create(user); err != nil {
			if isUniqueConflict(err) {
				return 0, commonpkg.NewValidationError(consts.MsgUserAlreadyExists)
			}
			return 0, fmt.Errorf("create user: %w", err)
		}
	} else {
		if err := c.userStore.UpdateByID(user.ID, map[string]interface{}{"password": hashed}); err != nil {
			return 0, fmt.Errorf("update password: %w", err)
		}
	}

	if err := c.otpService.Issue(ctx, user, consts.OTPPurposeRegister); err != nil {
		return 0, err
	}
	return user.ID, nil
}

// VerifyOTP 校验注册或重置密码验证码；注册流程标记已验证并清除验证码，重置流程保留验证码给 ResetPassword 使用。
func (c *AuthUseCase) VerifyOTP(email, otp string, isPasswordReset bool) (uint, error) {
	user, err := c.findUserByEmail(email)
	if err != nil {
		return 0, err
	}
	purpose := consts.OTPPurposeRegister
	if isPasswordReset {
		purpose = consts.OTPPurposePasswordReset
	}
	if err := c.otpService.Verify(user, strings.TrimSpace(otp), purpose); err != nil {
		return 0, err
	}
	if isPasswordReset {
		return user.ID, nil
	}
	if err := c.userStore.MarkVerified(user.ID); err != nil {
		return 0, fmt.Errorf("mark verified: %w", err)
	}
	return user.ID, nil
}

// ResendOTP 重新签发注册或重置密码验证码。
func (c *AuthUseCase) ResendOTP(ctx context.Context, email string, purpose consts.OTPPurpose) error {
	if purpose == "" {
		purpose = consts.OTPPurposeRegister
	}
	if purpose != consts.OTPPurposeRegister && purpose != consts.OTPPurposePasswordReset {
		return commonpkg.NewValidationError("Invalid purpose.")
	}

	user, err := c.findUserByEmail(email)
	if err != nil {
		return err
	}
	if purpose == consts.OTPPurposeRegister && user.IsVerified {
		return commonpkg.NewValidationError(consts.MsgEmailAlreadyVerified)
	}
	return c.otpService.Issue(ctx, user, purpose)
}

func (c *AuthUseCase) ForgotPassword(ctx context.Context, email string) error {
	user, err := c.findUserByEmail(email)
	if err != nil {
		return err
	}
	return c.otpService.Issue(ctx, user, consts.OTPPurposePasswordReset)
}

// ResetPassword 在事务内完成 读取-比对-写入，成功后清除验证码。
func (c *AuthUseCase) ResetPassword(in ResetPasswordInput) error {
	if in.NewPassword != in.ConfirmNewPassword {
		return commonpkg.NewValidationError(consts.MsgPasswordMismatch)
	}
	if ok, msg := utils.ValidatePassword(in.NewPassword); !ok {
		return commonpkg.NewValidationError(msg)
	}

	hashed, err := service.HashPassword(in.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	email := service.NormalizeEmail(in.Email)
	return c.userStore.Transaction(func(tx repository.UserStore) error {
		user, err := tx.FindByEmail(email)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return commonpkg.NewNotFoundError(consts.MsgUserNotFound)
			}
			return err
		}
		if err := c.otpService.Verify(user, strings.TrimSpace(in.OTP), consts.OTPPurposePasswordReset); err != nil {
			return err
		}
		if service.ComparePassword(user.Password, in.NewPassword) {
			return commonpkg.NewValidationError(consts.MsgPasswordReused)
		}
		return tx.UpdatePasswordAndClearOTP(user.ID, hashed)
	})
}

// Login 校验密码后按准入表决定授予会话、要求验证码或拒绝。
// remember_me 与设备记录在决策前无条件写入，设备沿用既有信任状态。
func (c *AuthUseCase) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	deviceID := strings.TrimSpace(in.DeviceID)
	if deviceID == "" {
		return nil, commonpkg.NewValidationError(consts.MsgDeviceIDRequired)
	}

	user, err := c.authService.VerifyPassword(in.Email, in.Password)
	if err != nil {
		return nil, err
	}

	if err := c.userStore.UpdateRememberMe(user.ID, in.RememberMe); err != nil {
		return nil, fmt.Errorf("update remember_me: %w", err)
	}
	trusted, err := c.deviceService.RecordLogin(user.ID, deviceID, in.DeviceName)
	if err != nil {
		return nil, fmt.Errorf("record device: %w", err)
	}

	decision := service.Decide(user, trusted)
	switch decision.Kind {
	case service.DecisionReject:
		return nil, commonpkg.NewRejectedError(decision.Message)
	case service.DecisionRequireOTP:
		if err := c.otpService.Issue(ctx, user, decision.OTPPurpose); err != nil {
			return nil, err
		}
		return &LoginResult{
			UserID:      user.ID,
			UserType:    decision.UserType,
			RequiresOTP: true,
			DeviceID:    deviceID,
			Message:     consts.MsgLoginOTPSent,
		}, nil
	default:
		return &LoginResult{UserID: user.ID, UserType: decision.UserType, Message: consts.MsgLoginSuccess}, nil
	}
}

// VerifyLoginOTP 完成登录二次验证：清除验证码、按需标记设备受信任，userType 与 Login 同表决策。
func (c *AuthUseCase) VerifyLoginOTP(in VerifyLoginOTPInput) (*LoginResult, error) {
	in.DeviceID = strings.TrimSpace(in.DeviceID)
	if in.DeviceID == "" {
		return nil, commonpkg.NewValidationError(consts.MsgDeviceIDRequired)
	}

	user, err := c.findUserByEmail(in.Email)
	if err != nil {
		return nil, err
	}
	// 注册与重置密码的验证码不能用来完成登录
	if err := c.otpService.Verify(user, strings.TrimSpace(in.OTP), consts.OTPPurposeLogin, consts.OTPPurposeAmbassadorLogin); err != nil {
		return nil, err
	}

	decision := service.Decide(user, true)
	if decision.Kind == service.DecisionReject {
		return nil, commonpkg.NewRejectedError(decision.Message)
	}

	if err := c.userStore.ClearOTP(user.ID); err != nil {
		return nil, fmt.Errorf("clear otp: %w", err)
	}

	trusted := in.TrustDevice
	if !trusted {
		if trusted, err = c.deviceService.IsTrusted(user.ID, in.DeviceID); err != nil {
			return nil, fmt.Errorf("load device: %w", err)
		}
	}
	if err := c.deviceService.Upsert(user.ID, in.DeviceID, in.DeviceName, trusted); err != nil {
		return nil, fmt.Errorf("upsert device: %w", err)
	}

	return &LoginResult{UserID: user.ID, UserType: decision.UserType, DeviceID: in.DeviceID, Message: consts.MsgLoginSuccess}, nil
}

func (c *AuthUseCase) findUserByEmail(email string) (*model.User, error) {
	user, err := c.userStore.FindByEmail(service.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, commonpkg.NewNotFoundError(consts.MsgUserNotFound)
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return user, nil
}

// isUniqueConflict 判断数据库错误是否属于唯一约束冲突。
func isUniqueConflict(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}
