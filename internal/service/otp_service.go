package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	commonpkg "plan-beyond-server/internal/common"
	"plan-beyond-server/internal/consts"
	"plan-beyond-server/internal/model"
	"time"
)

var otpUpperBound = big.NewInt(1000000)

// GenerateOTP 生成 6 位数字验证码。
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, otpUpperBound)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// TTL 返回指定用途验证码的有效期。
func (s *OTPService) TTL(purpose consts.OTPPurpose) time.Duration {
	minutes := s.cfg.RegisterTTLMinutes
	switch purpose {
	case consts.OTPPurposeLogin:
		minutes = s.cfg.LoginTTLMinutes
	case consts.OTPPurposeAmbassadorLogin:
		minutes = s.cfg.AmbassadorLoginTTLMinutes
	}
	if minutes <= 0 {
		minutes = 10
	}
	return time.Duration(minutes) * time.Minute
}

// Issue 生成验证码写入用户行（覆盖旧码）并发送邮件。
func (s *OTPService) Issue(ctx context.Context, user *model.User, purpose consts.OTPPurpose) error {
	code, err := GenerateOTP()
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}

	ttl := s.TTL(purpose)
	expiresAt := s.now().Add(ttl)
	if err := s.userStore.SetOTP(user.ID, code, purpose, expiresAt); err != nil {
		return fmt.Errorf("store otp: %w", err)
	}
	purposeValue := string(purpose)
	user.OTP = &code
	user.OTPPurpose = &purposeValue
	user.OTPExpiresAt = &expiresAt

	if err := s.mailer.SendOTP(ctx, user.Email, code, purpose, ttl); err != nil {
		return fmt.Errorf("send otp email: %w", err)
	}
	s.log.Debug().Uint("user_id", user.ID).Str("purpose", string(purpose)).Msg("otp issued")
	return nil
}

// Verify 比对候选验证码；传入 accepted 时验证码的签发用途必须在其中。
// 清除已用验证码由调用方负责。
func (s *OTPService) Verify(user *model.User, candidate string, accepted ...consts.OTPPurpose) error {
	if user.OTP == nil || *user.OTP == "" {
		return commonpkg.NewValidationError(consts.MsgInvalidOTP)
	}
	if subtle.ConstantTimeCompare([]byte(*user.OTP), []byte(candidate)) != 1 {
		return commonpkg.NewValidationError(consts.MsgInvalidOTP)
	}
	if len(accepted) > 0 && !purposeAccepted(user.OTPPurpose, accepted) {
		return commonpkg.NewValidationError(consts.MsgInvalidOTP)
	}
	if user.OTPExpiresAt != nil && s.now().After(*user.OTPExpiresAt) {
		return commonpkg.NewValidationError(consts.MsgOTPExpired)
	}
	return nil
}

// PurgeExpired 清空所有过期验证码。
func (s *OTPService) PurgeExpired() (int64, error) {
	return s.userStore.ClearExpiredOTPs(s.now())
}

func purposeAccepted(stored *string, accepted []consts.OTPPurpose) bool {
	if stored == nil {
		return false
	}
	for _, p := range accepted {
		if string(p) == *stored {
			return true
		}
	}
	return false
}
