package service

import (
	"errors"
	commonpkg "plan-beyond-server/internal/common"
	"plan-beyond-server/internal/consts"
	"plan-beyond-server/internal/model"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// NormalizeEmail 统一邮箱大小写与首尾空白。
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// VerifyPassword 按邮箱查找用户并比对密码哈希，失败时不产生任何副作用。
func (s *AuthService) VerifyPassword(email, password string) (*model.User, error) {
	user, err := s.userStore.FindByEmail(NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, commonpkg.NewNotFoundError(consts.MsgUserNotFound)
		}
		return nil, err
	}

	if !ComparePassword(user.Password, password) {
		return nil, commonpkg.NewValidationError(consts.MsgInvalidCredentials)
	}
	return user, nil
}

func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), consts.BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// ComparePassword 常量时间比较 bcrypt 哈希。
func ComparePassword(hashed, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(password)) == nil
}
