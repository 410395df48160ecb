package repository

import (
	"plan-beyond-server/internal/consts"
	"plan-beyond-server/internal/model"
	"time"
)

type UserStore interface {
	FindByID(id uint) (*model.User, error)
	FindByEmail(email string) (*model.User, error)
	Create(user *model.User) error
	Save(user *model.User) error
	UpdateByID(userID uint, updates map[string]interface{}) error
	SetOTP(userID uint, code string, purpose consts.OTPPurpose, expiresAt time.Time) error
	ClearOTP(userID uint) error
	MarkVerified(userID uint) error
	UpdateRememberMe(userID uint, rememberMe bool) error
	UpdatePasswordAndClearOTP(userID uint, hashedPassword string) error
	ClearExpiredOTPs(now time.Time) (int64, error)
	// Transaction 在同一事务内执行 fn，fn 返回错误时整体回滚
	Transaction(fn func(txStore UserStore) error) error
}
