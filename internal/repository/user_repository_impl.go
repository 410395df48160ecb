package repository

import (
	"plan-beyond-server/internal/consts"
	"plan-beyond-server/internal/model"
	"time"

	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func (r *UserRepository) FindByID(id uint) (*model.User, error) {
	var user model.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByEmail(email string) (*model.User, error) {
	var user model.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) Create(user *model.User) error {
	return r.db.Create(user).Error
}

func (r *UserRepository) Save(user *model.User) error {
	return r.db.Save(user).Error
}

func (r *UserRepository) UpdateByID(userID uint, updates map[string]interface{}) error {
	tx := r.db.Model(&model.User{}).Where("id = ?", userID).Updates(updates)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetOTP 覆盖写入验证码及其用途，之前未使用的验证码随之失效。
func (r *UserRepository) SetOTP(userID uint, code string, purpose consts.OTPPurpose, expiresAt time.Time) error {
	return r.UpdateByID(userID, map[string]interface{}{
		"otp":            code,
		"otp_purpose":    string(purpose),
		"otp_expires_at": expiresAt,
	})
}

func (r *UserRepository) ClearOTP(userID uint) error {
	return r.UpdateByID(userID, map[string]interface{}{
		"otp":            nil,
		"otp_purpose":    nil,
		"otp_expires_at": nil,
	})
}

func (r *UserRepository) MarkVerified(userID uint) error {
	return r.UpdateByID(userID, map[string]interface{}{
		"is_verified":    true,
		"otp":            nil,
		"otp_purpose":    nil,
		"otp_expires_at": nil,
	})
}

func (r *UserRepository) UpdateRememberMe(userID uint, rememberMe bool) error {
	return r.db.Model(&model.User{}).Where("id = ?", userID).Update("remember_me", rememberMe).Error
}

func (r *UserRepository) UpdatePasswordAndClearOTP(userID uint, hashedPassword string) error {
	return r.UpdateByID(userID, map[string]interface{}{
		"password":       hashedPassword,
		"otp":            nil,
		"otp_purpose":    nil,
		"otp_expires_at": nil,
	})
}

// ClearExpiredOTPs 清空所有已过期的验证码，返回受影响行数。
func (r *UserRepository) ClearExpiredOTPs(now time.Time) (int64, error) {
	tx := r.db.Model(&model.User{}).
		Where("otp IS NOT NULL AND otp_expires_at IS NOT NULL AND otp_expires_at < ?", now).
		Updates(map[string]interface{}{
			"otp":            nil,
			"otp_purpose":    nil,
			"otp_expires_at": nil,
		})
	return tx.RowsAffected, tx.Error
}

func (r *UserRepository) Transaction(fn func(txStore UserStore) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&UserRepository{db: tx})
	})
}
