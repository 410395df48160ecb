package model

import (
	"time"
)

type User struct {
	ID               uint                 `json:"id" gorm:"primaryKey"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
	Email            string               `json:"email" gorm:"unique;not null;size:255"`
	Password         string               `json:"-" gorm:"not null"`
	OTP              *string              `json:"-" gorm:"column:otp;size:6"`
	OTPExpiresAt     *time.Time           `json:"-" gorm:"column:otp_expires_at;index"`
	OTPPurpose       *string              `json:"-" gorm:"column:otp_purpose;size:32"`
	IsVerified       bool                 `json:"is_verified" gorm:"not null;default:false"`
	AmbassadorID     *uint                `json:"ambassador_id" gorm:"index"`
	AmbassadorUserID *uint                `json:"ambassador_user_id" gorm:"index"`
	AmbassadorAccept *bool                `json:"ambassador_accept"` // nil: 未被邀请或未表态
	RememberMe       bool                 `json:"remember_me" gorm:"not null;default:false"`
	Devices          []Device             `json:"-"`
	Credentials      []WebAuthnCredential `json:"-"`
}
