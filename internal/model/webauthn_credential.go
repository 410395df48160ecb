package model

import "time"

type WebAuthnCredential struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	UserID          uint      `json:"user_id" gorm:"not null;index"`
	CredentialID    string    `json:"credential_id" gorm:"not null;uniqueIndex;size:255"`
	PublicKey       string    `json:"-" gorm:"type:text;not null"` // base64
	Counter         uint32    `json:"counter" gorm:"not null;default:0"`
	BiometricType   *string   `json:"biometric_type" gorm:"size:16;index"` // 历史数据可能为空
	AttestationType string    `json:"-" gorm:"size:64"`
	Transports      string    `json:"-" gorm:"size:255"` // 逗号分隔
	BackupEligible  bool      `json:"-" gorm:"not null;default:false"`
	BackupState     bool      `json:"-" gorm:"not null;default:false"`
	UserVerified    bool      `json:"-" gorm:"not null;default:false"`
	User            User      `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE;" json:"-"`
}

func (WebAuthnCredential) TableName() string { return "webauthn_credentials" }
