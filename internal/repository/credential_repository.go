package repository

import "plan-beyond-server/internal/model"

type CredentialStore interface {
	// ListCredentials 列出全部用户的凭据；biometricType 为空时不按类型过滤
	ListCredentials(biometricType string) ([]model.WebAuthnCredential, error)
	ListCredentialsByUserID(userID uint) ([]model.WebAuthnCredential, error)
	FindByCredentialID(credentialID string) (*model.WebAuthnCredential, error)
	CreateCredential(credential *model.WebAuthnCredential) error
	UpdateCounter(credentialID string, counter uint32) error
	DeleteByUserAndType(userID uint, biometricType string) (int64, error)
	ExistsByUserAndType(userID uint, biometricType string) (bool, error)
}
