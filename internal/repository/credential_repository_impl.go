package repository

import (
	"plan-beyond-server/internal/model"

	"gorm.io/gorm"
)

type CredentialRepository struct {
	db *gorm.DB
}

func (r *CredentialRepository) ListCredentials(biometricType string) ([]model.WebAuthnCredential, error) {
	var credentials []model.WebAuthnCredential
	query := r.db.Model(&model.WebAuthnCredential{})
	if biometricType != "" {
		query = query.Where("biometric_type = ?", biometricType)
	}
	if err := query.Order("id asc").Find(&credentials).Error; err != nil {
		return nil, err
	}
	return credentials, nil
}

// ListCredentialsByUserID 返回指定用户的全部凭据记录。
func (r *CredentialRepository) ListCredentialsByUserID(userID uint) ([]model.WebAuthnCredential, error) {
	var credentials []model.WebAuthnCredential
	if err := r.db.Where("user_id = ?", userID).Order("id asc").Find(&credentials).Error; err != nil {
		return nil, err
	}
	return credentials, nil
}

// FindByCredentialID 仅按 credential_id 查找，不区分用户与生物识别类型。
func (r *CredentialRepository) FindByCredentialID(credentialID string) (*model.WebAuthnCredential, error) {
	var credential model.WebAuthnCredential
	if err := r.db.Where("credential_id = ?", credentialID).First(&credential).Error; err != nil {
		return nil, err
	}
	return &credential, nil
}

func (r *CredentialRepository) CreateCredential(credential *model.WebAuthnCredential) error {
	return r.db.Create(credential).Error
}

// UpdateCounter 写回认证器返回的签名计数。
func (r *CredentialRepository) UpdateCounter(credentialID string, counter uint32) error {
	tx := r.db.Model(&model.WebAuthnCredential{}).
		Where("credential_id = ?", credentialID).
		Update("counter", counter)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *CredentialRepository) DeleteByUserAndType(userID uint, biometricType string) (int64, error) {
	tx := r.db.Where("user_id = ? AND biometric_type = ?", userID, biometricType).Delete(&model.WebAuthnCredential{})
	return tx.RowsAffected, tx.Error
}

func (r *CredentialRepository) ExistsByUserAndType(userID uint, biometricType string) (bool, error) {
	var count int64
	if err := r.db.Model(&model.WebAuthnCredential{}).
		Where("user_id = ? AND biometric_type = ?", userID, biometricType).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
