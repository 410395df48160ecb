package repository

import (
	"gorm.io/gorm"
)

type Repositories struct {
	User       UserStore
	Device     DeviceStore
	Credential CredentialStore
}

func NewUserRepository(db *gorm.DB) UserStore {
	return &UserRepository{db: db}
}

func NewDeviceRepository(db *gorm.DB) DeviceStore {
	return &DeviceRepository{db: db}
}

func NewCredentialRepository(db *gorm.DB) CredentialStore {
	return &CredentialRepository{db: db}
}

func NewRepositories(user UserStore, device DeviceStore, credential CredentialStore) *Repositories {
	return &Repositories{
		User:       user,
		Device:     device,
		Credential: credential,
	}
}
