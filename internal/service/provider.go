package service

import (
	"plan-beyond-server/internal/config"
	repo "plan-beyond-server/internal/repository"
	"time"

	"github.com/rs/zerolog"
)

type AuthService struct {
	userStore repo.UserStore
}

type OTPService struct {
	userStore repo.UserStore
	mailer    EmailSender
	cfg       config.OTPConfig
	now       func() time.Time
	log       zerolog.Logger
}

type DeviceService struct {
	deviceStore repo.DeviceStore
	now         func() time.Time
}

func NewAuthService(userStore repo.UserStore) *AuthService {
	return &AuthService{userStore: userStore}
}

func NewOTPService(userStore repo.UserStore, mailer EmailSender, cfg config.Config, log zerolog.Logger) *OTPService {
	return &OTPService{
		userStore: userStore,
		mailer:    mailer,
		cfg:       cfg.OTP,
		now:       time.Now,
		log:       log,
	}
}

func NewDeviceService(deviceStore repo.DeviceStore) *DeviceService {
	return &DeviceService{deviceStore: deviceStore, now: time.Now}
}
