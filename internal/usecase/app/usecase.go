package app

import (
	"plan-beyond-server/internal/config"
	"plan-beyond-server/internal/repository"
	"plan-beyond-server/internal/service"

	"github.com/rs/zerolog"
)

type AuthUseCase struct {
	authService   *service.AuthService
	otpService    *service.OTPService
	deviceService *service.DeviceService
	userStore     repository.UserStore
	log           zerolog.Logger
}

type BiometricUseCase struct {
	ceremony        service.BiometricCeremony
	ceremonyStore   *service.CeremonyStore
	credentialStore repository.CredentialStore
	userStore       repository.UserStore
	deviceService   *service.DeviceService
	log             zerolog.Logger
}

type AmbassadorUseCase struct {
	userStore repository.UserStore
	mailer    service.EmailSender
	cfg       config.Config
	log       zerolog.Logger
}
