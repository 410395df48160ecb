package app

import (
	"plan-beyond-server/internal/config"
	"plan-beyond-server/internal/repository"
	"plan-beyond-server/internal/service"

	"github.com/rs/zerolog"
)

type AppUseCase struct {
	Auth       *AuthUseCase
	Biometric  *BiometricUseCase
	Ambassador *AmbassadorUseCase
}

func NewAuthUseCase(
	authService *service.AuthService,
	otpService *service.OTPService,
	deviceService *service.DeviceService,
	userStore repository.UserStore,
	log zerolog.Logger,
) *AuthUseCase {
	return &AuthUseCase{
		authService:   authService,
		otpService:    otpService,
		deviceService: deviceService,
		userStore:     userStore,
		log:           log,
	}
}

func NewBiometricUseCase(
	ceremony service.BiometricCeremony,
	ceremonyStore *service.CeremonyStore,
	credentialStore repository.CredentialStore,
	userStore repository.UserStore,
	deviceService *service.DeviceService,
	log zerolog.Logger,
) *BiometricUseCase {
	return &BiometricUseCase{
		ceremony:        ceremony,
		ceremonyStore:   ceremonyStore,
		credentialStore: credentialStore,
		userStore:       userStore,
		deviceService:   deviceService,
		log:             log,
	}
}

func NewAmbassadorUseCase(
	userStore repository.UserStore,
	mailer service.EmailSender,
	cfg config.Config,
	log zerolog.Logger,
) *AmbassadorUseCase {
	return &AmbassadorUseCase{
		userStore: userStore,
		mailer:    mailer,
		cfg:       cfg,
		log:       log,
	}
}

func NewAppUseCase(
	authUseCase *AuthUseCase,
	biometricUseCase *BiometricUseCase,
	ambassadorUseCase *AmbassadorUseCase,
) *AppUseCase {
	return &AppUseCase{
		Auth:       authUseCase,
		Biometric:  biometricUseCase,
		Ambassador: ambassadorUseCase,
	}
}
