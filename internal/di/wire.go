//go:build wireinject
// +build wireinject

package di

import (
	"plan-beyond-server/internal/config"
	"plan-beyond-server/internal/handler"
	"plan-beyond-server/internal/jobs"
	"plan-beyond-server/internal/middleware"
	"plan-beyond-server/internal/repository"
	"plan-beyond-server/internal/router"
	"plan-beyond-server/internal/service"
	"plan-beyond-server/internal/usecase/app"

	"github.com/google/wire"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

func InitializeApplication(cfg config.Config, gormDB *gorm.DB, log zerolog.Logger) (*Application, error) {
	wire.Build(
		repository.NewUserRepository,
		repository.NewDeviceRepository,
		repository.NewCredentialRepository,
		service.NewRedisClient,
		service.NewEmailService,
		wire.Bind(new(service.EmailSender), new(*service.EmailService)),
		service.NewAuthService,
		service.NewOTPService,
		service.NewDeviceService,
		service.NewSessionService,
		service.NewCeremonyStore,
		service.NewWebAuthnCeremony,
		wire.Bind(new(service.BiometricCeremony), new(*service.WebAuthnCeremony)),
		app.NewAuthUseCase,
		app.NewBiometricUseCase,
		app.NewAmbassadorUseCase,
		app.NewAppUseCase,
		handler.NewAuthHandler,
		handler.NewBiometricHandler,
		handler.NewAmbassadorHandler,
		handler.NewSessionHandler,
		middleware.NewPasswordRateLimiter,
		router.NewRouter,
		jobs.NewScheduler,
		wire.Bind(new(jobs.OTPPurger), new(*service.OTPService)),
		wire.Bind(new(jobs.CeremonyPurger), new(*service.CeremonyStore)),
		NewApplication,
	)
	return nil, nil
}
