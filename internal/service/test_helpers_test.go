package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"plan-beyond-server/internal/config"
	"plan-beyond-server/internal/consts"
	"plan-beyond-server/internal/model"
	"plan-beyond-server/internal/repository"
	"plan-beyond-server/internal/testutils"

	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/rs/zerolog"
)

// fakeMailer 记录发送的验证码，供测试读取
type fakeMailer struct {
	mu      sync.Mutex
	codes   map[string]string
	purpose map[string]consts.OTPPurpose
	invites map[string]string
	err     error
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{
		codes:   map[string]string{},
		purpose: map[string]consts.OTPPurpose{},
		invites: map[string]string{},
	}
}

func (m *fakeMailer) SendOTP(_ context.Context, toEmail, code string, purpose consts.OTPPurpose, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.codes[toEmail] = code
	m.purpose[toEmail] = purpose
	return nil
}

func (m *fakeMailer) SendAmbassadorInvite(_ context.Context, toEmail, _ string, acceptURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invites[toEmail] = acceptURL
	return nil
}

func testConfig() config.Config {
	return config.Config{
		Session: config.SessionConfig{Secret: "test_session_secret", CookieName: "pb_test", MaxAgeSeconds: 3600},
		WebAuthn: config.WebAuthnConfig{
			RPName:              "The Plan Beyond",
			RPID:                "localhost",
			Origin:              "http://localhost:3000",
			LoginTimeoutSeconds: 60,
		},
		OTP:   config.OTPConfig{RegisterTTLMinutes: 10, LoginTTLMinutes: 5, AmbassadorLoginTTLMinutes: 10},
		Redis: config.RedisConfig{Prefix: "pb_test"},
	}
}

func setupStores(t *testing.T) (repository.UserStore, repository.DeviceStore, repository.CredentialStore) {
	t.Helper()
	gdb := testutils.SetupDB(t)
	return repository.NewUserRepository(gdb), repository.NewDeviceRepository(gdb), repository.NewCredentialRepository(gdb)
}

func mustCreateUser(t *testing.T, store repository.UserStore, email string) *model.User {
	t.Helper()
	hashed, err := HashPassword("Abcdef1!")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u := &model.User{Email: email, Password: hashed}
	if err := store.Create(u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func nopLogger() zerolog.Logger {
	return zerolog.Nop()
}

func sessionWithChallenge(challenge string) webauthn.SessionData {
	return webauthn.SessionData{Challenge: challenge}
}
