package app

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"sync"
	"testing"
	"time"

	commonpkg "plan-beyond-server/internal/common"
	"plan-beyond-server/internal/config"
	"plan-beyond-server/internal/consts"
	"plan-beyond-server/internal/model"
	"plan-beyond-server/internal/repository"
	"plan-beyond-server/internal/service"
	"plan-beyond-server/internal/testutils"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/rs/zerolog"
)

const testPassword = "Abcdef1!"

type fakeMailer struct {
	mu      sync.Mutex
	codes   map[string]string
	purpose map[string]consts.OTPPurpose
	invites map[string]string
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

func (m *fakeMailer) lastCode(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.codes[email]
}

// fakeCeremony 替代真实 WebAuthn 验签，记录 Finish 调用次数
type fakeCeremony struct {
	regChallenge   string
	loginChallenge string
	registered     *service.RegisteredCredential
	finishErr      error
	newCounter     uint32
	allowed        []protocol.CredentialDescriptor
	finishRegCalls int
	finishLogCalls int
}

func (f *fakeCeremony) BeginRegistration(_ *service.BiometricUser) (*protocol.CredentialCreation, *webauthn.SessionData, error) {
	return &protocol.CredentialCreation{}, &webauthn.SessionData{Challenge: f.regChallenge}, nil
}

func (f *fakeCeremony) FinishRegistration(_ *service.BiometricUser, _ webauthn.SessionData, _ []byte) (*service.RegisteredCredential, error) {
	f.finishRegCalls++
	if f.finishErr != nil {
		return nil, f.finishErr
	}
	return f.registered, nil
}

func (f *fakeCeremony) BeginAuthentication(allowed []protocol.CredentialDescriptor) (*protocol.CredentialAssertion, *webauthn.SessionData, error) {
	f.allowed = allowed
	return &protocol.CredentialAssertion{}, &webauthn.SessionData{Challenge: f.loginChallenge}, nil
}

func (f *fakeCeremony) FinishAuthentication(_ *service.BiometricUser, _ webauthn.SessionData, _ []byte) (*service.AuthenticationResult, error) {
	f.finishLogCalls++
	if f.finishErr != nil {
		return nil, f.finishErr
	}
	return &service.AuthenticationResult{NewCounter: f.newCounter}, nil
}

type testApp struct {
	app         *AppUseCase
	users       repository.UserStore
	devices     repository.DeviceStore
	credentials repository.CredentialStore
	mailer      *fakeMailer
	ceremony    *fakeCeremony
}

func testConfig() config.Config {
	return config.Config{
		Session:  config.SessionConfig{Secret: "test_session_secret"},
		Frontend: config.FrontendConfig{BaseURL: "http://localhost:3000/"},
		OTP:      config.OTPConfig{RegisterTTLMinutes: 10, LoginTTLMinutes: 5, AmbassadorLoginTTLMinutes: 10},
		JWT:      config.JWTConfig{Secret: "test_jwt_secret", InviteExpirationHours: 1},
		Redis:    config.RedisConfig{Prefix: "pb_test"},
	}
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	cfg := testConfig()
	config.SetForTest(cfg)

	gdb := testutils.SetupDB(t)
	repos := repository.NewRepositories(
		repository.NewUserRepository(gdb),
		repository.NewDeviceRepository(gdb),
		repository.NewCredentialRepository(gdb),
	)
	log := zerolog.Nop()
	mailer := newFakeMailer()
	ceremony := &fakeCeremony{regChallenge: "cmVnLWNoYWxsZW5nZQ", loginChallenge: "bG9naW4tY2hhbGxlbmdl", newCounter: 7}

	deviceService := service.NewDeviceService(repos.Device)
	auth := NewAuthUseCase(
		service.NewAuthService(repos.User),
		service.NewOTPService(repos.User, mailer, cfg, log),
		deviceService,
		repos.User,
		log,
	)
	biometric := NewBiometricUseCase(
		ceremony,
		service.NewCeremonyStore(nil, cfg, log),
		repos.Credential,
		repos.User,
		deviceService,
		log,
	)
	ambassador := NewAmbassadorUseCase(repos.User, mailer, cfg, log)

	return &testApp{
		app:         NewAppUseCase(auth, biometric, ambassador),
		users:       repos.User,
		devices:     repos.Device,
		credentials: repos.Credential,
		mailer:      mailer,
		ceremony:    ceremony,
	}
}

// seedUser 直接写库创建用户，accept 为 nil 表示未被邀请
func (a *testApp) seedUser(t *testing.T, email string, verified bool, accept *bool) *model.User {
	t.Helper()
	hashed, err := service.HashPassword(testPassword)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u := &model.User{Email: email, Password: hashed, AmbassadorAccept: accept}
	if err := a.users.Create(u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if verified {
		if err := a.users.MarkVerified(u.ID); err != nil {
			t.Fatalf("mark verified: %v", err)
		}
	}
	return u
}

func (a *testApp) seedCredential(t *testing.T, userID uint, rawID []byte, biometricType string) string {
	t.Helper()
	id := service.EncodeCredentialID(rawID)
	typeValue := biometricType
	if err := a.credentials.CreateCredential(&model.WebAuthnCredential{
		UserID:        userID,
		CredentialID:  id,
		PublicKey:     base64.StdEncoding.EncodeToString([]byte("public-key")),
		Counter:       1,
		BiometricType: &typeValue,
	}); err != nil {
		t.Fatalf("create credential: %v", err)
	}
	return id
}

func boolPtr(v bool) *bool { return &v }

func ceremonyResponse(t *testing.T, rawID, challenge, clientType string) json.RawMessage {
	t.Helper()
	clientData, _ := json.Marshal(map[string]string{
		"type":      clientType,
		"challenge": challenge,
		"origin":    "http://localhost:3000",
	})
	body, err := json.Marshal(map[string]interface{}{
		"id":    rawID,
		"rawId": rawID,
		"type":  "public-key",
		"response": map[string]string{
			"clientDataJSON": base64.RawURLEncoding.EncodeToString(clientData),
		},
	})
	if err != nil {
		t.Fatalf("marshal response: %v", err)
	}
	return body
}

func expectServiceError(t *testing.T, err error, code commonpkg.ErrorCode, message string) {
	t.Helper()
	serviceErr, ok := commonpkg.AsServiceError(err)
	if !ok {
		t.Fatalf("期望 ServiceError(%s, %q)，实际为 %v", code, message, err)
	}
	if serviceErr.Code != code || serviceErr.Message != message {
		t.Fatalf("期望 (%s, %q)，实际为 (%s, %q)", code, message, serviceErr.Code, serviceErr.Message)
	}
}
