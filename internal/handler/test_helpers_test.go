package handler

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"plan-beyond-server/internal/config"
	"plan-beyond-server/internal/consts"
	"plan-beyond-server/internal/middleware"
	"plan-beyond-server/internal/model"
	"plan-beyond-server/internal/repository"
	"plan-beyond-server/internal/service"
	"plan-beyond-server/internal/testutils"
	"plan-beyond-server/internal/usecase/app"
	"plan-beyond-server/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/rs/zerolog"
)

const testPassword = "Abcdef1!"

type fakeMailer struct {
	mu    sync.Mutex
	codes map[string]string
}

func (m *fakeMailer) SendOTP(_ context.Context, toEmail, code string, _ consts.OTPPurpose, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[toEmail] = code
	return nil
}

func (m *fakeMailer) SendAmbassadorInvite(context.Context, string, string, string) error {
	return nil
}

func (m *fakeMailer) code(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.codes[email]
}

type fakeCeremony struct {
	challenge string
}

func (f *fakeCeremony) BeginRegistration(*service.BiometricUser) (*protocol.CredentialCreation, *webauthn.SessionData, error) {
	return &protocol.CredentialCreation{}, &webauthn.SessionData{Challenge: f.challenge}, nil
}

func (f *fakeCeremony) FinishRegistration(*service.BiometricUser, webauthn.SessionData, []byte) (*service.RegisteredCredential, error) {
	return &service.RegisteredCredential{
		CredentialID: service.EncodeCredentialID([]byte("handler-cred")),
		PublicKey:    base64.StdEncoding.EncodeToString([]byte("pk")),
	}, nil
}

func (f *fakeCeremony) BeginAuthentication([]protocol.CredentialDescriptor) (*protocol.CredentialAssertion, *webauthn.SessionData, error) {
	return &protocol.CredentialAssertion{}, &webauthn.SessionData{Challenge: f.challenge}, nil
}

func (f *fakeCeremony) FinishAuthentication(*service.BiometricUser, webauthn.SessionData, []byte) (*service.AuthenticationResult, error) {
	return &service.AuthenticationResult{NewCounter: 2}, nil
}

type testEnv struct {
	engine   *gin.Engine
	users    repository.UserStore
	devices  repository.DeviceStore
	mailer   *fakeMailer
	ceremony *fakeCeremony
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	if err := utils.RegisterBindingRules(); err != nil {
		t.Fatalf("register binding rules: %v", err)
	}

	cfg := config.Config{
		Session: config.SessionConfig{Secret: "handler_test_secret"},
		OTP:     config.OTPConfig{RegisterTTLMinutes: 10, LoginTTLMinutes: 5, AmbassadorLoginTTLMinutes: 10},
		JWT:     config.JWTConfig{Secret: "handler_jwt_secret"},
	}
	config.SetForTest(cfg)

	gdb := testutils.SetupDB(t)
	userStore := repository.NewUserRepository(gdb)
	deviceStore := repository.NewDeviceRepository(gdb)
	credentialStore := repository.NewCredentialRepository(gdb)
	log := zerolog.Nop()
	mailer := &fakeMailer{codes: map[string]string{}}
	ceremony := &fakeCeremony{challenge: "aGFuZGxlci1jaGFsbGVuZ2U"}

	deviceService := service.NewDeviceService(deviceStore)
	uc := app.NewAppUseCase(
		app.NewAuthUseCase(service.NewAuthService(userStore), service.NewOTPService(userStore, mailer, cfg, log), deviceService, userStore, log),
		app.NewBiometricUseCase(ceremony, service.NewCeremonyStore(nil, cfg, log), credentialStore, userStore, deviceService, log),
		app.NewAmbassadorUseCase(userStore, mailer, cfg, log),
	)
	sessions := service.NewSessionService(cfg)

	auth := NewAuthHandler(uc, sessions, log)
	bio := NewBiometricHandler(uc, sessions, log)
	session := NewSessionHandler(sessions, log)
	ambassador := NewAmbassadorHandler(uc, log)

	r := gin.New()
	r.POST("/api/register", auth.Register)
	r.POST("/api/verify-otp", auth.VerifyOTP)
	r.POST("/api/login", auth.Login)
	r.POST("/api/verify-login-otp", auth.VerifyLoginOTP)
	r.POST("/api/forgot-password", auth.ForgotPassword)
	r.POST("/api/reset-password", auth.ResetPassword)
	r.POST("/api/login-biometric", bio.LoginBiometric)
	r.POST("/api/verify-biometric-login", bio.VerifyBiometricLogin)
	r.POST("/api/logout", session.Logout)
	r.POST("/api/ambassador/accept", ambassador.Accept)

	authed := r.Group("/api", middleware.SessionAuth(sessions))
	authed.GET("/check-session", session.CheckSession)
	authed.POST("/register-biometric", bio.RegisterBiometric)
	authed.POST("/verify-biometric-registration", bio.VerifyBiometricRegistration)
	authed.DELETE("/delete-biometric", bio.DeleteBiometric)
	authed.GET("/check-biometric", bio.CheckBiometric)

	return &testEnv{engine: r, users: userStore, devices: deviceStore, mailer: mailer, ceremony: ceremony}
}

func (e *testEnv) seedUser(t *testing.T, email string, verified bool, accept *bool) *model.User {
	t.Helper()
	hashed, err := service.HashPassword(testPassword)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u := &model.User{Email: email, Password: hashed, AmbassadorAccept: accept}
	if err := e.users.Create(u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if verified {
		if err := e.users.MarkVerified(u.ID); err != nil {
			t.Fatalf("mark verified: %v", err)
		}
	}
	return u
}

// browser 在请求之间保存 Cookie
type browser struct {
	env     *testEnv
	cookies map[string]*http.Cookie
}

func (e *testEnv) browser() *browser {
	return &browser{env: e, cookies: map[string]*http.Cookie{}}
}

func (b *browser) do(t *testing.T, method, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for _, ck := range b.cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	b.env.engine.ServeHTTP(w, req)

	for _, ck := range w.Result().Cookies() {
		if ck.MaxAge < 0 {
			delete(b.cookies, ck.Name)
			continue
		}
		b.cookies[ck.Name] = ck
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return w.Code, payload
}

func boolPtr(v bool) *bool { return &v }

func assertionBody(rawID, challenge string) map[string]interface{} {
	clientData, _ := json.Marshal(map[string]string{"type": "webauthn.get", "challenge": challenge, "origin": "http://localhost:3000"})
	return map[string]interface{}{
		"id":    rawID,
		"rawId": rawID,
		"type":  "public-key",
		"response": map[string]string{
			"clientDataJSON": base64.RawURLEncoding.EncodeToString(clientData),
		},
	}
}
