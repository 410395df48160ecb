package service

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"plan-beyond-server/internal/config"
	"plan-beyond-server/internal/model"
	"strconv"
	"strings"
	"time"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
)

// ErrCredentialCloned 表示签名计数未前进（重放或克隆的认证器）
var ErrCredentialCloned = errors.New("authenticator sign counter did not advance")

// ErrCredentialNotAllowed 表示返回的凭据不在本次仪式的允许列表中
var ErrCredentialNotAllowed = errors.New("credential not in allowed list")

// BiometricCeremony 封装 WebAuthn 注册与认证仪式
type BiometricCeremony interface {
	BeginRegistration(user *BiometricUser) (*protocol.CredentialCreation, *webauthn.SessionData, error)
	FinishRegistration(user *BiometricUser, session webauthn.SessionData, response []byte) (*RegisteredCredential, error)
	BeginAuthentication(allowed []protocol.CredentialDescriptor) (*protocol.CredentialAssertion, *webauthn.SessionData, error)
	FinishAuthentication(user *BiometricUser, session webauthn.SessionData, response []byte) (*AuthenticationResult, error)
}

// RegisteredCredential 是注册成功后需要持久化的凭据数据
type RegisteredCredential struct {
	CredentialID    string
	PublicKey       string
	Counter         uint32
	AttestationType string
	Transports      []string
	BackupEligible  bool
	BackupState     bool
	UserVerified    bool
}

type AuthenticationResult struct {
	NewCounter uint32
}

// BiometricUser 实现 webauthn.User，WebAuthnID 为十进制用户 ID
type BiometricUser struct {
	ID          uint
	Email       string
	Credentials []webauthn.Credential
}

func (u *BiometricUser) WebAuthnID() []byte {
	return []byte(strconv.FormatUint(uint64(u.ID), 10))
}

func (u *BiometricUser) WebAuthnName() string {
	return u.Email
}

func (u *BiometricUser) WebAuthnDisplayName() string {
	return u.Email
}

func (u *BiometricUser) WebAuthnCredentials() []webauthn.Credential {
	return u.Credentials
}

type WebAuthnCeremony struct {
	client *webauthn.WebAuthn
}

func NewWebAuthnCeremony(cfg config.Config) (*WebAuthnCeremony, error) {
	timeout := time.Duration(cfg.WebAuthn.LoginTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	client, err := webauthn.New(&webauthn.Config{
		RPDisplayName: cfg.WebAuthn.RPName,
		RPID:          cfg.WebAuthn.RPID,
		RPOrigins:     splitOrigins(cfg.WebAuthn.Origin),
		Timeouts: webauthn.TimeoutsConfig{
			// 仅登录仪式强制超时
			Login: webauthn.TimeoutConfig{
				Enforce:    true,
				Timeout:    timeout,
				TimeoutUVD: timeout,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("init webauthn: %w", err)
	}
	return &WebAuthnCeremony{client: client}, nil
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func (w *WebAuthnCeremony) BeginRegistration(user *BiometricUser) (*protocol.CredentialCreation, *webauthn.SessionData, error) {
	exclusions := make([]protocol.CredentialDescriptor, 0, len(user.Credentials))
	for _, credential := range user.Credentials {
		exclusions = append(exclusions, credential.Descriptor())
	}

	return w.client.BeginRegistration(
		user,
		// 生物识别只接受平台认证器
		webauthn.WithAuthenticatorSelection(protocol.AuthenticatorSelection{
			AuthenticatorAttachment: protocol.Platform,
			ResidentKey:             protocol.ResidentKeyRequirementPreferred,
			UserVerification:        protocol.VerificationPreferred,
		}),
		webauthn.WithConveyancePreference(protocol.PreferNoAttestation),
		webauthn.WithExclusions(exclusions),
	)
}

func (w *WebAuthnCeremony) FinishRegistration(user *BiometricUser, session webauthn.SessionData, response []byte) (*RegisteredCredential, error) {
	parsed, err := protocol.ParseCredentialCreationResponseBody(bytes.NewReader(response))
	if err != nil {
		return nil, err
	}

	credential, err := w.client.CreateCredential(user, session, parsed)
	if err != nil {
		return nil, err
	}

	transports := make([]string, 0, len(credential.Transport))
	for _, t := range credential.Transport {
		transports = append(transports, string(t))
	}

	return &RegisteredCredential{
		CredentialID:    EncodeCredentialID(credential.ID),
		PublicKey:       base64.StdEncoding.EncodeToString(credential.PublicKey),
		Counter:         credential.Authenticator.SignCount,
		AttestationType: credential.AttestationType,
		Transports:      transports,
		BackupEligible:  credential.Flags.BackupEligible,
		BackupState:     credential.Flags.BackupState,
		UserVerified:    credential.Flags.UserVerified,
	}, nil
}

func (w *WebAuthnCeremony) BeginAuthentication(allowed []protocol.CredentialDescriptor) (*protocol.CredentialAssertion, *webauthn.SessionData, error) {
	return w.client.BeginDiscoverableLogin(
		webauthn.WithAllowedCredentials(allowed),
		webauthn.WithUserVerification(protocol.VerificationPreferred),
	)
}

func (w *WebAuthnCeremony) FinishAuthentication(user *BiometricUser, session webauthn.SessionData, response []byte) (*AuthenticationResult, error) {
	parsed, err := protocol.ParseCredentialRequestResponseBody(bytes.NewReader(response))
	if err != nil {
		return nil, err
	}

	// 允许列表覆盖所有用户的凭据，校验成员关系后只保留返回的凭据
	if len(session.AllowedCredentialIDs) > 0 {
		if !containsCredentialID(session.AllowedCredentialIDs, parsed.RawID) {
			return nil, ErrCredentialNotAllowed
		}
		session.AllowedCredentialIDs = [][]byte{parsed.RawID}
	}

	// 发起时用户未知，凭据解析出用户后再绑定到会话
	session.UserID = user.WebAuthnID()

	credential, err := w.client.ValidateLogin(user, session, parsed)
	if err != nil {
		return nil, err
	}
	if credential.Authenticator.CloneWarning {
		return nil, ErrCredentialCloned
	}
	return &AuthenticationResult{NewCounter: credential.Authenticator.SignCount}, nil
}

func containsCredentialID(ids [][]byte, id []byte) bool {
	for _, candidate := range ids {
		if bytes.Equal(candidate, id) {
			return true
		}
	}
	return false
}

// EncodeCredentialID 将凭据 ID 编码为无填充 base64url。
func EncodeCredentialID(id []byte) string {
	return base64.RawURLEncoding.EncodeToString(id)
}

// NormalizeCredentialID 去掉尾部 '=' 填充。
func NormalizeCredentialID(id string) string {
	return strings.TrimRight(strings.TrimSpace(id), "=")
}

// ToWebAuthnCredential 把库中记录还原为 webauthn.Credential，用于排除列表和签名校验。
func ToWebAuthnCredential(record model.WebAuthnCredential) (webauthn.Credential, error) {
	id, err := base64.RawURLEncoding.DecodeString(NormalizeCredentialID(record.CredentialID))
	if err != nil {
		return webauthn.Credential{}, fmt.Errorf("decode credential id: %w", err)
	}
	publicKey, err := base64.StdEncoding.DecodeString(record.PublicKey)
	if err != nil {
		return webauthn.Credential{}, fmt.Errorf("decode public key: %w", err)
	}

	var transports []protocol.AuthenticatorTransport
	for _, t := range strings.Split(record.Transports, ",") {
		if t = strings.TrimSpace(t); t != "" {
			transports = append(transports, protocol.AuthenticatorTransport(t))
		}
	}

	return webauthn.Credential{
		ID:              id,
		PublicKey:       publicKey,
		AttestationType: record.AttestationType,
		Transport:       transports,
		Flags: webauthn.CredentialFlags{
			UserPresent:    true,
			UserVerified:   record.UserVerified,
			BackupEligible: record.BackupEligible,
			BackupState:    record.BackupState,
		},
		Authenticator: webauthn.Authenticator{
			SignCount: record.Counter,
		},
	}, nil
}
