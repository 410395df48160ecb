package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	commonpkg "plan-beyond-server/internal/common"
	"plan-beyond-server/internal/consts"
	"plan-beyond-server/internal/model"
	"plan-beyond-server/internal/service"
	"strings"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
	"gorm.io/gorm"
)

// BeginCeremonyResult 返回给前端的仪式选项与一次性令牌
type BeginCeremonyResult struct {
	CeremonyID string
	Options    interface{}
}

type FinishBiometricLoginInput struct {
	CeremonyID    string
	Response      json.RawMessage
	BiometricType string
	DeviceID      string
	DeviceName    string
}

func parseBiometricType(raw string) (consts.BiometricType, error) {
	t := consts.BiometricType(strings.ToLower(strings.TrimSpace(raw)))
	if !t.Valid() {
		return "", commonpkg.NewValidationError(consts.MsgInvalidBiometricType)
	}
	return t, nil
}

// BeginRegistration 为已登录用户生成注册选项，challenge 保存在仪式令牌中。
func (c *BiometricUseCase) BeginRegistration(ctx context.Context, sessionUserID, bodyUserID uint, rawType string) (*BeginCeremonyResult, error) {
	biometricType, err := parseBiometricType(rawType)
	if err != nil {
		return nil, err
	}
	if bodyUserID != 0 && bodyUserID != sessionUserID {
		return nil, commonpkg.NewForbiddenError(consts.MsgForbidden)
	}

	user, err := c.loadBiometricUser(sessionUserID)
	if err != nil {
		return nil, err
	}

	creation, sessionData, err := c.ceremony.BeginRegistration(user)
	if err != nil {
		return nil, fmt.Errorf("begin registration: %w", err)
	}

	ceremonyID, err := c.ceremonyStore.Save(ctx, service.CeremonyEntry{
		Type:          consts.CeremonyRegistration,
		UserID:        sessionUserID,
		BiometricType: string(biometricType),
		SessionData:   *sessionData,
	})
	if err != nil {
		return nil, fmt.Errorf("save ceremony: %w", err)
	}

	return &BeginCeremonyResult{CeremonyID: ceremonyID, Options: creation.Response}, nil
}

// FinishRegistration 预检 challenge 后交给 WebAuthn 库验证，并持久化凭据。
func (c *BiometricUseCase) FinishRegistration(ctx context.Context, sessionUserID uint, ceremonyID string, response json.RawMessage, rawType string) error {
	biometricType, err := parseBiometricType(rawType)
	if err != nil {
		return err
	}

	entry, err := c.ceremonyStore.Consume(ctx, ceremonyID, consts.CeremonyRegistration)
	if err != nil {
		return err
	}
	if entry.UserID != sessionUserID {
		return commonpkg.NewForbiddenError(consts.MsgForbidden)
	}
	if entry.BiometricType != string(biometricType) {
		return commonpkg.NewValidationError(consts.MsgBiometricTypeMismatch)
	}

	if err := checkChallenge(response, entry.SessionData); err != nil {
		return err
	}

	user, err := c.loadBiometricUser(sessionUserID)
	if err != nil {
		return err
	}

	registered, err := c.ceremony.FinishRegistration(user, entry.SessionData, response)
	if err != nil {
		c.log.Warn().Err(err).Uint("user_id", sessionUserID).Msg("biometric registration rejected")
		return commonpkg.NewValidationError(consts.MsgBiometricVerificationFailed)
	}

	credentialID := service.NormalizeCredentialID(registered.CredentialID)
	if _, err := c.credentialStore.FindByCredentialID(credentialID); err == nil {
		return commonpkg.NewConflictError(consts.MsgBiometricAlreadyRegistered)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("find credential: %w", err)
	}

	typeValue := string(biometricType)
	if err := c.credentialStore.CreateCredential(&model.WebAuthnCredential{
		UserID:          sessionUserID,
		CredentialID:    credentialID,
		PublicKey:       registered.PublicKey,
		Counter:         registered.Counter,
		BiometricType:   &typeValue,
		AttestationType: registered.AttestationType,
		Transports:      strings.Join(registered.Transports, ","),
		BackupEligible:  registered.BackupEligible,
		BackupState:     registered.BackupState,
		UserVerified:    registered.UserVerified,
	}); err != nil {
		if isUniqueConflict(err) {
			return commonpkg.NewConflictError(consts.MsgBiometricAlreadyRegistered)
		}
		return fmt.Errorf("create credential: %w", err)
	}
	return nil
}

// BeginLogin 按生物识别类型（为空则不限）构建允许列表并生成认证选项。
func (c *BiometricUseCase) BeginLogin(ctx context.Context, rawType string) (*BeginCeremonyResult, error) {
	var typeFilter string
	if strings.TrimSpace(rawType) != "" {
		biometricType, err := parseBiometricType(rawType)
		if err != nil {
			return nil, err
		}
		typeFilter = string(biometricType)
	}

	records, err := c.credentialStore.ListCredentials(typeFilter)
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}

	allowed := make([]protocol.CredentialDescriptor, 0, len(records))
	for _, record := range records {
		id := service.NormalizeCredentialID(record.CredentialID)
		if !service.IsWellFormedCredentialID(id) {
			continue
		}
		credential, err := service.ToWebAuthnCredential(record)
		if err != nil {
			continue
		}
		allowed = append(allowed, credential.Descriptor())
	}
	if len(allowed) == 0 {
		return nil, commonpkg.NewNotFoundError(consts.MsgNoBiometricCredentials)
	}

	assertion, sessionData, err := c.ceremony.BeginAuthentication(allowed)
	if err != nil {
		return nil, fmt.Errorf("begin authentication: %w", err)
	}

	ceremonyID, err := c.ceremonyStore.Save(ctx, service.CeremonyEntry{
		Type:          consts.CeremonyLogin,
		BiometricType: typeFilter,
		SessionData:   *sessionData,
	})
	if err != nil {
		return nil, fmt.Errorf("save ceremony: %w", err)
	}

	return &BeginCeremonyResult{CeremonyID: ceremonyID, Options: assertion.Response}, nil
}

// FinishLogin 仅按 credential_id 解析凭据，再显式比对类型；验签通过后写回计数并走准入表。
func (c *BiometricUseCase) FinishLogin(ctx context.Context, in FinishBiometricLoginInput) (*LoginResult, error) {
	entry, err := c.ceremonyStore.Consume(ctx, in.CeremonyID, consts.CeremonyLogin)
	if err != nil {
		return nil, err
	}

	decoded, err := service.DecodeCeremonyResponse(in.Response)
	if err != nil {
		return nil, commonpkg.NewValidationError(consts.MsgInvalidBiometricResponse)
	}
	if !decoded.MatchesChallenge(entry.SessionData.Challenge) {
		return nil, commonpkg.NewValidationError(consts.MsgChallengeMismatch)
	}

	stored, err := c.credentialStore.FindByCredentialID(decoded.CredentialID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, commonpkg.NewValidationError(consts.MsgNoBiometricCredentials)
		}
		return nil, fmt.Errorf("find credential: %w", err)
	}

	requested := strings.ToLower(strings.TrimSpace(in.BiometricType))
	if requested == "" {
		requested = entry.BiometricType
	}
	if requested != "" && stored.BiometricType != nil && *stored.BiometricType != requested {
		return nil, commonpkg.NewValidationError(consts.MsgBiometricTypeMismatch)
	}

	user, err := c.userStore.FindByID(stored.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, commonpkg.NewNotFoundError(consts.MsgUserNotFound)
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	biometricUser, err := c.toBiometricUser(user)
	if err != nil {
		return nil, err
	}

	result, err := c.ceremony.FinishAuthentication(biometricUser, entry.SessionData, in.Response)
	if err != nil {
		c.log.Warn().Err(err).Uint("user_id", user.ID).Msg("biometric assertion rejected")
		return nil, commonpkg.NewValidationError(consts.MsgBiometricVerificationFailed)
	}
	if err := c.credentialStore.UpdateCounter(stored.CredentialID, result.NewCounter); err != nil {
		return nil, fmt.Errorf("update counter: %w", err)
	}

	if strings.TrimSpace(in.DeviceID) != "" {
		if _, err := c.deviceService.RecordLogin(user.ID, in.DeviceID, in.DeviceName); err != nil {
			return nil, fmt.Errorf("record device: %w", err)
		}
	}

	// 通过验签的生物识别等同于受信任设备
	decision := service.Decide(user, true)
	if decision.Kind == service.DecisionReject {
		return nil, commonpkg.NewRejectedError(decision.Message)
	}
	return &LoginResult{UserID: user.ID, UserType: decision.UserType, Message: consts.MsgLoginSuccess}, nil
}

// Delete 删除当前用户指定类型的全部凭据。
func (c *BiometricUseCase) Delete(userID uint, rawType string) error {
	biometricType, err := parseBiometricType(rawType)
	if err != nil {
		return err
	}
	n, err := c.credentialStore.DeleteByUserAndType(userID, string(biometricType))
	if err != nil {
		return fmt.Errorf("delete credentials: %w", err)
	}
	if n == 0 {
		return commonpkg.NewNotFoundError(consts.MsgNoBiometricCredentials)
	}
	return nil
}

// Check 返回当前用户是否已注册指定类型的凭据。
func (c *BiometricUseCase) Check(userID uint, rawType string) (bool, error) {
	biometricType, err := parseBiometricType(rawType)
	if err != nil {
		return false, err
	}
	exists, err := c.credentialStore.ExistsByUserAndType(userID, string(biometricType))
	if err != nil {
		return false, fmt.Errorf("check credentials: %w", err)
	}
	return exists, nil
}

func (c *BiometricUseCase) loadBiometricUser(userID uint) (*service.BiometricUser, error) {
	user, err := c.userStore.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, commonpkg.NewNotFoundError(consts.MsgUserNotFound)
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return c.toBiometricUser(user)
}

// toBiometricUser 装载用户全部凭据；单条损坏的记录跳过，不影响其余凭据。
func (c *BiometricUseCase) toBiometricUser(user *model.User) (*service.BiometricUser, error) {
	records, err := c.credentialStore.ListCredentialsByUserID(user.ID)
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}

	credentials := make([]webauthn.Credential, 0, len(records))
	for _, record := range records {
		credential, err := service.ToWebAuthnCredential(record)
		if err != nil {
			c.log.Warn().Err(err).Uint("credential_row", record.ID).Msg("skip malformed credential")
			continue
		}
		credentials = append(credentials, credential)
	}
	return &service.BiometricUser{ID: user.ID, Email: user.Email, Credentials: credentials}, nil
}

// checkChallenge 在任何密码学校验之前比对响应内嵌的 challenge。
func checkChallenge(response json.RawMessage, session webauthn.SessionData) error {
	decoded, err := service.DecodeCeremonyResponse(response)
	if err != nil {
		return commonpkg.NewValidationError(consts.MsgInvalidBiometricResponse)
	}
	if !decoded.MatchesChallenge(session.Challenge) {
		return commonpkg.NewValidationError(consts.MsgChallengeMismatch)
	}
	return nil
}
