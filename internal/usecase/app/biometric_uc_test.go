package app

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	commonpkg "plan-beyond-server/internal/common"
	"plan-beyond-server/internal/consts"
	"plan-beyond-server/internal/service"
)

// 测试内容：注册生物识别 -> 检查 -> 重复注册冲突 -> 删除。
func TestBiometricUseCase_RegisterCheckDelete(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()
	u := a.seedUser(t, "bio@example.com", true, nil)

	credID := service.EncodeCredentialID([]byte("credential-1"))
	a.ceremony.registered = &service.RegisteredCredential{
		CredentialID: credID,
		PublicKey:    base64.StdEncoding.EncodeToString([]byte("pk")),
		Counter:      0,
		Transports:   []string{"internal", "hybrid"},
		UserVerified: true,
	}

	begin, err := a.app.Biometric.BeginRegistration(ctx, u.ID, u.ID, "Face")
	if err != nil {
		t.Fatalf("BeginRegistration: %v", err)
	}
	if begin.CeremonyID == "" {
		t.Fatalf("期望返回仪式令牌")
	}

	resp := ceremonyResponse(t, credID, a.ceremony.regChallenge, "webauthn.create")
	if err := a.app.Biometric.FinishRegistration(ctx, u.ID, begin.CeremonyID, resp, "face"); err != nil {
		t.Fatalf("FinishRegistration: %v", err)
	}

	stored, err := a.credentials.FindByCredentialID(credID)
	if err != nil {
		t.Fatalf("FindByCredentialID: %v", err)
	}
	if stored.BiometricType == nil || *stored.BiometricType != "face" || stored.Transports != "internal,hybrid" {
		t.Fatalf("非预期凭据: %+v", stored)
	}

	ok, err := a.app.Biometric.Check(u.ID, "face")
	if err != nil || !ok {
		t.Fatalf("期望已注册 face: ok=%v err=%v", ok, err)
	}
	ok, _ = a.app.Biometric.Check(u.ID, "fingerprint")
	if ok {
		t.Fatalf("期望未注册 fingerprint")
	}

	// 仪式令牌只能使用一次
	err = a.app.Biometric.FinishRegistration(ctx, u.ID, begin.CeremonyID, resp, "face")
	expectServiceError(t, err, commonpkg.ErrorCodeValidation, consts.MsgCeremonyExpired)

	again, _ := a.app.Biometric.BeginRegistration(ctx, u.ID, 0, "face")
	err = a.app.Biometric.FinishRegistration(ctx, u.ID, again.CeremonyID, resp, "face")
	expectServiceError(t, err, commonpkg.ErrorCodeConflict, consts.MsgBiometricAlreadyRegistered)

	if err := a.app.Biometric.Delete(u.ID, "face"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	err = a.app.Biometric.Delete(u.ID, "face")
	expectServiceError(t, err, commonpkg.ErrorCodeNotFound, consts.MsgNoBiometricCredentials)

	_, err = a.app.Biometric.Check(u.ID, "iris")
	expectServiceError(t, err, commonpkg.ErrorCodeValidation, consts.MsgInvalidBiometricType)
}

// 测试内容：challenge 不匹配时在验签前拒绝；请求体用户与会话不一致被拒绝。
func TestBiometricUseCase_RegistrationGuards(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()
	u := a.seedUser(t, "guard@example.com", true, nil)

	_, err := a.app.Biometric.BeginRegistration(ctx, u.ID, u.ID+1, "face")
	expectServiceError(t, err, commonpkg.ErrorCodeForbidden, consts.MsgForbidden)

	begin, err := a.app.Biometric.BeginRegistration(ctx, u.ID, 0, "face")
	if err != nil {
		t.Fatalf("BeginRegistration: %v", err)
	}
	resp := ceremonyResponse(t, "Y3JlZA", "b3RoZXItY2hhbGxlbmdl", "webauthn.create")
	err = a.app.Biometric.FinishRegistration(ctx, u.ID, begin.CeremonyID, resp, "face")
	expectServiceError(t, err, commonpkg.ErrorCodeValidation, consts.MsgChallengeMismatch)
	if a.ceremony.finishRegCalls != 0 {
		t.Fatalf("期望 challenge 不匹配时不调用验签，实际调用 %d 次", a.ceremony.finishRegCalls)
	}

	begin, _ = a.app.Biometric.BeginRegistration(ctx, u.ID, 0, "face")
	resp = ceremonyResponse(t, "Y3JlZA", a.ceremony.regChallenge, "webauthn.create")
	err = a.app.Biometric.FinishRegistration(ctx, u.ID, begin.CeremonyID, resp, "fingerprint")
	expectServiceError(t, err, commonpkg.ErrorCodeValidation, consts.MsgBiometricTypeMismatch)

	begin, _ = a.app.Biometric.BeginRegistration(ctx, u.ID, 0, "face")
	a.ceremony.finishErr = errors.New("bad attestation")
	err = a.app.Biometric.FinishRegistration(ctx, u.ID, begin.CeremonyID, resp, "face")
	expectServiceError(t, err, commonpkg.ErrorCodeValidation, consts.MsgBiometricVerificationFailed)
}

// 测试内容：生物识别登录成功后写回签名计数并记录设备。
func TestBiometricUseCase_LoginUpdatesCounter(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()
	u := a.seedUser(t, "login@example.com", true, nil)
	credID := a.seedCredential(t, u.ID, []byte("face-cred"), "face")
	a.seedCredential(t, u.ID, []byte("finger-cred"), "fingerprint")

	begin, err := a.app.Biometric.BeginLogin(ctx, "face")
	if err != nil {
		t.Fatalf("BeginLogin: %v", err)
	}
	if len(a.ceremony.allowed) != 1 {
		t.Fatalf("期望允许列表只含 face 凭据，实际 %d 条", len(a.ceremony.allowed))
	}

	resp := ceremonyResponse(t, credID, a.ceremony.loginChallenge, "webauthn.get")
	res, err := a.app.Biometric.FinishLogin(ctx, FinishBiometricLoginInput{
		CeremonyID:    begin.CeremonyID,
		Response:      resp,
		BiometricType: "face",
		DeviceID:      "phone-1",
		DeviceName:    "<b>Pixel</b>",
	})
	if err != nil {
		t.Fatalf("FinishLogin: %v", err)
	}
	if res.UserID != u.ID || res.UserType != consts.UserTypeUser {
		t.Fatalf("非预期登录结果: %+v", res)
	}

	stored, _ := a.credentials.FindByCredentialID(credID)
	if stored.Counter != a.ceremony.newCounter {
		t.Fatalf("期望计数更新为 %d，实际为 %d", a.ceremony.newCounter, stored.Counter)
	}
	device, err := a.devices.FindDevice(u.ID, "phone-1")
	if err != nil || device.DeviceName != "Pixel" {
		t.Fatalf("期望记录清洗后的设备名: %+v err=%v", device, err)
	}

	_, err = a.app.Biometric.BeginLogin(ctx, "iris")
	expectServiceError(t, err, commonpkg.ErrorCodeValidation, consts.MsgInvalidBiometricType)
}

// 测试内容：未知凭据、类型不匹配、克隆告警均被拒绝且计数不变。
func TestBiometricUseCase_LoginRejections(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()
	u := a.seedUser(t, "reject@example.com", true, nil)
	credID := a.seedCredential(t, u.ID, []byte("face-cred"), "face")

	begin, _ := a.app.Biometric.BeginLogin(ctx, "")
	unknown := ceremonyResponse(t, service.EncodeCredentialID([]byte("nobody")), a.ceremony.loginChallenge, "webauthn.get")
	_, err := a.app.Biometric.FinishLogin(ctx, FinishBiometricLoginInput{CeremonyID: begin.CeremonyID, Response: unknown})
	expectServiceError(t, err, commonpkg.ErrorCodeValidation, consts.MsgNoBiometricCredentials)

	begin, _ = a.app.Biometric.BeginLogin(ctx, "")
	resp := ceremonyResponse(t, credID, a.ceremony.loginChallenge, "webauthn.get")
	_, err = a.app.Biometric.FinishLogin(ctx, FinishBiometricLoginInput{CeremonyID: begin.CeremonyID, Response: resp, BiometricType: "fingerprint"})
	expectServiceError(t, err, commonpkg.ErrorCodeValidation, consts.MsgBiometricTypeMismatch)

	begin, _ = a.app.Biometric.BeginLogin(ctx, "face")
	wrong := ceremonyResponse(t, credID, "d3Jvbmc", "webauthn.get")
	_, err = a.app.Biometric.FinishLogin(ctx, FinishBiometricLoginInput{CeremonyID: begin.CeremonyID, Response: wrong})
	expectServiceError(t, err, commonpkg.ErrorCodeValidation, consts.MsgChallengeMismatch)

	begin, _ = a.app.Biometric.BeginLogin(ctx, "face")
	a.ceremony.finishErr = service.ErrCredentialCloned
	_, err = a.app.Biometric.FinishLogin(ctx, FinishBiometricLoginInput{CeremonyID: begin.CeremonyID, Response: resp})
	expectServiceError(t, err, commonpkg.ErrorCodeValidation, consts.MsgBiometricVerificationFailed)

	if a.ceremony.finishLogCalls != 1 {
		t.Fatalf("期望仅克隆场景调用验签，实际 %d 次", a.ceremony.finishLogCalls)
	}
	stored, _ := a.credentials.FindByCredentialID(credID)
	if stored.Counter != 1 {
		t.Fatalf("期望计数不变，实际为 %d", stored.Counter)
	}

	_, err = a.app.Biometric.FinishLogin(ctx, FinishBiometricLoginInput{CeremonyID: "missing", Response: resp})
	expectServiceError(t, err, commonpkg.ErrorCodeValidation, consts.MsgCeremonyExpired)
}

// 测试内容：没有可用凭据时无法开始登录；未接受邀请的大使即便通过验签也被拒绝。
func TestBiometricUseCase_LoginAccessRules(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	_, err := a.app.Biometric.BeginLogin(ctx, "face")
	expectServiceError(t, err, commonpkg.ErrorCodeNotFound, consts.MsgNoBiometricCredentials)

	amb := a.seedUser(t, "amb@example.com", false, boolPtr(false))
	credID := a.seedCredential(t, amb.ID, []byte("amb-cred"), "fingerprint")

	begin, err := a.app.Biometric.BeginLogin(ctx, "fingerprint")
	if err != nil {
		t.Fatalf("BeginLogin: %v", err)
	}
	resp := ceremonyResponse(t, credID, a.ceremony.loginChallenge, "webauthn.get")
	_, err = a.app.Biometric.FinishLogin(ctx, FinishBiometricLoginInput{CeremonyID: begin.CeremonyID, Response: resp})
	expectServiceError(t, err, commonpkg.ErrorCodeRejected, consts.MsgAmbassadorNotAccepted)
}
