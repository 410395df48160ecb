package service

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/go-webauthn/webauthn/protocol"
)

var credentialIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// CeremonyResponse 是客户端仪式响应中服务端预检需要的字段
type CeremonyResponse struct {
	CredentialID string
	ClientData   protocol.CollectedClientData
}

type ceremonyEnvelope struct {
	ID       string `json:"id"`
	RawID    string `json:"rawId"`
	Response struct {
		ClientDataJSON string `json:"clientDataJSON"`
	} `json:"response"`
}

// DecodeCeremonyResponse 只解出凭据 ID 与 clientDataJSON，不做任何密码学校验。
func DecodeCeremonyResponse(raw []byte) (*CeremonyResponse, error) {
	var envelope ceremonyEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, errors.New("malformed ceremony response")
	}
	if envelope.Response.ClientDataJSON == "" {
		return nil, errors.New("missing clientDataJSON")
	}

	clientDataBytes, err := decodeBase64URL(envelope.Response.ClientDataJSON)
	if err != nil {
		return nil, errors.New("malformed clientDataJSON")
	}

	var clientData protocol.CollectedClientData
	if err := json.Unmarshal(clientDataBytes, &clientData); err != nil {
		return nil, errors.New("malformed clientDataJSON")
	}

	id := envelope.RawID
	if id == "" {
		id = envelope.ID
	}

	return &CeremonyResponse{
		CredentialID: NormalizeCredentialID(id),
		ClientData:   clientData,
	}, nil
}

// MatchesChallenge 比较响应内嵌 challenge 与服务端保存的 challenge（忽略填充）。
func (r *CeremonyResponse) MatchesChallenge(expected string) bool {
	got := strings.TrimRight(r.ClientData.Challenge, "=")
	want := strings.TrimRight(expected, "=")
	return want != "" && got == want
}

// IsWellFormedCredentialID 结构校验：非空且只含 base64url 字符。
func IsWellFormedCredentialID(id string) bool {
	return id != "" && credentialIDPattern.MatchString(id)
}

func decodeBase64URL(s string) ([]byte, error) {
	s = strings.TrimRight(strings.TrimSpace(s), "=")
	if b, err := base64.RawURLEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.RawStdEncoding.DecodeString(s)
}
