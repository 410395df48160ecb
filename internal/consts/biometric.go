package consts

import "time"

type BiometricType string

const (
	BiometricFace        BiometricType = "face"
	BiometricFingerprint BiometricType = "fingerprint"
)

// Valid 判断生物识别类型是否受支持
func (t BiometricType) Valid() bool {
	return t == BiometricFace || t == BiometricFingerprint
}

type CeremonyType string

const (
	CeremonyRegistration CeremonyType = "registration"
	CeremonyLogin        CeremonyType = "login"
	CeremonyTTL                       = 5 * time.Minute
)
