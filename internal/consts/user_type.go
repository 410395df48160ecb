package consts

type UserType string

const (
	UserTypeUser       UserType = "user"
	UserTypeAmbassador UserType = "ambassador"
)

// OTPPurpose 决定验证码邮件文案与有效期
type OTPPurpose string

const (
	OTPPurposeRegister        OTPPurpose = "register"
	OTPPurposePasswordReset   OTPPurpose = "password_reset"
	OTPPurposeLogin           OTPPurpose = "login"
	OTPPurposeAmbassadorLogin OTPPurpose = "ambassador_login"
)

const (
	BcryptCost = 12

	SessionKeyUserID     = "userId"
	SessionKeyUserType   = "userType"
	SessionKeyCeremonyID = "ceremonyId"
)
