package consts

// 返回给前端的固定文案，前端依赖这些字符串做分支
const (
	MsgServerError            = "Server error."
	MsgUserNotFound           = "User not found."
	MsgInvalidCredentials     = "Invalid email or password."
	MsgInvalidOTP             = "Invalid OTP."
	MsgOTPExpired             = "OTP has expired. Please request a new one."
	MsgAmbassadorNotAccepted  = "You haven't accepted the ambassador request. Please accept and login again."
	MsgEmailNotVerified       = "Please verify your email with OTP before logging in."
	MsgLoginOTPSent           = "OTP sent to your email. Please verify to continue."
	MsgLoginSuccess           = "Login successful."
	MsgInvalidBiometricType   = "Invalid biometric type."
	MsgNoBiometricCredentials = "No biometric credentials found for this user."
	MsgBiometricTypeMismatch  = "Biometric type mismatch."
	MsgChallengeMismatch      = "Challenge mismatch."
	MsgCeremonyExpired        = "Biometric session expired. Please try again."
	MsgCeremonyMismatch       = "Biometric session does not match this request."
	MsgNotAuthenticated       = "Not authenticated."
	MsgForbidden              = "You are not allowed to perform this action."
)

// 注册 / 验证码 / 密码重置
const (
	MsgUserAlreadyExists    = "User already exists."
	MsgRegisterSuccess      = "Registration successful. Please verify your email with the OTP sent."
	MsgOTPVerified          = "OTP verified successfully."
	MsgEmailAlreadyVerified = "Email is already verified."
	MsgOTPResent            = "A new OTP has been sent to your email."
	MsgPasswordResetOTPSent = "OTP sent to your email for password reset."
	MsgPasswordResetSuccess = "Password reset successful."
	MsgPasswordMismatch     = "Passwords do not match."
	MsgPasswordReused       = "New password cannot be the same as the current password."
	MsgDeviceIDRequired     = "Device ID is required."
	MsgTooManyRequests      = "Too many requests. Please try again later."
	MsgLoggedOut            = "Logged out successfully."
)

// 生物识别
const (
	MsgBiometricRegistered         = "Biometric registered successfully."
	MsgBiometricDeleted            = "Biometric credential deleted successfully."
	MsgBiometricVerificationFailed = "Biometric verification failed."
	MsgInvalidBiometricResponse    = "Invalid biometric response."
	MsgBiometricAlreadyRegistered  = "This biometric credential is already registered."
)

// 大使邀请
const (
	MsgInviteSent       = "Ambassador invitation sent."
	MsgInviteAccepted   = "Ambassador request accepted. Please login to continue."
	MsgInvalidInvite    = "Invalid or expired invitation."
	MsgCannotInviteSelf = "You cannot invite yourself as an ambassador."
	MsgPasswordRequired = "Please set a password to accept the invitation."
)
