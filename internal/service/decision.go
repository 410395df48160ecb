package service

import (
	"plan-beyond-server/internal/consts"
	"plan-beyond-server/internal/model"
)

type DecisionKind int

const (
	DecisionGrant DecisionKind = iota
	DecisionRequireOTP
	DecisionReject
)

// Decision 是登录准入表的输出，三种结果互斥
type Decision struct {
	Kind       DecisionKind
	UserType   consts.UserType   // Grant / RequireOTP
	OTPPurpose consts.OTPPurpose // RequireOTP
	Message    string            // Reject
}

// Decide 根据 (is_verified, ambassador_accept, deviceTrusted) 决定授予会话、要求验证码或拒绝。
//
// is_verified 为真时忽略 ambassador_accept；未验证用户中 ambassador_accept 显式为 false
// 返回大使拒绝文案，为空返回邮箱未验证文案。
func Decide(user *model.User, deviceTrusted bool) Decision {
	if user.IsVerified {
		if deviceTrusted {
			return Decision{Kind: DecisionGrant, UserType: consts.UserTypeUser}
		}
		return Decision{Kind: DecisionRequireOTP, UserType: consts.UserTypeUser, OTPPurpose: consts.OTPPurposeLogin}
	}

	if user.AmbassadorAccept == nil {
		return Decision{Kind: DecisionReject, Message: consts.MsgEmailNotVerified}
	}
	if !*user.AmbassadorAccept {
		return Decision{Kind: DecisionReject, Message: consts.MsgAmbassadorNotAccepted}
	}

	if deviceTrusted {
		return Decision{Kind: DecisionGrant, UserType: consts.UserTypeAmbassador}
	}
	return Decision{Kind: DecisionRequireOTP, UserType: consts.UserTypeAmbassador, OTPPurpose: consts.OTPPurposeAmbassadorLogin}
}
