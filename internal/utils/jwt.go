package utils

import (
	"errors"
	"fmt"
	"plan-beyond-server/internal/config"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "plan-beyond-server"

// AmbassadorInviteClaims 用于大使邀请链接
type AmbassadorInviteClaims struct {
	UserID    uint   `json:"user_id"`    // 被邀请人
	InviterID uint   `json:"inviter_id"` // 发起邀请的用户
	Email     string `json:"email"`
	Type      string `json:"type"` // "ambassador_invite"
	jwt.RegisteredClaims
}

func getSecret() []byte {
	return []byte(config.Get().JWT.Secret)
}

func GenerateAmbassadorInviteToken(userID uint, inviterID uint, email string, duration time.Duration) (string, error) {
	claims := AmbassadorInviteClaims{
		UserID:    userID,
		InviterID: inviterID,
		Email:     email,
		Type:      "ambassador_invite",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(duration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    tokenIssuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(getSecret())
}

func ParseAmbassadorInviteToken(tokenString string) (*AmbassadorInviteClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AmbassadorInviteClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return getSecret(), nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*AmbassadorInviteClaims); ok && token.Valid {
		if claims.Type != "ambassador_invite" {
			return nil, errors.New("invalid token type")
		}
		return claims, nil
	}

	return nil, errors.New("invalid token")
}
