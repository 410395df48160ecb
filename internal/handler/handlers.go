package handler

import (
	"plan-beyond-server/internal/common"
	"plan-beyond-server/internal/common/httpx"
	"plan-beyond-server/internal/consts"
	"plan-beyond-server/internal/service"
	"plan-beyond-server/internal/usecase/app"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type AuthHandler struct {
	auth     *app.AuthUseCase
	sessions *service.SessionService
	log      zerolog.Logger
}

type BiometricHandler struct {
	biometric *app.BiometricUseCase
	sessions  *service.SessionService
	log       zerolog.Logger
}

type AmbassadorHandler struct {
	ambassador *app.AmbassadorUseCase
	log        zerolog.Logger
}

type SessionHandler struct {
	sessions *service.SessionService
	log      zerolog.Logger
}

func NewAuthHandler(appUseCase *app.AppUseCase, sessions *service.SessionService, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{auth: appUseCase.Auth, sessions: sessions, log: log}
}

func NewBiometricHandler(appUseCase *app.AppUseCase, sessions *service.SessionService, log zerolog.Logger) *BiometricHandler {
	return &BiometricHandler{biometric: appUseCase.Biometric, sessions: sessions, log: log}
}

func NewAmbassadorHandler(appUseCase *app.AppUseCase, log zerolog.Logger) *AmbassadorHandler {
	return &AmbassadorHandler{ambassador: appUseCase.Ambassador, log: log}
}

func NewSessionHandler(sessions *service.SessionService, log zerolog.Logger) *SessionHandler {
	return &SessionHandler{sessions: sessions, log: log}
}

// writeError 渲染用例层错误；非业务错误先带上下文记录日志，再回复通用文案
func writeError(c *gin.Context, log zerolog.Logger, op string, err error) {
	if _, ok := common.AsServiceError(err); !ok {
		log.Error().Err(err).
			Str("op", op).
			Str("request_id", c.Writer.Header().Get("X-Request-Id")).
			Msg("❌ request failed")
	}
	httpx.WriteServiceError(c, err, consts.MsgServerError)
}

// signIn 写入会话；失败按服务器错误处理
func signIn(c *gin.Context, sessions *service.SessionService, log zerolog.Logger, userID uint, userType consts.UserType) bool {
	if err := sessions.SignIn(c.Writer, c.Request, userID, userType); err != nil {
		writeError(c, log, "session.sign_in", err)
		return false
	}
	return true
}

func deviceName(c *gin.Context, userAgent string) string {
	if userAgent != "" {
		return userAgent
	}
	return c.Request.UserAgent()
}
