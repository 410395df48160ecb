package router

import (
	"plan-beyond-server/internal/handler"
	"plan-beyond-server/internal/middleware"
	"plan-beyond-server/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type Router struct {
	auth            *handler.AuthHandler
	biometric       *handler.BiometricHandler
	ambassador      *handler.AmbassadorHandler
	session         *handler.SessionHandler
	sessions        *service.SessionService
	passwordLimiter *middleware.IPRateLimiter
	log             zerolog.Logger
}

func NewRouter(
	auth *handler.AuthHandler,
	biometric *handler.BiometricHandler,
	ambassador *handler.AmbassadorHandler,
	session *handler.SessionHandler,
	sessions *service.SessionService,
	passwordLimiter *middleware.IPRateLimiter,
	log zerolog.Logger,
) *Router {
	return &Router{
		auth:            auth,
		biometric:       biometric,
		ambassador:      ambassador,
		session:         session,
		sessions:        sessions,
		passwordLimiter: passwordLimiter,
		log:             log,
	}
}

func (rt *Router) Init(r *gin.Engine) {
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(rt.log))
	r.Use(middleware.Recovery(rt.log))
	// 注册全局安全标头中间件
	r.Use(middleware.SecurityHeaders())

	api := r.Group("/api")
	// 应用请求体大小限制中间件
	api.Use(middleware.BodyLimitMiddleware(middleware.DefaultMaxBodyBytes))

	// 需要登录态的路由共用同一个会话校验中间件
	sessionAuth := middleware.SessionAuth(rt.sessions)

	registerPublicRoutes(api, rt.session, sessionAuth)
	registerAuthRoutes(api, middleware.RateLimitMiddleware(rt.passwordLimiter), rt.auth)
	registerBiometricRoutes(api, sessionAuth, rt.biometric)
	registerAmbassadorRoutes(api, sessionAuth, rt.ambassador)
}
