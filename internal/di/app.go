package di

import (
	"context"
	"plan-beyond-server/internal/jobs"
	"plan-beyond-server/internal/middleware"
	"plan-beyond-server/internal/router"
	"plan-beyond-server/internal/service"

	"github.com/redis/go-redis/v9"
)

type Application struct {
	Router          *router.Router
	Scheduler       *jobs.Scheduler
	Redis           *redis.Client
	PasswordLimiter *middleware.IPRateLimiter
}

func NewApplication(r *router.Router, s *jobs.Scheduler, redisClient *redis.Client, limiter *middleware.IPRateLimiter) *Application {
	return &Application{
		Router:          r,
		Scheduler:       s,
		Redis:           redisClient,
		PasswordLimiter: limiter,
	}
}

// Close 停止后台任务并释放外部连接
func (a *Application) Close() error {
	var stopped context.Context
	if a.Scheduler != nil {
		stopped = a.Scheduler.Stop()
	}
	if a.PasswordLimiter != nil {
		a.PasswordLimiter.Stop()
	}
	err := service.CloseRedisClient(a.Redis)
	if stopped != nil {
		<-stopped.Done()
	}
	return err
}
