package jobs

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// OTPPurger 清理已过期的验证码
type OTPPurger interface {
	PurgeExpired() (int64, error)
}

// CeremonyPurger 清理已过期的内存仪式令牌
type CeremonyPurger interface {
	PurgeExpired() int
}

type Scheduler struct {
	cron       *cron.Cron
	otps       OTPPurger
	ceremonies CeremonyPurger
	log        zerolog.Logger
}

func NewScheduler(otps OTPPurger, ceremonies CeremonyPurger, log zerolog.Logger) *Scheduler {
	c := cron.New(cron.WithSeconds())
	return &Scheduler{
		cron:       c,
		otps:       otps,
		ceremonies: ceremonies,
		log:        log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("@every 1m", s.purgeExpired); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop 停止调度并返回在运行中任务结束时完成的 context
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) purgeExpired() {
	if s.otps != nil {
		n, err := s.otps.PurgeExpired()
		if err != nil {
			s.log.Error().Err(err).Msg("purge expired otps failed")
		} else if n > 0 {
			s.log.Debug().Int64("count", n).Msg("🧹 expired otps cleared")
		}
	}
	if s.ceremonies != nil {
		if n := s.ceremonies.PurgeExpired(); n > 0 {
			s.log.Debug().Int("count", n).Msg("🧹 expired ceremonies cleared")
		}
	}
}
