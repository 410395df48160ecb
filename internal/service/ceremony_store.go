package service

import (
	"context"
	"encoding/json"
	"errors"
	commonpkg "plan-beyond-server/internal/common"
	"plan-beyond-server/internal/config"
	"plan-beyond-server/internal/consts"
	"strings"
	"sync"
	"time"

	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// CeremonyEntry 是一次进行中的 WebAuthn 仪式的服务端状态
type CeremonyEntry struct {
	Type          consts.CeremonyType  `json:"type"`
	UserID        uint                 `json:"user_id"`
	BiometricType string               `json:"biometric_type"`
	SessionData   webauthn.SessionData `json:"session_data"`
	ExpiresAt     time.Time            `json:"expires_at"`
}

// CeremonyStore 保存一次性仪式令牌：Redis 可用时写 Redis，否则写进程内存。
type CeremonyStore struct {
	redis  *redis.Client
	prefix string
	ttl    time.Duration
	now    func() time.Time
	memory sync.Map
	log    zerolog.Logger
}

func NewCeremonyStore(client *redis.Client, cfg config.Config, log zerolog.Logger) *CeremonyStore {
	return &CeremonyStore{
		redis:  client,
		prefix: cfg.Redis.Prefix,
		ttl:    consts.CeremonyTTL,
		now:    time.Now,
		log:    log,
	}
}

// Save 保存仪式状态并返回一次性令牌。
func (s *CeremonyStore) Save(ctx context.Context, entry CeremonyEntry) (string, error) {
	id := uuid.NewString()
	entry.ExpiresAt = s.now().Add(s.ttl)

	if s.saveInRedis(ctx, id, entry) {
		return id, nil
	}

	// 每次写入前顺带清理过期条目
	s.PurgeExpired()
	s.memory.Store(id, entry)
	return id, nil
}

func (s *CeremonyStore) saveInRedis(ctx context.Context, id string, entry CeremonyEntry) bool {
	if s.redis == nil {
		return false
	}

	payload, err := json.Marshal(entry)
	if err != nil {
		s.log.Warn().Err(err).Msg("⚠️ 仪式状态序列化失败，回退内存")
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	if err := s.redis.Set(ctx, RedisKey(s.prefix, "ceremony", id), payload, s.ttl).Err(); err != nil {
		s.log.Warn().Err(err).Msg("⚠️ Redis 写入仪式状态失败，回退内存")
		return false
	}
	return true
}

// Consume 读取并删除令牌对应的仪式状态，同时校验类型与有效期。
func (s *CeremonyStore) Consume(ctx context.Context, id string, expected consts.CeremonyType) (*CeremonyEntry, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, commonpkg.NewValidationError(consts.MsgCeremonyExpired)
	}

	entry, err := s.consumeFromRedis(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		entry = s.consumeFromMemory(id)
	}
	if entry == nil {
		return nil, commonpkg.NewValidationError(consts.MsgCeremonyExpired)
	}

	if entry.Type != expected {
		return nil, commonpkg.NewValidationError(consts.MsgCeremonyMismatch)
	}
	if s.now().After(entry.ExpiresAt) {
		return nil, commonpkg.NewValidationError(consts.MsgCeremonyExpired)
	}
	return entry, nil
}

func (s *CeremonyStore) consumeFromRedis(ctx context.Context, id string) (*CeremonyEntry, error) {
	if s.redis == nil {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	payload, err := s.redis.GetDel(ctx, RedisKey(s.prefix, "ceremony", id)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.log.Warn().Err(err).Msg("⚠️ Redis 读取仪式状态失败，回退内存")
		}
		return nil, nil
	}
	if strings.TrimSpace(payload) == "" {
		return nil, nil
	}

	var entry CeremonyEntry
	if err := json.Unmarshal([]byte(payload), &entry); err != nil {
		return nil, commonpkg.NewInternalError(consts.MsgServerError)
	}
	return &entry, nil
}

func (s *CeremonyStore) consumeFromMemory(id string) *CeremonyEntry {
	raw, ok := s.memory.LoadAndDelete(id)
	if !ok {
		return nil
	}
	entry, ok := raw.(CeremonyEntry)
	if !ok {
		return nil
	}
	return &entry
}

// PurgeExpired 清理内存中的过期条目，返回清理数量。Redis 条目依赖 TTL 自动过期。
func (s *CeremonyStore) PurgeExpired() int {
	now := s.now()
	removed := 0
	s.memory.Range(func(key, value interface{}) bool {
		entry, ok := value.(CeremonyEntry)
		if !ok || now.After(entry.ExpiresAt) {
			s.memory.Delete(key)
			removed++
		}
		return true
	})
	return removed
}
