package service

import (
	"context"
	"testing"
	"time"

	commonpkg "plan-beyond-server/internal/common"
	"plan-beyond-server/internal/consts"

	"github.com/go-webauthn/webauthn/webauthn"
)

// 测试内容：验证仪式令牌只能被消费一次。
func TestCeremonyStore_ConsumeOnce(t *testing.T) {
	store := NewCeremonyStore(nil, testConfig(), nopLogger())
	ctx := context.Background()

	id, err := store.Save(ctx, CeremonyEntry{
		Type:          consts.CeremonyRegistration,
		UserID:        9,
		BiometricType: "face",
		SessionData:   webauthn.SessionData{Challenge: "abc"},
	})
	if err != nil || id == "" {
		t.Fatalf("Save: id=%q err=%v", id, err)
	}

	entry, err := store.Consume(ctx, id, consts.CeremonyRegistration)
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if entry.UserID != 9 || entry.BiometricType != "face" || entry.SessionData.Challenge != "abc" {
		t.Fatalf("非预期条目: %+v", entry)
	}

	if _, err := store.Consume(ctx, id, consts.CeremonyRegistration); err == nil {
		t.Fatalf("期望二次消费失败")
	}
}

// 测试内容：验证类型不符与过期的令牌被拒绝。
func TestCeremonyStore_TypeAndExpiry(t *testing.T) {
	store := NewCeremonyStore(nil, testConfig(), nopLogger())
	ctx := context.Background()

	id, _ := store.Save(ctx, CeremonyEntry{Type: consts.CeremonyLogin})
	_, err := store.Consume(ctx, id, consts.CeremonyRegistration)
	se, ok := commonpkg.AsServiceError(err)
	if !ok || se.Message != consts.MsgCeremonyMismatch {
		t.Fatalf("期望类型不符错误，实际为 %v", err)
	}

	base := time.Now()
	store.now = func() time.Time { return base }
	id, _ = store.Save(ctx, CeremonyEntry{Type: consts.CeremonyLogin})
	store.now = func() time.Time { return base.Add(consts.CeremonyTTL + time.Second) }
	_, err = store.Consume(ctx, id, consts.CeremonyLogin)
	se, ok = commonpkg.AsServiceError(err)
	if !ok || se.Message != consts.MsgCeremonyExpired {
		t.Fatalf("期望过期错误，实际为 %v", err)
	}

	if _, err := store.Consume(ctx, "", consts.CeremonyLogin); err == nil {
		t.Fatalf("期望空令牌失败")
	}
}

// 测试内容：验证并发仪式互不覆盖，且过期条目可被清理。
func TestCeremonyStore_ConcurrentAndPurge(t *testing.T) {
	store := NewCeremonyStore(nil, testConfig(), nopLogger())
	ctx := context.Background()

	a, _ := store.Save(ctx, CeremonyEntry{Type: consts.CeremonyLogin, SessionData: webauthn.SessionData{Challenge: "a"}})
	b, _ := store.Save(ctx, CeremonyEntry{Type: consts.CeremonyLogin, SessionData: webauthn.SessionData{Challenge: "b"}})
	if a == b {
		t.Fatalf("期望不同令牌")
	}
	ea, _ := store.Consume(ctx, a, consts.CeremonyLogin)
	eb, _ := store.Consume(ctx, b, consts.CeremonyLogin)
	if ea.SessionData.Challenge != "a" || eb.SessionData.Challenge != "b" {
		t.Fatalf("仪式状态被覆盖: %q %q", ea.SessionData.Challenge, eb.SessionData.Challenge)
	}

	base := time.Now()
	store.now = func() time.Time { return base }
	_, _ = store.Save(ctx, CeremonyEntry{Type: consts.CeremonyLogin})
	store.now = func() time.Time { return base.Add(consts.CeremonyTTL + time.Minute) }
	if n := store.PurgeExpired(); n != 1 {
		t.Fatalf("期望清理 1 条，实际为 %d", n)
	}
}

func TestRedisKey(t *testing.T) {
	if got := RedisKey("pb", "ceremony", "x"); got != "pb:ceremony:x" {
		t.Fatalf("非预期 key: %q", got)
	}
	if got := RedisKey(""); got != "plan_beyond" {
		t.Fatalf("非预期默认前缀: %q", got)
	}
}

// 测试内容：验证禁用 Redis 时返回 nil 客户端，关闭 nil 客户端不报错。
func TestNewRedisClient_Disabled(t *testing.T) {
	if c := NewRedisClient(testConfig(), nopLogger()); c != nil {
		t.Fatalf("期望禁用时返回 nil")
	}
	if err := CloseRedisClient(nil); err != nil {
		t.Fatalf("CloseRedisClient(nil): %v", err)
	}
}
