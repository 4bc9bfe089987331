package auth

import (
	"context"
	"strconv"
	"time"

	radix "github.com/mediocregopher/radix/v3"

	"github.com/example/buysell/internal/apperr"
)

// AttemptGuard 限制固定窗口内的失败次数（收货码校验、登录）
type AttemptGuard interface {
	// Check 失败次数已达上限时返回 TooManyAttempts
	Check(ctx context.Context, key string) error
	// Fail 记录一次失败
	Fail(ctx context.Context, key string) error
	// Reset 成功后清零
	Reset(ctx context.Context, key string) error
}

// NopAttemptGuard 不做限制，未配置 redis 时使用
type NopAttemptGuard struct{}

func (NopAttemptGuard) Check(context.Context, string) error { return nil }
func (NopAttemptGuard) Fail(context.Context, string) error  { return nil }
func (NopAttemptGuard) Reset(context.Context, string) error { return nil }

const attemptKeyPrefix = "buysell:attempts:"

// RedisAttemptGuard 基于 INCR + EXPIRE 的计数器，窗口从第一次失败开始计算
type RedisAttemptGuard struct {
	redis  radix.Client
	max    int
	window time.Duration
}

// NewRedisAttemptGuard max <= 0 表示不限制
func NewRedisAttemptGuard(redis radix.Client, max int, window time.Duration) *RedisAttemptGuard {
	if window <= 0 {
		window = 15 * time.Minute
	}
	return &RedisAttemptGuard{redis: redis, max: max, window: window}
}

func (g *RedisAttemptGuard) Check(ctx context.Context, key string) error {
	if g.max <= 0 {
		return nil
	}
	var raw string
	if err := g.redis.Do(radix.Cmd(&raw, "GET", attemptKeyPrefix+key)); err != nil {
		return apperr.Internal(err)
	}
	if raw == "" {
		return nil
	}
	used, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	if used >= g.max {
		return apperr.TooManyAttempts("too many failed attempts, try again later")
	}
	return nil
}

func (g *RedisAttemptGuard) Fail(ctx context.Context, key string) error {
	if g.max <= 0 {
		return nil
	}
	k := attemptKeyPrefix + key
	var used int
	if err := g.redis.Do(radix.Cmd(&used, "INCR", k)); err != nil {
		return err
	}
	if used == 1 {
		return g.redis.Do(radix.FlatCmd(nil, "EXPIRE", k, int64(g.window/time.Second)))
	}
	return nil
}

func (g *RedisAttemptGuard) Reset(ctx context.Context, key string) error {
	return g.redis.Do(radix.Cmd(nil, "DEL", attemptKeyPrefix+key))
}
