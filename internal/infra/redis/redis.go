package redis

import (
	"errors"
	"fmt"

	radix "github.com/mediocregopher/radix/v3"

	"github.com/example/buysell/internal/config"
)

// ErrDisabled 未配置 redis 地址
var ErrDisabled = errors.New("redis disabled: empty addr")

// Open 创建 Redis 连接池并 PING 一次，调用方负责 Close
func Open(cfg *config.RedisConfig) (radix.Client, error) {
	if cfg.Addr == "" {
		return nil, ErrDisabled
	}
	size := cfg.PoolSize
	if size <= 0 {
		size = 10
	}
	pool, err := radix.NewPool("tcp", cfg.Addr, size)
	if err != nil {
		return nil, fmt.Errorf("connect redis %s: %w", cfg.Addr, err)
	}
	if err := pool.Do(radix.Cmd(nil, "PING")); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("ping redis %s: %w", cfg.Addr, err)
	}
	return pool, nil
}
