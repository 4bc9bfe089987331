package auth

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"time"

	radix "github.com/mediocregopher/radix/v3"
)

// TokenCache 缓存 JWT 解析结果，按一致性哈希把 token 分到各 redis 节点
type TokenCache struct {
	nodes map[string]radix.Client
	ring  *HashRing
	ttl   time.Duration
}

// NewTokenCache 构建缓存器，nodes 为节点名到连接池的映射，为空时缓存关闭
func NewTokenCache(nodes map[string]radix.Client, replicas int, ttl time.Duration) *TokenCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	names := make([]string, 0, len(nodes))
	for name := range nodes {
		names = append(names, name)
	}
	return &TokenCache{
		nodes: nodes,
		ring:  NewHashRing(names, replicas),
		ttl:   ttl,
	}
}

// client 返回 token 所属节点的连接池
func (c *TokenCache) client(token string) radix.Client {
	if c == nil || len(c.nodes) == 0 {
		return nil
	}
	return c.nodes[c.ring.Node(token)]
}

func cacheKey(token string) string {
	sum := sha1.Sum([]byte(token))
	return "buysell:jwt:" + hex.EncodeToString(sum[:])
}

// Get 命中时返回 claims；过期或损坏的条目会被删除
func (c *TokenCache) Get(ctx context.Context, token string) (*Claims, bool, error) {
	rc := c.client(token)
	if rc == nil {
		return nil, false, nil
	}
	key := cacheKey(token)
	var raw string
	if err := rc.Do(radix.Cmd(&raw, "GET", key)); err != nil {
		return nil, false, err
	}
	if raw == "" {
		return nil, false, nil
	}
	var claims Claims
	if err := json.Unmarshal([]byte(raw), &claims); err != nil || claims.ExpiresAt == nil || claims.ExpiresAt.Before(time.Now()) {
		_ = rc.Do(radix.Cmd(nil, "DEL", key))
		return nil, false, nil
	}
	return &claims, true, nil
}

// Set 缓存解析结果，过期时间不超过 token 本身的剩余有效期
func (c *TokenCache) Set(ctx context.Context, token string, claims *Claims) error {
	rc := c.client(token)
	if rc == nil || claims == nil {
		return nil
	}
	ttl := c.ttl
	if claims.ExpiresAt != nil {
		if left := time.Until(claims.ExpiresAt.Time); left < ttl {
			ttl = left
		}
	}
	if ttl < time.Second {
		return nil
	}
	body, err := json.Marshal(claims)
	if err != nil {
		return err
	}
	return rc.Do(radix.FlatCmd(nil, "SETEX", cacheKey(token), int64(ttl/time.Second), body))
}
