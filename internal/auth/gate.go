package auth

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/example/buysell/internal/apperr"
	"github.com/example/buysell/internal/config"
)

// Gate 校验每个请求携带的 bearer token
type Gate struct {
	jwt   *config.JWTConfig
	cache *TokenCache
}

// NewGate cache 可为 nil
func NewGate(jwtCfg *config.JWTConfig, cache *TokenCache) *Gate {
	return &Gate{jwt: jwtCfg, cache: cache}
}

// Authenticate 解析 Authorization 头，兼容带或不带 "Bearer " 前缀
func (g *Gate) Authenticate(ctx context.Context, header string) (*Claims, error) {
	token := strings.TrimSpace(header)
	if len(token) > 7 && strings.EqualFold(token[:7], "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	if token == "" {
		return nil, apperr.Unauthorized("missing token")
	}

	claims, hit, err := g.cache.Get(ctx, token)
	if err != nil {
		zap.L().Warn("token cache get failed", zap.Error(err))
	}
	if hit {
		return claims, nil
	}

	claims, err = ParseToken(g.jwt, token)
	if err != nil {
		return nil, apperr.Unauthorized("invalid token")
	}
	if err := g.cache.Set(ctx, token, claims); err != nil {
		zap.L().Warn("token cache set failed", zap.Error(err))
	}
	return claims, nil
}

// Issue 为账户签发 token
func (g *Gate) Issue(accountID int64, email string) (string, error) {
	return GenerateToken(g.jwt, accountID, email)
}
