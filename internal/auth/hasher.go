package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// Hasher 单向加盐哈希，用于密码与一次性收货码
type Hasher interface {
	Hash(secret string) (string, error)
	// Verify 不匹配时返回 false，不返回错误
	Verify(secret, digest string) bool
}

// BcryptHasher 基于 bcrypt 的实现，Cost 为 0 时使用 bcrypt.DefaultCost
type BcryptHasher struct {
	Cost int
}

// NewBcryptHasher 创建哈希器
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{Cost: cost}
}

func (h *BcryptHasher) Hash(secret string) (string, error) {
	out, err := bcrypt.GenerateFromPassword([]byte(secret), h.Cost)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func (h *BcryptHasher) Verify(secret, digest string) bool {
	if digest == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(secret)) == nil
}
