package captcha

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/example/buysell/internal/config"
)

// Verifier 校验前端提交的人机验证凭证
type Verifier interface {
	Verify(ctx context.Context, proof string) (bool, error)
}

// New 按配置返回 reCAPTCHA 校验器；未启用时只要求凭证非空
func New(cfg *config.CaptchaConfig) Verifier {
	if !cfg.Enabled {
		return PresenceVerifier{}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &ReCaptcha{
		secret:    cfg.SecretKey,
		verifyURL: cfg.VerifyURL,
		client:    &http.Client{Timeout: timeout},
	}
}

// PresenceVerifier 开发环境使用
type PresenceVerifier struct{}

func (PresenceVerifier) Verify(_ context.Context, proof string) (bool, error) {
	return strings.TrimSpace(proof) != "", nil
}

// ReCaptcha 调用 siteverify 接口
type ReCaptcha struct {
	secret    string
	verifyURL string
	client    *http.Client
}

type siteVerifyResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

// Verify 超时或网络错误视为校验失败并返回 error，不重试
func (r *ReCaptcha) Verify(ctx context.Context, proof string) (bool, error) {
	if strings.TrimSpace(proof) == "" {
		return false, nil
	}
	form := url.Values{"secret": {r.secret}, "response": {proof}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := r.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("captcha verify: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("captcha verify: status %d", resp.StatusCode)
	}
	var out siteVerifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, fmt.Errorf("captcha verify decode: %w", err)
	}
	return out.Success, nil
}
