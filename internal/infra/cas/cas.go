package cas

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/example/buysell/internal/config"
)

// Client 校园 CAS 单点登录
type Client struct {
	baseURL    string
	serviceURL string
	http       *http.Client
}

func New(cfg *config.CASConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		serviceURL: cfg.ServiceURL,
		http:       &http.Client{Timeout: timeout},
	}
}

// LoginURL 浏览器跳转地址
func (c *Client) LoginURL() string {
	return c.baseURL + "/login?service=" + url.QueryEscape(c.serviceURL)
}

type serviceResponse struct {
	XMLName xml.Name `xml:"serviceResponse"`
	Success *struct {
		User string `xml:"user"`
	} `xml:"authenticationSuccess"`
	Failure *struct {
		Code    string `xml:"code,attr"`
		Message string `xml:",chardata"`
	} `xml:"authenticationFailure"`
}

// Validate 校验 ticket，返回 CAS 用户名；ticket 无效时返回空串和 nil
func (c *Client) Validate(ctx context.Context, ticket string) (string, error) {
	if strings.TrimSpace(ticket) == "" {
		return "", nil
	}
	q := url.Values{"service": {c.serviceURL}, "ticket": {ticket}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/serviceValidate?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("cas validate: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("cas validate: status %d", resp.StatusCode)
	}

	var out serviceResponse
	if err := xml.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("cas validate decode: %w", err)
	}
	if out.Success == nil {
		return "", nil
	}
	return strings.TrimSpace(out.Success.User), nil
}
