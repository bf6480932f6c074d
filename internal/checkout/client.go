package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shatami1/Comcare/internal/models"
	"github.com/shatami1/Comcare/internal/service"
)

const (
	msgServerUnavailable = "Checkout server not available."
	msgNoCheckoutURL     = "No checkout URL returned."
	msgServerUnreachable = "Unable to start secure checkout."

	// 状态徽标文案
	StatusConnected = "Checkout connected: server and Stripe key are valid."
	StatusOffline   = "Checkout offline: start the local server to enable payment."
	statusIssue     = "Checkout issue: "
	statusFallback  = "Stripe configuration issue."
)

// BadgeState 状态徽标样式
type BadgeState string

const (
	BadgeSuccess BadgeState = "success"
	BadgeError   BadgeState = "error"
)

// Badge 结算连接状态
type Badge struct {
	Message string
	State   BadgeState
}

// HTTPClient 通过 HTTP 调用结算后端
type HTTPClient struct {
	baseURL     string
	sessionPath string
	healthPath  string
	client      *http.Client
}

// ClientOptions HTTP 客户端配置
type ClientOptions struct {
	ServerURL   string
	SessionPath string
	HealthPath  string
	Timeout     time.Duration
}

// NewHTTPClient 创建结算后端客户端
func NewHTTPClient(opts ClientOptions, client *http.Client) *HTTPClient {
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	sessionPath := strings.TrimSpace(opts.SessionPath)
	if sessionPath == "" {
		sessionPath = "/create-checkout-session"
	}
	healthPath := strings.TrimSpace(opts.HealthPath)
	if healthPath == "" {
		healthPath = "/checkout-health"
	}
	return &HTTPClient{
		baseURL:     strings.TrimRight(strings.TrimSpace(opts.ServerURL), "/"),
		sessionPath: sessionPath,
		healthPath:  healthPath,
		client:      client,
	}
}

type sessionRequest struct {
	Items []models.CheckoutItem `json:"items"`
}

type sessionResponse struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
	Error     string `json:"error"`
}

// CreateSession 实现 SessionCreator
func (c *HTTPClient) CreateSession(ctx context.Context, items []models.CheckoutItem) (string, error) {
	body, err := json.Marshal(sessionRequest{Items: items})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+c.sessionPath, bytes.NewReader(body))
	if err != nil {
		return "", service.NewAppError(service.KindTransport, msgServerUnreachable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", service.NewAppError(service.KindTransport, msgServerUnreachable, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	var payload sessionResponse
	decodeErr := json.Unmarshal(raw, &payload)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := msgServerUnavailable
		if decodeErr == nil && strings.TrimSpace(payload.Error) != "" {
			message = payload.Error
		}
		return "", service.NewAppError(service.KindUpstream, message, fmt.Errorf("checkout server status %d", resp.StatusCode))
	}
	if decodeErr != nil || strings.TrimSpace(payload.URL) == "" {
		message := msgNoCheckoutURL
		if strings.TrimSpace(payload.Error) != "" {
			message = payload.Error
		}
		return "", service.NewAppError(service.KindUpstream, message, errors.Join(service.ErrCheckoutFailed, decodeErr))
	}
	return payload.URL, nil
}

// ProbeStatus 查询健康检查并转换为徽标
func (c *HTTPClient) ProbeStatus(ctx context.Context) Badge {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+c.healthPath, nil)
	if err != nil {
		return Badge{Message: StatusOffline, State: BadgeError}
	}
	req.Header.Set("Cache-Control", "no-cache")
	resp, err := c.client.Do(req)
	if err != nil {
		return Badge{Message: StatusOffline, State: BadgeError}
	}
	defer resp.Body.Close()

	var status models.HealthStatus
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&status); err != nil || status.Status == "" {
		return Badge{Message: StatusOffline, State: BadgeError}
	}
	if status.OK() && resp.StatusCode == http.StatusOK {
		return Badge{Message: StatusConnected, State: BadgeSuccess}
	}
	reason := strings.TrimSpace(status.Message)
	if reason == "" {
		reason = statusFallback
	}
	return Badge{Message: statusIssue + reason, State: BadgeError}
}
