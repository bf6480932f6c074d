package relay

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shatami1/Comcare/internal/config"
	"github.com/shatami1/Comcare/internal/constants"
)

var (
	// ErrChannelNotConfigured 转发通道缺少必要配置
	ErrChannelNotConfigured = errors.New("relay channel not configured")
	// ErrUnknownChannel 不支持的转发通道
	ErrUnknownChannel = errors.New("unknown relay channel")
	// ErrDeliveryFailed 下游拒绝或无法投递
	ErrDeliveryFailed = errors.New("relay delivery failed")
	// ErrRecipientRejected 邮件收件人被拒收
	ErrRecipientRejected = errors.New("relay recipient rejected")
	// ErrInvalidRecipient 收件人地址无效
	ErrInvalidRecipient = errors.New("relay recipient invalid")
)

const submittedLayout = "Jan 2, 2006, 3:04:05 PM"

// Field 消息中的一行键值
type Field struct {
	Name  string
	Value string
}

// Message 与具体通道无关的表单通知
type Message struct {
	Subject     string
	Title       string
	Icon        string
	Subtitle    string
	Summary     string
	Fields      []Field
	Section     *Field
	Trailer     []Field
	SubmittedAt time.Time
}

// Submitted 返回格式化的提交时间
func (m Message) Submitted() string {
	at := m.SubmittedAt
	if at.IsZero() {
		at = time.Now()
	}
	return at.Format(submittedLayout)
}

// Channel 表单通知的投递通道
type Channel interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}

// New 根据配置创建转发通道
func New(relayCfg config.RelayConfig, emailCfg config.EmailConfig, httpClient *http.Client) (Channel, error) {
	if httpClient == nil {
		timeout := time.Duration(relayCfg.TimeoutSeconds) * time.Second
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	channel := strings.ToLower(strings.TrimSpace(relayCfg.Channel))
	switch channel {
	case "", constants.RelayChannelEmail:
		return NewSMTPChannel(emailCfg), nil
	case constants.RelayChannelTelegram:
		return NewTelegramChannel(relayCfg.Telegram, httpClient), nil
	case constants.RelayChannelTeams:
		return NewTeamsChannel(relayCfg.Teams, httpClient), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownChannel, channel)
	}
}

func deliveryError(channel string, status int, detail string) error {
	detail = strings.TrimSpace(detail)
	if detail == "" {
		return fmt.Errorf("%w: %s status %d", ErrDeliveryFailed, channel, status)
	}
	return fmt.Errorf("%w: %s status %d: %s", ErrDeliveryFailed, channel, status, detail)
}
