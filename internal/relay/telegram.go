package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"

	"github.com/shatami1/Comcare/internal/config"
	"github.com/shatami1/Comcare/internal/constants"
)

const defaultTelegramAPIBaseURL = "https://api.telegram.org"

// TelegramChannel 通过机器人 sendMessage 投递
type TelegramChannel struct {
	cfg    config.TelegramConfig
	client *http.Client
}

// NewTelegramChannel 创建 Telegram 通道
func NewTelegramChannel(cfg config.TelegramConfig, client *http.Client) *TelegramChannel {
	if client == nil {
		client = http.DefaultClient
	}
	return &TelegramChannel{cfg: cfg, client: client}
}

// Name 通道名称
func (c *TelegramChannel) Name() string {
	return constants.RelayChannelTelegram
}

type telegramSendRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Send 发送 HTML 格式的机器人消息
func (c *TelegramChannel) Send(ctx context.Context, msg Message) error {
	token := strings.TrimSpace(c.cfg.BotToken)
	chatID := strings.TrimSpace(c.cfg.ChatID)
	if token == "" || chatID == "" {
		return ErrChannelNotConfigured
	}
	base := strings.TrimRight(strings.TrimSpace(c.cfg.APIBaseURL), "/")
	if base == "" {
		base = defaultTelegramAPIBaseURL
	}

	payload, err := json.Marshal(telegramSendRequest{
		ChatID:    chatID,
		Text:      RenderTelegram(msg),
		ParseMode: "HTML",
	})
	if err != nil {
		return err
	}
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", base, token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: telegram: %v", ErrDeliveryFailed, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))

	var parsed telegramResponse
	_ = json.Unmarshal(body, &parsed)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return deliveryError(c.Name(), resp.StatusCode, parsed.Description)
	}
	if len(body) > 0 && !parsed.OK && parsed.Description != "" {
		return deliveryError(c.Name(), resp.StatusCode, parsed.Description)
	}
	return nil
}

// RenderTelegram 渲染机器人消息正文
func RenderTelegram(msg Message) string {
	var buf strings.Builder
	if msg.Icon != "" {
		buf.WriteString(msg.Icon)
		buf.WriteString(" ")
	}
	buf.WriteString(fmt.Sprintf("<b>%s</b>\n\n", html.EscapeString(msg.Title)))
	writeTelegramFields(&buf, msg.Fields)
	if msg.Section != nil {
		buf.WriteString(fmt.Sprintf("\n<b>%s:</b>\n%s\n", html.EscapeString(msg.Section.Name), html.EscapeString(msg.Section.Value)))
	}
	if len(msg.Trailer) > 0 {
		buf.WriteString("\n")
		writeTelegramFields(&buf, msg.Trailer)
	}
	buf.WriteString(fmt.Sprintf("\n<b>Time:</b> %s", html.EscapeString(msg.Submitted())))
	return buf.String()
}

func writeTelegramFields(buf *strings.Builder, fields []Field) {
	for _, field := range fields {
		buf.WriteString(fmt.Sprintf("<b>%s:</b> %s\n", html.EscapeString(field.Name), html.EscapeString(field.Value)))
	}
}
