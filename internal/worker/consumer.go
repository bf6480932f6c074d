package worker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shatami1/Comcare/internal/logger"
	"github.com/shatami1/Comcare/internal/payment/stripe"
	"github.com/shatami1/Comcare/internal/provider"
	"github.com/shatami1/Comcare/internal/queue"
	"github.com/shatami1/Comcare/internal/relay"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
	staff relay.Channel
}

// NewConsumer 创建消费者，员工邮箱配置后单独发信，否则复用表单转发通道
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
		staff:     staffChannel(c),
	}
}

func staffChannel(c *provider.Container) relay.Channel {
	if c == nil || c.Config == nil {
		return nil
	}
	if to := strings.TrimSpace(c.Config.Storefront.StaffEmail); to != "" {
		emailCfg := c.Config.Email
		emailCfg.To = to
		return relay.NewSMTPChannel(emailCfg)
	}
	return c.RelayChannel
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskCheckoutNotify, c.handleCheckoutNotify)
}

func (c *Consumer) handleCheckoutNotify(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_checkout_notify_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	payload, err := queue.ParseCheckoutNotifyPayload(task)
	if err != nil {
		logger.Warnw("worker_checkout_notify_unmarshal_failed", "error", err)
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	if strings.TrimSpace(payload.SessionID) == "" {
		logger.Debugw("worker_checkout_notify_skip_invalid_payload")
		return nil
	}
	if c.staff == nil {
		logger.Warnw("worker_checkout_notify_skip_channel_nil", "session_id", payload.SessionID)
		return nil
	}

	businessName := ""
	if c.Container != nil && c.Config != nil {
		businessName = c.Config.Storefront.BusinessName
	}
	if err := c.staff.Send(ctx, buildCheckoutNotice(payload, businessName)); err != nil {
		if errors.Is(err, relay.ErrChannelNotConfigured) || errors.Is(err, relay.ErrInvalidRecipient) {
			logger.Warnw("worker_checkout_notify_channel_unusable", "session_id", payload.SessionID, "channel", c.staff.Name(), "error", err)
			return nil
		}
		logger.Warnw("worker_checkout_notify_send_failed", "session_id", payload.SessionID, "channel", c.staff.Name(), "error", err)
		return err
	}
	logger.Infow("worker_checkout_notify_sent", "session_id", payload.SessionID, "channel", c.staff.Name())
	return nil
}

// buildCheckoutNotice 组装员工通知
func buildCheckoutNotice(payload queue.CheckoutNotifyPayload, businessName string) relay.Message {
	if strings.TrimSpace(businessName) == "" {
		businessName = "ComfortCare"
	}
	lines := make([]string, 0, len(payload.Items))
	for _, item := range payload.Items {
		detail := make([]string, 0, 2)
		if item.Model != "" {
			detail = append(detail, item.Model)
		}
		if item.Rate != "" {
			detail = append(detail, item.Rate)
		}
		line := fmt.Sprintf("%d x %s", item.Quantity, item.Name)
		if len(detail) > 0 {
			line += " (" + strings.Join(detail, ", ") + ")"
		}
		line += " @ " + stripe.FormatAmount(item.UnitAmount, payload.Currency)
		lines = append(lines, line)
	}
	submitted := time.Now()
	if payload.CreatedAt > 0 {
		submitted = time.Unix(payload.CreatedAt, 0)
	}
	return relay.Message{
		Subject:  "New Checkout Started: " + payload.SessionID,
		Title:    "New Checkout Session",
		Icon:     "🛒",
		Subtitle: "Session: " + payload.SessionID,
		Summary:  "New Checkout Session from " + businessName,
		Fields: []relay.Field{
			{Name: "Session ID", Value: payload.SessionID},
			{Name: "Origin", Value: payload.Origin},
			{Name: "Items", Value: fmt.Sprintf("%d", len(payload.Items))},
			{Name: "Total", Value: stripe.FormatAmount(payload.TotalAmount, payload.Currency)},
		},
		Section:     &relay.Field{Name: "Line Items", Value: strings.Join(lines, "\n")},
		SubmittedAt: submitted,
	}
}
