// Package events 发布领域事件到 RabbitMQ topic exchange
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shatami1/Comcare/internal/config"
	"github.com/shatami1/Comcare/internal/constants"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// ErrPublisherClosed 发布器已关闭
var ErrPublisherClosed = errors.New("event publisher closed")

const publishTimeout = 3 * time.Second

// Publisher 事件发布接口
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event interface{}) error
	Close() error
}

// CheckoutItem 事件中的结算条目
type CheckoutItem struct {
	Name       string `json:"name"`
	UnitAmount int64  `json:"unitAmount"`
	Quantity   int    `json:"quantity"`
}

// CheckoutSessionCreated 结算会话创建事件
type CheckoutSessionCreated struct {
	EventID     string         `json:"eventId"`
	EventType   string         `json:"eventType"`
	SessionID   string         `json:"sessionId"`
	Origin      string         `json:"origin"`
	Currency    string         `json:"currency"`
	TotalAmount int64          `json:"totalAmount"`
	Items       []CheckoutItem `json:"items"`
	Timestamp   time.Time      `json:"timestamp"`
}

// NewCheckoutSessionCreated 构造事件，补齐 id 与时间
func NewCheckoutSessionCreated(sessionID, origin, currency string, items []CheckoutItem) CheckoutSessionCreated {
	var total int64
	for _, item := range items {
		total += item.UnitAmount * int64(item.Quantity)
	}
	return CheckoutSessionCreated{
		EventID:     uuid.NewString(),
		EventType:   constants.EventCheckoutSessionCreated,
		SessionID:   sessionID,
		Origin:      origin,
		Currency:    currency,
		TotalAmount: total,
		Items:       items,
		Timestamp:   time.Now().UTC(),
	}
}

type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitPublisher 基于 amqp091 的发布器，单 channel 串行发布
type RabbitPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       amqpChannel
	exchange string
	closed   bool
}

// Dial 连接 RabbitMQ 并声明 topic exchange
func Dial(cfg config.EventsConfig) (*RabbitPublisher, error) {
	url := strings.TrimSpace(cfg.URL)
	if url == "" {
		return nil, fmt.Errorf("events url is empty")
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	exchange := exchangeName(cfg.Exchange)
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return &RabbitPublisher{conn: conn, ch: ch, exchange: exchange}, nil
}

func exchangeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "comfortcare.events"
	}
	return name
}

// Publish 以 JSON 持久化消息发布事件
func (p *RabbitPublisher) Publish(ctx context.Context, routingKey string, event interface{}) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", routingKey, err)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPublisherClosed
	}
	return p.ch.PublishWithContext(
		pubCtx,
		p.exchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
}

// Close 关闭 channel 与连接
func (p *RabbitPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	var errs []error
	if p.ch != nil {
		errs = append(errs, p.ch.Close())
	}
	if p.conn != nil {
		errs = append(errs, p.conn.Close())
	}
	return errors.Join(errs...)
}

// NopPublisher 未启用事件时使用
type NopPublisher struct{}

// Publish 忽略
func (NopPublisher) Publish(ctx context.Context, routingKey string, event interface{}) error {
	return nil
}

// Close 忽略
func (NopPublisher) Close() error { return nil }
