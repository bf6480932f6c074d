package service

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/shatami1/Comcare/internal/constants"
	"github.com/shatami1/Comcare/internal/events"
	"github.com/shatami1/Comcare/internal/logger"
	"github.com/shatami1/Comcare/internal/models"
	"github.com/shatami1/Comcare/internal/payment/stripe"
	"github.com/shatami1/Comcare/internal/queue"

	"github.com/hibiken/asynq"
)

const (
	msgMissingStripeKey      = "Server configuration error. Missing Stripe key."
	msgNoItemsInCart         = "No items in cart."
	msgInvalidCartItem       = "Invalid cart item. Each item needs a name, a positive price and a positive quantity."
	msgCheckoutFailed        = "Failed to create checkout session."
	msgCheckoutNetworkFailed = "Network error creating checkout session."
	defaultLineDescription   = "Medical Equipment Rental"
)

// SessionGateway 支付处理方的会话接口
type SessionGateway interface {
	Configured() bool
	Currency() string
	CreateCheckoutSession(ctx context.Context, input stripe.SessionInput) (*stripe.Session, error)
}

// CheckoutNotifyEnqueuer 结算通知任务入队
type CheckoutNotifyEnqueuer interface {
	EnqueueCheckoutNotify(payload queue.CheckoutNotifyPayload, opts ...asynq.Option) error
}

// CheckoutOptions 会话跳转与默认文案
type CheckoutOptions struct {
	DefaultOrigin      string
	SuccessPath        string
	CancelPath         string
	DefaultDescription string
}

// CheckoutService 结算会话后端适配
type CheckoutService struct {
	gateway   SessionGateway
	opts      CheckoutOptions
	notifier  CheckoutNotifyEnqueuer
	publisher events.Publisher
}

// NewCheckoutService 创建结算服务，notifier 与 publisher 可为空
func NewCheckoutService(gateway SessionGateway, opts CheckoutOptions, notifier CheckoutNotifyEnqueuer, publisher events.Publisher) *CheckoutService {
	if strings.TrimSpace(opts.SuccessPath) == "" {
		opts.SuccessPath = "/thank-you.html?session_id={CHECKOUT_SESSION_ID}"
	}
	if strings.TrimSpace(opts.CancelPath) == "" {
		opts.CancelPath = "/payment.html"
	}
	if strings.TrimSpace(opts.DefaultDescription) == "" {
		opts.DefaultDescription = defaultLineDescription
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &CheckoutService{
		gateway:   gateway,
		opts:      opts,
		notifier:  notifier,
		publisher: publisher,
	}
}

// CreateSession 校验条目后向支付处理方发起一次会话创建请求
func (s *CheckoutService) CreateSession(ctx context.Context, items []models.CheckoutItem, origin string) (*models.CheckoutSession, error) {
	if s.gateway == nil || !s.gateway.Configured() {
		return nil, NewAppError(KindConfiguration, msgMissingStripeKey, ErrStripeKeyMissing)
	}
	if len(items) == 0 {
		return nil, NewAppError(KindValidation, msgNoItemsInCart, ErrEmptyCart)
	}

	currency := s.gateway.Currency()
	lineItems := make([]models.LineItem, 0, len(items))
	for _, item := range items {
		lineItem, ok := s.buildLineItem(item, currency)
		if !ok {
			return nil, NewAppError(KindValidation, msgInvalidCartItem, ErrInvalidLineItem)
		}
		lineItems = append(lineItems, lineItem)
	}

	base := s.baseURL(origin)
	session, err := s.gateway.CreateCheckoutSession(ctx, stripe.SessionInput{
		SuccessURL:             base + s.opts.SuccessPath,
		CancelURL:              base + s.opts.CancelPath,
		LineItems:              lineItems,
		BillingAddressRequired: true,
		CollectPhone:           true,
	})
	if err != nil {
		mapped := mapCheckoutGatewayError(err)
		logger.FromContext(ctx).Warnw("checkout_session_create_failed",
			"item_count", len(lineItems),
			"kind", mapped.Kind,
			"error", err,
		)
		return nil, mapped
	}

	result := &models.CheckoutSession{SessionID: session.ID, URL: session.URL}
	logger.FromContext(ctx).Infow("checkout_session_created",
		"session_id", result.SessionID,
		"item_count", len(lineItems),
	)
	s.announce(ctx, result.SessionID, base, currency, items, lineItems)
	return result, nil
}

func (s *CheckoutService) buildLineItem(item models.CheckoutItem, currency string) (models.LineItem, bool) {
	name := strings.TrimSpace(item.Name)
	if name == "" || !item.Price.IsPositive() || item.Quantity <= 0 {
		return models.LineItem{}, false
	}
	unitAmount := stripe.MinorAmount(item.Price.Decimal, currency)
	if unitAmount <= 0 {
		return models.LineItem{}, false
	}
	return models.LineItem{
		Name:        name,
		Description: s.describe(item),
		UnitAmount:  unitAmount,
		Quantity:    item.Quantity,
	}, true
}

func (s *CheckoutService) describe(item models.CheckoutItem) string {
	parts := make([]string, 0, 2)
	for _, part := range []string{item.Model, item.Rate} {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	if len(parts) == 0 {
		return s.opts.DefaultDescription
	}
	return strings.Join(parts, " - ")
}

func (s *CheckoutService) baseURL(origin string) string {
	origin = strings.TrimSpace(origin)
	if origin == "" || origin == "null" {
		origin = s.opts.DefaultOrigin
	}
	return strings.TrimRight(origin, "/")
}

// announce 投递员工通知与领域事件，失败只记录日志
func (s *CheckoutService) announce(ctx context.Context, sessionID, origin, currency string, items []models.CheckoutItem, lineItems []models.LineItem) {
	eventItems := make([]events.CheckoutItem, 0, len(lineItems))
	notifyItems := make([]queue.CheckoutNotifyItem, 0, len(lineItems))
	var total int64
	for i, line := range lineItems {
		total += line.UnitAmount * int64(line.Quantity)
		eventItems = append(eventItems, events.CheckoutItem{
			Name:       line.Name,
			UnitAmount: line.UnitAmount,
			Quantity:   line.Quantity,
		})
		notifyItems = append(notifyItems, queue.CheckoutNotifyItem{
			Name:       line.Name,
			Model:      strings.TrimSpace(items[i].Model),
			Rate:       strings.TrimSpace(items[i].Rate),
			UnitAmount: line.UnitAmount,
			Quantity:   line.Quantity,
		})
	}

	log := logger.FromContext(ctx)
	if s.notifier != nil {
		err := s.notifier.EnqueueCheckoutNotify(queue.CheckoutNotifyPayload{
			SessionID:   sessionID,
			Origin:      origin,
			Currency:    currency,
			TotalAmount: total,
			Items:       notifyItems,
			CreatedAt:   time.Now().Unix(),
		})
		if err != nil {
			log.Warnw("checkout_notify_enqueue_failed", "session_id", sessionID, "error", err)
		}
	}

	event := events.NewCheckoutSessionCreated(sessionID, origin, currency, eventItems)
	if err := s.publisher.Publish(ctx, constants.EventCheckoutSessionCreated, event); err != nil {
		log.Warnw("checkout_event_publish_failed", "session_id", sessionID, "event_id", event.EventID, "error", err)
	}
}

func mapCheckoutGatewayError(err error) *AppError {
	var apiErr *stripe.APIError
	switch {
	case errors.As(err, &apiErr):
		message := apiErr.Message
		if strings.TrimSpace(message) == "" {
			message = msgCheckoutFailed
		}
		return NewAppError(KindUpstream, SanitizeProcessorMessage(message), err)
	case errors.Is(err, stripe.ErrRequestFailed), errors.Is(err, context.DeadlineExceeded):
		return NewAppError(KindTransport, msgCheckoutNetworkFailed, err)
	case errors.Is(err, stripe.ErrConfigInvalid):
		return NewAppError(KindConfiguration, msgMissingStripeKey, err)
	default:
		return NewAppError(KindUpstream, msgCheckoutFailed, err)
	}
}

// ResolveOrigin 优先使用 Origin 头，其次 Referer 的 scheme+host，最后回退默认值
func ResolveOrigin(originHeader, referer, fallback string) string {
	originHeader = strings.TrimSpace(originHeader)
	if originHeader != "" && originHeader != "null" {
		return strings.TrimRight(originHeader, "/")
	}
	if parsed, err := url.Parse(strings.TrimSpace(referer)); err == nil && parsed.Scheme != "" && parsed.Host != "" {
		return parsed.Scheme + "://" + parsed.Host
	}
	return strings.TrimRight(strings.TrimSpace(fallback), "/")
}
