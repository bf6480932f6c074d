package provider

import (
	"strings"

	"github.com/shatami1/Comcare/internal/cache"
	"github.com/shatami1/Comcare/internal/cart"
	"github.com/shatami1/Comcare/internal/config"
	"github.com/shatami1/Comcare/internal/constants"
	"github.com/shatami1/Comcare/internal/events"
	"github.com/shatami1/Comcare/internal/logger"
	"github.com/shatami1/Comcare/internal/payment/stripe"
	"github.com/shatami1/Comcare/internal/queue"
	"github.com/shatami1/Comcare/internal/relay"
	"github.com/shatami1/Comcare/internal/service"
	"github.com/shatami1/Comcare/internal/storage"
	"github.com/shatami1/Comcare/internal/visitor"
)

// 会话存储命名空间
const (
	cartNamespace    = "cart"
	visitorNamespace = "visitor"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Infrastructure
	Storage        *storage.Backend
	EventPublisher events.Publisher
	StripeClient   *stripe.Client
	RelayChannel   relay.Channel

	// Services
	CheckoutService *service.CheckoutService
	HealthService   *service.HealthService
	InvoiceService  *service.InvoiceService
	RelayService    *service.RelayService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	// 1. 初始化基础设施
	c.initInfrastructure()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initInfrastructure() {
	backend, err := storage.Open(c.Config.Storage)
	if err != nil {
		logger.Errorw("provider_init_storage_failed", "driver", c.Config.Storage.Driver, "error", err, "fallback", constants.StorageDriverMemory)
		backend, _ = storage.Open(config.StorageConfig{Driver: constants.StorageDriverMemory})
	}
	c.Storage = backend

	c.EventPublisher = events.NopPublisher{}
	if c.Config.Events.Enabled {
		publisher, err := events.Dial(c.Config.Events)
		if err != nil {
			logger.Warnw("provider_init_events_failed", "error", err)
		} else {
			c.EventPublisher = publisher
		}
	}

	stripeCfg := c.Config.Stripe
	c.StripeClient = stripe.NewClient(stripe.Config{
		SecretKey:          stripeCfg.SecretKey,
		APIBaseURL:         stripeCfg.APIBaseURL,
		Currency:           stripeCfg.Currency,
		PaymentMethodTypes: stripeCfg.PaymentMethodTypes,
		Timeout:            stripeCfg.Timeout(),
	}, nil)
	if !c.StripeClient.Configured() {
		logger.Warnw("provider_stripe_key_missing", "env", "STRIPE_SECRET_KEY")
	}

	channel, err := relay.New(c.Config.Relay, c.Config.Email, nil)
	if err != nil {
		logger.Errorw("provider_init_relay_failed", "channel", c.Config.Relay.Channel, "error", err)
	} else {
		c.RelayChannel = channel
	}
}

func (c *Container) initServices() {
	var notifier service.CheckoutNotifyEnqueuer
	if c.QueueClient != nil {
		notifier = c.QueueClient
	}
	c.CheckoutService = service.NewCheckoutService(c.StripeClient, service.CheckoutOptions{
		DefaultOrigin:      c.Config.Checkout.DefaultOrigin,
		SuccessPath:        c.Config.Checkout.SuccessPath,
		CancelPath:         c.Config.Checkout.CancelPath,
		DefaultDescription: c.Config.Checkout.DefaultDescription,
	}, notifier, c.EventPublisher)
	c.HealthService = service.NewHealthService(c.StripeClient)
	c.InvoiceService = service.NewInvoiceService(c.StripeClient)
	c.RelayService = service.NewRelayService(c.RelayChannel, c.Config.Storefront.BusinessName)
}

// CartStore 返回会话隔离的购物车存储
func (c *Container) CartStore(sessionID string) *cart.Store {
	namespace := cartNamespace + ":" + strings.TrimSpace(sessionID)
	return cart.NewStore(storage.Prefixed(c.Storage.KV, namespace), c.Storage.Notifier, namespace)
}

// CartController 返回会话购物车控制器
func (c *Container) CartController(sessionID string, views ...cart.View) *cart.Controller {
	return cart.NewController(c.CartStore(sessionID), c.Config.Storefront.DiscountEmail, views...)
}

// VisitorStore 返回会话隔离的访客状态存储
func (c *Container) VisitorStore(sessionID string) *visitor.Store {
	return visitor.NewStore(storage.Prefixed(c.Storage.KV, visitorNamespace+":"+strings.TrimSpace(sessionID)))
}

// Close 释放外部连接
func (c *Container) Close() {
	if c == nil {
		return
	}
	if c.EventPublisher != nil {
		if err := c.EventPublisher.Close(); err != nil {
			logger.Warnw("provider_close_events_failed", "error", err)
		}
	}
	if c.QueueClient != nil {
		if err := c.QueueClient.Close(); err != nil {
			logger.Warnw("provider_close_queue_failed", "error", err)
		}
	}
	if err := cache.Close(); err != nil {
		logger.Warnw("provider_close_redis_failed", "error", err)
	}
}
