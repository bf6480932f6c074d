package router

import (
	"fmt"
	"strings"

	"github.com/shatami1/Comcare/internal/cache"
	"github.com/shatami1/Comcare/internal/config"
	publichandlers "github.com/shatami1/Comcare/internal/http/handlers/public"
	"github.com/shatami1/Comcare/internal/logger"
	"github.com/shatami1/Comcare/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	if strings.EqualFold(cfg.Server.Mode, gin.ReleaseMode) {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	publicHandler := publichandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "cc"
	}
	redisClient := cache.Client()
	limit := cfg.Security.FormRateLimit
	formRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:form", redisPrefix),
		WindowSeconds: limit.WindowSeconds,
		MaxRequests:   limit.MaxRequests,
		BlockSeconds:  limit.BlockSeconds,
	}
	checkoutRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:checkout", redisPrefix),
		WindowSeconds: limit.WindowSeconds,
		MaxRequests:   limit.MaxRequests,
		BlockSeconds:  limit.BlockSeconds,
	}

	// 中间件
	r.Use(RecoveryMiddleware())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))
	r.Use(BodyLimitMiddleware(cfg.Server.MaxBodyBytes))

	// 结算后端
	r.POST("/create-checkout-session", RateLimitMiddleware(redisClient, checkoutRule, KeyByIP), publicHandler.CreateCheckoutSession)
	r.GET("/checkout-health", publicHandler.CheckoutHealth)
	r.POST("/create-invoice", RateLimitMiddleware(redisClient, checkoutRule, KeyByIP), publicHandler.CreateInvoice)

	api := r.Group("/api")
	{
		// 表单转发
		api.GET("/health", publicHandler.FormHealth)
		api.POST("/contact", RateLimitMiddleware(redisClient, formRule, KeyByIPAndField("email")), publicHandler.SubmitContact)
		api.POST("/booking", RateLimitMiddleware(redisClient, formRule, KeyByIPAndField("email")), publicHandler.SubmitBooking)

		// 会话购物车
		cart := api.Group("/cart")
		{
			cart.GET("", publicHandler.GetCart)
			cart.DELETE("", publicHandler.ClearCart)
			cart.POST("/items", publicHandler.AddCartItem)
			cart.DELETE("/items/:index", publicHandler.RemoveCartItem)
			cart.GET("/snapshot", publicHandler.GetCartSnapshot)
			cart.GET("/events", publicHandler.StreamCart)
			cart.POST("/checkout", RateLimitMiddleware(redisClient, checkoutRule, KeyByIP), publicHandler.CheckoutCart)
		}

		visitor := api.Group("/visitor")
		{
			visitor.GET("/contact", publicHandler.GetVisitorContact)
			visitor.PUT("/contact", publicHandler.SaveVisitorContact)
			visitor.POST("/page-views", publicHandler.TrackPageView)
		}
	}

	// 静态页面，未配置目录时统一 404
	r.NoRoute(publichandlers.StaticPages(cfg.Server.StaticDir, cfg.Server.IndexFile))

	return r
}
