package service

import (
	"context"
	"errors"
	"strings"

	"github.com/shatami1/Comcare/internal/logger"
	"github.com/shatami1/Comcare/internal/models"
	"github.com/shatami1/Comcare/internal/payment/stripe"
)

const (
	msgHealthKeyNotSet     = "STRIPE_SECRET_KEY environment variable is not set."
	msgHealthOK            = "Server connected and Stripe key is valid."
	msgHealthValidation    = "Stripe key validation failed."
	msgHealthNetworkFailed = "Unable to validate Stripe connection."
)

// AccountGateway 支付处理方账户接口
type AccountGateway interface {
	SecretKey() string
	RetrieveAccount(ctx context.Context) (*stripe.Account, error)
}

// HealthService 校验支付凭证是否可用
type HealthService struct {
	gateway AccountGateway
}

// NewHealthService 创建健康检查服务
func NewHealthService(gateway AccountGateway) *HealthService {
	return &HealthService{gateway: gateway}
}

// CheckHealth 缺失或受限密钥直接返回错误，否则请求一次账户接口
func (s *HealthService) CheckHealth(ctx context.Context) (status models.HealthStatus) {
	defer func() {
		if r := recover(); r != nil {
			logger.FromContext(ctx).Errorw("checkout_health_panic", "panic", r)
			status = healthError(msgHealthNetworkFailed)
		}
	}()

	if s.gateway == nil {
		return healthError(msgHealthKeyNotSet)
	}
	key := strings.TrimSpace(s.gateway.SecretKey())
	if key == "" {
		return healthError(msgHealthKeyNotSet)
	}
	if strings.HasPrefix(key, "rk_") {
		return healthError(msgKeyRestricted)
	}

	if _, err := s.gateway.RetrieveAccount(ctx); err != nil {
		var apiErr *stripe.APIError
		if errors.As(err, &apiErr) {
			message := apiErr.Message
			if strings.TrimSpace(message) == "" {
				message = msgHealthValidation
			}
			logger.FromContext(ctx).Warnw("checkout_health_rejected", "status", apiErr.StatusCode, "code", apiErr.Code)
			return healthError(SanitizeProcessorMessage(message))
		}
		logger.FromContext(ctx).Warnw("checkout_health_unreachable", "error", err)
		return healthError(msgHealthNetworkFailed)
	}
	return models.HealthStatus{Status: models.HealthStatusOK, Message: msgHealthOK}
}

func healthError(message string) models.HealthStatus {
	return models.HealthStatus{Status: models.HealthStatusError, Message: message}
}
