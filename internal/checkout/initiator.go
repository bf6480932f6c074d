// Package checkout 客户端结算流程：从购物车构造条目、请求会话并跳转
package checkout

import (
	"context"
	"strings"

	"github.com/shatami1/Comcare/internal/logger"
	"github.com/shatami1/Comcare/internal/models"
	"github.com/shatami1/Comcare/internal/service"
)

const (
	// ProcessingLabel 请求期间按钮文案
	ProcessingLabel = "Processing..."
	msgEmptyCart    = "Your cart is empty. Add items before checkout."
)

// Trigger 触发结算的按钮
type Trigger interface {
	Disable(label string)
	Enable()
}

// Navigator 浏览器跳转
type Navigator interface {
	Redirect(url string) error
}

// SessionCreator 请求后端创建支付会话，返回跳转地址
type SessionCreator interface {
	CreateSession(ctx context.Context, items []models.CheckoutItem) (string, error)
}

// Initiator 结算发起器
type Initiator struct {
	creator   SessionCreator
	navigator Navigator
}

// NewInitiator 创建结算发起器
func NewInitiator(creator SessionCreator, navigator Navigator) *Initiator {
	return &Initiator{creator: creator, navigator: navigator}
}

// BuildCheckoutItems 过滤掉缺少名称、价格或数量的条目
func BuildCheckoutItems(cart models.Cart) []models.CheckoutItem {
	items := make([]models.CheckoutItem, 0, len(cart))
	for _, item := range cart {
		name := strings.TrimSpace(item.Name)
		if name == "" || !item.UnitPrice.IsPositive() || item.Quantity <= 0 {
			continue
		}
		items = append(items, models.CheckoutItem{
			Name:     name,
			Price:    item.UnitPrice,
			Quantity: item.Quantity,
			Model:    item.Model,
			Rate:     string(item.RateType),
		})
	}
	return items
}

// Initiate 发起结算；失败时恢复按钮并返回错误，成功时跳转并返回地址
func (i *Initiator) Initiate(ctx context.Context, cart models.Cart, trigger Trigger) (string, error) {
	items := BuildCheckoutItems(cart)
	if len(items) == 0 {
		return "", service.NewAppError(service.KindValidation, msgEmptyCart, service.ErrEmptyCart)
	}

	if trigger != nil {
		trigger.Disable(ProcessingLabel)
	}
	url, err := i.creator.CreateSession(ctx, items)
	if err == nil && i.navigator != nil {
		err = i.navigator.Redirect(url)
	}
	if err != nil {
		logger.FromContext(ctx).Warnw("checkout_initiate_failed", "item_count", len(items), "error", err)
		if trigger != nil {
			trigger.Enable()
		}
		return "", err
	}
	return url, nil
}
