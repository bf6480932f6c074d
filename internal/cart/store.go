// Package cart 实现购物车持久化、汇总以及多视图同步的界面控制器
package cart

import (
	"context"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/shatami1/Comcare/internal/logger"
	"github.com/shatami1/Comcare/internal/models"
	"github.com/shatami1/Comcare/internal/storage"

	"github.com/shopspring/decimal"
)

// 持久化键名
const (
	KeyItems = "pricingCartItems"
	KeyTotal = "pricingCartTotal"
	KeyCount = "pricingCartCount"
)

// DefaultTopic 默认变更通知主题
const DefaultTopic = "cart"

// Summary 购物车汇总
type Summary struct {
	Count int          `json:"count"`
	Total models.Money `json:"total"`
}

// Summarize 计算件数与总额
func Summarize(cart models.Cart) Summary {
	return Summary{Count: cart.Count(), Total: cart.Total()}
}

// Store 购物车存储
type Store struct {
	kv       storage.KV
	notifier storage.Notifier
	topic    string
}

// NewStore 创建购物车存储，notifier 为空时不广播
func NewStore(kv storage.KV, notifier storage.Notifier, topic string) *Store {
	if notifier == nil {
		notifier = storage.NopNotifier{}
	}
	if strings.TrimSpace(topic) == "" {
		topic = DefaultTopic
	}
	return &Store{kv: kv, notifier: notifier, topic: topic}
}

// Topic 变更通知主题
func (s *Store) Topic() string {
	return s.topic
}

// persistedItem 持久化格式，单价为数字
type persistedItem struct {
	Name      string  `json:"name"`
	Model     string  `json:"model"`
	RateType  string  `json:"rateType"`
	UnitPrice float64 `json:"unitPrice"`
	Quantity  int     `json:"quantity"`
}

// Load 读取购物车，不存在或数据损坏时返回空购物车
func (s *Store) Load(ctx context.Context) models.Cart {
	raw, ok, err := s.kv.Get(ctx, KeyItems)
	if err != nil {
		logger.FromContext(ctx).Warnw("cart_load_failed", "topic", s.topic, "error", err)
		return models.Cart{}
	}
	if !ok {
		return models.Cart{}
	}
	return decodeCart(raw)
}

func decodeCart(raw string) models.Cart {
	var entries []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return models.Cart{}
	}
	cart := make(models.Cart, 0, len(entries))
	for _, entry := range entries {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(entry, &fields); err != nil || fields == nil {
			continue
		}
		cart = append(cart, models.CartItem{
			Name:      lenientString(fields["name"]),
			Model:     lenientString(fields["model"]),
			RateType:  models.RateType(lenientString(fields["rateType"])),
			UnitPrice: models.NewMoneyFromDecimal(lenientNumber(fields["unitPrice"])),
			Quantity:  int(math.Trunc(lenientNumber(fields["quantity"]).InexactFloat64())),
		})
	}
	return cart
}

func lenientString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// lenientNumber 数字或数字字符串，其他情况为 0
func lenientNumber(raw json.RawMessage) decimal.Decimal {
	if len(raw) == 0 {
		return decimal.Zero
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if d, err := decimal.NewFromString(n.String()); err == nil {
			return d
		}
		return decimal.Zero
	}
	if d, err := decimal.NewFromString(strings.TrimSpace(lenientString(raw))); err == nil {
		return d
	}
	return decimal.Zero
}

// Save 覆盖保存购物车并同步结算快照，随后广播变更
func (s *Store) Save(ctx context.Context, cart models.Cart) error {
	items := make([]persistedItem, 0, len(cart))
	for _, item := range cart {
		items = append(items, persistedItem{
			Name:      item.Name,
			Model:     item.Model,
			RateType:  string(item.RateType),
			UnitPrice: item.UnitPrice.InexactFloat64(),
			Quantity:  item.Quantity,
		})
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, KeyItems, string(payload)); err != nil {
		return err
	}

	summary := Summarize(cart)
	if err := s.kv.Set(ctx, KeyTotal, summary.Total.String()); err != nil {
		return err
	}
	if err := s.kv.Set(ctx, KeyCount, strconv.Itoa(summary.Count)); err != nil {
		return err
	}

	if err := s.notifier.Publish(ctx, s.topic); err != nil {
		logger.FromContext(ctx).Warnw("cart_change_publish_failed", "topic", s.topic, "error", err)
	}
	return nil
}

// Snapshot 读取结算快照，缺失或无法解析的字段为 0
func (s *Store) Snapshot(ctx context.Context) models.CheckoutSnapshot {
	var snapshot models.CheckoutSnapshot
	if raw, ok, err := s.kv.Get(ctx, KeyTotal); err == nil && ok {
		if total, err := models.ParseMoney(strings.TrimSpace(raw)); err == nil {
			snapshot.Total = total
		}
	}
	if raw, ok, err := s.kv.Get(ctx, KeyCount); err == nil && ok {
		if count, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil {
			snapshot.Count = count
		}
	}
	return snapshot
}

// StoredCheckoutTotal 结算页展示金额：外部传入的正数优先，其次为快照总额
func (s *Store) StoredCheckoutTotal(ctx context.Context, override string) models.Money {
	if override = strings.TrimSpace(override); override != "" {
		if total, err := models.ParseMoney(override); err == nil && total.IsPositive() {
			return total
		}
	}
	snapshot := s.Snapshot(ctx)
	if snapshot.Total.IsPositive() {
		return snapshot.Total
	}
	return models.Money{}
}

// Subscribe 订阅购物车变更
func (s *Store) Subscribe(ctx context.Context) (<-chan struct{}, error) {
	return s.notifier.Subscribe(ctx, s.topic)
}
