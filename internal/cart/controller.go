package cart

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"

	"github.com/shatami1/Comcare/internal/logger"
	"github.com/shatami1/Comcare/internal/models"
)

var (
	// ErrCartItemNotFound 下标越界
	ErrCartItemNotFound = errors.New("cart item not found")
	// ErrNegativeUnitPrice 单价为负
	ErrNegativeUnitPrice = errors.New("unit price must not be negative")
	// ErrQuantityOverflow 合并后数量超出上限
	ErrQuantityOverflow = errors.New("cart item quantity overflow")
)

// 界面文案
const (
	EmptyMessage = "No items added yet."
	AddedNotice  = "Item added to cart. Visit the order page when ready."
	defaultName  = "Item"
)

// ProductRow 可加入购物车的商品行，按计价周期给出单价
type ProductRow struct {
	Name   string
	Model  string
	Prices map[models.RateType]models.Money
}

// ItemView 单个条目的展示数据
type ItemView struct {
	Index     int          `json:"index"`
	Name      string       `json:"name"`
	Model     string       `json:"model"`
	RateType  string       `json:"rateType"`
	RateLabel string       `json:"rateLabel"`
	UnitPrice models.Money `json:"unitPrice"`
	Quantity  int          `json:"quantity"`
	LineTotal models.Money `json:"lineTotal"`
}

// ViewState 所有视图共享的渲染状态
type ViewState struct {
	Items           []ItemView   `json:"items"`
	Count           int          `json:"count"`
	Total           models.Money `json:"total"`
	Empty           bool         `json:"empty"`
	EmptyMessage    string       `json:"emptyMessage,omitempty"`
	CheckoutVisible bool         `json:"checkoutVisible"`
	HeaderLabel     string       `json:"headerLabel"`
	DiscountLink    string       `json:"discountLink"`
	Notice          string       `json:"notice,omitempty"`
}

// View 购物车视图
type View interface {
	Render(state ViewState)
}

// ViewFunc 函数形式的视图
type ViewFunc func(state ViewState)

// Render 渲染
func (f ViewFunc) Render(state ViewState) {
	f(state)
}

// Controller 购物车界面控制器
type Controller struct {
	store         *Store
	discountEmail string

	mu     sync.Mutex
	views  []View
	cancel context.CancelFunc
	done   chan struct{}
}

// NewController 创建控制器
func NewController(store *Store, discountEmail string, views ...View) *Controller {
	return &Controller{
		store:         store,
		discountEmail: strings.TrimSpace(discountEmail),
		views:         views,
	}
}

// Attach 追加视图
func (c *Controller) Attach(view View) {
	if view == nil {
		return
	}
	c.mu.Lock()
	c.views = append(c.views, view)
	c.mu.Unlock()
}

// AddToCart 按计价周期加入商品，同一条目合并数量
func (c *Controller) AddToCart(ctx context.Context, row ProductRow, rate string, quantity int) (models.CartItem, error) {
	rateType, ok := models.ParseRateType(rate)
	if !ok {
		rateType = models.RateDaily
	}
	if quantity < 1 {
		quantity = 1
	}
	name := strings.TrimSpace(row.Name)
	if name == "" {
		name = defaultName
	}
	price := row.Prices[rateType]
	if price.IsNegative() {
		return models.CartItem{}, ErrNegativeUnitPrice
	}
	candidate := models.CartItem{
		Name:      name,
		Model:     strings.TrimSpace(row.Model),
		RateType:  rateType,
		UnitPrice: price,
		Quantity:  quantity,
	}

	cart := c.store.Load(ctx)
	merged := false
	for i := range cart {
		if cart[i].SameAs(candidate) {
			if cart[i].Quantity > math.MaxInt-quantity {
				return models.CartItem{}, ErrQuantityOverflow
			}
			// 保留首次加入时的单价
			cart[i].Quantity += quantity
			candidate = cart[i]
			merged = true
			break
		}
	}
	if !merged {
		cart = append(cart, candidate)
	}
	if err := c.store.Save(ctx, cart); err != nil {
		return models.CartItem{}, err
	}
	logger.FromContext(ctx).Debugw("cart_item_added", "name", candidate.Name, "rate", candidate.RateType, "quantity", candidate.Quantity, "merged", merged)

	state := c.buildState(cart)
	state.Notice = AddedNotice
	c.renderAll(state)
	return candidate, nil
}

// Remove 删除指定位置的条目
func (c *Controller) Remove(ctx context.Context, index int) error {
	cart := c.store.Load(ctx)
	if index < 0 || index >= len(cart) {
		return ErrCartItemNotFound
	}
	cart = append(cart[:index:index], cart[index+1:]...)
	if err := c.store.Save(ctx, cart); err != nil {
		return err
	}
	c.renderAll(c.buildState(cart))
	return nil
}

// Clear 清空购物车
func (c *Controller) Clear(ctx context.Context) error {
	if err := c.store.Save(ctx, models.Cart{}); err != nil {
		return err
	}
	c.renderAll(c.buildState(models.Cart{}))
	return nil
}

// Cart 当前购物车
func (c *Controller) Cart(ctx context.Context) models.Cart {
	return c.store.Load(ctx)
}

// State 当前渲染状态
func (c *Controller) State(ctx context.Context) ViewState {
	return c.buildState(c.store.Load(ctx))
}

// Refresh 重新读取存储并渲染所有视图
func (c *Controller) Refresh(ctx context.Context) {
	c.renderAll(c.State(ctx))
}

// Mount 首次渲染并订阅存储变更，其他控制器写入后自动重新渲染
func (c *Controller) Mount(ctx context.Context) error {
	c.mu.Lock()
	if c.cancel != nil {
		c.mu.Unlock()
		return nil
	}
	subCtx, cancel := context.WithCancel(ctx)
	changes, err := c.store.Subscribe(subCtx)
	if err != nil {
		c.mu.Unlock()
		cancel()
		return err
	}
	c.cancel = cancel
	c.done = make(chan struct{})
	done := c.done
	c.mu.Unlock()

	c.Refresh(ctx)
	go func() {
		defer close(done)
		for range changes {
			c.Refresh(subCtx)
		}
	}()
	return nil
}

// Close 取消订阅
func (c *Controller) Close() {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel, c.done = nil, nil
	c.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (c *Controller) renderAll(state ViewState) {
	c.mu.Lock()
	views := make([]View, len(c.views))
	copy(views, c.views)
	c.mu.Unlock()
	for _, view := range views {
		view.Render(state)
	}
}

func (c *Controller) buildState(cart models.Cart) ViewState {
	summary := Summarize(cart)
	state := ViewState{
		Items:           make([]ItemView, 0, len(cart)),
		Count:           summary.Count,
		Total:           summary.Total,
		Empty:           len(cart) == 0,
		CheckoutVisible: len(cart) > 0,
		HeaderLabel:     HeaderLabel(summary.Count),
		DiscountLink:    DiscountMailto(c.discountEmail, cart),
	}
	if state.Empty {
		state.EmptyMessage = EmptyMessage
	}
	for i, item := range cart {
		state.Items = append(state.Items, ItemView{
			Index:     i,
			Name:      item.Name,
			Model:     item.Model,
			RateType:  string(item.RateType),
			RateLabel: item.RateType.Label(),
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			LineTotal: item.LineTotal(),
		})
	}
	return state
}
