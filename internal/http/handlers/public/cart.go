package public

import (
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/shatami1/Comcare/internal/cart"
	"github.com/shatami1/Comcare/internal/checkout"
	handlershared "github.com/shatami1/Comcare/internal/http/handlers/shared"
	"github.com/shatami1/Comcare/internal/http/response"
	"github.com/shatami1/Comcare/internal/models"
	"github.com/shatami1/Comcare/internal/service"

	"github.com/gin-gonic/gin"
)

// CartItemRequest 加入购物车请求，prices 按计价周期给出单价
type CartItemRequest struct {
	Name     string                  `json:"name"`
	Model    string                  `json:"model"`
	Rate     string                  `json:"rate"`
	Quantity int                     `json:"quantity"`
	Prices   map[string]models.Money `json:"prices"`
}

// CartItemResponse 加入后的条目与最新状态
type CartItemResponse struct {
	Item  models.CartItem `json:"item"`
	State cart.ViewState  `json:"state"`
}

// CartSnapshotResponse 结算页快照
type CartSnapshotResponse struct {
	Count         int          `json:"count"`
	Total         models.Money `json:"total"`
	CheckoutTotal models.Money `json:"checkoutTotal"`
}

// CartCheckoutResponse 会话购物车结算结果
type CartCheckoutResponse struct {
	URL string `json:"url"`
}

func (r CartItemRequest) productRow() cart.ProductRow {
	row := cart.ProductRow{
		Name:   r.Name,
		Model:  r.Model,
		Prices: make(map[models.RateType]models.Money, len(r.Prices)),
	}
	for raw, price := range r.Prices {
		if rate, ok := models.ParseRateType(raw); ok {
			row.Prices[rate] = price
		}
	}
	return row
}

// GetCart 获取会话购物车
func (h *Handler) GetCart(c *gin.Context) {
	controller := h.CartController(cartSessionID(c))
	response.Success(c, controller.State(handlershared.RequestContext(c)))
}

// AddCartItem 按计价周期加入购物车
func (h *Handler) AddCartItem(c *gin.Context) {
	var req CartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	ctx := handlershared.RequestContext(c)
	var state cart.ViewState
	controller := h.CartController(cartSessionID(c), cart.ViewFunc(func(s cart.ViewState) { state = s }))
	item, err := controller.AddToCart(ctx, req.productRow(), req.Rate, req.Quantity)
	if err != nil {
		respondWithMappedError(c, err, cartErrorRules, response.CodeInternal, msgStorageUnavailable)
		return
	}
	response.Success(c, CartItemResponse{Item: item, State: state})
}

// RemoveCartItem 删除指定位置的条目
func (h *Handler) RemoveCartItem(c *gin.Context) {
	index, err := strconv.Atoi(strings.TrimSpace(c.Param("index")))
	if err != nil {
		respondError(c, response.CodeBadRequest, msgCartItemNotFound, nil)
		return
	}

	ctx := handlershared.RequestContext(c)
	controller := h.CartController(cartSessionID(c))
	if err := controller.Remove(ctx, index); err != nil {
		respondWithMappedError(c, err, cartErrorRules, response.CodeInternal, msgStorageUnavailable)
		return
	}
	response.Success(c, controller.State(ctx))
}

// ClearCart 清空购物车
func (h *Handler) ClearCart(c *gin.Context) {
	ctx := handlershared.RequestContext(c)
	controller := h.CartController(cartSessionID(c))
	if err := controller.Clear(ctx); err != nil {
		respondError(c, response.CodeInternal, msgStorageUnavailable, err)
		return
	}
	response.Success(c, controller.State(ctx))
}

// GetCartSnapshot 结算页使用的件数与总额，total 参数为正数时优先
func (h *Handler) GetCartSnapshot(c *gin.Context) {
	ctx := handlershared.RequestContext(c)
	store := h.CartStore(cartSessionID(c))
	snapshot := store.Snapshot(ctx)
	response.Success(c, CartSnapshotResponse{
		Count:         snapshot.Count,
		Total:         snapshot.Total,
		CheckoutTotal: store.StoredCheckoutTotal(ctx, c.Query("total")),
	})
}

// StreamCart 以 SSE 推送购物车渲染状态，其他标签页写入后同步更新
func (h *Handler) StreamCart(c *gin.Context) {
	ctx := c.Request.Context()
	states := make(chan cart.ViewState, 8)
	controller := h.CartController(cartSessionID(c), cart.ViewFunc(func(s cart.ViewState) {
		select {
		case states <- s:
		default:
			// 客户端过慢时丢弃中间状态
		}
	}))
	if err := controller.Mount(handlershared.RequestContext(c)); err != nil {
		respondError(c, response.CodeInternal, msgStorageUnavailable, err)
		return
	}
	defer controller.Close()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Stream(func(_ io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case state := <-states:
			c.SSEvent("cart", state)
			return true
		}
	})
}

// CheckoutCart 使用会话购物车发起结算
func (h *Handler) CheckoutCart(c *gin.Context) {
	ctx := handlershared.RequestContext(c)
	store := h.CartStore(cartSessionID(c))
	initiator := checkout.NewInitiator(&serviceSessionCreator{
		service: h.CheckoutService,
		origin:  h.requestOrigin(c),
	}, nil)
	url, err := initiator.Initiate(ctx, store.Load(ctx), nil)
	if err != nil {
		handlershared.RespondServiceError(c, err)
		return
	}
	response.Success(c, CartCheckoutResponse{URL: url})
}

// serviceSessionCreator 在服务端直接调用结算服务
type serviceSessionCreator struct {
	service *service.CheckoutService
	origin  string
}

func (s *serviceSessionCreator) CreateSession(ctx context.Context, items []models.CheckoutItem) (string, error) {
	session, err := s.service.CreateSession(ctx, items, s.origin)
	if err != nil {
		return "", err
	}
	return session.URL, nil
}
