package public

import (
	"net/http"

	handlershared "github.com/shatami1/Comcare/internal/http/handlers/shared"
	"github.com/shatami1/Comcare/internal/http/response"
	"github.com/shatami1/Comcare/internal/models"
	"github.com/shatami1/Comcare/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateCheckoutSessionRequest 创建结算会话请求
type CreateCheckoutSessionRequest struct {
	Items []models.CheckoutItem `json:"items"`
}

// CreateInvoiceRequest 旧版发票请求
type CreateInvoiceRequest struct {
	Items    []service.InvoiceLineInput `json:"items"`
	Customer models.InvoiceCustomer     `json:"customer"`
}

// requestOrigin 跳转地址使用的站点来源
func (h *Handler) requestOrigin(c *gin.Context) string {
	return service.ResolveOrigin(c.GetHeader("Origin"), c.GetHeader("Referer"), h.Config.Checkout.DefaultOrigin)
}

// CreateCheckoutSession 创建托管支付会话
func (h *Handler) CreateCheckoutSession(c *gin.Context) {
	var req CreateCheckoutSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	session, err := h.CheckoutService.CreateSession(handlershared.RequestContext(c), req.Items, h.requestOrigin(c))
	if err != nil {
		handlershared.RespondServiceError(c, err)
		return
	}
	response.Success(c, session)
}

// CheckoutHealth 校验支付密钥，异常时返回 503
func (h *Handler) CheckoutHealth(c *gin.Context) {
	status := h.HealthService.CheckHealth(handlershared.RequestContext(c))
	if !status.OK() {
		c.JSON(http.StatusServiceUnavailable, status)
		return
	}
	response.Success(c, status)
}

// CreateInvoice 创建并发送发票
func (h *Handler) CreateInvoice(c *gin.Context) {
	var req CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.InvoiceService.CreateInvoice(handlershared.RequestContext(c), req.Items, req.Customer)
	if err != nil {
		handlershared.RespondServiceError(c, err)
		return
	}
	response.Success(c, result)
}
