package public

import (
	handlershared "github.com/shatami1/Comcare/internal/http/handlers/shared"
	"github.com/shatami1/Comcare/internal/http/response"
	"github.com/shatami1/Comcare/internal/models"

	"github.com/gin-gonic/gin"
)

// PageViewRequest 页面访问上报
type PageViewRequest struct {
	Page  string `json:"page" binding:"required"`
	Title string `json:"title"`
}

// GetVisitorContact 读取保存的联系信息
func (h *Handler) GetVisitorContact(c *gin.Context) {
	store := h.VisitorStore(cartSessionID(c))
	response.Success(c, store.Contact(handlershared.RequestContext(c)))
}

// SaveVisitorContact 保存联系信息，空字段保留原值
func (h *Handler) SaveVisitorContact(c *gin.Context) {
	var req models.ContactProfile
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	store := h.VisitorStore(cartSessionID(c))
	profile, err := store.SaveContact(handlershared.RequestContext(c), req)
	if err != nil {
		respondError(c, response.CodeInternal, msgStorageUnavailable, err)
		return
	}
	response.Success(c, profile)
}

// TrackPageView 记录页面访问
func (h *Handler) TrackPageView(c *gin.Context) {
	var req PageViewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	store := h.VisitorStore(cartSessionID(c))
	err := store.TrackPageView(handlershared.RequestContext(c), models.PageView{
		Page:      req.Page,
		Title:     req.Title,
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		respondError(c, response.CodeInternal, msgStorageUnavailable, err)
		return
	}
	c.Status(response.CodeNoContent)
}
