package public

import (
	handlershared "github.com/shatami1/Comcare/internal/http/handlers/shared"
	"github.com/shatami1/Comcare/internal/http/response"
	"github.com/shatami1/Comcare/internal/service"

	"github.com/gin-gonic/gin"
)

// SubmitContact 联系表单，支持 JSON 与 urlencoded
func (h *Handler) SubmitContact(c *gin.Context) {
	var form service.ContactForm
	if err := c.ShouldBind(&form); err != nil {
		respondBindError(c, err)
		return
	}

	msg, err := h.RelayService.SubmitContact(handlershared.RequestContext(c), form)
	if err != nil {
		handlershared.RespondServiceError(c, err)
		return
	}
	response.SuccessWithMsg(c, msg)
}

// SubmitBooking 预订表单，支持 JSON 与 urlencoded
func (h *Handler) SubmitBooking(c *gin.Context) {
	var form service.BookingForm
	if err := c.ShouldBind(&form); err != nil {
		respondBindError(c, err)
		return
	}

	msg, err := h.RelayService.SubmitBooking(handlershared.RequestContext(c), form)
	if err != nil {
		handlershared.RespondServiceError(c, err)
		return
	}
	response.SuccessWithMsg(c, msg)
}

// FormHealth 表单服务存活检查
func (h *Handler) FormHealth(c *gin.Context) {
	response.Success(c, gin.H{"status": msgFormServerRunning})
}
