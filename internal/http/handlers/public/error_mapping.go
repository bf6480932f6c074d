package public

import (
	"errors"
	"net/http"

	"github.com/shatami1/Comcare/internal/cart"
	handlershared "github.com/shatami1/Comcare/internal/http/handlers/shared"
	"github.com/shatami1/Comcare/internal/http/response"

	"github.com/gin-gonic/gin"
)

// 接口层文案
const (
	msgInvalidRequestBody = "Invalid request body."
	msgRequestTooLarge    = "Request body too large."
	msgCartItemNotFound   = "Cart item not found."
	msgNegativeUnitPrice  = "Unit price must not be negative."
	msgQuantityTooLarge   = "Quantity is too large."
	msgStorageUnavailable = "Session storage unavailable."
	msgFormServerRunning  = "Form server running"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	msg    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackMsg string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.msg, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackMsg, err)
}

func respondError(c *gin.Context, code int, msg string, err error) {
	handlershared.RespondErrorWithMsg(c, code, msg, err)
}

// 请求体无法解析时返回 400，超过 server.max_body_bytes 时返回 413
func respondBindError(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		handlershared.RequestLog(c).Infow("handler_body_too_large", "limit", tooLarge.Limit)
		respondError(c, response.CodePayloadTooLarge, msgRequestTooLarge, nil)
		return
	}
	handlershared.RequestLog(c).Debugw("handler_bind_failed", "error", err)
	respondError(c, response.CodeBadRequest, msgInvalidRequestBody, nil)
}

var cartErrorRules = []mappedHandlerError{
	{target: cart.ErrCartItemNotFound, code: response.CodeNotFound, msg: msgCartItemNotFound},
	{target: cart.ErrNegativeUnitPrice, code: response.CodeBadRequest, msg: msgNegativeUnitPrice},
	{target: cart.ErrQuantityOverflow, code: response.CodeBadRequest, msg: msgQuantityTooLarge},
}
