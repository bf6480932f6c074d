package shared

import (
	"context"
	"errors"

	"github.com/shatami1/Comcare/internal/http/response"
	"github.com/shatami1/Comcare/internal/logger"
	"github.com/shatami1/Comcare/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MsgInternalError 未分类错误的对外文案
const MsgInternalError = "Internal server error"

// RequestID 读取请求 ID
func RequestID(c *gin.Context) string {
	if c == nil {
		return ""
	}
	if requestID, ok := c.Get("request_id"); ok {
		if id, ok := requestID.(string); ok {
			return id
		}
	}
	return ""
}

// RequestLog 提供携带 request_id 的日志实例。
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if id := RequestID(c); id != "" {
		return logger.SW("request_id", id)
	}
	return logger.S()
}

// RequestContext 返回带 request_id 日志字段的上下文，供服务层使用。
func RequestContext(c *gin.Context) context.Context {
	ctx := c.Request.Context()
	if id := RequestID(c); id != "" {
		return logger.WithFields(ctx, "request_id", id)
	}
	return ctx
}

// RespondErrorWithMsg 返回自定义消息错误响应，并在有原始错误时记录日志。
func RespondErrorWithMsg(c *gin.Context, code int, msg string, err error) {
	if err != nil {
		RequestLog(c).Errorw("handler_error",
			"code", code,
			"message", msg,
			"error", err,
		)
	}
	response.Error(c, code, msg)
}

// StatusForKind 错误分类对应的 HTTP 状态码
func StatusForKind(kind service.ErrorKind) int {
	switch kind {
	case service.KindValidation:
		return response.CodeBadRequest
	case service.KindConfiguration:
		return response.CodeInternal
	case service.KindUpstream:
		return response.CodeBadGateway
	case service.KindTransport:
		return response.CodeServiceUnavailable
	default:
		return response.CodeInternal
	}
}

// RespondServiceError 将业务错误映射为 {error: message}，未知错误返回 500。
func RespondServiceError(c *gin.Context, err error) {
	var appErr *service.AppError
	if errors.As(err, &appErr) {
		code := StatusForKind(appErr.Kind)
		if code >= response.CodeInternal {
			RespondErrorWithMsg(c, code, appErr.Message, err)
			return
		}
		response.Error(c, code, appErr.Message)
		return
	}
	RespondErrorWithMsg(c, response.CodeInternal, MsgInternalError, err)
}
