package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorBody 错误响应结构
type ErrorBody struct {
	Error string `json:"error"`
}

// MessageBody 表单提交成功响应
type MessageBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Success 成功响应，直接输出数据
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// SuccessWithMsg 成功响应（自定义消息）
func SuccessWithMsg(c *gin.Context, msg string) {
	c.JSON(http.StatusOK, MessageBody{Success: true, Message: msg})
}

// Error 错误响应，状态码即 HTTP 状态
func Error(c *gin.Context, statusCode int, msg string) {
	if statusCode < http.StatusBadRequest {
		statusCode = http.StatusInternalServerError
	}
	c.JSON(statusCode, ErrorBody{Error: msg})
}

// NotFound 404响应
func NotFound(c *gin.Context, msg string) {
	Error(c, CodeNotFound, msg)
}

// Forbidden 403响应
func Forbidden(c *gin.Context, msg string) {
	Error(c, CodeForbidden, msg)
}

// BadRequest 400响应
func BadRequest(c *gin.Context, msg string) {
	Error(c, CodeBadRequest, msg)
}
