package public

import "github.com/shatami1/Comcare/internal/provider"

// Handler 店铺公开接口处理器入口
// 说明：结算、健康检查、发票、表单转发与会话购物车均无需登录。
type Handler struct {
	*provider.Container
}

// New 创建公开接口处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
