package public

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// CartSessionCookie 会话购物车 cookie 名
	CartSessionCookie = "cc_cart"
	cartSessionMaxAge = 30 * 24 * 3600
)

// cartSessionID 读取会话 ID，不存在或格式错误时签发新的
func cartSessionID(c *gin.Context) string {
	if raw, err := c.Cookie(CartSessionCookie); err == nil {
		if id, err := uuid.Parse(strings.TrimSpace(raw)); err == nil {
			return id.String()
		}
	}
	id := uuid.NewString()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CartSessionCookie, id, cartSessionMaxAge, "/", "", c.Request.TLS != nil, true)
	return id
}
