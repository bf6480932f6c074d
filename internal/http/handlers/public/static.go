package public

import (
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/shatami1/Comcare/internal/http/response"

	"github.com/gin-gonic/gin"
)

const (
	msgForbiddenPath = "Forbidden path."
	msgNotFound      = "Not found."
)

// StaticPages 在未匹配的路由上提供站点静态页面，根路径返回 index 页
func StaticPages(root, index string) gin.HandlerFunc {
	root = strings.TrimSpace(root)
	if index = strings.TrimSpace(index); index == "" {
		index = "payment.html"
	}
	absRoot, err := filepath.Abs(root)
	return func(c *gin.Context) {
		if root == "" || err != nil {
			response.NotFound(c, msgNotFound)
			return
		}
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			response.NotFound(c, msgNotFound)
			return
		}
		filePath, ok := resolveStaticPath(absRoot, c.Request.URL.EscapedPath(), index)
		if !ok {
			response.Forbidden(c, msgForbiddenPath)
			return
		}
		info, statErr := os.Stat(filePath)
		if statErr != nil || info.IsDir() {
			response.NotFound(c, msgNotFound)
			return
		}
		c.File(filePath)
	}
}

// resolveStaticPath 解码并拼接路径，结果不在根目录下时返回 false
func resolveStaticPath(absRoot, escapedPath, index string) (string, bool) {
	decoded, err := url.PathUnescape(escapedPath)
	if err != nil {
		return "", false
	}
	if decoded == "" || decoded == "/" {
		decoded = "/" + index
	}
	resolved := filepath.Clean(filepath.Join(absRoot, filepath.FromSlash(decoded)))
	if resolved != absRoot && !strings.HasPrefix(resolved, absRoot+string(filepath.Separator)) {
		return "", false
	}
	return resolved, true
}
