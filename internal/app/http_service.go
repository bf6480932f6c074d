package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"

	"github.com/shatami1/Comcare/internal/config"
	"github.com/shatami1/Comcare/internal/logger"
)

// 请求头上限，表单与结算接口不需要更大的头部
const maxHeaderBytes = 64 << 10

// HTTPService 对外 API 服务，带连接级超时
type HTTPService struct {
	server *http.Server

	mu       sync.Mutex
	listener net.Listener
}

// NewHTTPService 按 server 配置创建 HTTP 服务。
// 不设置 WriteTimeout：/api/cart/events 是长连接。
func NewHTTPService(cfg config.ServerConfig, handler http.Handler) *HTTPService {
	return &HTTPService{
		server: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           handler,
			ReadHeaderTimeout: cfg.ReadHeaderTimeout(),
			ReadTimeout:       cfg.ReadTimeout(),
			IdleTimeout:       cfg.IdleTimeout(),
			MaxHeaderBytes:    maxHeaderBytes,
		},
	}
}

// Name 服务名称
func (s *HTTPService) Name() string {
	return "http"
}

// Addr 实际监听地址，未启动时返回配置地址
func (s *HTTPService) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	if s.server == nil {
		return ""
	}
	return s.server.Addr
}

// Start 监听并阻塞直到服务关闭
func (s *HTTPService) Start(ctx context.Context) error {
	if s == nil || s.server == nil {
		return errors.New("http server not initialized")
	}
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.server.Addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	logger.Infow("http_listening", "addr", ln.Addr().String(),
		"read_header_timeout", s.server.ReadHeaderTimeout,
		"read_timeout", s.server.ReadTimeout,
		"idle_timeout", s.server.IdleTimeout,
	)
	if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop 优雅关闭，等待进行中的请求
func (s *HTTPService) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
