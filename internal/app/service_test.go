package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/shatami1/Comcare/internal/config"

	"github.com/spf13/viper"
)

type stubService struct {
	startErr error
	block    bool
	stopped  bool
}

func (s *stubService) Name() string { return "stub" }

func (s *stubService) Start(ctx context.Context) error {
	if s.block {
		<-ctx.Done()
		return nil
	}
	return s.startErr
}

func (s *stubService) Stop(ctx context.Context) error {
	s.stopped = true
	return nil
}

func TestRunnerStopsAllServicesOnFailure(t *testing.T) {
	failing := &stubService{startErr: errors.New("listen failed")}
	blocking := &stubService{block: true}
	runner := NewRunner(failing, blocking)
	var order []string
	runner.OnStop(func() { order = append(order, "first") })
	runner.OnStop(func() { order = append(order, "second") })

	err := runner.Run(context.Background(), time.Second, nil)
	if err == nil || err.Error() != "listen failed" {
		t.Fatalf("want start error got %v", err)
	}
	if !failing.stopped || !blocking.stopped {
		t.Fatalf("every service should be stopped")
	}
	if len(order) != 2 || order[0] != "second" || order[1] != "first" {
		t.Fatalf("cleanup should run in reverse order, got %v", order)
	}
}

func TestRunnerCanceledContextIsClean(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := NewRunner(&stubService{block: true}).Run(ctx, time.Second, nil); err != nil {
		t.Fatalf("canceled run should return nil, got %v", err)
	}
}

func TestNormalizeOptionsDefaults(t *testing.T) {
	opts, err := normalizeOptions(Options{})
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if opts.Mode != ModeAll || opts.ShutdownTimeout != 10*time.Second || opts.Logger == nil {
		t.Fatalf("unexpected defaults %+v", opts)
	}

	cfg := &config.Config{Server: config.ServerConfig{ShutdownTimeoutSeconds: 3}}
	opts, err = normalizeOptions(Options{Config: cfg, Mode: " Worker "})
	if err != nil || opts.Mode != ModeWorker || opts.ShutdownTimeout != 3*time.Second {
		t.Fatalf("config values should apply, got %+v %v", opts, err)
	}

	if _, err := normalizeOptions(Options{Mode: "cron"}); err == nil {
		t.Fatalf("unknown mode should be rejected")
	}
}

func TestHTTPServiceAppliesServerTimeouts(t *testing.T) {
	cfg, err := config.LoadFrom(viper.New(), false)
	if err != nil {
		t.Fatalf("load config failed: %v", err)
	}
	svc := NewHTTPService(cfg.Server, http.NotFoundHandler())
	if svc.server.ReadHeaderTimeout != 5*time.Second {
		t.Fatalf("read header timeout want 5s got %s", svc.server.ReadHeaderTimeout)
	}
	if svc.server.ReadTimeout != 15*time.Second || svc.server.IdleTimeout != 60*time.Second {
		t.Fatalf("unexpected read/idle timeouts %s %s", svc.server.ReadTimeout, svc.server.IdleTimeout)
	}
	if svc.server.WriteTimeout != 0 {
		t.Fatalf("write timeout must stay unset for event streams")
	}
	if svc.server.MaxHeaderBytes != maxHeaderBytes {
		t.Fatalf("max header bytes want %d got %d", maxHeaderBytes, svc.server.MaxHeaderBytes)
	}
}

func TestHTTPServiceDropsSlowHeaders(t *testing.T) {
	svc := NewHTTPService(config.ServerConfig{Host: "127.0.0.1", Port: "0", ReadHeaderTimeoutSeconds: 1}, http.NotFoundHandler())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Start(context.Background()) }()
	defer func() {
		_ = svc.Stop(context.Background())
		if err := <-errCh; err != nil {
			t.Errorf("start returned %v", err)
		}
	}()

	var addr string
	for i := 0; i < 100; i++ {
		if a := svc.Addr(); a != "127.0.0.1:0" {
			addr = a
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if addr == "" {
		t.Fatalf("server did not start listening")
	}

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()
	// 只发送一半请求头
	if _, err := conn.Write([]byte("POST /api/contact HTTP/1.1\r\nHost: x\r\n")); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	buf := make([]byte, 512)
	for {
		if _, err := conn.Read(buf); err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				t.Fatalf("server kept the slow connection open")
			}
			return
		}
	}
}
