package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/shatami1/Comcare/internal/app"
	"github.com/shatami1/Comcare/internal/config"
	"github.com/shatami1/Comcare/internal/logger"

	"github.com/gin-gonic/gin"
)

const (
	ansiReset     = "\033[0m"
	ansiBold      = "\033[1m"
	ansiDim       = "\033[2m"
	ansiGreen     = "\033[32m"
	ansiCyan      = "\033[36m"
	ansiBrightMag = "\033[95m"
)

func main() {
	printStartupBanner()

	// 加载配置
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()

	switch key := cfg.Stripe.SecretKey; {
	case key == "":
		stdLog.Printf("警告: 未设置 STRIPE_SECRET_KEY，结算接口将返回配置错误")
	case strings.HasPrefix(key, "rk_"):
		stdLog.Printf("警告: STRIPE_SECRET_KEY 为受限密钥 (rk_)，请改用 sk_live_ 或 sk_test_ 密钥")
	}
	if !cfg.Email.Enabled && (cfg.Relay.Channel == "" || cfg.Relay.Channel == "email") {
		stdLog.Printf("警告: 未设置 EMAIL_USER / EMAIL_PASS，表单提交将无法投递")
	}

	// 设置 Gin 模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 解析命令行参数
	var mode string
	flag.StringVar(&mode, "mode", app.ModeAll, "启动模式: all (默认), api, worker")
	flag.Parse()

	if err := app.Run(app.Options{
		Config:  cfg,
		Logger:  logger.S(),
		Signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
		Mode:    mode,
	}); err != nil {
		stdLog.Fatalf("服务运行失败: %v", err)
	}
}

func printStartupBanner() {
	fmt.Println(ansiBrightMag + "╔══════════════════════════════════════════════════════╗" + ansiReset)
	fmt.Println(ansiBrightMag + "║          🩺 ComfortCare Rentals API 启动中            ║" + ansiReset)
	fmt.Println(ansiBrightMag + "╚══════════════════════════════════════════════════════╝" + ansiReset)
	fmt.Println(ansiGreen + ansiBold + "Endpoints" + ansiReset)
	fmt.Println(ansiCyan + "• POST /create-checkout-session   GET /checkout-health" + ansiReset)
	fmt.Println(ansiCyan + "• POST /create-invoice            POST /api/contact  POST /api/booking" + ansiReset)
	fmt.Println(ansiCyan + "• /api/cart/*                     /api/visitor/*" + ansiReset)
	fmt.Println(ansiDim + "--------------------------------------------------------" + ansiReset)
}
