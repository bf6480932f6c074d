// cartctl 本地购物车命令行：在 SQLite 中保存购物车并调用结算后端
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shatami1/Comcare/internal/cart"
	"github.com/shatami1/Comcare/internal/checkout"
	"github.com/shatami1/Comcare/internal/config"
	"github.com/shatami1/Comcare/internal/constants"
	"github.com/shatami1/Comcare/internal/logger"
	"github.com/shatami1/Comcare/internal/models"
	"github.com/shatami1/Comcare/internal/service"
	"github.com/shatami1/Comcare/internal/storage"
)

const usage = `usage: cartctl [flags] <command> [args]

commands:
  list                         show the cart
  add -name N [-model M] [-rate daily|weekly|monthly] [-qty Q] -price P
  remove <index>               remove the item at index
  clear                        empty the cart
  total [-override AMOUNT]     amount shown on the checkout page
  mailto                       discount request link
  status                       checkout backend status
  checkout                     start a hosted checkout session
`

func main() {
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	os.Exit(run(context.Background(), cfg, os.Args[1:], os.Stdout, os.Stderr))
}

// cliTrigger 在终端展示按钮状态
type cliTrigger struct{ w io.Writer }

func (t cliTrigger) Disable(label string) { fmt.Fprintln(t.w, label) }
func (t cliTrigger) Enable()              {}

// cliNavigator 输出跳转地址
type cliNavigator struct{ w io.Writer }

func (n cliNavigator) Redirect(url string) error {
	_, err := fmt.Fprintf(n.w, "Redirecting to %s\n", url)
	return err
}

func run(ctx context.Context, cfg *config.Config, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("cartctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, usage) }
	dbPath := fs.String("db", "./db/cartctl.db", "sqlite database path")
	session := fs.String("session", "local", "cart namespace")
	serverURL := fs.String("server", cfg.Checkout.ServerURL, "checkout backend base URL")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	backend, err := storage.Open(config.StorageConfig{Driver: constants.StorageDriverSQLite, DSN: *dbPath, TTLSeconds: cfg.Storage.TTLSeconds})
	if err != nil {
		fmt.Fprintf(stderr, "open cart storage: %v\n", err)
		return 1
	}
	namespace := "cart:" + strings.TrimSpace(*session)
	store := cart.NewStore(storage.Prefixed(backend.KV, namespace), backend.Notifier, namespace)
	discountEmail := cfg.Storefront.DiscountEmail

	command, rest := fs.Arg(0), fs.Args()[1:]
	switch command {
	case "list":
		cart.NewController(store, discountEmail, cart.NewListView(stdout)).Refresh(ctx)
	case "add":
		return runAdd(ctx, store, discountEmail, rest, stdout, stderr)
	case "remove":
		if len(rest) != 1 {
			fs.Usage()
			return 2
		}
		index, err := strconv.Atoi(rest[0])
		if err != nil {
			fmt.Fprintf(stderr, "invalid index %q\n", rest[0])
			return 2
		}
		controller := cart.NewController(store, discountEmail, cart.NewListView(stdout))
		if err := controller.Remove(ctx, index); err != nil {
			if errors.Is(err, cart.ErrCartItemNotFound) {
				fmt.Fprintf(stderr, "no item at index %d\n", index)
				return 1
			}
			fmt.Fprintf(stderr, "remove failed: %v\n", err)
			return 1
		}
	case "clear":
		if err := cart.NewController(store, discountEmail, cart.NewListView(stdout)).Clear(ctx); err != nil {
			fmt.Fprintf(stderr, "clear failed: %v\n", err)
			return 1
		}
	case "total":
		totalFlags := flag.NewFlagSet("total", flag.ContinueOnError)
		totalFlags.SetOutput(stderr)
		override := totalFlags.String("override", "", "amount passed by the pricing page")
		if err := totalFlags.Parse(rest); err != nil {
			return 2
		}
		fmt.Fprintf(stdout, "$%s\n", store.StoredCheckoutTotal(ctx, *override))
	case "mailto":
		fmt.Fprintln(stdout, cart.DiscountMailto(discountEmail, store.Load(ctx)))
	case "status":
		badge := newCheckoutClient(cfg, *serverURL).ProbeStatus(ctx)
		fmt.Fprintf(stdout, "[%s] %s\n", badge.State, badge.Message)
		if badge.State != checkout.BadgeSuccess {
			return 1
		}
	case "checkout":
		initiator := checkout.NewInitiator(newCheckoutClient(cfg, *serverURL), cliNavigator{w: stdout})
		if _, err := initiator.Initiate(ctx, store.Load(ctx), cliTrigger{w: stderr}); err != nil {
			message := service.MessageOf(err)
			if message == "" {
				message = err.Error()
			}
			fmt.Fprintln(stderr, message)
			return 1
		}
	default:
		fmt.Fprintf(stderr, "unknown command %q\n", command)
		fs.Usage()
		return 2
	}
	return 0
}

func runAdd(ctx context.Context, store *cart.Store, discountEmail string, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	fs.SetOutput(stderr)
	name := fs.String("name", "", "equipment name")
	model := fs.String("model", "", "equipment model")
	rate := fs.String("rate", string(models.RateDaily), "rental period: daily, weekly or monthly")
	quantity := fs.Int("qty", 1, "quantity")
	price := fs.String("price", "", "unit price for the chosen period")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	amount, err := models.ParseMoney(strings.TrimSpace(*price))
	if err != nil || amount.IsNegative() {
		fmt.Fprintf(stderr, "invalid price %q\n", *price)
		return 2
	}
	rateType, ok := models.ParseRateType(*rate)
	if !ok {
		rateType = models.RateDaily
	}
	row := cart.ProductRow{
		Name:   *name,
		Model:  *model,
		Prices: map[models.RateType]models.Money{rateType: amount},
	}
	controller := cart.NewController(store, discountEmail, cart.NewListView(stdout))
	if _, err := controller.AddToCart(ctx, row, *rate, *quantity); err != nil {
		fmt.Fprintf(stderr, "add failed: %v\n", err)
		return 1
	}
	return 0
}

func newCheckoutClient(cfg *config.Config, serverURL string) *checkout.HTTPClient {
	return checkout.NewHTTPClient(checkout.ClientOptions{
		ServerURL:   serverURL,
		SessionPath: cfg.Checkout.SessionPath,
		HealthPath:  cfg.Checkout.HealthPath,
		Timeout:     time.Duration(cfg.Checkout.TimeoutSeconds) * time.Second,
	}, nil)
}
