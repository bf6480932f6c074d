package config

import (
	"testing"

	"github.com/spf13/viper"
)

func TestLoadFromDefaults(t *testing.T) {
	cfg, err := LoadFrom(viper.New(), false)
	if err != nil {
		t.Fatalf("load config failed: %v", err)
	}
	if cfg.Server.Port != "3000" {
		t.Fatalf("port want 3000 got %s", cfg.Server.Port)
	}
	if cfg.Checkout.DefaultDescription != "Medical Equipment Rental" {
		t.Fatalf("unexpected default description: %s", cfg.Checkout.DefaultDescription)
	}
	if len(cfg.Stripe.PaymentMethodTypes) != 1 || cfg.Stripe.PaymentMethodTypes[0] != "card" {
		t.Fatalf("unexpected payment method types: %v", cfg.Stripe.PaymentMethodTypes)
	}
	if cfg.Email.Enabled {
		t.Fatalf("email should be disabled without credentials")
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("STRIPE_SECRET_KEY", "  sk_test_123  ")
	t.Setenv("PORT", "4242")
	t.Setenv("EMAIL_USER", "shop@example.com")
	t.Setenv("EMAIL_PASS", "app-password")
	t.Setenv("RELAY_CHANNEL", "Teams")

	cfg, err := LoadFrom(viper.New(), false)
	if err != nil {
		t.Fatalf("load config failed: %v", err)
	}
	if cfg.Stripe.SecretKey != "sk_test_123" {
		t.Fatalf("secret key want trimmed value got %q", cfg.Stripe.SecretKey)
	}
	if cfg.Server.Port != "4242" {
		t.Fatalf("port want 4242 got %s", cfg.Server.Port)
	}
	if !cfg.Email.Enabled {
		t.Fatalf("email should be enabled when credentials exist")
	}
	if cfg.Email.From != "shop@example.com" || cfg.Email.To != "shop@example.com" {
		t.Fatalf("from/to should default to username, got from=%s to=%s", cfg.Email.From, cfg.Email.To)
	}
	if cfg.Relay.Channel != "teams" {
		t.Fatalf("relay channel want teams got %s", cfg.Relay.Channel)
	}
}
