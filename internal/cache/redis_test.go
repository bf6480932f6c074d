package cache

import (
	"context"
	"testing"

	"github.com/shatami1/Comcare/internal/config"
)

func TestDisabledCacheIsNoop(t *testing.T) {
	if err := InitRedis(&config.RedisConfig{Enabled: false}); err != nil {
		t.Fatalf("init disabled redis failed: %v", err)
	}
	if Enabled() || Client() != nil {
		t.Fatalf("disabled cache should expose no client")
	}
	ctx := context.Background()
	if err := SetString(ctx, "k", "v", 0); err != nil {
		t.Fatalf("set on disabled cache should be noop: %v", err)
	}
	if _, ok, err := GetString(ctx, "k"); ok || err != nil {
		t.Fatalf("get on disabled cache want miss, got %v %v", ok, err)
	}
	if err := Close(); err != nil {
		t.Fatalf("close disabled cache failed: %v", err)
	}
}

func TestBuildKey(t *testing.T) {
	Use(nil, "shop")
	defer Use(nil, "cc")
	if got := BuildKey(" cart:abc "); got != "shop:cart:abc" {
		t.Fatalf("want shop:cart:abc got %s", got)
	}
	if got := BuildKey(""); got != "shop" {
		t.Fatalf("empty key want prefix got %s", got)
	}
	if Enabled() {
		t.Fatalf("nil client must not enable cache")
	}
}
