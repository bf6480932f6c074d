package cart

import (
	"context"
	"testing"

	"github.com/shatami1/Comcare/internal/models"
	"github.com/shatami1/Comcare/internal/storage"
)

func newTestStore() (*Store, *storage.MemoryKV) {
	kv := storage.NewMemoryKV()
	return NewStore(kv, storage.NewMemoryNotifier(), "cart"), kv
}

func TestLoadReturnsEmptyCartForAbsentOrCorruptData(t *testing.T) {
	ctx := context.Background()
	store, kv := newTestStore()
	if cart := store.Load(ctx); len(cart) != 0 {
		t.Fatalf("absent cart want empty got %d", len(cart))
	}
	for _, raw := range []string{"not json", `{"name":"x"}`, `"text"`, `null`} {
		_ = kv.Set(ctx, KeyItems, raw)
		if cart := store.Load(ctx); len(cart) != 0 {
			t.Fatalf("corrupt data %q want empty cart got %d", raw, len(cart))
		}
	}
}

func TestLoadIsLenientOnFields(t *testing.T) {
	ctx := context.Background()
	store, kv := newTestStore()
	_ = kv.Set(ctx, KeyItems, `[{"name":"Hospital Bed","model":"HB-1","rateType":"weekly","unitPrice":"120.5","quantity":2},{"name":"Cane","unitPrice":"abc"},42]`)

	cart := store.Load(ctx)
	if len(cart) != 2 {
		t.Fatalf("want 2 items got %d", len(cart))
	}
	if cart[0].UnitPrice.String() != "120.50" || cart[0].Quantity != 2 || cart[0].RateType != models.RateWeekly {
		t.Fatalf("unexpected first item: %+v", cart[0])
	}
	if !cart[1].UnitPrice.IsZero() || cart[1].Quantity != 0 {
		t.Fatalf("non-numeric fields should decode as 0: %+v", cart[1])
	}
	if summary := Summarize(cart); summary.Count != 2 || summary.Total.String() != "241.00" {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestSaveWritesSnapshotAndRoundTrips(t *testing.T) {
	ctx := context.Background()
	store, kv := newTestStore()
	cart := models.Cart{
		{Name: "Wheelchair", Model: "WC-200", RateType: models.RateDaily, UnitPrice: models.NewMoneyFromFloat(15), Quantity: 3},
		{Name: "Walker", RateType: models.RateMonthly, UnitPrice: models.NewMoneyFromFloat(40.25), Quantity: 1},
	}
	if err := store.Save(ctx, cart); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if total, _, _ := kv.Get(ctx, KeyTotal); total != "85.25" {
		t.Fatalf("total want 85.25 got %s", total)
	}
	if count, _, _ := kv.Get(ctx, KeyCount); count != "4" {
		t.Fatalf("count want 4 got %s", count)
	}
	loaded := store.Load(ctx)
	if len(loaded) != 2 || !loaded[0].SameAs(cart[0]) || loaded[0].Quantity != 3 || !loaded[1].UnitPrice.Equal(cart[1].UnitPrice.Decimal) {
		t.Fatalf("round trip mismatch: %+v", loaded)
	}
	snapshot := store.Snapshot(ctx)
	if snapshot.Count != 4 || snapshot.Total.String() != "85.25" {
		t.Fatalf("unexpected snapshot: %+v", snapshot)
	}
}

func TestSaveEmptyCartResetsSnapshot(t *testing.T) {
	ctx := context.Background()
	store, kv := newTestStore()
	_ = store.Save(ctx, models.Cart{{Name: "Cane", RateType: models.RateDaily, UnitPrice: models.NewMoneyFromFloat(5), Quantity: 1}})
	_ = store.Save(ctx, models.Cart{})
	if raw, _, _ := kv.Get(ctx, KeyItems); raw != "[]" {
		t.Fatalf("items want [] got %s", raw)
	}
	if total, _, _ := kv.Get(ctx, KeyTotal); total != "0.00" {
		t.Fatalf("total want 0.00 got %s", total)
	}
}

func TestStoredCheckoutTotal(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore()
	if got := store.StoredCheckoutTotal(ctx, ""); !got.IsZero() {
		t.Fatalf("no data want 0 got %s", got)
	}
	_ = store.Save(ctx, models.Cart{{Name: "Cane", RateType: models.RateDaily, UnitPrice: models.NewMoneyFromFloat(7.5), Quantity: 2}})
	if got := store.StoredCheckoutTotal(ctx, ""); got.String() != "15.00" {
		t.Fatalf("saved total want 15.00 got %s", got)
	}
	if got := store.StoredCheckoutTotal(ctx, "99.9"); got.String() != "99.90" {
		t.Fatalf("override want 99.90 got %s", got)
	}
	for _, override := range []string{"-5", "0", "abc"} {
		if got := store.StoredCheckoutTotal(ctx, override); got.String() != "15.00" {
			t.Fatalf("override %q should fall back to saved total, got %s", override, got)
		}
	}
}
