package visitor

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shatami1/Comcare/internal/models"
	"github.com/shatami1/Comcare/internal/storage"
)

func TestSaveContactMergesFields(t *testing.T) {
	ctx := context.Background()
	store := NewStore(storage.NewMemoryKV())
	if profile := store.Contact(ctx); profile != (models.ContactProfile{}) {
		t.Fatalf("absent profile want zero value got %+v", profile)
	}
	if _, err := store.SaveContact(ctx, models.ContactProfile{Name: "Ana", Email: "ana@example.com"}); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	profile, err := store.SaveContact(ctx, models.ContactProfile{Phone: " 555-0100 "})
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if profile.Name != "Ana" || profile.Email != "ana@example.com" || profile.Phone != "555-0100" {
		t.Fatalf("unexpected merged profile: %+v", profile)
	}
}

func TestTrackPageViewCapsHistory(t *testing.T) {
	ctx := context.Background()
	store := NewStore(storage.NewMemoryKV())
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	store.now = func() time.Time { return fixed }

	for i := 0; i < maxPageViews+5; i++ {
		if err := store.TrackPageView(ctx, models.PageView{Page: fmt.Sprintf("/p%d", i)}); err != nil {
			t.Fatalf("track failed: %v", err)
		}
	}
	views := store.PageViews(ctx)
	if len(views) != maxPageViews {
		t.Fatalf("want %d views got %d", maxPageViews, len(views))
	}
	if views[0].Page != "/p5" || !views[0].Timestamp.Equal(fixed) {
		t.Fatalf("unexpected oldest view: %+v", views[0])
	}
}
