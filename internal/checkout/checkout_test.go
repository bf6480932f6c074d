package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shatami1/Comcare/internal/models"
	"github.com/shatami1/Comcare/internal/service"
)

type recordingTrigger struct {
	labels  []string
	enabled int
}

func (r *recordingTrigger) Disable(label string) { r.labels = append(r.labels, label) }
func (r *recordingTrigger) Enable()              { r.enabled++ }

type recordingNavigator struct {
	urls []string
}

func (r *recordingNavigator) Redirect(url string) error {
	r.urls = append(r.urls, url)
	return nil
}

type stubCreator struct {
	calls int
	items []models.CheckoutItem
	url   string
	err   error
}

func (s *stubCreator) CreateSession(ctx context.Context, items []models.CheckoutItem) (string, error) {
	s.calls++
	s.items = items
	return s.url, s.err
}

func sampleCart() models.Cart {
	return models.Cart{
		{Name: "Hospital Bed", Model: "HB-200", RateType: models.RateType("weekly"), UnitPrice: models.NewMoneyFromFloat(120), Quantity: 1},
		{Name: "Broken", RateType: models.RateType("daily"), UnitPrice: models.NewMoneyFromFloat(0), Quantity: 2},
		{Name: "", RateType: models.RateType("daily"), UnitPrice: models.NewMoneyFromFloat(5), Quantity: 1},
		{Name: "Cane", RateType: models.RateType("daily"), UnitPrice: models.NewMoneyFromFloat(4), Quantity: 0},
	}
}

func TestBuildCheckoutItemsFilters(t *testing.T) {
	items := BuildCheckoutItems(sampleCart())
	if len(items) != 1 {
		t.Fatalf("want 1 item got %d", len(items))
	}
	if items[0].Name != "Hospital Bed" || items[0].Rate != "weekly" || items[0].Model != "HB-200" {
		t.Fatalf("unexpected item: %+v", items[0])
	}
}

func TestInitiateEmptyCartSkipsNetwork(t *testing.T) {
	creator := &stubCreator{}
	trigger := &recordingTrigger{}
	_, err := NewInitiator(creator, &recordingNavigator{}).Initiate(context.Background(), sampleCart()[1:], trigger)
	if !errors.Is(err, service.ErrEmptyCart) {
		t.Fatalf("want ErrEmptyCart got %v", err)
	}
	if creator.calls != 0 || len(trigger.labels) != 0 {
		t.Fatalf("empty cart must not disable trigger or call server")
	}
}

func TestInitiateSuccessRedirects(t *testing.T) {
	creator := &stubCreator{url: "https://pay.example/cs_1"}
	trigger := &recordingTrigger{}
	nav := &recordingNavigator{}
	url, err := NewInitiator(creator, nav).Initiate(context.Background(), sampleCart(), trigger)
	if err != nil {
		t.Fatalf("initiate failed: %v", err)
	}
	if url != "https://pay.example/cs_1" || len(nav.urls) != 1 || nav.urls[0] != url {
		t.Fatalf("unexpected redirect: %v", nav.urls)
	}
	if len(trigger.labels) != 1 || trigger.labels[0] != "Processing..." || trigger.enabled != 0 {
		t.Fatalf("unexpected trigger state: %+v", trigger)
	}
}

func TestInitiateFailureReenablesTrigger(t *testing.T) {
	creator := &stubCreator{err: service.NewAppError(service.KindUpstream, "Checkout server not available.", nil)}
	trigger := &recordingTrigger{}
	nav := &recordingNavigator{}
	_, err := NewInitiator(creator, nav).Initiate(context.Background(), sampleCart(), trigger)
	if service.MessageOf(err) != "Checkout server not available." {
		t.Fatalf("unexpected error: %v", err)
	}
	if trigger.enabled != 1 || len(nav.urls) != 0 {
		t.Fatalf("trigger should be re-enabled without redirect: %+v %v", trigger, nav.urls)
	}
}

func TestHTTPClientCreateSession(t *testing.T) {
	var got sessionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/create-checkout-session" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_ = json.NewEncoder(w).Encode(map[string]string{"sessionId": "cs_9", "url": "https://pay.example/cs_9"})
	}))
	defer srv.Close()

	client := NewHTTPClient(ClientOptions{ServerURL: srv.URL + "/"}, srv.Client())
	url, err := client.CreateSession(context.Background(), BuildCheckoutItems(sampleCart()))
	if err != nil {
		t.Fatalf("create session failed: %v", err)
	}
	if url != "https://pay.example/cs_9" || len(got.Items) != 1 {
		t.Fatalf("unexpected result %s %+v", url, got)
	}
}

func TestHTTPClientErrors(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		message string
		kind    service.ErrorKind
	}{
		{"server_error_message", http.StatusBadGateway, `{"error":"Invalid Stripe API key. Check your STRIPE_SECRET_KEY environment variable."}`, "Invalid Stripe API key. Check your STRIPE_SECRET_KEY environment variable.", service.KindUpstream},
		{"server_error_plain", http.StatusInternalServerError, `oops`, "Checkout server not available.", service.KindUpstream},
		{"missing_url", http.StatusOK, `{"sessionId":"cs_1"}`, "No checkout URL returned.", service.KindUpstream},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()
			_, err := NewHTTPClient(ClientOptions{ServerURL: srv.URL}, srv.Client()).CreateSession(context.Background(), nil)
			if service.MessageOf(err) != tc.message {
				t.Fatalf("want %q got %v", tc.message, err)
			}
			if kind, _ := service.KindOf(err); kind != tc.kind {
				t.Fatalf("want kind %s got %s", tc.kind, kind)
			}
		})
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()
	_, err := NewHTTPClient(ClientOptions{ServerURL: srv.URL}, nil).CreateSession(context.Background(), nil)
	if kind, _ := service.KindOf(err); kind != service.KindTransport {
		t.Fatalf("closed server should be a transport error, got %v", err)
	}
}

func TestProbeStatus(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   Badge
	}{
		{"ok", http.StatusOK, `{"status":"ok","message":"Server connected and Stripe key is valid."}`, Badge{Message: StatusConnected, State: BadgeSuccess}},
		{"issue", http.StatusServiceUnavailable, `{"status":"error","message":"STRIPE_SECRET_KEY environment variable is not set."}`, Badge{Message: "Checkout issue: STRIPE_SECRET_KEY environment variable is not set.", State: BadgeError}},
		{"garbage", http.StatusBadGateway, `<html>`, Badge{Message: StatusOffline, State: BadgeError}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Header.Get("Cache-Control") != "no-cache" {
					t.Errorf("missing no-cache header")
				}
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()
			got := NewHTTPClient(ClientOptions{ServerURL: srv.URL}, srv.Client()).ProbeStatus(context.Background())
			if got != tc.want {
				t.Fatalf("want %+v got %+v", tc.want, got)
			}
		})
	}
}
