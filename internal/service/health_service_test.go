package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/shatami1/Comcare/internal/models"
	"github.com/shatami1/Comcare/internal/payment/stripe"
)

type fakeAccountGateway struct {
	key   string
	err   error
	calls int
	panic bool
}

func (f *fakeAccountGateway) SecretKey() string { return f.key }

func (f *fakeAccountGateway) RetrieveAccount(ctx context.Context) (*stripe.Account, error) {
	f.calls++
	if f.panic {
		panic("boom")
	}
	if f.err != nil {
		return nil, f.err
	}
	return &stripe.Account{ID: "acct_1"}, nil
}

func TestCheckHealthShortCircuits(t *testing.T) {
	gateway := &fakeAccountGateway{}
	status := NewHealthService(gateway).CheckHealth(context.Background())
	if status.OK() || status.Message != "STRIPE_SECRET_KEY environment variable is not set." {
		t.Fatalf("unexpected status: %+v", status)
	}

	gateway.key = "rk_live_123"
	status = NewHealthService(gateway).CheckHealth(context.Background())
	if status.Status != models.HealthStatusError || status.Message != msgKeyRestricted {
		t.Fatalf("unexpected restricted status: %+v", status)
	}
	if gateway.calls != 0 {
		t.Fatalf("no network call expected, got %d", gateway.calls)
	}
}

func TestCheckHealthOutcomes(t *testing.T) {
	cases := []struct {
		name    string
		gateway *fakeAccountGateway
		ok      bool
		message string
	}{
		{"valid", &fakeAccountGateway{key: "sk_test_1"}, true, "Server connected and Stripe key is valid."},
		{"invalid_key", &fakeAccountGateway{key: "sk_test_1", err: &stripe.APIError{StatusCode: 401, Message: "Invalid API Key provided: sk_test_***"}}, false, msgKeyInvalid},
		{"empty_rejection", &fakeAccountGateway{key: "sk_test_1", err: &stripe.APIError{StatusCode: 403}}, false, "Stripe key validation failed."},
		{"network", &fakeAccountGateway{key: "sk_test_1", err: fmt.Errorf("%w: timeout", stripe.ErrRequestFailed)}, false, "Unable to validate Stripe connection."},
		{"panic", &fakeAccountGateway{key: "sk_test_1", panic: true}, false, "Unable to validate Stripe connection."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status := NewHealthService(tc.gateway).CheckHealth(context.Background())
			if status.OK() != tc.ok || status.Message != tc.message {
				t.Fatalf("unexpected status: %+v", status)
			}
			if tc.gateway.calls != 1 {
				t.Fatalf("want one account call got %d", tc.gateway.calls)
			}
		})
	}
}
