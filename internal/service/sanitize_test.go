package service

import "testing"

func TestSanitizeProcessorMessage(t *testing.T) {
	cases := map[string]string{
		"":                                      "An unknown error occurred.",
		"   ":                                   "An unknown error occurred.",
		"Expired API Key provided: sk_test_***": "Stripe API key is expired. Update your environment variable and redeploy.",
		"The provided key 'rk_test_***' does not have the required permissions for this endpoint": msgKeyRestricted,
		"Invalid API Key provided: sk_test_***":                                                   "Invalid Stripe API key. Check your STRIPE_SECRET_KEY environment variable.",
		"No such token: 'tok_123'":                                                                "Invalid Stripe API key. Check your STRIPE_SECRET_KEY environment variable.",
		"You did not provide an API key. No API key provided.":                                    "Stripe API key is missing. Set STRIPE_SECRET_KEY and restart the server.",
		"No such customer: 'cus_123'":                                                             "Payment setup error. Please try again.",
		"No such payment_method: 'pm_123'":                                                        "Payment setup error. Please try again.",
		"Your card was declined.":                                                                 "Your card was declined.",
	}
	for input, want := range cases {
		if got := SanitizeProcessorMessage(input); got != want {
			t.Fatalf("sanitize %q: want %q got %q", input, want, got)
		}
	}
}
