package service

import "strings"

const (
	msgUnknownError        = "An unknown error occurred."
	msgKeyExpired          = "Stripe API key is expired. Update your environment variable and redeploy."
	msgKeyRestricted       = "Restricted API key detected. Use a full secret key (sk_live_... or sk_test_...) instead of restricted key (rk_...)."
	msgKeyInvalid          = "Invalid Stripe API key. Check your STRIPE_SECRET_KEY environment variable."
	msgKeyNotProvided      = "Stripe API key is missing. Set STRIPE_SECRET_KEY and restart the server."
	msgPaymentSetupFailure = "Payment setup error. Please try again."
)

// SanitizeProcessorMessage 将支付处理方的原始错误转换为可展示给用户的文案
func SanitizeProcessorMessage(raw string) string {
	message := strings.TrimSpace(raw)
	if message == "" {
		return msgUnknownError
	}
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(message, "Expired API Key"):
		return msgKeyExpired
	case strings.Contains(message, "does not have the required permissions"):
		return msgKeyRestricted
	case strings.Contains(lower, "invalid api key"), strings.Contains(lower, "no such token"):
		return msgKeyInvalid
	case strings.Contains(message, "No API key provided"):
		return msgKeyNotProvided
	case strings.Contains(message, "No such customer"), strings.Contains(message, "No such payment_method"):
		return msgPaymentSetupFailure
	}
	return message
}
