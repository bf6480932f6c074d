package service

import (
	"errors"
)

// ErrorKind 错误分类，决定对外的 HTTP 状态码
type ErrorKind string

const (
	KindValidation    ErrorKind = "validation"
	KindConfiguration ErrorKind = "configuration"
	KindUpstream      ErrorKind = "upstream"
	KindTransport     ErrorKind = "transport"
)

var (
	ErrEmptyCart               = errors.New("cart is empty")
	ErrInvalidLineItem         = errors.New("invalid line item")
	ErrCustomerDetailsRequired = errors.New("customer details required")
	ErrStripeKeyMissing        = errors.New("stripe secret key missing")
	ErrFormInvalid             = errors.New("form invalid")
	ErrRelayNotConfigured      = errors.New("relay not configured")
	ErrRelayDeliveryFailed     = errors.New("relay delivery failed")
	ErrCheckoutFailed          = errors.New("checkout session failed")
	ErrInvoiceFailed           = errors.New("invoice failed")
)

// AppError 携带分类与用户可见消息的业务错误
type AppError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError 创建业务错误
func NewAppError(kind ErrorKind, message string, err error) *AppError {
	return &AppError{Kind: kind, Message: message, Err: err}
}

// KindOf 返回错误链上第一个 AppError 的分类
func KindOf(err error) (ErrorKind, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind, true
	}
	return "", false
}

// MessageOf 返回用户可见消息，非业务错误返回空串
func MessageOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return ""
}
