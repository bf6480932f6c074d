package service

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/shatami1/Comcare/internal/logger"
	"github.com/shatami1/Comcare/internal/models"
	"github.com/shatami1/Comcare/internal/payment/stripe"
)

const (
	msgInvoiceCartEmpty        = "Cart is empty."
	msgInvoiceCustomerRequired = "Customer details are required."
	msgInvoiceInvalidLineItem  = "Invalid line item."
	msgInvoiceFailed           = "Unable to create and send invoice."
	invoiceDaysUntilDue        = 1
)

// InvoiceGateway 支付处理方发票接口
type InvoiceGateway interface {
	Configured() bool
	CreateCustomer(ctx context.Context, customer models.InvoiceCustomer) (string, error)
	CreateInvoiceItem(ctx context.Context, customerID string, item models.LineItem) error
	CreateInvoice(ctx context.Context, input stripe.InvoiceInput) (*stripe.Invoice, error)
	FinalizeInvoice(ctx context.Context, invoiceID string) (*stripe.Invoice, error)
	SendInvoice(ctx context.Context, invoiceID string) (*stripe.Invoice, error)
}

// InvoiceLineInput 发票条目输入，金额单位为分，允许小数后四舍五入
type InvoiceLineInput struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	UnitAmount  float64 `json:"unit_amount"`
	Quantity    float64 `json:"quantity"`
}

// InvoiceService 旧版发票流程
type InvoiceService struct {
	gateway InvoiceGateway
}

// NewInvoiceService 创建发票服务
func NewInvoiceService(gateway InvoiceGateway) *InvoiceService {
	return &InvoiceService{gateway: gateway}
}

// CreateInvoice 创建客户、添加条目、开票、定稿并发送
func (s *InvoiceService) CreateInvoice(ctx context.Context, items []InvoiceLineInput, customer models.InvoiceCustomer) (*models.InvoiceResult, error) {
	if len(items) == 0 {
		return nil, NewAppError(KindValidation, msgInvoiceCartEmpty, ErrEmptyCart)
	}
	customer = models.InvoiceCustomer{
		Name:  strings.TrimSpace(customer.Name),
		Email: strings.TrimSpace(customer.Email),
		Phone: strings.TrimSpace(customer.Phone),
	}
	if customer.Name == "" || customer.Email == "" || customer.Phone == "" {
		return nil, NewAppError(KindValidation, msgInvoiceCustomerRequired, ErrCustomerDetailsRequired)
	}
	lineItems, err := normalizeInvoiceLines(items)
	if err != nil {
		return nil, err
	}
	if s.gateway == nil || !s.gateway.Configured() {
		return nil, NewAppError(KindConfiguration, msgInvoiceFailed, ErrStripeKeyMissing)
	}

	log := logger.FromContext(ctx)
	customerID, err := s.gateway.CreateCustomer(ctx, customer)
	if err != nil {
		log.Errorw("invoice_customer_create_failed", "error", err)
		return nil, invoiceFailure(err)
	}
	for _, item := range lineItems {
		if err := s.gateway.CreateInvoiceItem(ctx, customerID, item); err != nil {
			log.Errorw("invoice_item_create_failed", "customer_id", customerID, "error", err)
			return nil, invoiceFailure(err)
		}
	}
	invoice, err := s.gateway.CreateInvoice(ctx, stripe.InvoiceInput{
		CustomerID:   customerID,
		DaysUntilDue: invoiceDaysUntilDue,
		Metadata: map[string]string{
			"customer_name":  customer.Name,
			"customer_phone": customer.Phone,
		},
	})
	if err != nil {
		log.Errorw("invoice_create_failed", "customer_id", customerID, "error", err)
		return nil, invoiceFailure(err)
	}
	finalized, err := s.gateway.FinalizeInvoice(ctx, invoice.ID)
	if err != nil {
		log.Errorw("invoice_finalize_failed", "invoice_id", invoice.ID, "error", err)
		return nil, invoiceFailure(err)
	}
	sent, err := s.gateway.SendInvoice(ctx, finalized.ID)
	if err != nil {
		log.Errorw("invoice_send_failed", "invoice_id", finalized.ID, "error", err)
		return nil, invoiceFailure(err)
	}

	result := &models.InvoiceResult{InvoiceID: sent.ID}
	if url := strings.TrimSpace(sent.HostedInvoiceURL); url != "" {
		result.HostedInvoiceURL = &url
	}
	log.Infow("invoice_sent", "invoice_id", sent.ID, "item_count", len(lineItems))
	return result, nil
}

func normalizeInvoiceLines(items []InvoiceLineInput) ([]models.LineItem, error) {
	lineItems := make([]models.LineItem, 0, len(items))
	for _, item := range items {
		name := strings.TrimSpace(item.Name)
		unitAmount := int64(math.Round(item.UnitAmount))
		quantity := int(math.Round(item.Quantity))
		if name == "" || unitAmount <= 0 || quantity <= 0 {
			return nil, NewAppError(KindValidation, msgInvoiceInvalidLineItem, ErrInvalidLineItem)
		}
		lineItems = append(lineItems, models.LineItem{
			Name:        name,
			Description: strings.TrimSpace(item.Description),
			UnitAmount:  unitAmount,
			Quantity:    quantity,
		})
	}
	return lineItems, nil
}

func invoiceFailure(err error) *AppError {
	if errors.Is(err, stripe.ErrRequestFailed) {
		return NewAppError(KindTransport, msgInvoiceFailed, errors.Join(ErrInvoiceFailed, err))
	}
	return NewAppError(KindUpstream, msgInvoiceFailed, errors.Join(ErrInvoiceFailed, err))
}
