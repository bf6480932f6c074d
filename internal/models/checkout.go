package models

// CheckoutItem 客户端提交的结算条目
type CheckoutItem struct {
	Name     string `json:"name"`
	Price    Money  `json:"price"`
	Quantity int    `json:"quantity"`
	Model    string `json:"model,omitempty"`
	Rate     string `json:"rate,omitempty"`
}

// LineItem 提交给支付处理方的条目，金额单位为分
type LineItem struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	UnitAmount  int64  `json:"unit_amount"`
	Quantity    int    `json:"quantity"`
}

// CheckoutSession 支付会话
type CheckoutSession struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

// 健康检查状态值
const (
	HealthStatusOK    = "ok"
	HealthStatusError = "error"
)

// HealthStatus 健康检查结果
type HealthStatus struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// OK 是否健康
func (h HealthStatus) OK() bool {
	return h.Status == HealthStatusOK
}

// InvoiceCustomer 发票客户信息
type InvoiceCustomer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// InvoiceResult 发票结果
type InvoiceResult struct {
	InvoiceID        string  `json:"invoiceId"`
	HostedInvoiceURL *string `json:"hostedInvoiceUrl"`
}
