package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shatami1/Comcare/internal/models"

	"github.com/shopspring/decimal"
)

var (
	ErrConfigInvalid   = errors.New("stripe config invalid")
	ErrRequestFailed   = errors.New("stripe request failed")
	ErrResponseInvalid = errors.New("stripe response invalid")
)

const (
	defaultAPIBaseURL = "https://api.stripe.com"
	defaultTimeout    = 12 * time.Second
	defaultCurrency   = "usd"
)

var zeroDecimalCurrencies = map[string]struct{}{
	"BIF": {},
	"CLP": {},
	"DJF": {},
	"GNF": {},
	"JPY": {},
	"KMF": {},
	"KRW": {},
	"MGA": {},
	"PYG": {},
	"RWF": {},
	"UGX": {},
	"VND": {},
	"VUV": {},
	"XAF": {},
	"XOF": {},
	"XPF": {},
}

// Config Stripe 客户端配置。
type Config struct {
	SecretKey          string
	APIBaseURL         string
	Currency           string
	PaymentMethodTypes []string
	Timeout            time.Duration
}

// APIError Stripe 返回的非 2xx 响应。
type APIError struct {
	StatusCode int
	Type       string
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("stripe api error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("stripe api error: status %d: %s", e.StatusCode, e.Message)
}

// Unwrap 使 errors.Is(err, ErrResponseInvalid) 成立。
func (e *APIError) Unwrap() error {
	return ErrResponseInvalid
}

// SessionInput 创建 Checkout Session 输入。
type SessionInput struct {
	SuccessURL             string
	CancelURL              string
	LineItems              []models.LineItem
	BillingAddressRequired bool
	CollectPhone           bool
	Metadata               map[string]string
}

// Session Checkout Session。
type Session struct {
	ID     string
	URL    string
	Status string
}

// Account 账户信息。
type Account struct {
	ID             string
	ChargesEnabled bool
}

// InvoiceInput 创建发票输入。
type InvoiceInput struct {
	CustomerID   string
	DaysUntilDue int
	Metadata     map[string]string
}

// Invoice 发票。
type Invoice struct {
	ID               string
	Status           string
	HostedInvoiceURL string
}

// Client Stripe REST 客户端，只使用表单编码请求。
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient 创建客户端。
func NewClient(cfg Config, httpClient *http.Client) *Client {
	cfg.normalize()
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{cfg: cfg, httpClient: httpClient}
}

// SecretKey 当前密钥。
func (c *Client) SecretKey() string {
	return c.cfg.SecretKey
}

// Currency 默认币种（小写）。
func (c *Client) Currency() string {
	return c.cfg.Currency
}

// Configured 是否配置了密钥。
func (c *Client) Configured() bool {
	return c.cfg.SecretKey != ""
}

// CreateCheckoutSession 创建 Checkout Session，只发起一次请求。
func (c *Client) CreateCheckoutSession(ctx context.Context, input SessionInput) (*Session, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	if len(input.LineItems) == 0 {
		return nil, fmt.Errorf("%w: line_items is empty", ErrConfigInvalid)
	}

	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", input.SuccessURL)
	form.Set("cancel_url", input.CancelURL)
	for _, pmType := range c.cfg.PaymentMethodTypes {
		form.Add("payment_method_types[]", pmType)
	}
	for i, item := range input.LineItems {
		prefix := "line_items[" + strconv.Itoa(i) + "]"
		form.Set(prefix+"[quantity]", strconv.Itoa(item.Quantity))
		form.Set(prefix+"[price_data][currency]", c.cfg.Currency)
		form.Set(prefix+"[price_data][unit_amount]", strconv.FormatInt(item.UnitAmount, 10))
		form.Set(prefix+"[price_data][product_data][name]", item.Name)
		if item.Description != "" {
			form.Set(prefix+"[price_data][product_data][description]", item.Description)
		}
	}
	if input.BillingAddressRequired {
		form.Set("billing_address_collection", "required")
	}
	if input.CollectPhone {
		form.Set("phone_number_collection[enabled]", "true")
	}
	setMetadata(form, "metadata", input.Metadata)

	raw, err := c.call(ctx, http.MethodPost, "/v1/checkout/sessions", form)
	if err != nil {
		return nil, err
	}
	session := &Session{
		ID:     readString(raw, "id"),
		URL:    readString(raw, "url"),
		Status: readString(raw, "status"),
	}
	if session.ID == "" || session.URL == "" {
		return nil, fmt.Errorf("%w: missing session id or url", ErrResponseInvalid)
	}
	return session, nil
}

// RetrieveAccount 读取账户，用于校验密钥。
func (c *Client) RetrieveAccount(ctx context.Context) (*Account, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	raw, err := c.call(ctx, http.MethodGet, "/v1/account", nil)
	if err != nil {
		return nil, err
	}
	account := &Account{ID: readString(raw, "id")}
	if enabled, ok := raw["charges_enabled"].(bool); ok {
		account.ChargesEnabled = enabled
	}
	return account, nil
}

// CreateCustomer 创建客户。
func (c *Client) CreateCustomer(ctx context.Context, customer models.InvoiceCustomer) (string, error) {
	if err := c.validate(); err != nil {
		return "", err
	}
	form := url.Values{}
	form.Set("name", customer.Name)
	form.Set("email", customer.Email)
	form.Set("phone", customer.Phone)
	raw, err := c.call(ctx, http.MethodPost, "/v1/customers", form)
	if err != nil {
		return "", err
	}
	id := readString(raw, "id")
	if id == "" {
		return "", fmt.Errorf("%w: missing customer id", ErrResponseInvalid)
	}
	return id, nil
}

// CreateInvoiceItem 为客户添加待开票条目，单价为最小货币单位。
func (c *Client) CreateInvoiceItem(ctx context.Context, customerID string, item models.LineItem) error {
	if err := c.validate(); err != nil {
		return err
	}
	description := strings.TrimSpace(item.Description)
	if description == "" {
		description = item.Name
	}
	form := url.Values{}
	form.Set("customer", customerID)
	form.Set("currency", c.cfg.Currency)
	form.Set("unit_amount", strconv.FormatInt(item.UnitAmount, 10))
	form.Set("quantity", strconv.Itoa(item.Quantity))
	form.Set("description", description)
	_, err := c.call(ctx, http.MethodPost, "/v1/invoiceitems", form)
	return err
}

// CreateInvoice 创建手动发送的发票草稿。
func (c *Client) CreateInvoice(ctx context.Context, input InvoiceInput) (*Invoice, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	form := url.Values{}
	form.Set("customer", input.CustomerID)
	form.Set("collection_method", "send_invoice")
	form.Set("days_until_due", strconv.Itoa(input.DaysUntilDue))
	form.Set("auto_advance", "false")
	form.Set("pending_invoice_items_behavior", "include")
	setMetadata(form, "metadata", input.Metadata)
	raw, err := c.call(ctx, http.MethodPost, "/v1/invoices", form)
	if err != nil {
		return nil, err
	}
	return parseInvoice(raw)
}

// FinalizeInvoice 定稿发票。
func (c *Client) FinalizeInvoice(ctx context.Context, invoiceID string) (*Invoice, error) {
	return c.invoiceAction(ctx, invoiceID, "finalize")
}

// SendInvoice 发送发票邮件。
func (c *Client) SendInvoice(ctx context.Context, invoiceID string) (*Invoice, error) {
	return c.invoiceAction(ctx, invoiceID, "send")
}

func (c *Client) invoiceAction(ctx context.Context, invoiceID, action string) (*Invoice, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	invoiceID = strings.TrimSpace(invoiceID)
	if invoiceID == "" {
		return nil, fmt.Errorf("%w: invoice id is required", ErrConfigInvalid)
	}
	raw, err := c.call(ctx, http.MethodPost, "/v1/invoices/"+url.PathEscape(invoiceID)+"/"+action, url.Values{})
	if err != nil {
		return nil, err
	}
	return parseInvoice(raw)
}

// MinorAmount 按币种精度转换为最小货币单位，四舍五入。
func MinorAmount(amount decimal.Decimal, currency string) int64 {
	return amount.Shift(int32(currencyScale(currency))).Round(0).IntPart()
}

// MajorAmount 最小货币单位转换回展示金额。
func MajorAmount(minor int64, currency string) decimal.Decimal {
	return decimal.New(minor, -int32(currencyScale(currency)))
}

// FormatAmount 按币种精度格式化，如 "91.00 USD"。
func FormatAmount(minor int64, currency string) string {
	scale := int32(currencyScale(currency))
	return MajorAmount(minor, currency).StringFixed(scale) + " " + strings.ToUpper(strings.TrimSpace(currency))
}

func parseInvoice(raw map[string]interface{}) (*Invoice, error) {
	invoice := &Invoice{
		ID:               readString(raw, "id"),
		Status:           readString(raw, "status"),
		HostedInvoiceURL: readString(raw, "hosted_invoice_url"),
	}
	if invoice.ID == "" {
		return nil, fmt.Errorf("%w: missing invoice id", ErrResponseInvalid)
	}
	return invoice, nil
}

func (c *Client) validate() error {
	if c == nil {
		return fmt.Errorf("%w: client is nil", ErrConfigInvalid)
	}
	if c.cfg.SecretKey == "" {
		return fmt.Errorf("%w: secret_key is required", ErrConfigInvalid)
	}
	if _, err := url.ParseRequestURI(c.cfg.APIBaseURL); err != nil {
		return fmt.Errorf("%w: api_base_url is invalid", ErrConfigInvalid)
	}
	return nil
}

func (c *Config) normalize() {
	c.SecretKey = strings.TrimSpace(c.SecretKey)
	c.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.APIBaseURL), "/")
	if c.APIBaseURL == "" {
		c.APIBaseURL = defaultAPIBaseURL
	}
	c.Currency = strings.ToLower(strings.TrimSpace(c.Currency))
	if c.Currency == "" {
		c.Currency = defaultCurrency
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	normalized := make([]string, 0, len(c.PaymentMethodTypes))
	for _, item := range c.PaymentMethodTypes {
		trimmed := strings.ToLower(strings.TrimSpace(item))
		if trimmed == "" {
			continue
		}
		normalized = append(normalized, trimmed)
	}
	if len(normalized) == 0 {
		normalized = []string{"card"}
	}
	sort.Strings(normalized)
	c.PaymentMethodTypes = normalized
}

func currencyScale(currency string) int {
	upper := strings.ToUpper(strings.TrimSpace(currency))
	if _, ok := zeroDecimalCurrencies[upper]; ok {
		return 0
	}
	return 2
}

func setMetadata(form url.Values, field string, metadata map[string]string) {
	for key, value := range metadata {
		if strings.TrimSpace(key) == "" {
			continue
		}
		form.Set(field+"["+key+"]", value)
	}
}

// call 发送请求并解析响应；网络错误包装为 ErrRequestFailed，非 2xx 返回 *APIError。
func (c *Client) call(ctx context.Context, method, path string, form url.Values) (map[string]interface{}, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	endpoint := c.cfg.APIBaseURL + path
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("%w: build request failed", ErrRequestFailed)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.SecretKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response failed", ErrRequestFailed)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, parseAPIError(resp.StatusCode, respBody)
	}
	return decodeRawMap(respBody)
}

func parseAPIError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: statusCode}
	var envelope struct {
		Error struct {
			Type    string `json:"type"`
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		apiErr.Type = strings.TrimSpace(envelope.Error.Type)
		apiErr.Code = strings.TrimSpace(envelope.Error.Code)
		apiErr.Message = strings.TrimSpace(envelope.Error.Message)
	}
	return apiErr
}

func decodeRawMap(body []byte) (map[string]interface{}, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: decode response failed", ErrResponseInvalid)
	}
	return raw, nil
}

func readString(raw map[string]interface{}, key string) string {
	if raw == nil || strings.TrimSpace(key) == "" {
		return ""
	}
	value, ok := raw[key]
	if !ok || value == nil {
		return ""
	}
	switch typed := value.(type) {
	case string:
		return strings.TrimSpace(typed)
	case json.Number:
		return strings.TrimSpace(typed.String())
	case float64:
		return strings.TrimSpace(strconv.FormatInt(int64(typed), 10))
	default:
		return ""
	}
}
