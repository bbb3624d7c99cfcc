package controller

import (
	"time"

	"github.com/mdiqbalhossan/paygate/internal/domain/transaction"
	"github.com/mdiqbalhossan/paygate/internal/gateway"
)

// --- Request DTOs ---
// DTOs handle HTTP/JSON concerns (float64 major units for money, validation
// tags); controllers convert them to gateway/service types.

// InitiatePaymentRequest holds the input for initiating a payment.
type InitiatePaymentRequest struct {
	Gateway       string         `json:"gateway,omitempty"`
	OrderID       string         `json:"order_id" validate:"required"`
	Amount        float64        `json:"amount" validate:"required,gt=0"`
	Currency      string         `json:"currency" validate:"required,len=3"`
	CustomerEmail string         `json:"customer_email" validate:"required,email"`
	CustomerName  string         `json:"customer_name,omitempty"`
	Description   string         `json:"description,omitempty"`
	CallbackURL   string         `json:"callback_url,omitempty" validate:"omitempty,url"`
	WebhookURL    string         `json:"webhook_url,omitempty" validate:"omitempty,url"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// RefundRequest holds the input for refunding a payment. A zero or omitted
// amount refunds the full remaining balance.
type RefundRequest struct {
	Amount float64 `json:"amount" validate:"gte=0"`
}

// --- Response DTOs ---

// PaymentResult is the initiation response: gateway outcome plus record state.
type PaymentResult struct {
	Success       bool           `json:"success"`
	OrderID       string         `json:"order_id"`
	Gateway       string         `json:"gateway"`
	Status        string         `json:"status"`
	TransactionID string         `json:"transaction_id,omitempty"`
	RedirectURL   string         `json:"redirect_url,omitempty"`
	Message       string         `json:"message,omitempty"`
	Data          map[string]any `json:"data,omitempty"`
}

// TransactionResponse represents a stored transaction in API responses.
type TransactionResponse struct {
	ID            string         `json:"id"`
	OrderID       string         `json:"order_id"`
	Gateway       string         `json:"gateway"`
	Amount        float64        `json:"amount"`
	Currency      string         `json:"currency"`
	Status        string         `json:"status"`
	TransactionID *string        `json:"transaction_id,omitempty"`
	RedirectURL   *string        `json:"redirect_url,omitempty"`
	Message       *string        `json:"message,omitempty"`
	Refunded      float64        `json:"refunded_amount"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// GatewayListResponse lists the enabled gateway names.
type GatewayListResponse struct {
	Default  string   `json:"default,omitempty"`
	Gateways []string `json:"gateways"`
}

// WebhookResult acknowledges a processed webhook.
type WebhookResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// --- Conversion helpers ---

// ToPaymentRequest converts the DTO into a gateway payment request. The
// service validates it before dispatch.
func (r *InitiatePaymentRequest) ToPaymentRequest() *gateway.PaymentRequest {
	return &gateway.PaymentRequest{
		OrderID:       r.OrderID,
		Amount:        gateway.Amount{ValueCents: floatToCents(r.Amount), Currency: r.Currency},
		CustomerEmail: r.CustomerEmail,
		CustomerName:  r.CustomerName,
		Description:   r.Description,
		CallbackURL:   r.CallbackURL,
		WebhookURL:    r.WebhookURL,
		Metadata:      r.Metadata,
	}
}

// FromOutcome converts a dispatch outcome into the initiation response.
func FromOutcome(txn *transaction.Transaction, resp *gateway.PaymentResponse) *PaymentResult {
	return &PaymentResult{
		Success:       resp.Success,
		OrderID:       txn.OrderID,
		Gateway:       txn.Gateway,
		Status:        resp.Status,
		TransactionID: resp.TransactionID,
		RedirectURL:   resp.RedirectURL,
		Message:       resp.Message,
		Data:          resp.Data,
	}
}

// FromTransaction converts a stored transaction to an API response.
func FromTransaction(t *transaction.Transaction) *TransactionResponse {
	return &TransactionResponse{
		ID:            t.ID.String(),
		OrderID:       t.OrderID,
		Gateway:       t.Gateway,
		Amount:        centsToFloat(t.AmountCents),
		Currency:      t.Currency,
		Status:        string(t.Status),
		TransactionID: t.GatewayTransactionID,
		RedirectURL:   t.RedirectURL,
		Message:       t.Message,
		Refunded:      centsToFloat(t.RefundedCents),
		Metadata:      t.Metadata,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}

// floatToCents converts a major-unit amount to cents.
func floatToCents(f float64) int64 {
	return int64(f*100 + 0.5)
}

// centsToFloat converts cents to a major-unit amount.
func centsToFloat(cents int64) float64 {
	return float64(cents) / 100.0
}
