// Package razorpay implements the gateway contract over the Razorpay SDK.
// Pay creates a Razorpay order for client-side checkout, Verify normalizes
// Razorpay webhook events, and webhook deliveries are authenticated with the
// X-Razorpay-Signature HMAC.
package razorpay

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"

	rzp "github.com/razorpay/razorpay-go"

	"github.com/mdiqbalhossan/paygate/internal/domain/errors"
	"github.com/mdiqbalhossan/paygate/internal/gateway"
	"github.com/mdiqbalhossan/paygate/pkg/retry"
)

// Credential keys consumed from the gateway configuration.
const (
	CredKeyID         = "key_id"
	CredKeySecret     = "key_secret"
	CredWebhookSecret = "webhook_secret"
)

// Gateway adapts Razorpay to the uniform gateway contract.
type Gateway struct {
	mu     sync.RWMutex
	cfg    gateway.Config
	client *rzp.Client
	retry  retry.Config
}

// New creates an unconfigured Razorpay gateway. The registry applies
// credentials and mode via Configure before first use.
func New() *Gateway {
	return &Gateway{
		cfg:   gateway.DefaultConfig(),
		retry: retry.DefaultConfig(),
	}
}

func (g *Gateway) Name() string { return "razorpay" }

// Pay creates a Razorpay order. Razorpay collects the card client-side, so
// the response is a pending initiation carrying the order reference and the
// key the client SDK needs, not a redirect.
func (g *Gateway) Pay(ctx context.Context, req *gateway.PaymentRequest) (*gateway.PaymentResponse, error) {
	client, err := g.clientOrErr()
	if err != nil {
		return nil, err
	}

	body := map[string]any{
		"amount":   req.Amount.ValueCents,
		"currency": req.Amount.Currency,
		"receipt":  req.OrderID,
		"notes":    noteMap(req.Metadata),
	}

	result, err := retry.DoWithResult(ctx, g.retry, func() (map[string]any, error) {
		return client.Order.Create(body, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("razorpay: create order: %w", errors.NewDomainError(
			"order_create_failed", err.Error(), errors.ErrGatewayFailure))
	}

	orderID, _ := result["id"].(string)
	resp := &gateway.PaymentResponse{
		Success:          true,
		Status:           gateway.StatusPending,
		Message:          "order created",
		GatewayReference: orderID,
	}
	return resp.
		WithAmount(req.Amount).
		WithMetadata(req.Metadata).
		WithData(map[string]any{
			"order_id": orderID,
			"key_id":   g.Config().Credential(CredKeyID),
		}), nil
}

// Verify normalizes a Razorpay webhook envelope ({event, payload}) into a
// PaymentResponse.
func (g *Gateway) Verify(ctx context.Context, payload map[string]any) (*gateway.PaymentResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	event, _ := payload["event"].(string)
	body, _ := payload["payload"].(map[string]any)

	paymentEntity := entity(body, "payment")
	refundEntity := entity(body, "refund")

	paymentID, _ := paymentEntity["id"].(string)
	orderID, _ := paymentEntity["order_id"].(string)

	switch event {
	case "payment.captured", "order.paid":
		return gateway.NewSuccessResponse(paymentID, "payment captured").
			WithGatewayReference(orderID).
			WithData(body), nil
	case "payment.failed":
		reason, _ := paymentEntity["error_description"].(string)
		if reason == "" {
			reason = "payment failed"
		}
		return gateway.NewFailureResponse(reason).WithData(body), nil
	case "refund.processed":
		refundPaymentID, _ := refundEntity["payment_id"].(string)
		resp := gateway.NewSuccessResponse(refundPaymentID, "refund processed").WithData(body)
		resp.Status = gateway.StatusRefunded
		return resp, nil
	case "refund.failed":
		return gateway.NewFailureResponse("refund failed").WithData(body), nil
	default:
		return gateway.NewFailureResponse(fmt.Sprintf("unhandled razorpay event %q", event)).
			WithData(body), nil
	}
}

// Refund issues a Razorpay refund for the captured payment.
func (g *Gateway) Refund(ctx context.Context, transactionID string, amountCents int64) (bool, error) {
	client, err := g.clientOrErr()
	if err != nil {
		return false, err
	}

	body := map[string]any{"amount": amountCents}
	result, err := retry.DoWithResult(ctx, g.retry, func() (map[string]any, error) {
		return client.Payment.Refund(transactionID, int(amountCents), body, nil)
	})
	if err != nil {
		return false, errors.NewRefundError(errors.RefundFailed, g.Name(), err.Error())
	}

	status, _ := result["status"].(string)
	return status == "processed" || status == "pending" || status == "created", nil
}

func (g *Gateway) SupportsRefund() bool { return true }

func (g *Gateway) Mode() gateway.Mode {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.cfg.Mode
}

func (g *Gateway) SetMode(mode gateway.Mode) {
	g.mu.Lock()
	g.cfg.Mode = mode
	g.mu.Unlock()
}

func (g *Gateway) Config() gateway.Config {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.cfg
}

// Configure applies credentials and builds the SDK client. Razorpay separates
// environments by key pairs, so sandbox/live is carried by the keys themselves.
func (g *Gateway) Configure(cfg gateway.Config) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if cfg.Mode == "" {
		cfg.Mode = gateway.ModeSandbox
	}
	g.cfg = cfg
	if keyID := cfg.Credential(CredKeyID); keyID != "" {
		g.client = rzp.NewClient(keyID, cfg.Credential(CredKeySecret))
	}
}

// ValidateSignature verifies the X-Razorpay-Signature HMAC over the raw body.
func (g *Gateway) ValidateSignature(payload gateway.WebhookPayload) bool {
	secret := g.Config().Credential(CredWebhookSecret)
	if secret == "" || !payload.HasSignature() {
		return false
	}

	body := payload.Raw
	if len(body) == 0 {
		body, _ = json.Marshal(payload.Payload)
	}

	h := hmac.New(sha256.New, []byte(secret))
	h.Write(body)
	expected := hex.EncodeToString(h.Sum(nil))
	return hmac.Equal([]byte(payload.Signature), []byte(expected))
}

func (g *Gateway) clientOrErr() (*rzp.Client, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.client == nil {
		return nil, fmt.Errorf("razorpay: missing %s/%s credentials: %w",
			CredKeyID, CredKeySecret, errors.ErrInvalidConfiguration)
	}
	return g.client, nil
}

func noteMap(metadata map[string]any) map[string]any {
	notes := make(map[string]any, len(metadata))
	for k, v := range metadata {
		notes[k] = v
	}
	return notes
}

func entity(payload map[string]any, name string) map[string]any {
	wrapper, ok := payload[name].(map[string]any)
	if !ok {
		return map[string]any{}
	}
	e, ok := wrapper["entity"].(map[string]any)
	if !ok {
		return map[string]any{}
	}
	return e
}
