// Package stub provides a deterministic in-process gateway. It stands behind
// every roster name that has no real provider adapter yet, honoring the full
// gateway contract, and doubles as the test double for the dispatch layer.
package stub

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/mdiqbalhossan/paygate/internal/domain/errors"
	"github.com/mdiqbalhossan/paygate/internal/gateway"
)

// Gateway is a configurable stub implementing gateway.Gateway and
// gateway.SignatureValidator.
type Gateway struct {
	name           string
	supportsRefund bool
	checkoutURL    string // non-empty switches Pay to a hosted-checkout redirect
	declineMessage string // non-empty makes every Pay a business decline
	refundDeclined bool   // makes Refund return false without error

	mu  sync.RWMutex
	cfg gateway.Config
}

// Option customizes a stub gateway.
type Option func(*Gateway)

// WithoutRefunds marks the gateway as not supporting refunds at all.
func WithoutRefunds() Option {
	return func(g *Gateway) { g.supportsRefund = false }
}

// WithHostedCheckout makes Pay return a redirect to the given checkout base URL.
func WithHostedCheckout(baseURL string) Option {
	return func(g *Gateway) { g.checkoutURL = baseURL }
}

// WithDecline makes every Pay return a business failure with the message.
func WithDecline(message string) Option {
	return func(g *Gateway) { g.declineMessage = message }
}

// WithRefundDeclined makes Refund return false with no error, modeling a
// provider that legitimately declines the refund.
func WithRefundDeclined() Option {
	return func(g *Gateway) { g.refundDeclined = true }
}

// New creates a stub gateway for the given name.
func New(name string, opts ...Option) *Gateway {
	g := &Gateway{
		name:           name,
		supportsRefund: true,
		cfg:            gateway.DefaultConfig(),
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

func (g *Gateway) Name() string { return g.name }

func (g *Gateway) Pay(ctx context.Context, req *gateway.PaymentRequest) (*gateway.PaymentResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if g.declineMessage != "" {
		return gateway.NewFailureResponse(g.declineMessage), nil
	}

	txnID := g.transactionID("txn")
	if g.checkoutURL != "" {
		url := fmt.Sprintf("%s?order=%s&token=%s", g.checkoutURL, req.OrderID, txnID)
		return gateway.NewRedirectResponse(url, txnID).
			WithAmount(req.Amount).
			WithMetadata(req.Metadata), nil
	}

	return gateway.NewSuccessResponse(txnID, "payment accepted").
		WithAmount(req.Amount).
		WithGatewayReference(g.transactionID("ref")).
		WithMetadata(req.Metadata).
		WithData(map[string]any{
			"order_id": req.OrderID,
			"mode":     string(g.Mode()),
		}), nil
}

func (g *Gateway) Verify(ctx context.Context, payload map[string]any) (*gateway.PaymentResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	status, _ := payload["status"].(string)
	txnID, _ := payload["transaction_id"].(string)

	switch status {
	case "success", "paid", gateway.StatusCompleted:
		return gateway.NewSuccessResponse(txnID, "payment confirmed").WithData(payload), nil
	case gateway.StatusRefunded:
		resp := gateway.NewSuccessResponse(txnID, "refund confirmed").WithData(payload)
		resp.Status = gateway.StatusRefunded
		return resp, nil
	case gateway.StatusFailed, "cancelled":
		reason, _ := payload["reason"].(string)
		if reason == "" {
			reason = "payment " + status
		}
		return gateway.NewFailureResponse(reason).WithData(payload), nil
	default:
		return gateway.NewFailureResponse(fmt.Sprintf("unrecognized webhook status %q", status)).
			WithData(payload), nil
	}
}

func (g *Gateway) Refund(ctx context.Context, transactionID string, amountCents int64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if !g.supportsRefund {
		return false, errors.NewRefundError(errors.RefundNotSupported, g.name, "")
	}
	if g.refundDeclined {
		return false, nil
	}
	return true, nil
}

func (g *Gateway) SupportsRefund() bool { return g.supportsRefund }

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

func (g *Gateway) Configure(cfg gateway.Config) {
	g.mu.Lock()
	if cfg.Mode == "" {
		cfg.Mode = gateway.ModeSandbox
	}
	g.cfg = cfg
	g.mu.Unlock()
}

// ValidateSignature checks an HMAC-SHA256 signature over the raw webhook body
// against the configured webhook_secret credential. Gateways configured
// without a secret accept any delivery.
func (g *Gateway) ValidateSignature(payload gateway.WebhookPayload) bool {
	secret := g.Config().Credential("webhook_secret")
	if secret == "" {
		return true
	}
	if !payload.HasSignature() {
		return false
	}
	return hmac.Equal([]byte(payload.Signature), []byte(Sign(secret, signedBytes(payload))))
}

// Sign computes the hex HMAC-SHA256 the stub expects over a webhook body.
// Exposed so tests and local tooling can produce valid deliveries.
func Sign(secret string, body []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

func signedBytes(payload gateway.WebhookPayload) []byte {
	if len(payload.Raw) > 0 {
		return payload.Raw
	}
	// json.Marshal sorts map keys, so this is deterministic.
	b, _ := json.Marshal(payload.Payload)
	return b
}

func (g *Gateway) transactionID(kind string) string {
	return fmt.Sprintf("%s_%s_%s", g.name, kind, uuid.New().String()[:8])
}
