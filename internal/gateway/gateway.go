// Package gateway defines the uniform payment-gateway contract, the request
// and response envelopes that flow through it, and the registry/dispatch
// machinery that resolves gateway names to configured live instances.
package gateway

import "context"

// Mode selects the provider environment a gateway talks to.
type Mode string

const (
	ModeSandbox Mode = "sandbox"
	ModeLive    Mode = "live"
)

// Config holds the per-gateway settings applied at resolution time.
type Config struct {
	Mode        Mode
	Enabled     bool
	Credentials map[string]string
}

// Credential returns a named credential, or "" when absent.
func (c Config) Credential(key string) string {
	return c.Credentials[key]
}

// DefaultConfig is the configuration applied to gateways the host has not
// configured explicitly: enabled, sandbox, no credentials.
func DefaultConfig() Config {
	return Config{Mode: ModeSandbox, Enabled: true}
}

// Gateway is the capability contract every payment gateway implements.
//
// Business-level outcomes (declined card, failed verification) are reported
// as PaymentResponse values with Success=false. Returned errors are reserved
// for structural and system faults: bad configuration, transport failures,
// provider outages.
type Gateway interface {
	// Name returns the unique gateway identifier (e.g. "stripe").
	Name() string

	// Pay initiates a payment. It may return an immediate result or a
	// redirect response for hosted checkout flows.
	Pay(ctx context.Context, req *PaymentRequest) (*PaymentResponse, error)

	// Verify interprets an already signature-checked webhook/callback payload
	// and normalizes it into a PaymentResponse.
	Verify(ctx context.Context, payload map[string]any) (*PaymentResponse, error)

	// Refund issues a refund against a prior transaction. It returns false
	// only for a legitimately declined refund; structural problems raise a
	// RefundError.
	Refund(ctx context.Context, transactionID string, amountCents int64) (bool, error)

	// SupportsRefund reports whether the gateway can refund at all.
	SupportsRefund() bool

	// Mode and SetMode expose the provider environment.
	Mode() Mode
	SetMode(Mode)

	// Config and Configure expose the gateway settings. Configure is called
	// by the registry exactly once, before the instance is cached.
	Config() Config
	Configure(Config)
}

// SignatureValidator is an optional gateway capability. When a gateway
// implements it, the dispatcher requires webhook deliveries to carry a valid
// signature before Verify is invoked.
type SignatureValidator interface {
	ValidateSignature(payload WebhookPayload) bool
}

// Factory constructs an unconfigured gateway instance. The registry applies
// configuration and caches the result.
type Factory func() Gateway
