package gateway

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/mdiqbalhossan/paygate/internal/domain/errors"
)

// Operation names reported through outcome hooks.
const (
	OpPay    = "pay"
	OpVerify = "verify"
	OpRefund = "refund"
)

// Outcome describes the result of a dispatched gateway operation, delivered
// to registered hooks after the call returns.
type Outcome struct {
	Gateway   string
	Operation string
	Response  *PaymentResponse
	Refunded  bool
	Err       error
}

// OutcomeHook observes dispatch outcomes. Hooks run synchronously on the
// calling goroutine and must not block.
type OutcomeHook func(Outcome)

// Manager is the dispatch layer: it resolves a named gateway through the
// registry and routes pay/verify/refund calls to it, normalizing structural
// failures into the typed error taxonomy.
type Manager struct {
	registry *Registry
	logger   zerolog.Logger

	breakerMu sync.Mutex
	breakers  map[string]*gobreaker.CircuitBreaker[*PaymentResponse]

	hookMu sync.RWMutex
	hooks  []OutcomeHook
}

// ManagerOption customizes a Manager.
type ManagerOption func(*Manager)

// WithLogger sets the manager logger.
func WithLogger(logger zerolog.Logger) ManagerOption {
	return func(m *Manager) { m.logger = logger }
}

// WithOutcomeHook registers a hook at construction time.
func WithOutcomeHook(h OutcomeHook) ManagerOption {
	return func(m *Manager) { m.hooks = append(m.hooks, h) }
}

// NewManager creates a Manager over the given registry.
func NewManager(registry *Registry, opts ...ManagerOption) *Manager {
	m := &Manager{
		registry: registry,
		logger:   zerolog.Nop(),
		breakers: make(map[string]*gobreaker.CircuitBreaker[*PaymentResponse]),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// OnOutcome registers a hook observed after every pay/verify/refund dispatch.
func (m *Manager) OnOutcome(h OutcomeHook) {
	m.hookMu.Lock()
	m.hooks = append(m.hooks, h)
	m.hookMu.Unlock()
}

// Gateway resolves a gateway by name, falling back to the default gateway
// when name is empty.
func (m *Manager) Gateway(name string) (Gateway, error) {
	if name == "" {
		return m.registry.Default()
	}
	return m.registry.Resolve(name)
}

// Pay validates the request, resolves the gateway and initiates the payment.
// The per-gateway circuit breaker turns a tripped provider into
// ErrGatewayUnavailable instead of hammering it.
func (m *Manager) Pay(ctx context.Context, name string, req *PaymentRequest) (*PaymentResponse, error) {
	if req == nil {
		return nil, errors.NewValidationError("request", "cannot be nil")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	gw, err := m.Gateway(name)
	if err != nil {
		return nil, err
	}

	breaker := m.breaker(gw.Name())
	resp, err := breaker.Execute(func() (*PaymentResponse, error) {
		return gw.Pay(ctx, req)
	})
	if stderrors.Is(err, gobreaker.ErrOpenState) || stderrors.Is(err, gobreaker.ErrTooManyRequests) {
		err = fmt.Errorf("gateway %q: circuit open: %w", gw.Name(), errors.ErrGatewayUnavailable)
	}

	m.emit(Outcome{Gateway: gw.Name(), Operation: OpPay, Response: resp, Err: err})
	m.logOutcome(gw.Name(), OpPay, resp, err).
		Str("order_id", req.OrderID).
		Str("amount", req.Amount.String()).
		Msg("payment dispatched")
	return resp, err
}

// Verify checks the webhook signature when required, then forwards the
// payload to the gateway for interpretation.
func (m *Manager) Verify(ctx context.Context, payload WebhookPayload) (*PaymentResponse, error) {
	gw, err := m.Gateway(payload.Gateway)
	if err != nil {
		return nil, err
	}

	if validator, ok := gw.(SignatureValidator); ok {
		if !validator.ValidateSignature(payload) {
			if !payload.HasSignature() {
				return nil, fmt.Errorf("gateway %q: signature required: %w", gw.Name(), errors.ErrInvalidSignature)
			}
			return nil, fmt.Errorf("gateway %q: %w", gw.Name(), errors.ErrInvalidSignature)
		}
	}

	resp, err := gw.Verify(ctx, payload.Payload)
	m.emit(Outcome{Gateway: gw.Name(), Operation: OpVerify, Response: resp, Err: err})
	m.logOutcome(gw.Name(), OpVerify, resp, err).Msg("webhook verified")
	return resp, err
}

// Refund dispatches a refund through the same per-gateway circuit breaker as
// Pay. Gateways that do not support refunds fail with a RefundError rather
// than a silent false.
func (m *Manager) Refund(ctx context.Context, name, transactionID string, amountCents int64) (bool, error) {
	if transactionID == "" {
		return false, errors.NewValidationError("transaction_id", "cannot be empty")
	}
	if amountCents <= 0 {
		return false, errors.NewValidationError("amount", "must be greater than 0")
	}

	gw, err := m.Gateway(name)
	if err != nil {
		return false, err
	}
	if !gw.SupportsRefund() {
		return false, errors.NewRefundError(errors.RefundNotSupported, gw.Name(), "")
	}

	breaker := m.breaker(gw.Name())
	var refunded bool
	_, err = breaker.Execute(func() (*PaymentResponse, error) {
		ok, rerr := gw.Refund(ctx, transactionID, amountCents)
		refunded = ok
		return nil, rerr
	})
	if stderrors.Is(err, gobreaker.ErrOpenState) || stderrors.Is(err, gobreaker.ErrTooManyRequests) {
		err = fmt.Errorf("gateway %q: circuit open: %w", gw.Name(), errors.ErrGatewayUnavailable)
	}
	m.emit(Outcome{Gateway: gw.Name(), Operation: OpRefund, Refunded: refunded, Err: err})
	m.logOutcome(gw.Name(), OpRefund, nil, err).
		Str("transaction_id", transactionID).
		Bool("refunded", refunded).
		Msg("refund dispatched")
	return refunded, err
}

// SupportsRefund reports the refund capability of a named gateway.
func (m *Manager) SupportsRefund(name string) (bool, error) {
	gw, err := m.Gateway(name)
	if err != nil {
		return false, err
	}
	return gw.SupportsRefund(), nil
}

// AvailableGateways lists the enabled gateway names.
func (m *Manager) AvailableGateways() []string {
	return m.registry.List()
}

// SetDefaultGateway sets the registry default.
func (m *Manager) SetDefaultGateway(name string) error {
	return m.registry.SetDefault(name)
}

// DefaultGateway returns the default gateway name, or "".
func (m *Manager) DefaultGateway() string {
	return m.registry.DefaultName()
}

// NewContext starts a fluent payment build-up bound to this manager.
func (m *Manager) NewContext() *Context {
	return &Context{manager: m}
}

func (m *Manager) breaker(name string) *gobreaker.CircuitBreaker[*PaymentResponse] {
	m.breakerMu.Lock()
	defer m.breakerMu.Unlock()

	if b, ok := m.breakers[name]; ok {
		return b
	}
	b := gobreaker.NewCircuitBreaker[*PaymentResponse](gobreaker.Settings{
		Name:        name,
		MaxRequests: 10,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 10 && failureRatio >= 0.6
		},
	})
	m.breakers[name] = b
	return b
}

func (m *Manager) emit(o Outcome) {
	m.hookMu.RLock()
	hooks := m.hooks
	m.hookMu.RUnlock()
	for _, h := range hooks {
		h(o)
	}
}

func (m *Manager) logOutcome(gateway, op string, resp *PaymentResponse, err error) *zerolog.Event {
	var evt *zerolog.Event
	switch {
	case err != nil:
		evt = m.logger.Error().Err(err)
	case resp != nil && !resp.Success:
		evt = m.logger.Warn().Str("status", resp.Status).Str("reason", resp.Message)
	default:
		evt = m.logger.Info()
		if resp != nil {
			evt = evt.Str("status", resp.Status)
		}
	}
	return evt.Str("gateway", gateway).Str("operation", op)
}
