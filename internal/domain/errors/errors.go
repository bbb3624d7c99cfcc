package errors

import (
	"errors"
	"fmt"
)

var (
	// Gateway resolution errors
	ErrGatewayNotFound    = errors.New("payment gateway not found")
	ErrGatewayDisabled    = errors.New("payment gateway is disabled")
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")

	// Configuration errors. An incomplete context is a configuration
	// fault, so it matches ErrInvalidConfiguration too.
	ErrInvalidConfiguration = errors.New("invalid gateway configuration")
	ErrIncompleteContext    = fmt.Errorf("payment context is incomplete: %w", ErrInvalidConfiguration)
	ErrContextExecuted      = errors.New("payment context already executed")

	// Webhook errors
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrDuplicateWebhook = errors.New("duplicate webhook delivery")

	// Transaction errors
	ErrTransactionNotFound = errors.New("transaction not found")

	// Provider-side errors. Raised by gateway implementations for
	// transport/provider faults, never for declined payments.
	ErrNetwork        = errors.New("gateway network failure")
	ErrGatewayFailure = errors.New("gateway provider failure")

	// Validation errors
	ErrValidationFailed = errors.New("validation failed")
	ErrInvalidInput     = errors.New("invalid input")
)

// RefundReason classifies why a refund could not be performed.
type RefundReason string

const (
	RefundNotSupported   RefundReason = "not_supported"
	RefundFailed         RefundReason = "failed"
	RefundAmountMismatch RefundReason = "amount_mismatch"
)

// RefundError is a structural refund failure. A legitimately declined refund
// is reported as a false return from Refund, not as a RefundError.
type RefundError struct {
	Reason  RefundReason
	Gateway string
	Message string
}

func (e *RefundError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("refund %s on %s: %s", e.Reason, e.Gateway, e.Message)
	}
	return fmt.Sprintf("refund %s on %s", e.Reason, e.Gateway)
}

// Is matches RefundErrors by reason, so callers can check a specific
// reason with errors.Is(err, &RefundError{Reason: RefundNotSupported}).
func (e *RefundError) Is(target error) bool {
	var other *RefundError
	if !errors.As(target, &other) {
		return false
	}
	return e.Reason == other.Reason
}

// NewRefundError creates a RefundError for the given gateway and reason.
func NewRefundError(reason RefundReason, gateway, message string) *RefundError {
	return &RefundError{Reason: reason, Gateway: gateway, Message: message}
}

// DomainError wraps errors with additional context
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}
