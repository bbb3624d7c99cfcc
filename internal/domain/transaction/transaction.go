// Package transaction holds the payment transaction record the host service
// keeps for each initiated payment. The gateway dispatch core itself owns no
// persistence; this record belongs to the calling application.
package transaction

import (
	"time"

	"github.com/google/uuid"

	"github.com/mdiqbalhossan/paygate/internal/domain/errors"
)

// Status tracks a transaction through its lifecycle.
type Status string

const (
	StatusInitiated Status = "initiated"
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusRefunded  Status = "refunded"
)

// Transaction is one initiated payment and its gateway bookkeeping.
type Transaction struct {
	ID                   uuid.UUID
	OrderID              string
	Gateway              string
	AmountCents          int64
	Currency             string
	Status               Status
	GatewayTransactionID *string
	GatewayReference     *string
	RedirectURL          *string
	Message              *string
	RefundedCents        int64
	Response             map[string]any
	Metadata             map[string]any
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// New creates an initiated transaction record.
func New(orderID, gatewayName string, amountCents int64, currency string) (*Transaction, error) {
	if orderID == "" {
		return nil, errors.NewValidationError("order_id", "cannot be empty")
	}
	if gatewayName == "" {
		return nil, errors.NewValidationError("gateway", "cannot be empty")
	}
	if amountCents <= 0 {
		return nil, errors.NewValidationError("amount", "must be greater than 0")
	}
	if len(currency) != 3 {
		return nil, errors.NewValidationError("currency", "must be a 3-letter ISO code")
	}

	now := time.Now()
	return &Transaction{
		ID:          uuid.New(),
		OrderID:     orderID,
		Gateway:     gatewayName,
		AmountCents: amountCents,
		Currency:    currency,
		Status:      StatusInitiated,
		Metadata:    make(map[string]any),
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// CanTransitionTo checks whether the status transition is legal.
func (t *Transaction) CanTransitionTo(next Status) bool {
	transitions := map[Status][]Status{
		StatusInitiated: {StatusPending, StatusCompleted, StatusFailed},
		StatusPending:   {StatusCompleted, StatusFailed},
		StatusCompleted: {StatusRefunded},
		StatusFailed:    {},
		StatusRefunded:  {},
	}

	for _, allowed := range transitions[t.Status] {
		if allowed == next {
			return true
		}
	}
	return false
}

// TransitionTo moves the transaction to a new status.
func (t *Transaction) TransitionTo(next Status) error {
	if !t.CanTransitionTo(next) {
		return errors.NewDomainError(
			"invalid_transition",
			"cannot transition from "+string(t.Status)+" to "+string(next),
			errors.ErrInvalidInput,
		)
	}
	t.Status = next
	t.UpdatedAt = time.Now()
	return nil
}

// MarkPending records a hosted-checkout redirect awaiting confirmation.
func (t *Transaction) MarkPending(gatewayTxnID, redirectURL string) error {
	if err := t.TransitionTo(StatusPending); err != nil {
		return err
	}
	if gatewayTxnID != "" {
		t.GatewayTransactionID = &gatewayTxnID
	}
	if redirectURL != "" {
		t.RedirectURL = &redirectURL
	}
	return nil
}

// MarkCompleted records a captured payment.
func (t *Transaction) MarkCompleted(gatewayTxnID string) error {
	if err := t.TransitionTo(StatusCompleted); err != nil {
		return err
	}
	if gatewayTxnID != "" {
		t.GatewayTransactionID = &gatewayTxnID
	}
	return nil
}

// MarkFailed records a declined or failed payment.
func (t *Transaction) MarkFailed(message string) error {
	if err := t.TransitionTo(StatusFailed); err != nil {
		return err
	}
	if message != "" {
		t.Message = &message
	}
	return nil
}

// RecordRefund adds refunded cents, flipping the status once fully refunded.
// Refunding more than the remaining balance is rejected.
func (t *Transaction) RecordRefund(amountCents int64) error {
	if amountCents <= 0 {
		return errors.NewValidationError("amount", "must be greater than 0")
	}
	if t.Status != StatusCompleted {
		return errors.NewDomainError(
			"not_refundable",
			"only completed transactions can be refunded",
			errors.ErrInvalidInput,
		)
	}
	if t.RefundedCents+amountCents > t.AmountCents {
		return errors.NewRefundError(errors.RefundAmountMismatch, t.Gateway,
			"refund exceeds remaining captured amount")
	}

	t.RefundedCents += amountCents
	t.UpdatedAt = time.Now()
	if t.RefundedCents == t.AmountCents {
		return t.TransitionTo(StatusRefunded)
	}
	return nil
}

// Remaining returns the refundable balance.
func (t *Transaction) Remaining() int64 {
	return t.AmountCents - t.RefundedCents
}

// IsTerminal reports whether no further transitions are possible.
func (t *Transaction) IsTerminal() bool {
	return t.Status == StatusFailed || t.Status == StatusRefunded
}
