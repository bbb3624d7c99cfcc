package service

import (
	"context"
	stderrors "errors"

	"github.com/rs/zerolog"

	domainErrors "github.com/mdiqbalhossan/paygate/internal/domain/errors"
	"github.com/mdiqbalhossan/paygate/internal/domain/transaction"
	"github.com/mdiqbalhossan/paygate/internal/gateway"
)

// WebhookDeduper claims a webhook delivery exactly once per body. Implemented
// by the redis-backed deduper; nil means deduplication is disabled.
type WebhookDeduper interface {
	Claim(ctx context.Context, gatewayName string, body []byte) (bool, error)
}

// PaymentService ties the gateway dispatcher to the transaction log: every
// initiated payment gets a persisted record, and webhook confirmations move
// that record through its lifecycle.
type PaymentService struct {
	manager *gateway.Manager
	txnRepo transaction.Repository
	deduper WebhookDeduper
	logger  zerolog.Logger
}

// NewPaymentService creates a new PaymentService. deduper may be nil.
func NewPaymentService(manager *gateway.Manager, txnRepo transaction.Repository, deduper WebhookDeduper, logger zerolog.Logger) *PaymentService {
	return &PaymentService{
		manager: manager,
		txnRepo: txnRepo,
		deduper: deduper,
		logger:  logger,
	}
}

// InitiatePaymentResult pairs the gateway response with the stored record.
type InitiatePaymentResult struct {
	Response    *gateway.PaymentResponse
	Transaction *transaction.Transaction
}

// InitiatePayment records the payment, dispatches it to the named gateway
// (empty name uses the default) and stores the outcome. A declined payment is
// a stored failure, not an error.
func (s *PaymentService) InitiatePayment(ctx context.Context, gatewayName string, req *gateway.PaymentRequest) (*InitiatePaymentResult, error) {
	if req == nil {
		return nil, domainErrors.NewValidationError("request", "cannot be nil")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// Resolve before persisting so an unknown gateway never leaves a row behind.
	gw, err := s.manager.Gateway(gatewayName)
	if err != nil {
		return nil, err
	}

	txn, err := transaction.New(req.OrderID, gw.Name(), req.Amount.ValueCents, req.Amount.Currency)
	if err != nil {
		return nil, err
	}
	for k, v := range req.Metadata {
		txn.Metadata[k] = v
	}
	if err := s.txnRepo.Create(ctx, txn); err != nil {
		return nil, err
	}

	resp, err := s.manager.Pay(ctx, gw.Name(), req)
	if err != nil {
		s.recordFailure(ctx, txn, err.Error())
		return nil, err
	}

	s.applyPayResponse(ctx, txn, resp)
	return &InitiatePaymentResult{Response: resp, Transaction: txn}, nil
}

// GetPayment loads the transaction record for an order.
func (s *PaymentService) GetPayment(ctx context.Context, orderID string) (*transaction.Transaction, error) {
	if orderID == "" {
		return nil, domainErrors.NewValidationError("order_id", "cannot be empty")
	}
	return s.txnRepo.GetByOrderID(ctx, orderID)
}

// ListPayments lists transaction records with optional filters.
func (s *PaymentService) ListPayments(ctx context.Context, filter transaction.ListFilter) ([]*transaction.Transaction, error) {
	return s.txnRepo.List(ctx, filter)
}

// Refund refunds amountCents of an order's captured payment through the
// gateway that took it. Zero amountCents means the full remaining balance.
func (s *PaymentService) Refund(ctx context.Context, orderID string, amountCents int64) (*transaction.Transaction, error) {
	txn, err := s.txnRepo.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if txn.Status != transaction.StatusCompleted {
		return nil, domainErrors.NewRefundError(domainErrors.RefundFailed, txn.Gateway,
			"transaction is not in a refundable state: "+string(txn.Status))
	}
	if txn.GatewayTransactionID == nil {
		return nil, domainErrors.NewRefundError(domainErrors.RefundFailed, txn.Gateway,
			"transaction has no gateway transaction id")
	}

	if amountCents == 0 {
		amountCents = txn.Remaining()
	}
	if amountCents > txn.Remaining() {
		return nil, domainErrors.NewRefundError(domainErrors.RefundAmountMismatch, txn.Gateway,
			"refund exceeds remaining captured amount")
	}

	refunded, err := s.manager.Refund(ctx, txn.Gateway, *txn.GatewayTransactionID, amountCents)
	if err != nil {
		return nil, err
	}
	if !refunded {
		return nil, domainErrors.NewRefundError(domainErrors.RefundFailed, txn.Gateway,
			"gateway declined the refund")
	}

	if err := txn.RecordRefund(amountCents); err != nil {
		return nil, err
	}
	if err := s.txnRepo.Update(ctx, txn); err != nil {
		return nil, err
	}
	return txn, nil
}

// HandleWebhook deduplicates, verifies and applies a gateway webhook. The
// returned response is the gateway's interpretation of the event; the matching
// transaction record, if any, is moved along its lifecycle.
func (s *PaymentService) HandleWebhook(ctx context.Context, payload gateway.WebhookPayload) (*gateway.PaymentResponse, error) {
	if s.deduper != nil && len(payload.Raw) > 0 {
		claimed, err := s.deduper.Claim(ctx, payload.Gateway, payload.Raw)
		if err != nil {
			// Redis being down must not drop webhooks; process without dedupe.
			s.logger.Warn().Err(err).Str("gateway", payload.Gateway).Msg("webhook dedupe unavailable")
		} else if !claimed {
			return nil, domainErrors.ErrDuplicateWebhook
		}
	}

	resp, err := s.manager.Verify(ctx, payload)
	if err != nil {
		return nil, err
	}

	s.applyWebhook(ctx, payload, resp)
	return resp, nil
}

// applyPayResponse moves a freshly created record to its post-dispatch status.
func (s *PaymentService) applyPayResponse(ctx context.Context, txn *transaction.Transaction, resp *gateway.PaymentResponse) {
	txn.Response = resp.ToMap()
	if resp.GatewayReference != "" {
		txn.GatewayReference = &resp.GatewayReference
	}

	var err error
	switch {
	case !resp.Success:
		err = txn.MarkFailed(resp.Message)
	case resp.RequiresRedirect():
		err = txn.MarkPending(resp.TransactionID, resp.RedirectURL)
	default:
		err = txn.MarkCompleted(resp.TransactionID)
	}
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", txn.OrderID).Msg("record payment outcome")
		return
	}
	if err := s.txnRepo.Update(ctx, txn); err != nil {
		s.logger.Error().Err(err).Str("order_id", txn.OrderID).Msg("persist payment outcome")
	}
}

// applyWebhook finds the transaction a webhook refers to and applies the
// verified status. Unknown or stale events are logged and dropped; webhook
// handling must stay idempotent across redeliveries.
func (s *PaymentService) applyWebhook(ctx context.Context, payload gateway.WebhookPayload, resp *gateway.PaymentResponse) {
	txn, err := s.lookupWebhookTarget(ctx, payload, resp)
	if err != nil {
		if !stderrors.Is(err, domainErrors.ErrTransactionNotFound) {
			s.logger.Error().Err(err).Str("gateway", payload.Gateway).Msg("lookup webhook transaction")
		}
		return
	}

	switch resp.Status {
	case gateway.StatusCompleted:
		if txn.Status == transaction.StatusCompleted {
			return // redelivery of a confirmation already applied
		}
		err = txn.MarkCompleted(resp.TransactionID)
	case gateway.StatusFailed:
		if txn.IsTerminal() {
			return
		}
		err = txn.MarkFailed(resp.Message)
	case gateway.StatusRefunded:
		if txn.Status == transaction.StatusRefunded {
			return
		}
		err = txn.RecordRefund(txn.Remaining())
	default:
		return
	}
	if err != nil {
		s.logger.Warn().Err(err).
			Str("gateway", payload.Gateway).
			Str("order_id", txn.OrderID).
			Str("event_status", resp.Status).
			Msg("webhook does not apply to transaction state")
		return
	}
	if err := s.txnRepo.Update(ctx, txn); err != nil {
		s.logger.Error().Err(err).Str("order_id", txn.OrderID).Msg("persist webhook outcome")
	}
}

// lookupWebhookTarget resolves the transaction a webhook refers to, trying
// the gateway transaction id first and the order id the payload carries next.
func (s *PaymentService) lookupWebhookTarget(ctx context.Context, payload gateway.WebhookPayload, resp *gateway.PaymentResponse) (*transaction.Transaction, error) {
	if resp.TransactionID != "" {
		txn, err := s.txnRepo.GetByGatewayTransactionID(ctx, resp.TransactionID)
		if err == nil {
			return txn, nil
		}
		if !stderrors.Is(err, domainErrors.ErrTransactionNotFound) {
			return nil, err
		}
	}
	if orderID, ok := payload.Payload["order_id"].(string); ok && orderID != "" {
		return s.txnRepo.GetByOrderID(ctx, orderID)
	}
	return nil, domainErrors.ErrTransactionNotFound
}

// recordFailure best-effort marks a record failed after a structural error.
func (s *PaymentService) recordFailure(ctx context.Context, txn *transaction.Transaction, reason string) {
	if err := txn.MarkFailed(reason); err != nil {
		return
	}
	if err := s.txnRepo.Update(ctx, txn); err != nil {
		s.logger.Error().Err(err).Str("order_id", txn.OrderID).Msg("persist dispatch failure")
	}
}
