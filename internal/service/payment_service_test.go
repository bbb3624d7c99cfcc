package service_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainErrors "github.com/mdiqbalhossan/paygate/internal/domain/errors"
	"github.com/mdiqbalhossan/paygate/internal/domain/transaction"
	"github.com/mdiqbalhossan/paygate/internal/gateway"
	"github.com/mdiqbalhossan/paygate/internal/gateways/stub"
	"github.com/mdiqbalhossan/paygate/internal/service"
	"github.com/mdiqbalhossan/paygate/internal/testutil"
)

func newService(t *testing.T, opts ...stub.Option) (*service.PaymentService, *testutil.MockTransactionRepository) {
	t.Helper()

	reg := gateway.NewRegistry(nil)
	require.NoError(t, reg.Register("stripe", func() gateway.Gateway {
		return stub.New("stripe", opts...)
	}))
	require.NoError(t, reg.SetDefault("stripe"))

	repo := testutil.NewMockTransactionRepository()
	mgr := gateway.NewManager(reg)
	return service.NewPaymentService(mgr, repo, testutil.NewMockDeduper(), zerolog.Nop()), repo
}

func paymentRequest() *gateway.PaymentRequest {
	return &gateway.PaymentRequest{
		OrderID:       "order-1",
		Amount:        gateway.Amount{ValueCents: 10000, Currency: "USD"},
		CustomerEmail: "jane@example.com",
	}
}

func TestInitiatePayment_Success(t *testing.T) {
	svc, repo := newService(t)

	result, err := svc.InitiatePayment(context.Background(), "stripe", paymentRequest())
	require.NoError(t, err)
	assert.True(t, result.Response.Success)
	assert.Equal(t, transaction.StatusCompleted, result.Transaction.Status)

	stored, err := repo.GetByOrderID(context.Background(), "order-1")
	require.NoError(t, err)
	assert.Equal(t, transaction.StatusCompleted, stored.Status)
	require.NotNil(t, stored.GatewayTransactionID)
	assert.Equal(t, result.Response.TransactionID, *stored.GatewayTransactionID)
}

func TestInitiatePayment_DeclineIsStoredNotErrored(t *testing.T) {
	svc, repo := newService(t, stub.WithDecline("insufficient funds"))

	result, err := svc.InitiatePayment(context.Background(), "stripe", paymentRequest())
	require.NoError(t, err)
	assert.False(t, result.Response.Success)

	stored, err := repo.GetByOrderID(context.Background(), "order-1")
	require.NoError(t, err)
	assert.Equal(t, transaction.StatusFailed, stored.Status)
	require.NotNil(t, stored.Message)
	assert.Equal(t, "insufficient funds", *stored.Message)
}

func TestInitiatePayment_RedirectStoredAsPending(t *testing.T) {
	svc, repo := newService(t, stub.WithHostedCheckout("https://checkout.example.com"))

	result, err := svc.InitiatePayment(context.Background(), "stripe", paymentRequest())
	require.NoError(t, err)
	assert.True(t, result.Response.RequiresRedirect())

	stored, err := repo.GetByOrderID(context.Background(), "order-1")
	require.NoError(t, err)
	assert.Equal(t, transaction.StatusPending, stored.Status)
	require.NotNil(t, stored.RedirectURL)
}

func TestInitiatePayment_UnknownGatewayLeavesNoRecord(t *testing.T) {
	svc, repo := newService(t)

	_, err := svc.InitiatePayment(context.Background(), "nope", paymentRequest())
	assert.ErrorIs(t, err, domainErrors.ErrGatewayNotFound)

	_, err = repo.GetByOrderID(context.Background(), "order-1")
	assert.ErrorIs(t, err, domainErrors.ErrTransactionNotFound)
}

func TestInitiatePayment_EmptyNameUsesDefault(t *testing.T) {
	svc, _ := newService(t)

	result, err := svc.InitiatePayment(context.Background(), "", paymentRequest())
	require.NoError(t, err)
	assert.Equal(t, "stripe", result.Transaction.Gateway)
}

func TestRefund_FullAndPartial(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.InitiatePayment(context.Background(), "stripe", paymentRequest())
	require.NoError(t, err)

	txn, err := svc.Refund(context.Background(), "order-1", 4000)
	require.NoError(t, err)
	assert.Equal(t, transaction.StatusCompleted, txn.Status)
	assert.Equal(t, int64(6000), txn.Remaining())

	// Zero amount refunds whatever is left.
	txn, err = svc.Refund(context.Background(), "order-1", 0)
	require.NoError(t, err)
	assert.Equal(t, transaction.StatusRefunded, txn.Status)
}

func TestRefund_AmountExceedsCapture(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.InitiatePayment(context.Background(), "stripe", paymentRequest())
	require.NoError(t, err)

	_, err = svc.Refund(context.Background(), "order-1", 20000)
	var refundErr *domainErrors.RefundError
	require.ErrorAs(t, err, &refundErr)
	assert.Equal(t, domainErrors.RefundAmountMismatch, refundErr.Reason)
}

func TestRefund_NotCompleted(t *testing.T) {
	svc, _ := newService(t, stub.WithDecline("declined"))

	_, err := svc.InitiatePayment(context.Background(), "stripe", paymentRequest())
	require.NoError(t, err)

	_, err = svc.Refund(context.Background(), "order-1", 0)
	var refundErr *domainErrors.RefundError
	require.ErrorAs(t, err, &refundErr)
	assert.Equal(t, domainErrors.RefundFailed, refundErr.Reason)
}

func TestRefund_UnknownOrder(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.Refund(context.Background(), "missing", 0)
	assert.ErrorIs(t, err, domainErrors.ErrTransactionNotFound)
}

func webhookFor(t *testing.T, gatewayName, txnID, status string) gateway.WebhookPayload {
	t.Helper()
	payload := map[string]any{"transaction_id": txnID, "status": status}
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return gateway.WebhookPayload{Gateway: gatewayName, Payload: payload, Raw: raw}
}

func TestHandleWebhook_CompletesPendingTransaction(t *testing.T) {
	svc, repo := newService(t, stub.WithHostedCheckout("https://checkout.example.com"))

	result, err := svc.InitiatePayment(context.Background(), "stripe", paymentRequest())
	require.NoError(t, err)
	txnID := result.Response.TransactionID

	payload := webhookFor(t, "stripe", txnID, "paid")
	payload.Payload["order_id"] = "order-1"

	resp, err := svc.HandleWebhook(context.Background(), payload)
	require.NoError(t, err)
	assert.True(t, resp.Success)

	stored, err := repo.GetByOrderID(context.Background(), "order-1")
	require.NoError(t, err)
	assert.Equal(t, transaction.StatusCompleted, stored.Status)
}

func TestHandleWebhook_DuplicateDelivery(t *testing.T) {
	svc, _ := newService(t, stub.WithHostedCheckout("https://checkout.example.com"))

	result, err := svc.InitiatePayment(context.Background(), "stripe", paymentRequest())
	require.NoError(t, err)

	payload := webhookFor(t, "stripe", result.Response.TransactionID, "paid")

	_, err = svc.HandleWebhook(context.Background(), payload)
	require.NoError(t, err)

	_, err = svc.HandleWebhook(context.Background(), payload)
	assert.ErrorIs(t, err, domainErrors.ErrDuplicateWebhook)
}

func TestHandleWebhook_RefundEventFlipsStatus(t *testing.T) {
	svc, repo := newService(t)

	result, err := svc.InitiatePayment(context.Background(), "stripe", paymentRequest())
	require.NoError(t, err)

	payload := webhookFor(t, "stripe", result.Response.TransactionID, "refunded")
	_, err = svc.HandleWebhook(context.Background(), payload)
	require.NoError(t, err)

	stored, err := repo.GetByOrderID(context.Background(), "order-1")
	require.NoError(t, err)
	assert.Equal(t, transaction.StatusRefunded, stored.Status)
}

func TestHandleWebhook_UnknownTransactionIsDropped(t *testing.T) {
	svc, _ := newService(t)

	payload := webhookFor(t, "stripe", "txn-unknown", "paid")
	resp, err := svc.HandleWebhook(context.Background(), payload)
	require.NoError(t, err)
	assert.True(t, resp.Success)
}
