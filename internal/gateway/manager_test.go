package gateway

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainErrors "github.com/mdiqbalhossan/paygate/internal/domain/errors"
)

func validRequest() *PaymentRequest {
	return &PaymentRequest{
		OrderID:       "order-1",
		Amount:        Amount{ValueCents: 5000, Currency: "USD"},
		CustomerEmail: "buyer@example.com",
	}
}

func managerWith(t *testing.T, gateways ...Gateway) *Manager {
	t.Helper()
	reg := NewRegistry(nil)
	for _, gw := range gateways {
		gw := gw
		require.NoError(t, reg.Register(gw.Name(), func() Gateway { return gw }))
	}
	return NewManager(reg)
}

func TestManager_Pay_Success(t *testing.T) {
	gw := newTestGateway("stripe")
	m := managerWith(t, gw)

	resp, err := m.Pay(context.Background(), "stripe", validRequest())
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.TransactionID)
}

func TestManager_Pay_InvalidRequest(t *testing.T) {
	m := managerWith(t, newTestGateway("stripe"))

	req := validRequest()
	req.Amount.ValueCents = 0

	_, err := m.Pay(context.Background(), "stripe", req)
	var verr *domainErrors.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestManager_Pay_UnknownGateway(t *testing.T) {
	m := managerWith(t, newTestGateway("stripe"))

	_, err := m.Pay(context.Background(), "ghost", validRequest())
	assert.ErrorIs(t, err, domainErrors.ErrGatewayNotFound)
}

func TestManager_Pay_DeclinedIsNotAnError(t *testing.T) {
	gw := newTestGateway("stripe")
	gw.payResp = NewFailureResponse("insufficient funds")
	m := managerWith(t, gw)

	resp, err := m.Pay(context.Background(), "stripe", validRequest())
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, "insufficient funds", resp.Message)
}

func TestManager_Pay_CircuitOpensAfterRepeatedFailures(t *testing.T) {
	gw := newTestGateway("flaky")
	gw.payResp = nil
	gw.payErr = domainErrors.ErrNetwork
	m := managerWith(t, gw)

	// Trip the breaker: it opens once 10 requests have been seen with a
	// failure ratio of at least 60%.
	var lastErr error
	for i := 0; i < 12; i++ {
		_, lastErr = m.Pay(context.Background(), "flaky", validRequest())
	}
	assert.ErrorIs(t, lastErr, domainErrors.ErrGatewayUnavailable)
}

func TestManager_Pay_DefaultGateway(t *testing.T) {
	gw := newTestGateway("paypal")
	m := managerWith(t, gw)
	require.NoError(t, m.SetDefaultGateway("paypal"))

	resp, err := m.Pay(context.Background(), "", validRequest())
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "paypal", m.DefaultGateway())
}

func TestManager_Verify_NoSignatureCapability(t *testing.T) {
	gw := newTestGateway("paytm")
	m := managerWith(t, gw)

	resp, err := m.Verify(context.Background(), WebhookPayload{
		Gateway: "paytm",
		Payload: map[string]any{"status": "success"},
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)
}

func TestManager_Verify_BadSignature(t *testing.T) {
	gw := &signedTestGateway{testGateway: newTestGateway("razorpay"), acceptSignature: "good_sig"}
	m := managerWith(t, gw)

	_, err := m.Verify(context.Background(), WebhookPayload{
		Gateway:   "razorpay",
		Payload:   map[string]any{"status": "success"},
		Signature: "bad_sig",
	})
	assert.ErrorIs(t, err, domainErrors.ErrInvalidSignature)
}

func TestManager_Verify_MissingRequiredSignature(t *testing.T) {
	gw := &signedTestGateway{testGateway: newTestGateway("razorpay"), acceptSignature: "good_sig"}
	m := managerWith(t, gw)

	_, err := m.Verify(context.Background(), WebhookPayload{
		Gateway: "razorpay",
		Payload: map[string]any{"status": "success"},
	})
	assert.ErrorIs(t, err, domainErrors.ErrInvalidSignature)
}

func TestManager_Verify_GoodSignature(t *testing.T) {
	gw := &signedTestGateway{testGateway: newTestGateway("razorpay"), acceptSignature: "good_sig"}
	m := managerWith(t, gw)

	resp, err := m.Verify(context.Background(), WebhookPayload{
		Gateway:   "razorpay",
		Payload:   map[string]any{"status": "success"},
		Signature: "good_sig",
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)
}

func TestManager_Refund_NotSupported(t *testing.T) {
	gw := newTestGateway("sslcommerz")
	gw.supportsRefund = false
	m := managerWith(t, gw)

	refunded, err := m.Refund(context.Background(), "sslcommerz", "txn_1", 2500)
	assert.False(t, refunded)
	assert.ErrorIs(t, err, &domainErrors.RefundError{Reason: domainErrors.RefundNotSupported})
}

func TestManager_Refund_Success(t *testing.T) {
	m := managerWith(t, newTestGateway("stripe"))

	refunded, err := m.Refund(context.Background(), "stripe", "txn_1", 2500)
	require.NoError(t, err)
	assert.True(t, refunded)
}

func TestManager_Refund_DeclinedIsFalseNotError(t *testing.T) {
	gw := newTestGateway("stripe")
	gw.refundOK = false
	m := managerWith(t, gw)

	refunded, err := m.Refund(context.Background(), "stripe", "txn_1", 2500)
	require.NoError(t, err)
	assert.False(t, refunded)
}

func TestManager_Refund_InvalidArguments(t *testing.T) {
	m := managerWith(t, newTestGateway("stripe"))

	var verr *domainErrors.ValidationError

	_, err := m.Refund(context.Background(), "stripe", "", 2500)
	assert.ErrorAs(t, err, &verr)

	_, err = m.Refund(context.Background(), "stripe", "txn_1", 0)
	assert.ErrorAs(t, err, &verr)
}

func TestManager_Refund_CircuitOpensAfterRepeatedFailures(t *testing.T) {
	gw := newTestGateway("flaky")
	gw.refundOK = false
	gw.refundErr = domainErrors.ErrNetwork
	m := managerWith(t, gw)

	var lastErr error
	for i := 0; i < 12; i++ {
		_, lastErr = m.Refund(context.Background(), "flaky", "txn_1", 2500)
	}
	assert.ErrorIs(t, lastErr, domainErrors.ErrGatewayUnavailable)
}

func TestManager_PayFailuresOpenCircuitForRefunds(t *testing.T) {
	gw := newTestGateway("flaky")
	gw.payResp = nil
	gw.payErr = domainErrors.ErrNetwork
	m := managerWith(t, gw)

	for i := 0; i < 12; i++ {
		m.Pay(context.Background(), "flaky", validRequest())
	}

	_, err := m.Refund(context.Background(), "flaky", "txn_1", 2500)
	assert.ErrorIs(t, err, domainErrors.ErrGatewayUnavailable)
}

func TestManager_SupportsRefund(t *testing.T) {
	gw := newTestGateway("instamojo")
	gw.supportsRefund = false
	m := managerWith(t, gw, newTestGateway("stripe"))

	ok, err := m.SupportsRefund("stripe")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = m.SupportsRefund("instamojo")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestManager_OutcomeHooks(t *testing.T) {
	gw := newTestGateway("stripe")
	m := managerWith(t, gw)

	var outcomes []Outcome
	m.OnOutcome(func(o Outcome) { outcomes = append(outcomes, o) })

	_, err := m.Pay(context.Background(), "stripe", validRequest())
	require.NoError(t, err)
	_, err = m.Verify(context.Background(), WebhookPayload{Gateway: "stripe", Payload: map[string]any{}})
	require.NoError(t, err)
	_, err = m.Refund(context.Background(), "stripe", "txn_1", 100)
	require.NoError(t, err)

	require.Len(t, outcomes, 3)
	assert.Equal(t, OpPay, outcomes[0].Operation)
	assert.Equal(t, OpVerify, outcomes[1].Operation)
	assert.Equal(t, OpRefund, outcomes[2].Operation)
	assert.True(t, outcomes[2].Refunded)
	for _, o := range outcomes {
		assert.Equal(t, "stripe", o.Gateway)
	}
}

func TestManager_OutcomeHook_SeesErrors(t *testing.T) {
	gw := newTestGateway("stripe")
	gw.payResp = nil
	gw.payErr = domainErrors.ErrGatewayFailure
	m := managerWith(t, gw)

	var got Outcome
	m.OnOutcome(func(o Outcome) { got = o })

	_, err := m.Pay(context.Background(), "stripe", validRequest())
	require.Error(t, err)
	assert.True(t, errors.Is(got.Err, domainErrors.ErrGatewayFailure))
}

func TestManager_AvailableGateways(t *testing.T) {
	m := managerWith(t, newTestGateway("stripe"), newTestGateway("adyen"))

	assert.Equal(t, []string{"adyen", "stripe"}, m.AvailableGateways())
}
