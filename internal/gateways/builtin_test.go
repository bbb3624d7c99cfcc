package gateways

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdiqbalhossan/paygate/internal/gateway"
)

func TestRegisterBuiltins(t *testing.T) {
	reg := gateway.NewRegistry(nil)
	require.NoError(t, RegisterBuiltins(reg))

	names := reg.List()
	assert.Len(t, names, len(Roster()))
	assert.Contains(t, names, "stripe")
	assert.Contains(t, names, "razorpay")
	assert.Contains(t, names, "sslcommerz")
}

func TestRegisterBuiltins_StubsHonorContract(t *testing.T) {
	reg := gateway.NewRegistry(nil)
	require.NoError(t, RegisterBuiltins(reg))

	req := &gateway.PaymentRequest{
		OrderID:       "order-1",
		Amount:        gateway.Amount{ValueCents: 5000, Currency: "USD"},
		CustomerEmail: "buyer@example.com",
	}

	// Hosted-checkout stubs redirect.
	stripe, err := reg.Resolve("stripe")
	require.NoError(t, err)
	resp, err := stripe.Pay(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.True(t, resp.RequiresRedirect())

	// Server-to-server stubs complete immediately.
	adyen, err := reg.Resolve("adyen")
	require.NoError(t, err)
	resp, err = adyen.Pay(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.False(t, resp.RequiresRedirect())
	assert.NotEmpty(t, resp.TransactionID)

	// Providers without a refund API say so.
	ssl, err := reg.Resolve("sslcommerz")
	require.NoError(t, err)
	assert.False(t, ssl.SupportsRefund())
}

func TestRegisterBuiltins_ConfiguredMode(t *testing.T) {
	configs := func(name string) (gateway.Config, bool) {
		if name == "stripe" {
			return gateway.Config{Enabled: true, Mode: gateway.ModeSandbox}, true
		}
		return gateway.Config{}, false
	}
	reg := gateway.NewRegistry(configs)
	require.NoError(t, RegisterBuiltins(reg))

	gw, err := reg.Resolve("stripe")
	require.NoError(t, err)
	assert.Equal(t, gateway.ModeSandbox, gw.Mode())
}
