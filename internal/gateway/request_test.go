package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainErrors "github.com/mdiqbalhossan/paygate/internal/domain/errors"
)

func TestNewPaymentRequest_Valid(t *testing.T) {
	req, err := NewPaymentRequest("order-1", Amount{ValueCents: 5000, Currency: "USD"}, "buyer@example.com")

	require.NoError(t, err)
	assert.Equal(t, "order-1", req.OrderID)
	assert.Equal(t, int64(5000), req.Amount.ValueCents)
	assert.NotNil(t, req.Metadata)
}

func TestPaymentRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*PaymentRequest)
		wantErr string
	}{
		{
			name:    "zero amount",
			mutate:  func(r *PaymentRequest) { r.Amount.ValueCents = 0 },
			wantErr: "amount",
		},
		{
			name:    "negative amount",
			mutate:  func(r *PaymentRequest) { r.Amount.ValueCents = -100 },
			wantErr: "amount",
		},
		{
			name:    "bad currency length",
			mutate:  func(r *PaymentRequest) { r.Amount.Currency = "USDT" },
			wantErr: "currency",
		},
		{
			name:    "empty currency",
			mutate:  func(r *PaymentRequest) { r.Amount.Currency = "" },
			wantErr: "currency",
		},
		{
			name:    "missing order id",
			mutate:  func(r *PaymentRequest) { r.OrderID = "" },
			wantErr: "OrderID",
		},
		{
			name:    "bad email",
			mutate:  func(r *PaymentRequest) { r.CustomerEmail = "not-an-email" },
			wantErr: "CustomerEmail",
		},
		{
			name:    "bad callback url",
			mutate:  func(r *PaymentRequest) { r.CallbackURL = "::not a url" },
			wantErr: "CallbackURL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &PaymentRequest{
				OrderID:       "order-9",
				Amount:        Amount{ValueCents: 1250, Currency: "EUR"},
				CustomerEmail: "buyer@example.com",
			}
			tt.mutate(req)

			err := req.Validate()
			require.Error(t, err)

			var verr *domainErrors.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Field, tt.wantErr)
		})
	}
}

func TestAmount_String(t *testing.T) {
	assert.Equal(t, "50.00 USD", Amount{ValueCents: 5000, Currency: "USD"}.String())
	assert.Equal(t, "0.05 EUR", Amount{ValueCents: 5, Currency: "EUR"}.String())
	assert.Equal(t, "12.34 BDT", Amount{ValueCents: 1234, Currency: "BDT"}.String())
}
