package gateway

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSuccessResponse(t *testing.T) {
	resp := NewSuccessResponse("txn_1", "ok")

	assert.True(t, resp.Success)
	assert.Equal(t, "txn_1", resp.TransactionID)
	assert.Equal(t, StatusCompleted, resp.Status)
	assert.False(t, resp.RequiresRedirect())
}

func TestNewFailureResponse(t *testing.T) {
	resp := NewFailureResponse("card declined")

	assert.False(t, resp.Success)
	assert.Equal(t, StatusFailed, resp.Status)
	assert.Equal(t, "card declined", resp.Message)
	assert.False(t, resp.RequiresRedirect())
}

func TestNewRedirectResponse_ImpliesSuccess(t *testing.T) {
	resp := NewRedirectResponse("https://checkout.example.com/s/abc", "txn_2")

	assert.True(t, resp.Success)
	assert.True(t, resp.RequiresRedirect())
	assert.Equal(t, StatusPending, resp.Status)
	assert.Equal(t, "https://checkout.example.com/s/abc", resp.RedirectURL)
}

func TestPaymentResponse_ToMap_RoundTrip(t *testing.T) {
	original := NewSuccessResponse("txn_42", "captured").
		WithAmount(Amount{ValueCents: 9900, Currency: "USD"}).
		WithGatewayReference("ref_42").
		WithData(map[string]any{"order_id": "order-42"}).
		WithMetadata(map[string]any{"plan": "pro"})

	restored := ResponseFromMap(original.ToMap())

	assert.Equal(t, original.Success, restored.Success)
	assert.Equal(t, original.TransactionID, restored.TransactionID)
	assert.Equal(t, original.RedirectURL, restored.RedirectURL)
	assert.Equal(t, original.Message, restored.Message)
	assert.Equal(t, original.Status, restored.Status)
	assert.Equal(t, original.GatewayReference, restored.GatewayReference)
	assert.Equal(t, original.Data, restored.Data)
	assert.Equal(t, original.Metadata, restored.Metadata)
	require.NotNil(t, restored.Amount)
	assert.Equal(t, int64(9900), restored.Amount.ValueCents)
	assert.Equal(t, "USD", restored.Amount.Currency)
}

func TestResponseFromMap_AfterJSON(t *testing.T) {
	// Going through JSON turns int64 into float64; reconstruction must cope.
	original := NewRedirectResponse("https://pay.example.com", "txn_7").
		WithAmount(Amount{ValueCents: 1500, Currency: "EUR"})

	raw, err := json.Marshal(original.ToMap())
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))

	restored := ResponseFromMap(m)
	assert.True(t, restored.Success)
	assert.True(t, restored.RequiresRedirect())
	require.NotNil(t, restored.Amount)
	assert.Equal(t, int64(1500), restored.Amount.ValueCents)
}

func TestResponseFromMap_MissingAmount(t *testing.T) {
	restored := ResponseFromMap(map[string]any{
		"success": false,
		"message": "declined",
		"status":  StatusFailed,
	})

	assert.False(t, restored.Success)
	assert.Nil(t, restored.Amount)
}
