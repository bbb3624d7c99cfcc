package gateway

// Payment status values reported by gateways, normalized across providers.
const (
	StatusCompleted = "completed"
	StatusPending   = "pending"
	StatusFailed    = "failed"
	StatusRefunded  = "refunded"
)

// PaymentResponse is the normalized result of a pay or verify call. Declined
// payments surface here with Success=false; a response is never an error.
type PaymentResponse struct {
	Success          bool
	TransactionID    string
	RedirectURL      string
	Message          string
	Status           string
	Data             map[string]any
	GatewayReference string
	Amount           *Amount
	Metadata         map[string]any
}

// NewSuccessResponse builds a completed payment response.
func NewSuccessResponse(transactionID, message string) *PaymentResponse {
	return &PaymentResponse{
		Success:       true,
		TransactionID: transactionID,
		Message:       message,
		Status:        StatusCompleted,
	}
}

// NewFailureResponse builds a failed payment response. Business failures
// (declined card, rejected verification) use this, not a returned error.
func NewFailureResponse(message string) *PaymentResponse {
	return &PaymentResponse{
		Success: false,
		Message: message,
		Status:  StatusFailed,
	}
}

// NewRedirectResponse builds a hosted-checkout redirect. A redirect always
// counts as a successful initiation with a pending status.
func NewRedirectResponse(redirectURL, transactionID string) *PaymentResponse {
	return &PaymentResponse{
		Success:       true,
		TransactionID: transactionID,
		RedirectURL:   redirectURL,
		Message:       "redirect required",
		Status:        StatusPending,
	}
}

// WithData attaches raw gateway result data. Intended for use during
// construction only.
func (r *PaymentResponse) WithData(data map[string]any) *PaymentResponse {
	r.Data = data
	return r
}

// WithAmount echoes the charged amount back to the caller.
func (r *PaymentResponse) WithAmount(a Amount) *PaymentResponse {
	r.Amount = &a
	return r
}

// WithGatewayReference records the provider-side reference (order id, intent id).
func (r *PaymentResponse) WithGatewayReference(ref string) *PaymentResponse {
	r.GatewayReference = ref
	return r
}

// WithMetadata attaches caller metadata echoed through the gateway.
func (r *PaymentResponse) WithMetadata(md map[string]any) *PaymentResponse {
	r.Metadata = md
	return r
}

// RequiresRedirect reports whether the caller must redirect the customer.
func (r *PaymentResponse) RequiresRedirect() bool {
	return r.RedirectURL != ""
}

// ToMap flattens the response into a generic map, suitable for JSON
// serialization or persistence. ResponseFromMap reverses it.
func (r *PaymentResponse) ToMap() map[string]any {
	m := map[string]any{
		"success":           r.Success,
		"transaction_id":    r.TransactionID,
		"redirect_url":      r.RedirectURL,
		"message":           r.Message,
		"status":            r.Status,
		"data":              r.Data,
		"gateway_reference": r.GatewayReference,
		"metadata":          r.Metadata,
	}
	if r.Amount != nil {
		m["amount_cents"] = r.Amount.ValueCents
		m["currency"] = r.Amount.Currency
	}
	return m
}

// ResponseFromMap reconstructs a PaymentResponse from a ToMap result. Numeric
// values that went through JSON arrive as float64 and are handled.
func ResponseFromMap(m map[string]any) *PaymentResponse {
	r := &PaymentResponse{
		Success:          asBool(m["success"]),
		TransactionID:    asString(m["transaction_id"]),
		RedirectURL:      asString(m["redirect_url"]),
		Message:          asString(m["message"]),
		Status:           asString(m["status"]),
		GatewayReference: asString(m["gateway_reference"]),
	}
	if data, ok := m["data"].(map[string]any); ok {
		r.Data = data
	}
	if md, ok := m["metadata"].(map[string]any); ok {
		r.Metadata = md
	}
	if cents, ok := asInt64(m["amount_cents"]); ok {
		r.Amount = &Amount{ValueCents: cents, Currency: asString(m["currency"])}
	}
	return r
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}
