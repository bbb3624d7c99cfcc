package gateway

// WebhookPayload is the envelope handed to the dispatcher for an incoming
// gateway notification: the raw decoded body, the transport headers and the
// declared signature, if any.
type WebhookPayload struct {
	Gateway   string
	Payload   map[string]any
	Headers   map[string]string
	Signature string

	// Raw preserves the body bytes as delivered. Signature schemes are
	// computed over the raw body, not the decoded map.
	Raw []byte
}

// HasSignature reports whether the delivery declared a signature.
func (p WebhookPayload) HasSignature() bool {
	return p.Signature != ""
}

// Header returns a header value; lookup is exact-match on the canonical key
// the controller stored.
func (p WebhookPayload) Header(key string) string {
	return p.Headers[key]
}
