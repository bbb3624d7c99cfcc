package controller

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	domainErrors "github.com/mdiqbalhossan/paygate/internal/domain/errors"
	"github.com/mdiqbalhossan/paygate/internal/gateway"
	"github.com/mdiqbalhossan/paygate/internal/service"
)

const maxWebhookBodySize = 1 << 20

// signatureHeaders are the header names providers deliver signatures under,
// checked in order.
var signatureHeaders = []string{
	"X-Razorpay-Signature",
	"Stripe-Signature",
	"X-Webhook-Signature",
	"X-Signature",
}

// WebhookController ingests provider webhooks.
type WebhookController struct {
	payments *service.PaymentService
}

// NewWebhookController creates a new WebhookController.
func NewWebhookController(payments *service.PaymentService) *WebhookController {
	return &WebhookController{payments: payments}
}

// Handle processes POST /payments/webhook/{gateway}. The raw body is kept
// verbatim for signature verification; providers sign the exact bytes sent.
func (h *WebhookController) Handle(w http.ResponseWriter, r *http.Request) {
	gatewayName := chi.URLParam(r, "gateway")

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodySize))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "unreadable body", Code: "invalid_payload"})
		return
	}

	var data map[string]any
	if err := json.Unmarshal(body, &data); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "malformed JSON payload", Code: "invalid_payload"})
		return
	}

	payload := gateway.WebhookPayload{
		Gateway:   gatewayName,
		Payload:   data,
		Headers:   flattenHeaders(r.Header),
		Signature: extractSignature(r.Header),
		Raw:       body,
	}

	resp, err := h.payments.HandleWebhook(r.Context(), payload)
	if err != nil {
		if errors.Is(err, domainErrors.ErrDuplicateWebhook) {
			// Redeliveries are acknowledged so providers stop retrying.
			writeJSON(w, http.StatusOK, WebhookResult{Status: "duplicate"})
			return
		}
		writeError(w, err)
		return
	}

	result := WebhookResult{Status: "success", Message: resp.Message}
	if !resp.Success {
		result.Status = "failed"
	}
	log.Info().
		Str("gateway", gatewayName).
		Str("status", result.Status).
		Msg("webhook processed")
	writeJSON(w, http.StatusOK, result)
}

func extractSignature(h http.Header) string {
	for _, name := range signatureHeaders {
		if v := h.Get(name); v != "" {
			return v
		}
	}
	return ""
}

func flattenHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k := range h {
		out[k] = h.Get(k)
	}
	return out
}
