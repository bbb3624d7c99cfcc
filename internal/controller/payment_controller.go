package controller

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mdiqbalhossan/paygate/internal/domain/transaction"
	"github.com/mdiqbalhossan/paygate/internal/gateway"
	"github.com/mdiqbalhossan/paygate/internal/service"
)

// PaymentController handles payment-related HTTP requests.
type PaymentController struct {
	payments *service.PaymentService
	manager  *gateway.Manager
}

// NewPaymentController creates a new PaymentController.
func NewPaymentController(payments *service.PaymentService, manager *gateway.Manager) *PaymentController {
	return &PaymentController{payments: payments, manager: manager}
}

// InitiatePayment handles POST /api/v1/payments.
// A declined payment is a 200 with success=false; only structural failures
// map to error statuses.
func (h *PaymentController) InitiatePayment(w http.ResponseWriter, r *http.Request) {
	var req InitiatePaymentRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.payments.InitiatePayment(r.Context(), req.Gateway, req.ToPaymentRequest())
	if err != nil {
		writeError(w, err)
		return
	}

	status := http.StatusCreated
	if !result.Response.Success || result.Response.RequiresRedirect() {
		status = http.StatusOK
	}
	writeJSON(w, status, FromOutcome(result.Transaction, result.Response))
}

// GetPayment handles GET /api/v1/payments/{orderID}.
func (h *PaymentController) GetPayment(w http.ResponseWriter, r *http.Request) {
	txn, err := h.payments.GetPayment(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, FromTransaction(txn))
}

// ListPayments handles GET /api/v1/payments.
func (h *PaymentController) ListPayments(w http.ResponseWriter, r *http.Request) {
	filter := transaction.ListFilter{
		Gateway: r.URL.Query().Get("gateway"),
		Status:  transaction.Status(r.URL.Query().Get("status")),
	}
	filter.Limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	filter.Offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))

	txns, err := h.payments.ListPayments(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]*TransactionResponse, 0, len(txns))
	for _, t := range txns {
		resp = append(resp, FromTransaction(t))
	}
	writeJSON(w, http.StatusOK, resp)
}

// RefundPayment handles POST /api/v1/payments/{orderID}/refund.
func (h *PaymentController) RefundPayment(w http.ResponseWriter, r *http.Request) {
	var req RefundRequest
	if r.ContentLength > 0 {
		if err := decodeAndValidate(r, &req); err != nil {
			writeError(w, err)
			return
		}
	}

	txn, err := h.payments.Refund(r.Context(), chi.URLParam(r, "orderID"), floatToCents(req.Amount))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, FromTransaction(txn))
}

// ListGateways handles GET /api/v1/gateways.
func (h *PaymentController) ListGateways(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, GatewayListResponse{
		Default:  h.manager.DefaultGateway(),
		Gateways: h.manager.AvailableGateways(),
	})
}
