package handler

import (
	"net/http"

	"github.com/Shivanand-hulikatti/tour-booking/internal/model"
	"github.com/Shivanand-hulikatti/tour-booking/internal/service"
)

// PaymentHandler serves checkout, confirmation and payment history.
type PaymentHandler struct {
	checkout   *service.CheckoutService
	reconciler *service.Reconciler
	payments   *service.PaymentService
}

// NewPaymentHandler constructs a PaymentHandler.
func NewPaymentHandler(checkout *service.CheckoutService, reconciler *service.Reconciler, payments *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{checkout: checkout, reconciler: reconciler, payments: payments}
}

// Checkout handles POST /payments/checkout
func (h *PaymentHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req model.CheckoutRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	resp, err := h.checkout.Initiate(r.Context(), req.BookingID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Confirm handles POST /payments/confirm with {"sessionId": ...}.
func (h *PaymentHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	var req model.ConfirmPaymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	h.confirm(w, r, req.SessionID)
}

// ConfirmRedirect handles GET /payments/confirm?session_id=..., the shape of
// the provider's success redirect.
func (h *PaymentHandler) ConfirmRedirect(w http.ResponseWriter, r *http.Request) {
	h.confirm(w, r, r.URL.Query().Get("session_id"))
}

func (h *PaymentHandler) confirm(w http.ResponseWriter, r *http.Request, sessionID string) {
	res, err := h.reconciler.Confirm(r.Context(), sessionID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// List handles GET /payments?userEmail=&limit=
func (h *PaymentHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	payments, err := h.payments.ListPayments(r.Context(), model.PaymentFilter{
		UserEmail: r.URL.Query().Get("userEmail"),
		Limit:     limit,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if payments == nil {
		payments = []model.Payment{}
	}
	writeJSON(w, http.StatusOK, payments)
}
