package handler

import (
	"net/http"

	"github.com/Shivanand-hulikatti/tour-booking/internal/model"
	"github.com/Shivanand-hulikatti/tour-booking/internal/service"
	"github.com/go-chi/chi/v5"
)

// BookingHandler serves the /bookings routes.
type BookingHandler struct {
	svc *service.BookingService
}

// NewBookingHandler constructs a BookingHandler.
func NewBookingHandler(svc *service.BookingService) *BookingHandler {
	return &BookingHandler{svc: svc}
}

// Create handles POST /bookings
func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateBookingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	b, err := h.svc.CreateBooking(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

// List handles GET /bookings?userEmail=&status=&limit=
func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	q := r.URL.Query()
	bookings, err := h.svc.ListBookings(r.Context(), model.BookingFilter{
		UserEmail: q.Get("userEmail"),
		Status:    model.BookingStatus(q.Get("status")),
		Limit:     limit,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if bookings == nil {
		bookings = []model.Booking{}
	}
	writeJSON(w, http.StatusOK, bookings)
}

// Get handles GET /bookings/{id}
func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	b, err := h.svc.GetBooking(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// Update handles PATCH /bookings/{id}
// Cancelling is a PATCH with status "cancelled".
func (h *BookingHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateBookingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	b, err := h.svc.UpdateBooking(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// Delete handles DELETE /bookings/{id}
func (h *BookingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteBooking(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
