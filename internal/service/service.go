// Package service implements business logic, validation, and orchestration
// between HTTP handlers and the repository layer.
package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/tour-booking/internal/model"
	"github.com/Shivanand-hulikatti/tour-booking/internal/repository"
)

const maxListLimit = 500

// BookingService orchestrates booking CRUD.
type BookingService struct {
	bookings BookingStore
	now      func() time.Time
}

// NewBookingService constructs a BookingService with its dependencies.
func NewBookingService(bookings BookingStore) *BookingService {
	return &BookingService{bookings: bookings, now: utcNow}
}

func utcNow() time.Time { return time.Now().UTC() }

// CreateBooking validates the request and stores a pending, unpaid booking.
func (s *BookingService) CreateBooking(ctx context.Context, req model.CreateBookingRequest) (*model.Booking, error) {
	ie := newInputError()

	req.TourID = strings.TrimSpace(req.TourID)
	if req.TourID == "" {
		ie.add("tourId", "tourId is required")
	}
	req.UserEmail = normalizeEmail(req.UserEmail)
	switch {
	case req.UserEmail == "":
		ie.add("userEmail", "userEmail is required")
	case !isValidEmail(req.UserEmail):
		ie.add("userEmail", "userEmail is not a valid email address")
	}

	var travelDate time.Time
	if strings.TrimSpace(req.TravelDate) == "" {
		ie.add("travelDate", "travelDate is required")
	} else if d, err := parseTravelDate(req.TravelDate); err != nil {
		ie.add("travelDate", "travelDate must be YYYY-MM-DD or RFC 3339")
	} else {
		travelDate = d
	}

	if req.Guests < 0 {
		ie.add("guests", "guests must not be negative")
	}
	checkPrice(ie, "pricePerPerson", req.PricePerPerson)
	checkPrice(ie, "originalTotal", req.OriginalTotal)
	checkPrice(ie, "finalPrice", req.FinalPrice)

	if err := ie.orNil(); err != nil {
		return nil, err
	}

	guests := req.Guests
	if guests == 0 {
		guests = 1
	}
	now := s.now()
	b := &model.Booking{
		ID:             repository.NewID(),
		TourID:         req.TourID,
		TourName:       strings.TrimSpace(req.TourName),
		UserEmail:      req.UserEmail,
		UserName:       strings.TrimSpace(req.UserName),
		TravelDate:     travelDate,
		Guests:         guests,
		PricePerPerson: req.PricePerPerson,
		OriginalTotal:  req.OriginalTotal,
		FinalPrice:     req.FinalPrice,
		CouponCode:     strings.TrimSpace(req.CouponCode),
		Status:         model.BookingPending,
		PaymentStatus:  model.PaymentUnpaid,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.bookings.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}
	return b, nil
}

// ListBookings returns bookings, newest first.
func (s *BookingService) ListBookings(ctx context.Context, f model.BookingFilter) ([]model.Booking, error) {
	f.UserEmail = normalizeEmail(f.UserEmail)
	if f.Status != "" && !f.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrBadRequest, f.Status)
	}
	if f.Limit < 0 || f.Limit > maxListLimit {
		return nil, fmt.Errorf("%w: limit must be between 0 and %d", ErrBadRequest, maxListLimit)
	}
	bookings, err := s.bookings.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return bookings, nil
}

// GetBooking returns a single booking by ID.
func (s *BookingService) GetBooking(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: booking id is required", ErrBadRequest)
	}
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, "get booking", "booking "+id)
	}
	return b, nil
}

// UpdateBooking applies a partial update. Payment fields are owned by the
// reconciler and the only status a client may set is cancelled.
func (s *BookingService) UpdateBooking(ctx context.Context, id string, req model.UpdateBookingRequest) (*model.Booking, error) {
	ie := newInputError()
	var c model.BookingChanges

	if req.TravelDate != nil {
		d, err := parseTravelDate(*req.TravelDate)
		if err != nil {
			ie.add("travelDate", "travelDate must be YYYY-MM-DD or RFC 3339")
		} else {
			c.TravelDate = &d
		}
	}
	if req.Guests != nil {
		if *req.Guests < 1 {
			ie.add("guests", "guests must be at least 1")
		}
		c.Guests = req.Guests
	}
	checkPrice(ie, "pricePerPerson", req.PricePerPerson)
	checkPrice(ie, "originalTotal", req.OriginalTotal)
	checkPrice(ie, "finalPrice", req.FinalPrice)
	c.PricePerPerson, c.OriginalTotal, c.FinalPrice = req.PricePerPerson, req.OriginalTotal, req.FinalPrice
	if req.CouponCode != nil {
		code := strings.TrimSpace(*req.CouponCode)
		c.CouponCode = &code
	}
	if req.Status != nil {
		if *req.Status != model.BookingCancelled {
			ie.add("status", "status may only be set to cancelled")
		}
		c.Status = req.Status
	}

	if err := ie.orNil(); err != nil {
		return nil, err
	}
	if c.Empty() {
		return nil, fmt.Errorf("%w: no fields to update", ErrBadRequest)
	}

	b, err := s.bookings.Update(ctx, id, c, s.now())
	if err != nil {
		return nil, translate(err, "update booking", "booking "+id)
	}
	return b, nil
}

// DeleteBooking removes a booking.
func (s *BookingService) DeleteBooking(ctx context.Context, id string) error {
	if err := s.bookings.Delete(ctx, id); err != nil {
		return translate(err, "delete booking", "booking "+id)
	}
	return nil
}

func parseTravelDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	return time.Parse(time.DateOnly, s)
}

func checkPrice(ie *InputError, field string, v *float64) {
	if v == nil {
		return
	}
	if math.IsNaN(*v) || math.IsInf(*v, 0) || *v < 0 {
		ie.add(field, field+" must be a non-negative number")
	}
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

// isValidEmail does a basic structural check (no external deps).
func isValidEmail(email string) bool {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return false
	}
	return len(parts[0]) > 0 && strings.Contains(parts[1], ".")
}
