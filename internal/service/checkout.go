package service

import (
	"context"
	"fmt"
	"math"
	"net/url"

	"github.com/Shivanand-hulikatti/tour-booking/internal/model"
)

const (
	defaultItemName = "Tour booking"
	maxChargeCents  = 1e12
)

// CheckoutConfig fixes the currency and the client pages Stripe returns to.
type CheckoutConfig struct {
	Currency  string
	ClientURL string
}

// CheckoutService turns a booking into a hosted checkout session.
type CheckoutService struct {
	bookings BookingStore
	provider PaymentProvider
	cfg      CheckoutConfig
}

// NewCheckoutService constructs a CheckoutService.
func NewCheckoutService(bookings BookingStore, provider PaymentProvider, cfg CheckoutConfig) *CheckoutService {
	return &CheckoutService{bookings: bookings, provider: provider, cfg: cfg}
}

// Initiate creates one provider session for the booking and returns where to
// send the customer. Every call creates a new session; the booking itself is
// not modified.
func (s *CheckoutService) Initiate(ctx context.Context, bookingID string) (*model.CheckoutResponse, error) {
	if bookingID == "" {
		return nil, fmt.Errorf("%w: bookingId is required", ErrBadRequest)
	}

	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, translate(err, "load booking", "booking "+bookingID)
	}

	amount, err := ChargeAmount(b)
	if err != nil {
		return nil, err
	}

	name := b.TourName
	if name == "" {
		name = defaultItemName
	}

	sess, err := s.provider.CreateSession(ctx, model.CheckoutSessionRequest{
		Currency:      s.cfg.Currency,
		ItemName:      name,
		UnitAmount:    amount,
		CustomerEmail: b.UserEmail,
		Metadata: model.SessionMetadata{
			BookingID: b.ID,
			TourID:    b.TourID,
			UserEmail: b.UserEmail,
		},
		// Stripe substitutes {CHECKOUT_SESSION_ID} itself.
		SuccessURL: s.cfg.ClientURL + "/payment/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  s.cfg.ClientURL + "/payment/cancelled?bookingId=" + url.QueryEscape(b.ID),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return &model.CheckoutResponse{URL: sess.URL, SessionID: sess.ID}, nil
}

// ChargeAmount derives the amount to charge in minor units: the final price,
// else the pre-discount total, else price per person times guests (at least
// one guest).
func ChargeAmount(b *model.Booking) (int64, error) {
	var major float64
	switch {
	case b.FinalPrice != nil && *b.FinalPrice > 0:
		major = *b.FinalPrice
	case b.OriginalTotal != nil && *b.OriginalTotal > 0:
		major = *b.OriginalTotal
	case b.PricePerPerson != nil:
		guests := b.Guests
		if guests <= 0 {
			guests = 1
		}
		major = *b.PricePerPerson * float64(guests)
	}

	cents := math.Round(major * 100)
	if math.IsNaN(cents) || math.IsInf(cents, 0) || cents <= 0 || cents > maxChargeCents {
		return 0, fmt.Errorf("%w: booking %s has no chargeable price", ErrInvalidAmount, b.ID)
	}
	return int64(cents), nil
}
