// Package payment adapts Stripe Checkout to the provider contract used by
// the checkout and reconciliation services.
package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/Shivanand-hulikatti/tour-booking/internal/model"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// Metadata keys written on every session.
const (
	MetaBookingID = "bookingId"
	MetaTourID    = "tourId"
	MetaUserEmail = "userEmail"
)

// ErrNotConfigured is returned when no secret key was supplied.
var ErrNotConfigured = errors.New("stripe secret key not configured")

// Stripe talks to the Stripe API through an injected client.
type Stripe struct {
	api *client.API
}

// NewStripe builds a provider for secretKey. backends may be nil to use the
// live Stripe endpoints.
func NewStripe(secretKey string, backends *stripe.Backends) *Stripe {
	if secretKey == "" {
		return &Stripe{}
	}
	return &Stripe{api: client.New(secretKey, backends)}
}

// CreateSession opens a hosted checkout page with a single line item.
func (s *Stripe) CreateSession(ctx context.Context, req model.CheckoutSessionRequest) (*model.CheckoutSession, error) {
	if s.api == nil {
		return nil, ErrNotConfigured
	}

	params := &stripe.CheckoutSessionParams{
		Mode:          stripe.String(string(stripe.CheckoutSessionModePayment)),
		CustomerEmail: stripe.String(req.CustomerEmail),
		SuccessURL:    stripe.String(req.SuccessURL),
		CancelURL:     stripe.String(req.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(req.Currency),
					UnitAmount: stripe.Int64(req.UnitAmount),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.ItemName),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.Context = ctx
	addMetadata(&params.Params, req.Metadata)

	sess, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	return &model.CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

// RetrieveSession fetches the current state of a checkout session.
func (s *Stripe) RetrieveSession(ctx context.Context, sessionID string) (*model.ProviderSession, error) {
	if s.api == nil {
		return nil, ErrNotConfigured
	}

	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	sess, err := s.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("retrieve checkout session %s: %w", sessionID, err)
	}

	out := &model.ProviderSession{
		ID:            sess.ID,
		AmountTotal:   sess.AmountTotal,
		Currency:      string(sess.Currency),
		PaymentStatus: string(sess.PaymentStatus),
		CustomerEmail: sess.CustomerEmail,
		Metadata: model.SessionMetadata{
			BookingID: sess.Metadata[MetaBookingID],
			TourID:    sess.Metadata[MetaTourID],
			UserEmail: sess.Metadata[MetaUserEmail],
		},
	}
	if sess.PaymentIntent != nil {
		out.PaymentIntentID = sess.PaymentIntent.ID
	}
	if out.CustomerEmail == "" && sess.CustomerDetails != nil {
		out.CustomerEmail = sess.CustomerDetails.Email
	}
	return out, nil
}

func addMetadata(p *stripe.Params, m model.SessionMetadata) {
	for k, v := range map[string]string{
		MetaBookingID: m.BookingID,
		MetaTourID:    m.TourID,
		MetaUserEmail: m.UserEmail,
	} {
		if v != "" {
			p.AddMetadata(k, v)
		}
	}
}
