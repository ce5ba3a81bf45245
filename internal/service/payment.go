package service

import (
	"context"
	"fmt"

	"github.com/Shivanand-hulikatti/tour-booking/internal/model"
)

// PaymentService exposes payment history.
type PaymentService struct {
	payments PaymentStore
}

// NewPaymentService constructs a PaymentService.
func NewPaymentService(payments PaymentStore) *PaymentService {
	return &PaymentService{payments: payments}
}

// ListPayments returns payments, newest first, optionally for one user.
func (s *PaymentService) ListPayments(ctx context.Context, f model.PaymentFilter) ([]model.Payment, error) {
	f.UserEmail = normalizeEmail(f.UserEmail)
	if f.Limit < 0 || f.Limit > maxListLimit {
		return nil, fmt.Errorf("%w: limit must be between 0 and %d", ErrBadRequest, maxListLimit)
	}
	payments, err := s.payments.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return payments, nil
}
