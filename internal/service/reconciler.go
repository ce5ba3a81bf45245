package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Shivanand-hulikatti/tour-booking/internal/model"
	"github.com/Shivanand-hulikatti/tour-booking/internal/repository"
	"github.com/sirupsen/logrus"
)

const providerStatusPaid = "paid"

// Reconciler confirms checkout sessions and propagates the outcome into the
// payment and booking stores.
//
// At-most-one payment per transaction id is enforced by the payment store's
// unique key, not by any lock in this process. The payment is written before
// the booking so that a retry after a partial failure always stops at the
// existing payment instead of recording a second one.
type Reconciler struct {
	bookings BookingStore
	payments PaymentStore
	provider PaymentProvider
	events   EventPublisher
	log      logrus.FieldLogger
	now      func() time.Time
}

// NewReconciler constructs a Reconciler. events may be nil.
func NewReconciler(
	bookings BookingStore,
	payments PaymentStore,
	provider PaymentProvider,
	events EventPublisher,
	log logrus.FieldLogger,
) *Reconciler {
	return &Reconciler{
		bookings: bookings,
		payments: payments,
		provider: provider,
		events:   events,
		log:      log,
		now:      utcNow,
	}
}

// Confirm reconciles one checkout session.
func (r *Reconciler) Confirm(ctx context.Context, sessionID string) (*model.ReconciliationResult, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: sessionId is required", ErrBadRequest)
	}

	sess, err := r.provider.RetrieveSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if sess == nil {
		return nil, fmt.Errorf("%w: session %s not found", ErrUpstream, sessionID)
	}

	log := r.log.WithFields(logrus.Fields{
		"session_id":     sessionID,
		"transaction_id": sess.PaymentIntentID,
		"booking_id":     sess.Metadata.BookingID,
		"payment_status": sess.PaymentStatus,
	})

	if sess.PaymentIntentID != "" {
		existing, err := r.payments.GetByTransactionID(ctx, sess.PaymentIntentID)
		switch {
		case err == nil:
			log.Info("payment already recorded")
			return alreadyRecorded(existing), nil
		case !errors.Is(err, repository.ErrNotFound):
			return nil, fmt.Errorf("look up payment: %w", err)
		}
	}

	if sess.PaymentStatus != providerStatusPaid {
		log.Info("session not paid")
		return &model.ReconciliationResult{
			Outcome:       model.OutcomeNotPaid,
			TransactionID: sess.PaymentIntentID,
			PaymentStatus: sess.PaymentStatus,
		}, nil
	}
	if sess.PaymentIntentID == "" {
		return nil, fmt.Errorf("%w: paid session %s has no payment intent", ErrBadRequest, sessionID)
	}

	userEmail := sess.Metadata.UserEmail
	if userEmail == "" {
		userEmail = sess.CustomerEmail
	}
	now := r.now()
	p := &model.Payment{
		ID:            repository.NewID(),
		TransactionID: sess.PaymentIntentID,
		BookingID:     sess.Metadata.BookingID,
		TourID:        sess.Metadata.TourID,
		UserEmail:     userEmail,
		Amount:        sess.AmountTotal,
		Currency:      sess.Currency,
		PaymentStatus: sess.PaymentStatus,
		CreatedAt:     now,
	}
	if err := r.payments.Insert(ctx, p); err != nil {
		if !errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("record payment: %w", err)
		}
		// A concurrent confirm for the same session won the insert.
		existing, err := r.payments.GetByTransactionID(ctx, p.TransactionID)
		if err != nil {
			return nil, fmt.Errorf("load concurrently recorded payment: %w", err)
		}
		log.Info("payment recorded by concurrent request")
		return alreadyRecorded(existing), nil
	}

	result := &model.ReconciliationResult{
		Outcome:       model.OutcomeConfirmed,
		TransactionID: p.TransactionID,
		PaymentID:     p.ID,
		PaymentStatus: p.PaymentStatus,
		Payment:       p,
	}

	if p.BookingID != "" {
		b, err := r.confirmBooking(ctx, log, p.BookingID, p.TransactionID, now)
		if err != nil {
			return nil, err
		}
		result.Booking = b
	}

	log.WithField("amount", p.Amount).Info("payment confirmed")
	r.publish(ctx, log, p)
	return result, nil
}

// confirmBooking marks the booking paid and re-reads it. A booking that has
// vanished or was already paid by another transaction is logged, not failed:
// the payment is already recorded at this point.
func (r *Reconciler) confirmBooking(ctx context.Context, log logrus.FieldLogger, bookingID, transactionID string, now time.Time) (*model.Booking, error) {
	err := r.bookings.MarkPaid(ctx, bookingID, transactionID, now)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrNotFound):
		log.Warn("payment recorded for missing booking")
		return nil, nil
	case errors.Is(err, repository.ErrAlreadyPaid):
		log.Warn("booking already paid by another transaction")
	default:
		return nil, fmt.Errorf("confirm booking %s: %w", bookingID, err)
	}

	b, err := r.bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("reload booking %s: %w", bookingID, err)
	}
	return b, nil
}

func (r *Reconciler) publish(ctx context.Context, log logrus.FieldLogger, p *model.Payment) {
	if r.events == nil {
		return
	}
	err := r.events.PublishPaymentConfirmed(ctx, model.PaymentConfirmedEvent{
		OccurredAt:    p.CreatedAt,
		PaymentID:     p.ID,
		TransactionID: p.TransactionID,
		BookingID:     p.BookingID,
		TourID:        p.TourID,
		UserEmail:     p.UserEmail,
		Amount:        p.Amount,
		Currency:      p.Currency,
	})
	if err != nil {
		log.WithError(err).Error("publish payment.confirmed")
	}
}

func alreadyRecorded(p *model.Payment) *model.ReconciliationResult {
	return &model.ReconciliationResult{
		Outcome:       model.OutcomeAlreadyRecorded,
		TransactionID: p.TransactionID,
		PaymentID:     p.ID,
		PaymentStatus: p.PaymentStatus,
		Payment:       p,
	}
}
