package service

import (
	"context"
	"time"

	"github.com/Shivanand-hulikatti/tour-booking/internal/model"
)

// BookingStore is the persistence the booking flows need. Implemented by the
// Postgres, Mongo and in-memory repositories.
type BookingStore interface {
	Create(ctx context.Context, b *model.Booking) error
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	List(ctx context.Context, f model.BookingFilter) ([]model.Booking, error)
	Update(ctx context.Context, id string, c model.BookingChanges, now time.Time) (*model.Booking, error)
	MarkPaid(ctx context.Context, id, transactionID string, now time.Time) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context, status model.BookingStatus) (int64, error)
	MonthlyCounts(ctx context.Context, since time.Time) ([]model.MonthlyCount, error)
}

// PaymentStore must reject a second Insert for the same transaction id with
// repository.ErrDuplicate.
type PaymentStore interface {
	Insert(ctx context.Context, p *model.Payment) error
	GetByTransactionID(ctx context.Context, transactionID string) (*model.Payment, error)
	List(ctx context.Context, f model.PaymentFilter) ([]model.Payment, error)
	SumAmount(ctx context.Context) (int64, error)
}

type UserStore interface {
	Upsert(ctx context.Context, u *model.User) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	UpdateProfile(ctx context.Context, email string, c model.ProfileChanges, now time.Time) (*model.User, error)
	Count(ctx context.Context) (int64, error)
}

// PaymentProvider is the hosted checkout backend.
type PaymentProvider interface {
	CreateSession(ctx context.Context, req model.CheckoutSessionRequest) (*model.CheckoutSession, error)
	RetrieveSession(ctx context.Context, sessionID string) (*model.ProviderSession, error)
}

// EventPublisher announces confirmed payments to other systems.
type EventPublisher interface {
	PublishPaymentConfirmed(ctx context.Context, evt model.PaymentConfirmedEvent) error
}
