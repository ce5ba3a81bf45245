package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/Shivanand-hulikatti/tour-booking/internal/model"
	"github.com/Shivanand-hulikatti/tour-booking/internal/repository"
	"github.com/sirupsen/logrus"
)

var errBoom = errors.New("boom")

// fakeProvider implements PaymentProvider with canned sessions.
type fakeProvider struct {
	mu          sync.Mutex
	sessions    map[string]*model.ProviderSession
	created     []model.CheckoutSessionRequest
	createErr   error
	retrieveErr error
	retrieves   int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{sessions: make(map[string]*model.ProviderSession)}
}

func (f *fakeProvider) CreateSession(_ context.Context, req model.CheckoutSessionRequest) (*model.CheckoutSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, req)
	id := "cs_" + repository.NewID()
	return &model.CheckoutSession{ID: id, URL: "https://checkout.example.com/" + id}, nil
}

func (f *fakeProvider) RetrieveSession(_ context.Context, id string) (*model.ProviderSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.retrieves++
	if f.retrieveErr != nil {
		return nil, f.retrieveErr
	}
	s, ok := f.sessions[id]
	if !ok {
		return nil, errors.New("no such checkout session")
	}
	cp := *s
	return &cp, nil
}

func (f *fakeProvider) createdCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created)
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []model.PaymentConfirmedEvent
	err    error
}

func (p *recordingPublisher) PublishPaymentConfirmed(_ context.Context, evt model.PaymentConfirmedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return p.err
}

// countingPayments wraps a PaymentStore and counts writes.
type countingPayments struct {
	PaymentStore
	mu        sync.Mutex
	inserts   int
	insertErr error
}

func (c *countingPayments) Insert(ctx context.Context, p *model.Payment) error {
	c.mu.Lock()
	c.inserts++
	err := c.insertErr
	c.mu.Unlock()
	if err != nil {
		return err
	}
	return c.PaymentStore.Insert(ctx, p)
}

// countingBookings wraps a BookingStore and counts MarkPaid calls.
type countingBookings struct {
	BookingStore
	mu        sync.Mutex
	markPaid  int
	markErr   error
	lookupErr error
}

func (c *countingBookings) MarkPaid(ctx context.Context, id, tx string, now time.Time) error {
	c.mu.Lock()
	c.markPaid++
	err := c.markErr
	c.mu.Unlock()
	if err != nil {
		return err
	}
	return c.BookingStore.MarkPaid(ctx, id, tx, now)
}

func (c *countingBookings) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	if c.lookupErr != nil {
		return nil, c.lookupErr
	}
	return c.BookingStore.GetByID(ctx, id)
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func ptr[T any](v T) *T { return &v }

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// racingPayments misses on the first lookup and lets a competing request
// record winner just before Insert runs.
type racingPayments struct {
	PaymentStore
	winner  *model.Payment
	lookups int
}

func (r *racingPayments) GetByTransactionID(ctx context.Context, transactionID string) (*model.Payment, error) {
	r.lookups++
	if r.lookups == 1 {
		return nil, repository.ErrNotFound
	}
	return r.PaymentStore.GetByTransactionID(ctx, transactionID)
}

func (r *racingPayments) Insert(ctx context.Context, p *model.Payment) error {
	if err := r.PaymentStore.Insert(ctx, r.winner); err != nil {
		return err
	}
	return r.PaymentStore.Insert(ctx, p)
}
