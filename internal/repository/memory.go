package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Shivanand-hulikatti/tour-booking/internal/model"
)

// MemoryDB keeps all three collections in process. It backs local runs with
// STORE_DRIVER=memory and the service tests. Every method takes the single
// mutex, which plays the role of the unique indexes in the real stores.
type MemoryDB struct {
	mu       sync.Mutex
	bookings map[string]*model.Booking
	payments map[string]*model.Payment // keyed by transaction id
	users    map[string]*model.User    // keyed by email
}

// NewMemoryDB returns an empty in-memory store.
func NewMemoryDB() *MemoryDB {
	return &MemoryDB{
		bookings: make(map[string]*model.Booking),
		payments: make(map[string]*model.Payment),
		users:    make(map[string]*model.User),
	}
}

// Bookings returns the booking view of the store.
func (db *MemoryDB) Bookings() *MemoryBookingRepository { return &MemoryBookingRepository{db: db} }

// Payments returns the payment view of the store.
func (db *MemoryDB) Payments() *MemoryPaymentRepository { return &MemoryPaymentRepository{db: db} }

// Users returns the user view of the store.
func (db *MemoryDB) Users() *MemoryUserRepository { return &MemoryUserRepository{db: db} }

func nonEmptyProfile(p model.Profile) model.ProfileChanges {
	var c model.ProfileChanges
	opt := func(s string) *string {
		if s == "" {
			return nil
		}
		return &s
	}
	c.Name = opt(p.Name)
	c.PhotoURL = opt(p.PhotoURL)
	c.Phone = opt(p.Phone)
	c.Country = opt(p.Country)
	c.TravelStyle = opt(p.TravelStyle)
	c.Bio = opt(p.Bio)
	return c
}

func limited[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}

// ─── Bookings ────────────────────────────────────────────────────────────────

type MemoryBookingRepository struct{ db *MemoryDB }

func (r *MemoryBookingRepository) Create(_ context.Context, b *model.Booking) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.bookings[b.ID]; ok {
		return ErrDuplicate
	}
	cp := *b
	r.db.bookings[b.ID] = &cp
	return nil
}

func (r *MemoryBookingRepository) GetByID(_ context.Context, id string) (*model.Booking, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	b, ok := r.db.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *MemoryBookingRepository) List(_ context.Context, f model.BookingFilter) ([]model.Booking, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var out []model.Booking
	for _, b := range r.db.bookings {
		if f.UserEmail != "" && b.UserEmail != f.UserEmail {
			continue
		}
		if f.Status != "" && b.Status != f.Status {
			continue
		}
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return limited(out, f.Limit), nil
}

func (r *MemoryBookingRepository) Update(_ context.Context, id string, c model.BookingChanges, now time.Time) (*model.Booking, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	b, ok := r.db.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	if c.TravelDate != nil {
		b.TravelDate = *c.TravelDate
	}
	if c.Guests != nil {
		b.Guests = *c.Guests
	}
	if c.PricePerPerson != nil {
		v := *c.PricePerPerson
		b.PricePerPerson = &v
	}
	if c.OriginalTotal != nil {
		v := *c.OriginalTotal
		b.OriginalTotal = &v
	}
	if c.FinalPrice != nil {
		v := *c.FinalPrice
		b.FinalPrice = &v
	}
	if c.CouponCode != nil {
		b.CouponCode = *c.CouponCode
	}
	if c.Status != nil {
		b.Status = *c.Status
	}
	b.UpdatedAt = now
	cp := *b
	return &cp, nil
}

func (r *MemoryBookingRepository) MarkPaid(_ context.Context, id, transactionID string, now time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	b, ok := r.db.bookings[id]
	if !ok {
		return ErrNotFound
	}
	if b.PaymentStatus == model.PaymentPaid {
		return ErrAlreadyPaid
	}
	b.PaymentStatus = model.PaymentPaid
	b.Status = model.BookingConfirmed
	b.TransactionID = transactionID
	b.UpdatedAt = now
	return nil
}

func (r *MemoryBookingRepository) Delete(_ context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.bookings[id]; !ok {
		return ErrNotFound
	}
	delete(r.db.bookings, id)
	return nil
}

func (r *MemoryBookingRepository) Count(_ context.Context, status model.BookingStatus) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var n int64
	for _, b := range r.db.bookings {
		if status == "" || b.Status == status {
			n++
		}
	}
	return n, nil
}

func (r *MemoryBookingRepository) MonthlyCounts(_ context.Context, since time.Time) ([]model.MonthlyCount, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	type key struct{ year, month int }
	counts := make(map[key]int64)
	for _, b := range r.db.bookings {
		if b.CreatedAt.Before(since) {
			continue
		}
		t := b.CreatedAt.UTC()
		counts[key{t.Year(), int(t.Month())}]++
	}

	out := make([]model.MonthlyCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, model.MonthlyCount{Year: k.year, Month: k.month, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	return out, nil
}

// ─── Payments ────────────────────────────────────────────────────────────────

type MemoryPaymentRepository struct{ db *MemoryDB }

func (r *MemoryPaymentRepository) Insert(_ context.Context, p *model.Payment) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.payments[p.TransactionID]; ok {
		return ErrDuplicate
	}
	cp := *p
	r.db.payments[p.TransactionID] = &cp
	return nil
}

func (r *MemoryPaymentRepository) GetByTransactionID(_ context.Context, transactionID string) (*model.Payment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	p, ok := r.db.payments[transactionID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *MemoryPaymentRepository) List(_ context.Context, f model.PaymentFilter) ([]model.Payment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var out []model.Payment
	for _, p := range r.db.payments {
		if f.UserEmail != "" && p.UserEmail != f.UserEmail {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return limited(out, f.Limit), nil
}

func (r *MemoryPaymentRepository) SumAmount(_ context.Context) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var total int64
	for _, p := range r.db.payments {
		total += p.Amount
	}
	return total, nil
}

// ─── Users ───────────────────────────────────────────────────────────────────

type MemoryUserRepository struct{ db *MemoryDB }

func (r *MemoryUserRepository) Upsert(_ context.Context, u *model.User) (*model.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	existing, ok := r.db.users[u.Email]
	if !ok {
		cp := *u
		r.db.users[u.Email] = &cp
		out := cp
		return &out, nil
	}
	nonEmptyProfile(u.Profile).Apply(&existing.Profile)
	existing.UpdatedAt = u.UpdatedAt
	out := *existing
	return &out, nil
}

func (r *MemoryUserRepository) GetByEmail(_ context.Context, email string) (*model.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	u, ok := r.db.users[email]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *MemoryUserRepository) List(_ context.Context) ([]model.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	out := make([]model.User, 0, len(r.db.users))
	for _, u := range r.db.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryUserRepository) UpdateProfile(_ context.Context, email string, c model.ProfileChanges, now time.Time) (*model.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	u, ok := r.db.users[email]
	if !ok {
		return nil, ErrNotFound
	}
	c.Apply(&u.Profile)
	u.UpdatedAt = now
	cp := *u
	return &cp, nil
}

func (r *MemoryUserRepository) Count(_ context.Context) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	return int64(len(r.db.users)), nil
}
