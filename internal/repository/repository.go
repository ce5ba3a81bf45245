// Package repository implements persistence for bookings, payments and users.
// The Postgres repositories use pgx directly (no ORM); Mongo and in-memory
// variants satisfy the same method sets.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/tour-booking/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert hits a unique key.
var ErrDuplicate = errors.New("duplicate key")

// ErrAlreadyPaid is returned when a paid booking is asked to be marked paid again.
var ErrAlreadyPaid = errors.New("booking already paid")

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// NewID returns a fresh record identifier.
func NewID() string {
	return uuid.New().String()
}

// BookingRepository handles persistence for bookings.
type BookingRepository struct {
	db *pgxpool.Pool
}

// NewBookingRepository constructs a BookingRepository.
func NewBookingRepository(db *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{db: db}
}

const bookingColumns = `id, tour_id, tour_name, user_email, user_name, travel_date, guests,
	price_per_person, original_total, final_price, coupon_code,
	status, payment_status, transaction_id, created_at, updated_at`

func scanBooking(row pgx.Row) (*model.Booking, error) {
	var b model.Booking
	err := row.Scan(
		&b.ID, &b.TourID, &b.TourName, &b.UserEmail, &b.UserName, &b.TravelDate, &b.Guests,
		&b.PricePerPerson, &b.OriginalTotal, &b.FinalPrice, &b.CouponCode,
		&b.Status, &b.PaymentStatus, &b.TransactionID, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Create inserts a booking. The caller assigns ID and timestamps.
func (r *BookingRepository) Create(ctx context.Context, b *model.Booking) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO bookings (`+bookingColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		b.ID, b.TourID, b.TourName, b.UserEmail, b.UserName, b.TravelDate, b.Guests,
		b.PricePerPerson, b.OriginalTotal, b.FinalPrice, b.CouponCode,
		b.Status, b.PaymentStatus, b.TransactionID, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

// GetByID returns a single booking or ErrNotFound.
func (r *BookingRepository) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	b, err := scanBooking(r.db.QueryRow(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get booking: %w", err)
	}
	return b, nil
}

// List returns bookings matching f, newest first.
func (r *BookingRepository) List(ctx context.Context, f model.BookingFilter) ([]model.Booking, error) {
	var (
		where []string
		args  []any
	)
	if f.UserEmail != "" {
		args = append(args, f.UserEmail)
		where = append(where, fmt.Sprintf("user_email = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}

	q := `SELECT ` + bookingColumns + ` FROM bookings`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	var bookings []model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

// Update applies the set fields of c and returns the stored booking.
func (r *BookingRepository) Update(ctx context.Context, id string, c model.BookingChanges, now time.Time) (*model.Booking, error) {
	var (
		sets []string
		args []any
	)
	set := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if c.TravelDate != nil {
		set("travel_date", *c.TravelDate)
	}
	if c.Guests != nil {
		set("guests", *c.Guests)
	}
	if c.PricePerPerson != nil {
		set("price_per_person", *c.PricePerPerson)
	}
	if c.OriginalTotal != nil {
		set("original_total", *c.OriginalTotal)
	}
	if c.FinalPrice != nil {
		set("final_price", *c.FinalPrice)
	}
	if c.CouponCode != nil {
		set("coupon_code", *c.CouponCode)
	}
	if c.Status != nil {
		set("status", *c.Status)
	}
	set("updated_at", now)
	args = append(args, id)

	b, err := scanBooking(r.db.QueryRow(ctx,
		fmt.Sprintf(`UPDATE bookings SET %s WHERE id = $%d RETURNING %s`,
			strings.Join(sets, ", "), len(args), bookingColumns),
		args...,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update booking: %w", err)
	}
	return b, nil
}

// MarkPaid flips an unpaid booking to paid/confirmed and records the
// transaction. It returns ErrAlreadyPaid if the booking was paid before.
func (r *BookingRepository) MarkPaid(ctx context.Context, id, transactionID string, now time.Time) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE bookings
		 SET payment_status = $2, status = $3, transaction_id = $4, updated_at = $5
		 WHERE id = $1 AND payment_status <> $2`,
		id, model.PaymentPaid, model.BookingConfirmed, transactionID, now,
	)
	if err != nil {
		return fmt.Errorf("mark booking paid: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return ErrAlreadyPaid
}

// Delete removes a booking or returns ErrNotFound.
func (r *BookingRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the number of bookings with the given status, or all
// bookings when status is empty.
func (r *BookingRepository) Count(ctx context.Context, status model.BookingStatus) (int64, error) {
	var n int64
	var err error
	if status == "" {
		err = r.db.QueryRow(ctx, `SELECT COUNT(*) FROM bookings`).Scan(&n)
	} else {
		err = r.db.QueryRow(ctx, `SELECT COUNT(*) FROM bookings WHERE status = $1`, status).Scan(&n)
	}
	if err != nil {
		return 0, fmt.Errorf("count bookings: %w", err)
	}
	return n, nil
}

// MonthlyCounts buckets bookings created at or after since by UTC calendar
// month. Months without bookings are not returned.
func (r *BookingRepository) MonthlyCounts(ctx context.Context, since time.Time) ([]model.MonthlyCount, error) {
	rows, err := r.db.Query(ctx,
		`SELECT EXTRACT(YEAR FROM created_at AT TIME ZONE 'UTC')::int AS y,
		        EXTRACT(MONTH FROM created_at AT TIME ZONE 'UTC')::int AS m,
		        COUNT(*)
		 FROM bookings
		 WHERE created_at >= $1
		 GROUP BY y, m
		 ORDER BY y, m`,
		since,
	)
	if err != nil {
		return nil, fmt.Errorf("monthly booking counts: %w", err)
	}
	defer rows.Close()

	var out []model.MonthlyCount
	for rows.Next() {
		var mc model.MonthlyCount
		if err := rows.Scan(&mc.Year, &mc.Month, &mc.Count); err != nil {
			return nil, fmt.Errorf("scan monthly count: %w", err)
		}
		out = append(out, mc)
	}
	return out, rows.Err()
}
