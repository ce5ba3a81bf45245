package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Shivanand-hulikatti/tour-booking/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PaymentRepository handles persistence for payments. Rows are never updated.
type PaymentRepository struct {
	db *pgxpool.Pool
}

// NewPaymentRepository constructs a PaymentRepository.
func NewPaymentRepository(db *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{db: db}
}

const paymentColumns = `id, transaction_id, booking_id, tour_id, user_email,
	amount, currency, payment_status, created_at`

func scanPayment(row pgx.Row) (*model.Payment, error) {
	var p model.Payment
	err := row.Scan(&p.ID, &p.TransactionID, &p.BookingID, &p.TourID, &p.UserEmail,
		&p.Amount, &p.Currency, &p.PaymentStatus, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Insert stores a payment. A second insert for the same transaction id is
// rejected by the unique index and reported as ErrDuplicate.
func (r *PaymentRepository) Insert(ctx context.Context, p *model.Payment) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO payments (`+paymentColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		p.ID, p.TransactionID, p.BookingID, p.TourID, p.UserEmail,
		p.Amount, p.Currency, p.PaymentStatus, p.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

// GetByTransactionID returns the payment for a provider transaction or ErrNotFound.
func (r *PaymentRepository) GetByTransactionID(ctx context.Context, transactionID string) (*model.Payment, error) {
	p, err := scanPayment(r.db.QueryRow(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE transaction_id = $1`, transactionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get payment: %w", err)
	}
	return p, nil
}

// List returns payments matching f, newest first.
func (r *PaymentRepository) List(ctx context.Context, f model.PaymentFilter) ([]model.Payment, error) {
	q := `SELECT ` + paymentColumns + ` FROM payments`
	var args []any
	if f.UserEmail != "" {
		args = append(args, f.UserEmail)
		q += ` WHERE user_email = $1`
	}
	q += ` ORDER BY created_at DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		q += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var payments []model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		payments = append(payments, *p)
	}
	return payments, rows.Err()
}

// SumAmount totals the amount of every recorded payment.
func (r *PaymentRepository) SumAmount(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0)::bigint FROM payments`).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum payments: %w", err)
	}
	return total, nil
}
