package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Shivanand-hulikatti/tour-booking/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRepository handles persistence for user accounts.
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository constructs a UserRepository.
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, role, profile, created_at, updated_at`

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	if err := row.Scan(&u.ID, &u.Email, &u.Role, &u.Profile, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// profileFields maps the set fields of c to their document keys.
func profileFields(c model.ProfileChanges) map[string]string {
	fields := make(map[string]string)
	put := func(key string, v *string) {
		if v != nil {
			fields[key] = *v
		}
	}
	put("name", c.Name)
	put("photoUrl", c.PhotoURL)
	put("phone", c.Phone)
	put("country", c.Country)
	put("travelStyle", c.TravelStyle)
	put("bio", c.Bio)
	return fields
}

// Upsert inserts u if its email is new, otherwise merges the non-empty
// profile fields into the existing account. Role and creation time are only
// written on insert. It is a single conditional write.
func (r *UserRepository) Upsert(ctx context.Context, u *model.User) (*model.User, error) {
	saved, err := scanUser(r.db.QueryRow(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (email) DO UPDATE
		 SET profile = users.profile || EXCLUDED.profile,
		     updated_at = EXCLUDED.updated_at
		 RETURNING `+userColumns,
		u.ID, u.Email, u.Role, u.Profile, u.CreatedAt, u.UpdatedAt,
	))
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return saved, nil
}

// GetByEmail returns a single user or ErrNotFound.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// List returns all users, newest first.
func (r *UserRepository) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// UpdateProfile merges the set fields of c into the stored profile. Email
// and role are not touched.
func (r *UserRepository) UpdateProfile(ctx context.Context, email string, c model.ProfileChanges, now time.Time) (*model.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx,
		`UPDATE users SET profile = profile || $2::jsonb, updated_at = $3
		 WHERE email = $1
		 RETURNING `+userColumns,
		email, profileFields(c), now,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update user profile: %w", err)
	}
	return u, nil
}

// Count returns the number of accounts.
func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}
