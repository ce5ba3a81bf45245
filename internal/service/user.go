package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/tour-booking/internal/model"
	"github.com/Shivanand-hulikatti/tour-booking/internal/repository"
)

// UserService manages accounts keyed by email.
type UserService struct {
	users UserStore
	now   func() time.Time
}

// NewUserService constructs a UserService.
func NewUserService(users UserStore) *UserService {
	return &UserService{users: users, now: utcNow}
}

// SaveUser is the login/registration path: insert with the default role if
// the email is new, otherwise refresh the supplied profile fields.
func (s *UserService) SaveUser(ctx context.Context, req model.SaveUserRequest) (*model.User, error) {
	email := normalizeEmail(req.Email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrBadRequest)
	}
	if !isValidEmail(email) {
		return nil, fmt.Errorf("%w: email is not a valid email address", ErrBadRequest)
	}

	now := s.now()
	u, err := s.users.Upsert(ctx, &model.User{
		ID:    repository.NewID(),
		Email: email,
		Role:  model.RoleUser,
		Profile: model.Profile{
			Name:        strings.TrimSpace(req.Name),
			PhotoURL:    strings.TrimSpace(req.PhotoURL),
			Phone:       strings.TrimSpace(req.Phone),
			Country:     strings.TrimSpace(req.Country),
			TravelStyle: strings.TrimSpace(req.TravelStyle),
			Bio:         strings.TrimSpace(req.Bio),
		},
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("save user: %w", err)
	}
	return u, nil
}

// GetUser returns the account for email.
func (s *UserService) GetUser(ctx context.Context, email string) (*model.User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrBadRequest)
	}
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, translate(err, "get user", "user "+email)
	}
	return u, nil
}

// GetRole returns the role for email.
func (s *UserService) GetRole(ctx context.Context, email string) (model.Role, error) {
	u, err := s.GetUser(ctx, email)
	if err != nil {
		return "", err
	}
	return u.Role, nil
}

// ListUsers returns every account.
func (s *UserService) ListUsers(ctx context.Context) ([]model.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// UpdateProfile edits profile fields. Email and role in the request are
// dropped here so a client can never rewrite its identity or privileges.
func (s *UserService) UpdateProfile(ctx context.Context, email string, req model.UpdateProfileRequest) (*model.User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrBadRequest)
	}

	c := model.ProfileChanges{
		Name:        trimmed(req.Name),
		PhotoURL:    trimmed(req.PhotoURL),
		Phone:       trimmed(req.Phone),
		Country:     trimmed(req.Country),
		TravelStyle: trimmed(req.TravelStyle),
		Bio:         trimmed(req.Bio),
	}
	if c.Empty() {
		return nil, fmt.Errorf("%w: no profile fields to update", ErrBadRequest)
	}

	u, err := s.users.UpdateProfile(ctx, email, c, s.now())
	if err != nil {
		return nil, translate(err, "update profile", "user "+email)
	}
	return u, nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
