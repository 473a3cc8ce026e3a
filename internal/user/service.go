package user

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/vmontano/taller-booking-backend/internal/auth"
)

// Service defines business logic related to users.
type Service interface {
	Register(ctx context.Context, phone, password string) (*User, error)
	Login(ctx context.Context, phone, password string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	List(ctx context.Context, filter Filter) ([]*User, int, error)
	SetAdmin(ctx context.Context, id string, isAdmin bool) (*User, error)
	Update(ctx context.Context, id, phone, password string) (*User, error)
	Delete(ctx context.Context, id string) error
}

// Local numbers are exactly 8 digits.
var phonePattern = regexp.MustCompile(`^\d{8}$`)

const minPasswordLength = 6

type service struct {
	repo   Repository
	hasher auth.PasswordHasher
}

// NewService creates a new user Service.
func NewService(repo Repository, hasher auth.PasswordHasher) Service {
	return &service{repo: repo, hasher: hasher}
}

func (s *service) Register(ctx context.Context, phone, password string) (*User, error) {
	if !phonePattern.MatchString(phone) {
		return nil, ErrInvalidPhone
	}
	if len(password) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}

	// Check if the phone is already registered.
	_, err := s.repo.GetByPhone(ctx, phone)
	if err == nil {
		return nil, ErrPhoneAlreadyUsed
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing phone: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u := &User{
		Phone:        phone,
		PasswordHash: hash,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return u, nil
}

func (s *service) Login(ctx context.Context, phone, password string) (*User, error) {
	if phone == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	u, err := s.repo.GetByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := s.hasher.Compare(u.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter Filter) ([]*User, int, error) {
	return s.repo.List(ctx, filter)
}

// Update changes a user's phone and/or password. Empty fields are left
// untouched.
func (s *service) Update(ctx context.Context, id, phone, password string) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if phone != "" && phone != u.Phone {
		if !phonePattern.MatchString(phone) {
			return nil, ErrInvalidPhone
		}
		existing, err := s.repo.GetByPhone(ctx, phone)
		if err == nil && existing.ID != id {
			return nil, ErrPhoneAlreadyUsed
		}
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("failed to check existing phone: %w", err)
		}
		u.Phone = phone
	}

	if password != "" {
		if len(password) < minPasswordLength {
			return nil, ErrPasswordTooShort
		}
		hash, err := s.hasher.Hash(password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		u.PasswordHash = hash
	}

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func (s *service) SetAdmin(ctx context.Context, id string, isAdmin bool) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	u.IsAdmin = isAdmin
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}
