package user

import (
	"errors"
	"time"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrPhoneAlreadyUsed   = errors.New("phone already registered")
	ErrInvalidCredentials = errors.New("invalid phone or password")
	ErrInvalidPhone       = errors.New("phone must be exactly 8 digits")
	ErrPasswordTooShort   = errors.New("password must be at least 6 characters")
	ErrHasAppointments    = errors.New("user has appointment history")
)

// User represents a registered customer (or administrator) identified by
// phone number.
type User struct {
	ID           string // UUID
	Phone        string
	PasswordHash string
	IsAdmin      bool
	CreatedAt    time.Time
}

// Filter defines filter options for listing users.
type Filter struct {
	Phone    string
	IsAdmin  *bool
	Page     int
	PageSize int
}
