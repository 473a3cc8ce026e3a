package http

import (
	"time"

	"github.com/vmontano/taller-booking-backend/internal/user"
)

type RegisterRequest struct {
	Phone    string `json:"telefono" binding:"required"`
	Password string `json:"contrasena" binding:"required"`
}

// LoginRequest covers both customer and mechanic sign-in. Customers send
// phone + password; mechanics send phone + their registered name in the
// password field, matching the legacy panel behavior.
type LoginRequest struct {
	Phone    string `json:"telefono" binding:"required"`
	Password string `json:"contrasena" binding:"required"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	SubjectID   string `json:"subject_id"`
}

type SetAdminRequest struct {
	IsAdmin bool `json:"is_admin"`
}

// UpdateUserRequest carries the admin-editable fields; empty fields are left
// as they are.
type UpdateUserRequest struct {
	Phone    string `json:"telefono" binding:"omitempty"`
	Password string `json:"contrasena" binding:"omitempty"`
}

type UserResponse struct {
	ID        string    `json:"id"`
	Phone     string    `json:"telefono"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}

func NewUserResponse(u *user.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Phone:     u.Phone,
		IsAdmin:   u.IsAdmin,
		CreatedAt: u.CreatedAt,
	}
}

type ListUsersRequest struct {
	Phone    string `form:"telefono"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}
