package http

import (
	"time"

	"github.com/vmontano/taller-booking-backend/internal/mechanic"
)

type CreateMechanicRequest struct {
	Name        string   `json:"nombre" binding:"required"`
	Phone       string   `json:"telefono" binding:"required"`
	ServiceKeys []string `json:"service_keys"`
}

type UpdateMechanicRequest struct {
	Name        *string   `json:"nombre"`
	Phone       *string   `json:"telefono"`
	ServiceKeys *[]string `json:"service_keys"`
}

type ListMechanicsRequest struct {
	ServiceKey string `form:"servicio"`
	Page       int    `form:"page"`
	PageSize   int    `form:"page_size"`
}

type MechanicResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"nombre"`
	Phone       string    `json:"telefono"`
	ServiceKeys []string  `json:"service_keys"`
	CreatedAt   time.Time `json:"created_at"`
}

func NewMechanicResponse(m *mechanic.Mechanic) MechanicResponse {
	keys := m.ServiceKeys
	if keys == nil {
		keys = []string{}
	}
	return MechanicResponse{
		ID:          m.ID,
		Name:        m.Name,
		Phone:       m.Phone,
		ServiceKeys: keys,
		CreatedAt:   m.CreatedAt,
	}
}
