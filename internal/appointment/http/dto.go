package http

import (
	"time"

	"github.com/vmontano/taller-booking-backend/internal/appointment"
	"github.com/vmontano/taller-booking-backend/internal/schedule"
)

// CreateAppointmentRequest accepts the conversational fields as typed by the
// user: fecha and hora are free-form Spanish phrases, not ISO values.
type CreateAppointmentRequest struct {
	Service    string `json:"servicio" binding:"required"`
	Date       string `json:"fecha" binding:"required"`
	Time       string `json:"hora" binding:"required"`
	MechanicID string `json:"mechanic_id" binding:"omitempty,uuid"`
}

type RescheduleAppointmentRequest struct {
	Date string `json:"fecha" binding:"required"`
	Time string `json:"hora" binding:"required"`
}

type ReassignAppointmentRequest struct {
	MechanicID string `json:"mechanic_id" binding:"required,uuid"`
}

type ListAppointmentsRequest struct {
	UserID     string `form:"user_id" binding:"omitempty,uuid"`
	MechanicID string `form:"mechanic_id" binding:"omitempty,uuid"`
	Status     string `form:"status" binding:"omitempty,oneof=confirmed rescheduled cancelled completed"`
	Date       string `form:"fecha" binding:"omitempty,datetime=2006-01-02"`
	Page       int    `form:"page"`
	PageSize   int    `form:"page_size"`
}

type AvailabilityQuery struct {
	Date       string `form:"fecha" binding:"required"`
	Service    string `form:"servicio" binding:"required"`
	MechanicID string `form:"mechanic_id" binding:"omitempty,uuid"`
	Format     string `form:"format" binding:"omitempty,oneof=list table"`
}

type MechanicTag struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

type AppointmentResponse struct {
	ID        string      `json:"id"`
	UserID    string      `json:"user_id"`
	UserPhone string      `json:"user_phone,omitempty"`
	Mechanic  MechanicTag `json:"mechanic"`
	Service   string      `json:"servicio"`
	Date      string      `json:"fecha"`
	StartTime string      `json:"hora"`
	EndTime   string      `json:"hora_fin"`
	Status    string      `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func NewAppointmentResponse(a *appointment.Appointment) AppointmentResponse {
	resp := AppointmentResponse{
		ID:        a.ID,
		UserID:    a.UserID,
		UserPhone: a.UserPhone,
		Service:   a.ServiceName,
		Date:      a.StartTime.Format("2006-01-02"),
		StartTime: a.StartTime.Format("15:04"),
		EndTime:   a.EndTime.Format("15:04"),
		Status:    string(a.Status),
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
	if resp.Service == "" {
		resp.Service = a.ServiceKey
	}
	if a.MechanicID != nil {
		resp.Mechanic = MechanicTag{ID: *a.MechanicID, Name: a.MechanicName}
	}
	return resp
}

type SlotResponse struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// AvailabilityResponse carries the machine-readable slots plus the rendered
// Spanish text the dialogue layer can show verbatim.
type AvailabilityResponse struct {
	Date     string         `json:"fecha"`
	Service  string         `json:"servicio"`
	Slots    []SlotResponse `json:"slots"`
	Rendered string         `json:"rendered"`
}

func NewAvailabilityResponse(date, service, format string, slots []schedule.Interval) AvailabilityResponse {
	out := AvailabilityResponse{
		Date:    date,
		Service: service,
		Slots:   make([]SlotResponse, len(slots)),
	}
	for i, s := range slots {
		out.Slots[i] = SlotResponse{Start: s.Start.Format("15:04"), End: s.End.Format("15:04")}
	}
	if format == "table" {
		out.Rendered = schedule.FormatTable(slots)
	} else {
		out.Rendered = schedule.FormatStarts(slots)
	}
	return out
}
