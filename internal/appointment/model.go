package appointment

import (
	"net/http"
	"time"

	"github.com/vmontano/taller-booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound             = apperror.New(http.StatusNotFound, "appointment not found")
	ErrSlotTaken            = apperror.New(http.StatusConflict, "time slot already booked")
	ErrPastDate             = apperror.New(http.StatusBadRequest, "date is in the past")
	ErrOutsideBusinessHours = apperror.New(http.StatusBadRequest, "requested time is outside business hours")
	ErrNoActiveAppointment  = apperror.New(http.StatusNotFound, "no active appointment")
	ErrUnrecognizedTime     = apperror.New(http.StatusBadRequest, "unrecognized time phrase")
	ErrUnrecognizedDate     = apperror.New(http.StatusBadRequest, "unrecognized date phrase")
	ErrUnknownService       = apperror.New(http.StatusBadRequest, "unknown service")
	ErrMechanicNotFound     = apperror.New(http.StatusNotFound, "mechanic not found")
	ErrNotCompletable       = apperror.New(http.StatusBadRequest, "appointment cannot be completed")
	ErrPermissionDenied     = apperror.New(http.StatusForbidden, "permission denied")
)

// Status is the lifecycle state of an appointment. Cancelled and completed
// are terminal; the engine never deletes rows.
type Status string

const (
	StatusConfirmed   Status = "confirmed"
	StatusRescheduled Status = "rescheduled"
	StatusCancelled   Status = "cancelled"
	StatusCompleted   Status = "completed"
)

// Active reports whether the appointment still blocks its time slot.
func (s Status) Active() bool {
	return s == StatusConfirmed || s == StatusRescheduled
}

// Appointment is one booked service visit.
type Appointment struct {
	ID           string
	UserID       string
	UserPhone    string
	MechanicID   *string
	MechanicName string
	ServiceKey   string
	ServiceName  string
	StartTime    time.Time
	EndTime      time.Time
	Status       Status
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Date returns the appointment's calendar date at midnight in its own
// location.
func (a *Appointment) Date() time.Time {
	y, m, d := a.StartTime.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, a.StartTime.Location())
}

// Filter defines parameters for listing appointments.
type Filter struct {
	UserID     string
	MechanicID string
	Status     string
	DateFrom   *time.Time
	DateTo     *time.Time
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}
