package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vmontano/taller-booking-backend/internal/appointment"
	"github.com/vmontano/taller-booking-backend/internal/auth"
	"github.com/vmontano/taller-booking-backend/internal/pkg/request"
	"github.com/vmontano/taller-booking-backend/internal/pkg/response"
)

type Handler struct {
	service appointment.Service
}

func NewHandler(service appointment.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Availability(c *gin.Context) {
	var query AvailabilityQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters", "details": err.Error()})
		return
	}

	slots, err := h.service.Availability(c.Request.Context(), appointment.AvailabilityRequest{
		DatePhrase:    query.Date,
		ServicePhrase: query.Service,
		MechanicID:    query.MechanicID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewAvailabilityResponse(query.Date, query.Service, query.Format, slots))
}

func (h *Handler) Create(c *gin.Context) {
	var body CreateAppointmentRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	userID := auth.GetUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	a, err := h.service.Create(c.Request.Context(), appointment.CreateRequest{
		UserID:        userID,
		ServicePhrase: body.Service,
		DatePhrase:    body.Date,
		TimePhrase:    body.Time,
		MechanicID:    body.MechanicID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	// The insert returns the row without the owner join; the token already
	// carries the phone.
	a.UserPhone = auth.GetPhone(c)
	c.JSON(http.StatusCreated, NewAppointmentResponse(a))
}

func (h *Handler) List(c *gin.Context) {
	var query ListAppointmentsRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters"})
		return
	}

	userID := auth.GetUserID(c)
	filterUserID := userID
	filterMechanicID := ""

	switch auth.GetRole(c) {
	case auth.RoleAdmin:
		// Admins may inspect any user's appointments, or all of them.
		filterUserID = query.UserID
		filterMechanicID = query.MechanicID
	case auth.RoleMechanic:
		// Mechanics see their own assigned day list.
		filterUserID = ""
		filterMechanicID = userID
	}

	filter := appointment.Filter{
		UserID:     filterUserID,
		MechanicID: filterMechanicID,
		Status:     query.Status,
		Page:       query.Page,
		PageSize:   query.PageSize,
	}
	if query.Date != "" {
		day, err := time.Parse("2006-01-02", query.Date)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid fecha"})
			return
		}
		next := day.AddDate(0, 0, 1)
		filter.DateFrom = &day
		filter.DateTo = &next
	}

	appointments, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]AppointmentResponse, len(appointments))
	for i, a := range appointments {
		items[i] = NewAppointmentResponse(a)
	}
	c.JSON(http.StatusOK, response.NewPageResponse(items, query.Page, query.PageSize, total))
}

func (h *Handler) Get(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	a, err := h.service.GetByID(c.Request.Context(), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	userID := auth.GetUserID(c)
	role := auth.GetRole(c)
	isOwner := a.UserID == userID
	isAssignedMechanic := role == auth.RoleMechanic && a.MechanicID != nil && *a.MechanicID == userID
	if !isOwner && !isAssignedMechanic && role != auth.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "permission denied"})
		return
	}

	c.JSON(http.StatusOK, NewAppointmentResponse(a))
}

// Active returns the caller's single active appointment.
func (h *Handler) Active(c *gin.Context) {
	a, err := h.service.ActiveForUser(c.Request.Context(), auth.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewAppointmentResponse(a))
}

// Reschedule moves the caller's active appointment to a new date/time.
func (h *Handler) Reschedule(c *gin.Context) {
	var body RescheduleAppointmentRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	a, err := h.service.Reschedule(c.Request.Context(), auth.GetUserID(c), body.Date, body.Time)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewAppointmentResponse(a))
}

// Cancel cancels the caller's active appointment.
func (h *Handler) Cancel(c *gin.Context) {
	a, err := h.service.Cancel(c.Request.Context(), auth.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewAppointmentResponse(a))
}

// Complete marks an appointment completed. Allowed for the assigned mechanic
// and for admins.
func (h *Handler) Complete(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	role := auth.GetRole(c)
	if role != auth.RoleMechanic && role != auth.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "permission denied"})
		return
	}

	a, err := h.service.Complete(c.Request.Context(), uri.ID, auth.GetUserID(c), role == auth.RoleAdmin)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewAppointmentResponse(a))
}

// Update moves any appointment to a new date/time (admin only, enforced by
// route middleware).
func (h *Handler) Update(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	var body RescheduleAppointmentRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	a, err := h.service.RescheduleByID(c.Request.Context(), uri.ID, body.Date, body.Time)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewAppointmentResponse(a))
}

// Delete cancels any appointment (admin only, enforced by route middleware).
func (h *Handler) Delete(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	a, err := h.service.CancelByID(c.Request.Context(), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewAppointmentResponse(a))
}

// Reassign assigns an appointment to another mechanic (admin only, enforced
// by route middleware).
func (h *Handler) Reassign(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	var body ReassignAppointmentRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	a, err := h.service.Reassign(c.Request.Context(), uri.ID, body.MechanicID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewAppointmentResponse(a))
}
