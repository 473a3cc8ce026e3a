package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vmontano/taller-booking-backend/internal/mechanic"
	"github.com/vmontano/taller-booking-backend/internal/pkg/request"
	"github.com/vmontano/taller-booking-backend/internal/pkg/response"
)

type Handler struct {
	service mechanic.Service
}

func NewHandler(service mechanic.Service) *Handler {
	return &Handler{service: service}
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, mechanic.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, mechanic.ErrEmptyName),
		errors.Is(err, mechanic.ErrInvalidPhone),
		errors.Is(err, mechanic.ErrUnknownService):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, mechanic.ErrPhoneAlreadyUsed):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func (h *Handler) Create(c *gin.Context) {
	var body CreateMechanicRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	m, err := h.service.Create(c.Request.Context(), mechanic.CreateRequest{
		Name:        body.Name,
		Phone:       body.Phone,
		ServiceKeys: body.ServiceKeys,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, NewMechanicResponse(m))
}

func (h *Handler) Get(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	m, err := h.service.GetByID(c.Request.Context(), uri.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, NewMechanicResponse(m))
}

func (h *Handler) List(c *gin.Context) {
	var query ListMechanicsRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters"})
		return
	}

	mechanics, total, err := h.service.List(c.Request.Context(), mechanic.Filter{
		ServiceKey: query.ServiceKey,
		Page:       query.Page,
		PageSize:   query.PageSize,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	items := make([]MechanicResponse, len(mechanics))
	for i, m := range mechanics {
		items[i] = NewMechanicResponse(m)
	}
	c.JSON(http.StatusOK, response.NewPageResponse(items, query.Page, query.PageSize, total))
}

func (h *Handler) Update(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	var body UpdateMechanicRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	m, err := h.service.Update(c.Request.Context(), uri.ID, mechanic.UpdateRequest{
		Name:        body.Name,
		Phone:       body.Phone,
		ServiceKeys: body.ServiceKeys,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, NewMechanicResponse(m))
}

func (h *Handler) Delete(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	if err := h.service.Delete(c.Request.Context(), uri.ID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
