package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vmontano/taller-booking-backend/internal/auth"
	"github.com/vmontano/taller-booking-backend/internal/mechanic"
	"github.com/vmontano/taller-booking-backend/internal/pkg/request"
	"github.com/vmontano/taller-booking-backend/internal/pkg/response"
	"github.com/vmontano/taller-booking-backend/internal/user"
)

type Handler struct {
	service    user.Service
	mechanics  mechanic.Service
	jwtManager *auth.JWTManager
}

func NewHandler(service user.Service, mechanics mechanic.Service, jwtManager *auth.JWTManager) *Handler {
	return &Handler{service: service, mechanics: mechanics, jwtManager: jwtManager}
}

func (h *Handler) Register(c *gin.Context) {
	var body RegisterRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	u, err := h.service.Register(c.Request.Context(), body.Phone, body.Password)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrInvalidPhone), errors.Is(err, user.ErrPasswordTooShort):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, user.ErrPhoneAlreadyUsed):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register"})
		}
		return
	}

	c.JSON(http.StatusCreated, NewUserResponse(u))
}

// Login authenticates a customer by phone/password. When no customer account
// matches, the same credentials are tried against the mechanic roster so
// mechanics reach their panel through the same door.
func (h *Handler) Login(c *gin.Context) {
	var body LoginRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	u, err := h.service.Login(c.Request.Context(), body.Phone, body.Password)
	if err == nil {
		role := auth.RoleUser
		if u.IsAdmin {
			role = auth.RoleAdmin
		}
		h.issueToken(c, u.ID, u.Phone, role)
		return
	}
	if !errors.Is(err, user.ErrInvalidCredentials) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to log in"})
		return
	}

	m, mErr := h.mechanics.Authenticate(c.Request.Context(), body.Phone, body.Password)
	if mErr != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	h.issueToken(c, m.ID, m.Phone, auth.RoleMechanic)
}

func (h *Handler) issueToken(c *gin.Context, subjectID, phone, role string) {
	token, err := h.jwtManager.GenerateAccessToken(subjectID, phone, role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
		return
	}
	c.JSON(http.StatusOK, LoginResponse{AccessToken: token, Role: role, SubjectID: subjectID})
}

func (h *Handler) Me(c *gin.Context) {
	u, err := h.service.GetByID(c.Request.Context(), auth.GetUserID(c))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get user"})
		return
	}
	c.JSON(http.StatusOK, NewUserResponse(u))
}

func (h *Handler) List(c *gin.Context) {
	var query ListUsersRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters"})
		return
	}

	users, total, err := h.service.List(c.Request.Context(), user.Filter{
		Phone:    query.Phone,
		Page:     query.Page,
		PageSize: query.PageSize,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list users"})
		return
	}

	items := make([]UserResponse, len(users))
	for i, u := range users {
		items[i] = NewUserResponse(u)
	}
	c.JSON(http.StatusOK, response.NewPageResponse(items, query.Page, query.PageSize, total))
}

// Update lets an admin change a user's phone or reset their password.
func (h *Handler) Update(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	var body UpdateUserRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	u, err := h.service.Update(c.Request.Context(), uri.ID, body.Phone, body.Password)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrInvalidPhone), errors.Is(err, user.ErrPasswordTooShort):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, user.ErrPhoneAlreadyUsed):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, user.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update user"})
		}
		return
	}
	c.JSON(http.StatusOK, NewUserResponse(u))
}

// Delete removes a user account.
func (h *Handler) Delete(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	// Admins cannot remove their own account.
	if uri.ID == auth.GetUserID(c) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot delete your own account"})
		return
	}

	if err := h.service.Delete(c.Request.Context(), uri.ID); err != nil {
		switch {
		case errors.Is(err, user.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		case errors.Is(err, user.ErrHasAppointments):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete user"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user deleted"})
}

func (h *Handler) SetAdmin(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	var body SetAdminRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	// Admins cannot drop their own privileges; someone must stay in charge.
	if !body.IsAdmin && uri.ID == auth.GetUserID(c) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot revoke your own admin role"})
		return
	}

	u, err := h.service.SetAdmin(c.Request.Context(), uri.ID, body.IsAdmin)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update user"})
		return
	}
	c.JSON(http.StatusOK, NewUserResponse(u))
}
