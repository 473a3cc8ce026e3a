package api

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/vmontano/taller-booking-backend/internal/appointment"
	apptHttp "github.com/vmontano/taller-booking-backend/internal/appointment/http"
	"github.com/vmontano/taller-booking-backend/internal/auth"
	"github.com/vmontano/taller-booking-backend/internal/mechanic"
	mechHttp "github.com/vmontano/taller-booking-backend/internal/mechanic/http"
	"github.com/vmontano/taller-booking-backend/internal/servicetype"
	"github.com/vmontano/taller-booking-backend/internal/user"
	userHttp "github.com/vmontano/taller-booking-backend/internal/user/http"
)

// Config holds the services and settings the router needs.
type Config struct {
	IsProduction bool
	ProdOrigins  string

	UserService        user.Service
	MechanicService    mechanic.Service
	AppointmentService appointment.Service
	JWTManager         *auth.JWTManager
}

// NewRouter initializes the HTTP router engine.
// It is responsible for assembling middleware (CORS, Logger, Auth) and registering routes for various modules.
func NewRouter(cfg Config) *gin.Engine {
	r := gin.New()

	// Global Middleware:
	// - Logger: Logs request information to the console.
	// - Recovery: Captures panics to prevent server crashes and returns a 500 error.
	r.Use(gin.Logger(), gin.Recovery())

	// Configure CORS (Cross-Origin Resource Sharing).
	corsConfig := cors.DefaultConfig()
	if cfg.IsProduction && cfg.ProdOrigins != "" {
		corsConfig.AllowOrigins = strings.Split(cfg.ProdOrigins, ",")
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	authMiddleware := auth.AuthRequired(cfg.JWTManager)
	adminMiddleware := auth.RequireRole(auth.RoleAdmin)

	userHandler := userHttp.NewHandler(cfg.UserService, cfg.MechanicService, cfg.JWTManager)
	mechanicHandler := mechHttp.NewHandler(cfg.MechanicService)
	appointmentHandler := apptHttp.NewHandler(cfg.AppointmentService)

	v1 := r.Group("/v1")
	{
		userHttp.RegisterRoutes(v1, userHandler, authMiddleware, adminMiddleware)
		mechHttp.RegisterRoutes(v1, mechanicHandler, authMiddleware, adminMiddleware)
		apptHttp.RegisterRoutes(v1, appointmentHandler, authMiddleware, adminMiddleware)

		v1.GET("/services", listServices)
	}

	return r
}

type serviceResponse struct {
	Key             string `json:"key"`
	Name            string `json:"nombre"`
	DurationMinutes int    `json:"duracion_minutos"`
}

// listServices exposes the static catalog so clients can render choices.
func listServices(c *gin.Context) {
	catalog := servicetype.All()
	items := make([]serviceResponse, len(catalog))
	for i, s := range catalog {
		items[i] = serviceResponse{Key: s.Key, Name: s.Name, DurationMinutes: s.DurationMinutes}
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}
