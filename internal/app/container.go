package app

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/vmontano/taller-booking-backend/internal/api"
	"github.com/vmontano/taller-booking-backend/internal/appointment"
	"github.com/vmontano/taller-booking-backend/internal/auth"
	"github.com/vmontano/taller-booking-backend/internal/config"
	"github.com/vmontano/taller-booking-backend/internal/events"
	"github.com/vmontano/taller-booking-backend/internal/locker"
	"github.com/vmontano/taller-booking-backend/internal/mechanic"
	"github.com/vmontano/taller-booking-backend/internal/schedule"
	"github.com/vmontano/taller-booking-backend/internal/timeparse"
	"github.com/vmontano/taller-booking-backend/internal/user"
)

// Config holds the dependencies and settings required to start the application.
type Config struct {
	App    *config.Config
	DBPool *pgxpool.Pool
	Logger zerolog.Logger
}

// Container holds the initialized components that are needed externally.
type Container struct {
	Router     *gin.Engine
	JWTManager *auth.JWTManager
	Publisher  events.Publisher
}

// NewContainer initializes all modules and returns the container.
func NewContainer(cfg Config) (*Container, error) {
	// Init Components
	passwordHasher := auth.NewBcryptPasswordHasher(cfg.App.BcryptCost)
	jwtManager := auth.NewJWTManager(cfg.App.JWTSecret, cfg.App.JWTAccessTokenTTL)

	loc, err := time.LoadLocation(cfg.App.Timezone)
	if err != nil {
		return nil, err
	}

	// User Module
	userRepo := user.NewPgxRepository(cfg.DBPool)
	userService := user.NewService(userRepo, passwordHasher)

	// Mechanic Module
	mechanicRepo := mechanic.NewPgxRepository(cfg.DBPool)
	mechanicService := mechanic.NewService(mechanicRepo)

	// Booking lock: single-process mutex by default, Redis lease when configured.
	var locks locker.Locker = locker.NewKeyed()
	if cfg.App.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.App.RedisAddr})
		locks = locker.NewRedis(rdb, 10*time.Second)
	}

	// Lifecycle events
	var publisher events.Publisher = events.NewNop()
	if cfg.App.KafkaBrokers != "" {
		brokers := strings.Split(cfg.App.KafkaBrokers, ",")
		publisher = events.NewKafka(brokers, cfg.App.KafkaTopic, cfg.Logger)
	}

	// Appointment Module
	appointmentRepo := appointment.NewPgxRepository(cfg.DBPool)
	appointmentService := appointment.NewService(
		appointmentRepo,
		mechanicService,
		locks,
		publisher,
		appointment.Config{
			Window: schedule.Window{
				Open:  timeparse.TimeOfDay{Hour: cfg.App.OpenHour},
				Close: timeparse.TimeOfDay{Hour: cfg.App.CloseHour},
			},
			SlotOptions: schedule.Options{
				Mode:          schedule.Mode(cfg.App.SlotMode),
				StepMinutes:   cfg.App.SlotStepMin,
				BufferMinutes: cfg.App.BufferMinutes,
			},
			Location: loc,
		},
		cfg.Logger,
	)

	// API Router Config
	routerParams := api.Config{
		IsProduction:       cfg.App.IsProduction,
		ProdOrigins:        cfg.App.ProdOrigins,
		UserService:        userService,
		MechanicService:    mechanicService,
		AppointmentService: appointmentService,
		JWTManager:         jwtManager,
	}

	// Router
	router := api.NewRouter(routerParams)

	return &Container{
		Router:     router,
		JWTManager: jwtManager,
		Publisher:  publisher,
	}, nil
}
