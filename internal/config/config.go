package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const PROD_STRING = "prod"

// Config holds all application configuration loaded from environment.
type Config struct {
	IsProduction      bool
	ProdOrigins       string
	HTTPAddr          string
	DBDSN             string
	JWTSecret         string
	JWTAccessTokenTTL time.Duration
	BcryptCost        int

	// Scheduling engine settings.
	Timezone      string
	OpenHour      int
	CloseHour     int
	SlotMode      string // "duration" or "fixed"
	SlotStepMin   int
	BufferMinutes int

	// Optional infrastructure.
	RedisAddr    string // distributed booking lock when set
	KafkaBrokers string // comma-separated; lifecycle events when set
	KafkaTopic   string
}

// Load loads configuration from .env (optional) and environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		log.Printf("failed to load .env file: %v", err)
	}

	cfg := &Config{}

	// Production origin (default: empty)
	cfg.ProdOrigins = getEnv("PROD_ORIGINS", "")

	// Application environment (default: dev)
	appEnvStr := getEnv("APP_ENV", "dev")
	cfg.IsProduction = appEnvStr == PROD_STRING

	// HTTP listen address (default: :8080)
	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":8080")

	// Database DSN is required
	cfg.DBDSN = os.Getenv("DB_DSN")
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required")
	}

	// JWT secret is required for signing tokens
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	// JWT access token TTL, parse as time.Duration (e.g. "15m", "1h").
	ttlStr := getEnv("JWT_ACCESS_TOKEN_TTL", "15m")
	ttl, err := time.ParseDuration(ttlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_ACCESS_TOKEN_TTL: %w", err)
	}
	cfg.JWTAccessTokenTTL = ttl

	// Bcrypt cost for password hashing (default: 12)
	cfg.BcryptCost, err = getEnvAsInt("BCRYPT_COST", 12)
	if err != nil {
		return nil, fmt.Errorf("invalid BCRYPT_COST: %w", err)
	}

	// Shop timezone; all dates and business hours are interpreted here.
	cfg.Timezone = getEnv("SHOP_TIMEZONE", "America/Mexico_City")
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return nil, fmt.Errorf("invalid SHOP_TIMEZONE: %w", err)
	}

	cfg.OpenHour, err = getEnvAsInt("SHOP_OPEN_HOUR", 8)
	if err != nil {
		return nil, fmt.Errorf("invalid SHOP_OPEN_HOUR: %w", err)
	}
	cfg.CloseHour, err = getEnvAsInt("SHOP_CLOSE_HOUR", 18)
	if err != nil {
		return nil, fmt.Errorf("invalid SHOP_CLOSE_HOUR: %w", err)
	}
	if cfg.OpenHour < 0 || cfg.CloseHour > 24 || cfg.OpenHour >= cfg.CloseHour {
		return nil, fmt.Errorf("invalid business hours %d-%d", cfg.OpenHour, cfg.CloseHour)
	}

	cfg.SlotMode = getEnv("SLOT_MODE", "duration")
	if cfg.SlotMode != "duration" && cfg.SlotMode != "fixed" {
		return nil, fmt.Errorf("invalid SLOT_MODE %q (want duration or fixed)", cfg.SlotMode)
	}
	cfg.SlotStepMin, err = getEnvAsInt("SLOT_STEP_MINUTES", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid SLOT_STEP_MINUTES: %w", err)
	}
	cfg.BufferMinutes, err = getEnvAsInt("SLOT_BUFFER_MINUTES", 10)
	if err != nil {
		return nil, fmt.Errorf("invalid SLOT_BUFFER_MINUTES: %w", err)
	}

	cfg.RedisAddr = getEnv("REDIS_ADDR", "")
	cfg.KafkaBrokers = getEnv("KAFKA_BROKERS", "")
	cfg.KafkaTopic = getEnv("KAFKA_TOPIC", "taller.appointments")

	return cfg, nil
}

// getEnv returns the value of the environment variable if set,
// otherwise returns the provided default value.
func getEnv(key, defaultValue string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer.
// It returns the default value if the variable is not set.
// It returns an error if the variable is set but is not a valid integer.
func getEnvAsInt(key string, defaultValue int) (int, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := strconv.Atoi(valStr)
	if err != nil {
		// Return 0 and a wrapped error to provide context
		return 0, fmt.Errorf("env %s value %q is not a valid integer: %w", key, valStr, err)
	}

	return val, nil
}
