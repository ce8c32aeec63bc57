package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"
)

// DefaultGuestPatientID is the patient identity used for bookings and care
// requests created without a resolvable caller.
const DefaultGuestPatientID = "a0000000-0000-0000-0000-000000000001"

type Config struct {
	App        AppConfig
	DB         DBConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Scheduling SchedulingConfig
	Outbox     OutboxConfig
	RateLimit  RateLimitConfig
}

type AppConfig struct {
	Port           string
	Env            string
	LogLevel       string
	AllowedOrigins []string
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	TimeZone string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret        string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
}

// SchedulingConfig controls the availability engine.
type SchedulingConfig struct {
	Location       *time.Location
	GuestPatientID uuid.UUID
	MaxRangeDays   int
	LockTTL        time.Duration
	UseRedisLock   bool
}

type OutboxConfig struct {
	PollInterval time.Duration
	BatchSize    int
}

type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		// .env is optional in containers; the environment still applies
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	accessExpiry, err := time.ParseDuration(viper.GetString("JWT_ACCESS_EXPIRY"))
	if err != nil {
		accessExpiry = 15 * time.Minute
	}

	refreshExpiry, err := time.ParseDuration(viper.GetString("JWT_REFRESH_EXPIRY"))
	if err != nil {
		refreshExpiry = 7 * 24 * time.Hour
	}

	location, err := time.LoadLocation(viper.GetString("SCHEDULING_TIMEZONE"))
	if err != nil {
		return nil, fmt.Errorf("invalid SCHEDULING_TIMEZONE: %w", err)
	}

	guestID, err := uuid.Parse(viper.GetString("SCHEDULING_GUEST_PATIENT_ID"))
	if err != nil {
		return nil, fmt.Errorf("invalid SCHEDULING_GUEST_PATIENT_ID: %w", err)
	}

	config := &Config{
		App: AppConfig{
			Port:           viper.GetString("APP_PORT"),
			Env:            viper.GetString("APP_ENV"),
			LogLevel:       viper.GetString("LOG_LEVEL"),
			AllowedOrigins: splitList(viper.GetString("CORS_ALLOWED_ORIGINS")),
		},
		DB: DBConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			Name:     viper.GetString("DB_NAME"),
			TimeZone: viper.GetString("DB_TIMEZONE"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret:        viper.GetString("JWT_SECRET"),
			AccessExpiry:  accessExpiry,
			RefreshExpiry: refreshExpiry,
		},
		Scheduling: SchedulingConfig{
			Location:       location,
			GuestPatientID: guestID,
			MaxRangeDays:   viper.GetInt("SCHEDULING_MAX_RANGE_DAYS"),
			LockTTL:        viper.GetDuration("BOOKING_LOCK_TTL"),
			UseRedisLock:   viper.GetBool("BOOKING_LOCK_USE_REDIS"),
		},
		Outbox: OutboxConfig{
			PollInterval: viper.GetDuration("OUTBOX_POLL_INTERVAL"),
			BatchSize:    viper.GetInt("OUTBOX_BATCH_SIZE"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: viper.GetFloat64("RATE_LIMIT_RPS"),
			Burst:             viper.GetInt("RATE_LIMIT_BURST"),
		},
	}

	return config, nil
}

func setDefaults() {
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("DB_TIMEZONE", "UTC")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("SCHEDULING_TIMEZONE", "UTC")
	viper.SetDefault("SCHEDULING_GUEST_PATIENT_ID", DefaultGuestPatientID)
	viper.SetDefault("SCHEDULING_MAX_RANGE_DAYS", 30)
	viper.SetDefault("BOOKING_LOCK_TTL", "10s")
	viper.SetDefault("BOOKING_LOCK_USE_REDIS", true)
	viper.SetDefault("OUTBOX_POLL_INTERVAL", "5s")
	viper.SetDefault("OUTBOX_BATCH_SIZE", 50)
	viper.SetDefault("RATE_LIMIT_RPS", 5)
	viper.SetDefault("RATE_LIMIT_BURST", 10)
}

// splitList reads a comma separated env value
func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
