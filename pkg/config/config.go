package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// New creates the configuration from environment variables. Every missing required variable is
// reported at once.
func New() (Config, error) {
	var errs []error
	requireEnv := func(key string) string {
		value, err := requireEnv(key)
		errs = append(errs, err)
		return value
	}
	requireEnvAsInt := func(key string) int {
		value, err := requireEnvAsInt(key)
		errs = append(errs, err)
		return value
	}

	logLevel, err := parseLogLevel(getEnv("LOG_LEVEL", "info"))
	errs = append(errs, err)

	sweepIntervalSeconds, err := getEnvAsInt("SWEEP_INTERVAL_SECONDS", 300)
	errs = append(errs, err)

	c := Config{
		BasePath:      requireEnv("BASE_PATH"),
		Port:          requireEnvAsInt("PORT"),
		Environment:   getEnv("ENVIRONMENT", "production"),
		LogLevel:      logLevel,
		JWTSecret:     requireEnv("JWT_SECRET"),
		SweepInterval: time.Duration(sweepIntervalSeconds) * time.Second,
		Jaeger:        Jaeger{Endpoint: getEnv("JAEGER_ENDPOINT", "")},
	}

	database, err := NewDatabase()
	errs = append(errs, err)
	c.Database = database

	if host, ok := os.LookupEnv("REDIS_HOST"); ok {
		c.Redis = &Redis{
			Host: host,
			Port: requireEnvAsInt("REDIS_PORT"),
		}
	}

	if host, ok := os.LookupEnv("RABBITMQ_HOST"); ok {
		c.RabbitMq = &RabbitMq{
			Host:     host,
			Port:     requireEnvAsInt("RABBITMQ_PORT"),
			Username: requireEnv("RABBITMQ_USERNAME"),
			Password: requireEnv("RABBITMQ_PASSWORD"),
		}
	}

	return c, errors.Join(errs...)
}

// NewDatabase creates the database configuration from environment variables. Tools only needing
// the database use it instead of New.
func NewDatabase() (Database, error) {
	var errs []error
	requireEnv := func(key string) string {
		value, err := requireEnv(key)
		errs = append(errs, err)
		return value
	}
	requireEnvAsInt := func(key string) int {
		value, err := requireEnvAsInt(key)
		errs = append(errs, err)
		return value
	}

	var database Database
	driver := getEnv("DATABASE_DRIVER", DriverPostgres)
	switch driver {
	case DriverPostgres:
		database = Database{
			Driver:       DriverPostgres,
			Host:         requireEnv("DATABASE_HOST"),
			Port:         requireEnvAsInt("DATABASE_PORT"),
			Username:     requireEnv("DATABASE_USERNAME"),
			Password:     requireEnv("DATABASE_PASSWORD"),
			DatabaseName: requireEnv("DATABASE_NAME"),
		}
	case DriverSQLite:
		database = Database{
			Driver: DriverSQLite,
			Path:   getEnv("DATABASE_PATH", "tally.db"),
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported DATABASE_DRIVER %q, use %q or %q", driver, DriverPostgres, DriverSQLite))
	}

	return database, errors.Join(errs...)
}

type Config struct {
	BasePath    string
	Port        int
	Environment string
	LogLevel    slog.Level
	JWTSecret   string
	// SweepInterval is the interval of the scheduled expiry sweep. Zero disables it, events are then
	// only resolved when listed.
	SweepInterval time.Duration
	Database      Database
	// Redis is optional. Sweeps are only serialized within the process without it.
	Redis *Redis
	// RabbitMq is optional. Lifecycle notifications are only sent to SSE subscribers without it.
	RabbitMq *RabbitMq
	Jaeger   Jaeger
}

func (c Config) IsDevelopment() bool {
	return c.Environment == "development"
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Database struct {
	Driver       string
	Host         string
	Port         int
	Username     string
	Password     string
	DatabaseName string
	// Path of the database file when using SQLite.
	Path string
}

type Redis struct {
	Host string
	Port int
}

func (r Redis) Address() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type RabbitMq struct {
	Host     string
	Port     int
	Username string
	Password string
}

func (r RabbitMq) GetUrl() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d/", r.Username, r.Password, r.Host, r.Port)
}

type Jaeger struct {
	Endpoint string
}

func parseLogLevel(level string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q: %v", level, err)
	}
	return l, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) (int, error) {
	valueStr, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return fallback, fmt.Errorf("failed to parse environment variable %q as int: %v", key, err)
	}
	return value, nil
}

func requireEnv(key string) (string, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return "", fmt.Errorf("required environment variable %q not set", key)
	}
	return value, nil
}

func requireEnvAsInt(key string) (int, error) {
	valueStr, err := requireEnv(key)
	if err != nil {
		return 0, err
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, fmt.Errorf("failed to parse environment variable %q as int: %v", key, err)
	}
	return value, nil
}
