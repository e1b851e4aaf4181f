// Package config reads runtime settings from the environment. A .env file in
// the working directory is loaded first when present.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"

	minSecretLength = 16
)

type Config struct {
	DatabaseURL    string
	StoreDriver    string
	ServerPort     string
	AllowedOrigins string
	JWTSecret      string
	JWTTTL         time.Duration
	LogLevel       string
	LogFormat      string
	AuditBuffer    int
	DBMaxConns     int32
	AutoMigrate    bool
}

// Load reads the configuration. AUTO_MIGRATE makes the server apply embedded
// migrations at startup. Missing optional values get defaults; a
// missing JWT_SECRET, or DATABASE_URL with the postgres driver, is an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		StoreDriver:    strings.ToLower(getenv("STORE_DRIVER", DriverPostgres)),
		ServerPort:     getenv("SERVER_PORT", "8080"),
		AllowedOrigins: os.Getenv("ALLOWED_ORIGINS"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		LogLevel:       getenv("LOG_LEVEL", "info"),
		LogFormat:      getenv("LOG_FORMAT", "json"),
	}

	ttl, err := time.ParseDuration(getenv("JWT_TTL", "1h"))
	if err != nil || ttl <= 0 {
		return nil, fmt.Errorf("JWT_TTL must be a positive duration, got %q", os.Getenv("JWT_TTL"))
	}
	cfg.JWTTTL = ttl

	buffer, err := strconv.Atoi(getenv("AUDIT_BUFFER", "256"))
	if err != nil || buffer <= 0 {
		return nil, fmt.Errorf("AUDIT_BUFFER must be a positive integer, got %q", os.Getenv("AUDIT_BUFFER"))
	}
	cfg.AuditBuffer = buffer

	maxConns, err := strconv.ParseInt(getenv("DB_MAX_CONNS", "0"), 10, 32)
	if err != nil || maxConns < 0 {
		return nil, fmt.Errorf("DB_MAX_CONNS must be a non-negative integer, got %q", os.Getenv("DB_MAX_CONNS"))
	}
	cfg.DBMaxConns = int32(maxConns)

	autoMigrate, err := strconv.ParseBool(getenv("AUTO_MIGRATE", "false"))
	if err != nil {
		return nil, fmt.Errorf("AUTO_MIGRATE must be a boolean, got %q", os.Getenv("AUTO_MIGRATE"))
	}
	cfg.AutoMigrate = autoMigrate

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL environment variable not set")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", DriverPostgres, DriverMemory, c.StoreDriver)
	}
	if len(c.JWTSecret) < minSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d bytes", minSecretLength)
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
