package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

const defaultDSN = "host=localhost user=postgres password=postgres dbname=workshop port=5432 sslmode=disable"

type Config struct {
	HTTPPort       string
	DatabaseDSN    string
	JWTSecret      string
	JWTTTL         time.Duration
	CORSOrigins    string
	RequestTimeout time.Duration
	LogMode        string // development | production
	LogLevel       string
	VATMultiplier  decimal.Decimal
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		HTTPPort:       getEnv("HTTP_PORT", "8080"),
		DatabaseDSN:    getEnv("DATABASE_DSN", defaultDSN),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		JWTTTL:         getEnvDuration("JWT_TTL", 24*time.Hour),
		CORSOrigins:    getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", 15*time.Second),
		LogMode:        getEnv("LOG_MODE", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
	}

	vat, err := decimal.NewFromString(getEnv("VAT_MULTIPLIER", "1.27"))
	if err != nil {
		return nil, fmt.Errorf("parse VAT_MULTIPLIER: %w", err)
	}
	if !vat.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, errors.New("VAT_MULTIPLIER must be >= 1")
	}
	cfg.VATMultiplier = vat

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is not set")
	}
	if len(cfg.JWTSecret) < 32 {
		return nil, errors.New("JWT_SECRET must be at least 32 characters")
	}

	return cfg, nil
}

// Warnings lists settings that are still at their development defaults.
func (c *Config) Warnings() []string {
	var out []string
	if c.DatabaseDSN == defaultDSN {
		out = append(out, "DATABASE_DSN uses the default local connection string")
	}
	if c.CORSOrigins == "http://localhost:5173" {
		out = append(out, "CORS_ALLOWED_ORIGINS uses the default development origin")
	}
	return out
}

// Origins returns the comma separated CORS origins trimmed.
func (c *Config) Origins() string {
	parts := strings.Split(c.CORSOrigins, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return strings.Join(parts, ",")
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
