// Package config loads server configuration from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"carworkshop/internal/domain/documents/billing"
	"carworkshop/internal/infrastructure/storage/postgres"
)

// Config is the full server configuration.
type Config struct {
	App       AppConfig
	Log       LogConfig
	Database  DatabaseConfig
	CORS      CORSConfig
	HTTP      HTTPConfig
	RateLimit RateLimitConfig
	Billing   billing.Config
}

type AppConfig struct {
	Env     string
	Port    string
	Version string
}

// IsDevelopment reports whether the server runs in development mode.
func (a AppConfig) IsDevelopment() bool {
	return a.Env == "development"
}

type LogConfig struct {
	Level string
}

type DatabaseConfig struct {
	URL             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// PoolConfig converts the database settings to a pool configuration.
func (d DatabaseConfig) PoolConfig() postgres.PoolConfig {
	cfg := postgres.DefaultPoolConfig(d.URL)
	if d.MaxConns > 0 {
		cfg.MaxConns = d.MaxConns
	}
	if d.MinConns > 0 {
		cfg.MinConns = d.MinConns
	}
	if d.MaxConnLifetime > 0 {
		cfg.MaxConnLifetime = d.MaxConnLifetime
	}
	if d.MaxConnIdleTime > 0 {
		cfg.MaxConnIdleTime = d.MaxConnIdleTime
	}
	return cfg
}

type CORSConfig struct {
	AllowedOrigins []string
}

type HTTPConfig struct {
	// TrustedProxies may forward the client IP and the acting user.
	TrustedProxies []string
}

type RateLimitConfig struct {
	// Requests per second per client; zero disables rate limiting.
	Requests float64
	Burst    int
}

// Load reads configuration. envFile may be empty; a missing file is not an error.
func Load(envFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if envFile != "" {
		v.SetConfigFile(envFile)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("read %s: %w", envFile, err)
			}
		}
	}

	threshold, err := decimal.NewFromString(v.GetString("DISCOUNT_APPROVAL_THRESHOLD"))
	if err != nil {
		return nil, fmt.Errorf("DISCOUNT_APPROVAL_THRESHOLD: %w", err)
	}
	if threshold.IsNegative() {
		return nil, fmt.Errorf("DISCOUNT_APPROVAL_THRESHOLD must not be negative, got %s", threshold)
	}

	cfg := &Config{
		App: AppConfig{
			Env:     v.GetString("APP_ENV"),
			Port:    v.GetString("APP_PORT"),
			Version: v.GetString("APP_VERSION"),
		},
		Log: LogConfig{
			Level: v.GetString("LOG_LEVEL"),
		},
		Database: DatabaseConfig{
			URL:             v.GetString("DATABASE_URL"),
			MaxConns:        v.GetInt32("DB_MAX_CONNS"),
			MinConns:        v.GetInt32("DB_MIN_CONNS"),
			MaxConnLifetime: v.GetDuration("DB_MAX_CONN_LIFETIME"),
			MaxConnIdleTime: v.GetDuration("DB_MAX_CONN_IDLE_TIME"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		HTTP: HTTPConfig{
			TrustedProxies: splitList(v.GetString("TRUSTED_PROXIES")),
		},
		RateLimit: RateLimitConfig{
			Requests: v.GetFloat64("RATE_LIMIT_REQUESTS"),
			Burst:    v.GetInt("RATE_LIMIT_BURST"),
		},
		Billing: billing.Config{
			DefaultDueDays:            v.GetInt("DEFAULT_DUE_DAYS"),
			DefaultPriceList:          v.GetString("DEFAULT_PRICE_LIST"),
			DiscountApprovalThreshold: threshold,
			DiscountApproverRoles:     billing.ParseRoles(v.GetString("DISCOUNT_APPROVER_ROLES")),
		},
	}

	if cfg.Database.URL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	billingDefaults := billing.DefaultConfig()

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("APP_VERSION", "dev")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("DB_MAX_CONN_LIFETIME", "1h")
	v.SetDefault("DB_MAX_CONN_IDLE_TIME", "30m")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:8000")
	v.SetDefault("TRUSTED_PROXIES", "")
	v.SetDefault("RATE_LIMIT_REQUESTS", 20)
	v.SetDefault("RATE_LIMIT_BURST", 40)
	v.SetDefault("DEFAULT_PRICE_LIST", billingDefaults.DefaultPriceList)
	v.SetDefault("DEFAULT_DUE_DAYS", billingDefaults.DefaultDueDays)
	v.SetDefault("DISCOUNT_APPROVAL_THRESHOLD", "0")
	v.SetDefault("DISCOUNT_APPROVER_ROLES", strings.Join(billingDefaults.DiscountApproverRoles, ","))
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
