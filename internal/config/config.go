package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv               string
	Port                 string
	StripeSecretKey      string
	StripePublishableKey string
	StripeWebhookSecret  string
	CORSAllowedOrigins   []string
	CheckoutSuccessURL   string
	CheckoutCancelURL    string
	CurrencyCode         string
	TaxRateBPS           int
	RedisURL             string
	WebhookReplayTTL     time.Duration
	RateLimitWindow      time.Duration
	RateLimitMax         int
	ShutdownTimeout      time.Duration
}

// Load reads configuration from environment variables and an optional .env file.
// It fails when the Stripe secret key is absent; the process must not start
// without it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:               valueOrDefault(k.String("APP_ENV"), "development"),
		Port:                 valueOrDefault(k.String("PORT"), "8080"),
		StripeSecretKey:      strings.TrimSpace(k.String("STRIPE_SECRET_KEY")),
		StripePublishableKey: strings.TrimSpace(k.String("STRIPE_PUBLISHABLE_KEY")),
		StripeWebhookSecret:  strings.TrimSpace(k.String("STRIPE_WEBHOOK_SECRET")),
		CORSAllowedOrigins:   splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		CheckoutSuccessURL:   valueOrDefault(k.String("CHECKOUT_SUCCESS_URL"), "http://localhost:8080/success.html"),
		CheckoutCancelURL:    valueOrDefault(k.String("CHECKOUT_CANCEL_URL"), "http://localhost:8080/cancel.html"),
		CurrencyCode:         strings.ToLower(valueOrDefault(k.String("CURRENCY_CODE"), "usd")),
		TaxRateBPS:           parseInt(k.String("TAX_RATE_BPS"), 0),
		RedisURL:             strings.TrimSpace(k.String("REDIS_URL")),
		WebhookReplayTTL:     parseDuration(k.String("WEBHOOK_REPLAY_TTL"), "72h"),
		RateLimitWindow:      parseDuration(k.String("RATE_LIMIT_WINDOW"), "1m"),
		RateLimitMax:         parseInt(k.String("RATE_LIMIT_MAX"), 30),
		ShutdownTimeout:      parseDuration(k.String("SHUTDOWN_TIMEOUT"), "10s"),
	}

	if cfg.StripeSecretKey == "" {
		return nil, errors.New("STRIPE_SECRET_KEY is required")
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

// IsDevelopment reports whether the process runs in development mode.
// Internal error messages are only surfaced to clients in this mode.
func (c *Config) IsDevelopment() bool {
	return strings.ToLower(strings.TrimSpace(c.AppEnv)) != "production"
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseInt(value string, fallback int) int {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	n, err := strconv.Atoi(trimmed)
	if err != nil {
		return fallback
	}
	return n
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
