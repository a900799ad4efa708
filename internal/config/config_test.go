package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-kursus/internal/config"
)

func TestLoadRequiresStripeSecretKey(t *testing.T) {
	_, err := config.LoadForTests(map[string]string{
		"STRIPE_SECRET_KEY": "",
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "STRIPE_SECRET_KEY")
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.LoadForTests(map[string]string{
		"STRIPE_SECRET_KEY":     "sk_test_123",
		"PORT":                  "",
		"APP_ENV":               "",
		"CURRENCY_CODE":         "",
		"CHECKOUT_SUCCESS_URL":  "",
		"CHECKOUT_CANCEL_URL":   "",
		"WEBHOOK_REPLAY_TTL":    "",
		"RATE_LIMIT_WINDOW":     "",
		"RATE_LIMIT_MAX":        "",
		"CORS_ALLOWED_ORIGINS":  "",
		"STRIPE_WEBHOOK_SECRET": "",
	})
	require.NoError(t, err)
	require.Equal(t, "development", cfg.AppEnv)
	require.True(t, cfg.IsDevelopment())
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, "usd", cfg.CurrencyCode)
	require.Equal(t, 72*time.Hour, cfg.WebhookReplayTTL)
	require.Equal(t, time.Minute, cfg.RateLimitWindow)
	require.Equal(t, 30, cfg.RateLimitMax)
	require.Empty(t, cfg.StripeWebhookSecret)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := config.LoadForTests(map[string]string{
		"STRIPE_SECRET_KEY":    "sk_test_123",
		"APP_ENV":              "production",
		"PORT":                 "9090",
		"CURRENCY_CODE":        "EUR",
		"CORS_ALLOWED_ORIGINS": "https://a.example, https://b.example",
		"WEBHOOK_REPLAY_TTL":   "24h",
	})
	require.NoError(t, err)
	require.False(t, cfg.IsDevelopment())
	require.Equal(t, ":9090", cfg.HTTPAddr())
	require.Equal(t, "eur", cfg.CurrencyCode)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	require.Equal(t, 24*time.Hour, cfg.WebhookReplayTTL)
}
