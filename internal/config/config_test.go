package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"REDIS_URL":        "redis://localhost:6379/0",
		"JWT_SECRET":       "secret",
		"BACKEND_BASE_URL": "https://backend.example.com",

		"APP_ENV":            "",
		"PORT":               "",
		"BACKEND_TIMEOUT":    "",
		"CART_TTL":           "",
		"CART_REMIND_AFTER":  "",
		"CART_PRUNE_AFTER":   "",
		"CART_SCAN_CRON":     "",
		"WORKER_CONCURRENCY": "",
		"RATE_LIMIT":         "",
	})
	require.NoError(t, err)

	require.Equal(t, "development", cfg.AppEnv)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, 15*time.Second, cfg.BackendTimeout)
	require.Equal(t, 720*time.Hour, cfg.CartTTL)
	require.Equal(t, 72*time.Hour, cfg.CartRemindAfter)
	require.Equal(t, 720*time.Hour, cfg.CartPruneAfter)
	require.Equal(t, "@every 6h", cfg.InactivityCron)
	require.Equal(t, 10, cfg.WorkerConcurrency)
	require.Equal(t, "300-M", cfg.RateLimit)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"REDIS_URL":            "redis://localhost:6379/1",
		"JWT_SECRET":           "secret",
		"JWT_ISSUER":           "duka",
		"BACKEND_BASE_URL":     "https://backend.example.com",
		"PORT":                 "9090",
		"CART_REMIND_AFTER":    "48h",
		"CORS_ALLOWED_ORIGINS": "https://shop.example.com, https://admin.example.com",
	})
	require.NoError(t, err)

	require.Equal(t, ":9090", cfg.HTTPAddr())
	require.Equal(t, "duka", cfg.JWTIssuer)
	require.Equal(t, 48*time.Hour, cfg.CartRemindAfter)
	require.Equal(t, []string{"https://shop.example.com", "https://admin.example.com"}, cfg.CORSAllowedOrigins)
}

func TestLoadRequiredVariables(t *testing.T) {
	cases := []map[string]string{
		{"REDIS_URL": "", "JWT_SECRET": "secret", "BACKEND_BASE_URL": "https://b.example.com"},
		{"REDIS_URL": "redis://localhost:6379", "JWT_SECRET": "", "BACKEND_BASE_URL": "https://b.example.com"},
		{"REDIS_URL": "redis://localhost:6379", "JWT_SECRET": "secret", "BACKEND_BASE_URL": ""},
	}
	for _, environ := range cases {
		_, err := LoadForTests(environ)
		require.Error(t, err)
	}
}

func TestParseDurationFallsBack(t *testing.T) {
	require.Equal(t, 15*time.Second, parseDuration("not-a-duration", "15s"))
	require.Equal(t, time.Minute, parseDuration("", "1m"))
	require.Equal(t, 2*time.Hour, parseDuration("2h", "1m"))
}
