package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "POSTS_FILE", "STORE_BACKEND", "STORE_SEED", "LOG_ENV", "LOG_LEVEL",
		"RATE_LIMIT_ENABLED", "RATE_LIMIT_REQUESTS", "RATE_LIMIT_WINDOW", "RATE_LIMIT_BURST",
		"CORS_ALLOWED_ORIGINS",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":5002", cfg.Server.Addr)
	assert.Equal(t, StoreConfig{Backend: StoreBackendFile, Path: "posts.json"}, cfg.Store)
	assert.Equal(t, "development", cfg.Log.Env)
	assert.Equal(t, "", cfg.Log.Level)
	assert.Equal(t, RateLimitConfig{Enabled: true, Requests: 10, Window: time.Minute, Burst: 10}, cfg.RateLimit)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "127.0.0.1:9000")
	t.Setenv("POSTS_FILE", "/var/lib/blog/posts.json")
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("STORE_SEED", "true")
	t.Setenv("LOG_ENV", "production")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("RATE_LIMIT_ENABLED", "false")
	t.Setenv("RATE_LIMIT_REQUESTS", "100")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")
	t.Setenv("RATE_LIMIT_BURST", "20")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.example, http://b.example ,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, StoreConfig{Backend: StoreBackendMemory, Path: "/var/lib/blog/posts.json", Seed: true}, cfg.Store)
	assert.Equal(t, LogConfig{Env: "production", Level: "debug"}, cfg.Log)
	assert.Equal(t, RateLimitConfig{Enabled: false, Requests: 100, Window: 30 * time.Second, Burst: 20}, cfg.RateLimit)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.CORS.AllowedOrigins)
}

func TestLoadBurstFollowsRequests(t *testing.T) {
	clearEnv(t)
	t.Setenv("RATE_LIMIT_REQUESTS", "3")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.RateLimit.Burst)
}

func TestLoadInvalidValues(t *testing.T) {
	cases := map[string]string{
		"PORT":                "eighty",
		"STORE_BACKEND":       "sqlite",
		"STORE_SEED":          "often",
		"RATE_LIMIT_ENABLED":  "maybe",
		"RATE_LIMIT_REQUESTS": "0",
		"RATE_LIMIT_WINDOW":   "soon",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, value)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}
