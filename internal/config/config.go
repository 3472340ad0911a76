package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	Log       LogConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	rateLimit, err := loadRateLimitConfig()
	if err != nil {
		return nil, err
	}

	store, err := loadStoreConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:    server,
		Store:     store,
		Log:       loadLogConfig(),
		RateLimit: rateLimit,
		CORS:      loadCORSConfig(),
	}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "5002"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":5002" 或 "127.0.0.1:5002"。
		return ServerConfig{Addr: port}, nil
	}

	if _, err := strconv.Atoi(port); err != nil {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// Store backends.
const (
	StoreBackendFile   = "file"
	StoreBackendMemory = "memory"
)

// StoreConfig 描述帖子存储。file 后端使用 JSON 文件，memory 后端仅用于本地调试。
type StoreConfig struct {
	Backend string
	Path    string
	Seed    bool
}

func loadStoreConfig() (StoreConfig, error) {
	backend := getEnvOrDefault("STORE_BACKEND", StoreBackendFile)
	if backend != StoreBackendFile && backend != StoreBackendMemory {
		return StoreConfig{}, fmt.Errorf("invalid STORE_BACKEND value %q: want %q or %q", backend, StoreBackendFile, StoreBackendMemory)
	}

	seed, err := parseBoolEnv("STORE_SEED", false)
	if err != nil {
		return StoreConfig{}, err
	}

	return StoreConfig{
		Backend: backend,
		Path:    getEnvOrDefault("POSTS_FILE", "posts.json"),
		Seed:    seed,
	}, nil
}

// LogConfig selects the zap preset ("production" or "development") and level.
type LogConfig struct {
	Env   string
	Level string
}

func loadLogConfig() LogConfig {
	return LogConfig{
		Env:   getEnvOrDefault("LOG_ENV", "development"),
		Level: strings.TrimSpace(os.Getenv("LOG_LEVEL")),
	}
}

// RateLimitConfig 描述每个客户端的限流参数。
type RateLimitConfig struct {
	Enabled  bool
	Requests int
	Window   time.Duration
	Burst    int
}

func loadRateLimitConfig() (RateLimitConfig, error) {
	enabled, err := parseBoolEnv("RATE_LIMIT_ENABLED", true)
	if err != nil {
		return RateLimitConfig{}, err
	}

	requests := 10
	if override, err := parseOptionalIntEnv("RATE_LIMIT_REQUESTS"); err != nil {
		return RateLimitConfig{}, err
	} else if override != nil {
		if *override < 1 {
			return RateLimitConfig{}, fmt.Errorf("invalid RATE_LIMIT_REQUESTS value %d: must be positive", *override)
		}
		requests = *override
	}

	window := time.Minute
	if override, err := parseOptionalDurationEnv("RATE_LIMIT_WINDOW"); err != nil {
		return RateLimitConfig{}, err
	} else if override != nil {
		if *override <= 0 {
			return RateLimitConfig{}, fmt.Errorf("invalid RATE_LIMIT_WINDOW value %s: must be positive", *override)
		}
		window = *override
	}

	// 默认突发容量等于窗口内的请求数，与 "10/minute" 的语义一致。
	burst := requests
	if override, err := parseOptionalIntEnv("RATE_LIMIT_BURST"); err != nil {
		return RateLimitConfig{}, err
	} else if override != nil && *override > 0 {
		burst = *override
	}

	return RateLimitConfig{
		Enabled:  enabled,
		Requests: requests,
		Window:   window,
		Burst:    burst,
	}, nil
}

// CORSConfig lists the origins allowed to call the API.
type CORSConfig struct {
	AllowedOrigins []string
}

func loadCORSConfig() CORSConfig {
	var origins []string
	for _, origin := range strings.Split(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "*"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return CORSConfig{AllowedOrigins: origins}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalDurationEnv(key string) (*time.Duration, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := time.ParseDuration(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
