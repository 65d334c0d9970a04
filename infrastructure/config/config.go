package config

import (
	"errors"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	RateLimitBackendMemory = "memory"
	RateLimitBackendRedis  = "redis"
)

// RateLimitPolicy is the call limit and window for one operation.
type RateLimitPolicy struct {
	Limit  int
	Window time.Duration
}

type Config struct {
	DatabaseURL    string
	JWTSecret      string
	AccessTokenTTL time.Duration
	ServerPort     string
	ServerHost     string
	Environment    string

	RedisURL               string
	RateLimitEnabled       bool
	RateLimitBackend       string
	RateLimitMaxBuckets    int
	RateLimitSweepInterval time.Duration
	LoginRateLimit         RateLimitPolicy
	OnboardingRateLimit    RateLimitPolicy

	CSRFCookieName   string
	CSRFHeaderName   string
	CSRFCookieSecure bool
	CSRFCookieTTL    time.Duration

	AuditBufferSize int
	AuditWorkers    int

	OnboardingMaxConflictRetries int

	LogLevel  string
	LogFormat string

	CORSEnabled          bool
	CORSAllowedOrigins   []string
	CORSAllowCredentials bool

	// TrustedProxies lists the CIDRs (or bare IPs) of reverse proxies whose
	// forwarding headers are believed. Empty means RemoteAddr is the client.
	TrustedProxies []string
}

var (
	ErrMissingDatabaseURL      = errors.New("DATABASE_URL is required")
	ErrMissingJWTSecret        = errors.New("JWT_SECRET is required")
	ErrInvalidRateLimitBackend = errors.New("RATE_LIMIT_BACKEND must be memory or redis")
	ErrInvalidRateLimitPolicy  = errors.New("rate limit attempts and window must be positive")
	ErrInvalidDuration         = errors.New("invalid duration format")
	ErrInvalidTrustedProxy     = errors.New("TRUSTED_PROXIES must be a comma-separated list of CIDRs or IPs")
)

func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		ServerPort:  getEnvOrDefault("SERVER_PORT", "8080"),
		ServerHost:  getEnvOrDefault("SERVER_HOST", "localhost"),
		Environment: getEnvOrDefault("ENV", "development"),

		RedisURL:            getEnvOrDefault("REDIS_URL", "redis://localhost:6379/0"),
		RateLimitEnabled:    getEnvOrDefaultBool("RATE_LIMIT_ENABLED", true),
		RateLimitBackend:    strings.ToLower(getEnvOrDefault("RATE_LIMIT_BACKEND", RateLimitBackendMemory)),
		RateLimitMaxBuckets: getEnvOrDefaultInt("RATE_LIMIT_MAX_BUCKETS", 100000),

		CSRFCookieName:   getEnvOrDefault("CSRF_COOKIE_NAME", "csrf_token"),
		CSRFHeaderName:   getEnvOrDefault("CSRF_HEADER_NAME", "X-CSRF-Token"),
		CSRFCookieSecure: getEnvOrDefaultBool("CSRF_COOKIE_SECURE", false),

		AuditBufferSize: getEnvOrDefaultInt("AUDIT_BUFFER_SIZE", 1024),
		AuditWorkers:    getEnvOrDefaultInt("AUDIT_WORKERS", 2),

		OnboardingMaxConflictRetries: getEnvOrDefaultInt("ONBOARDING_MAX_CONFLICT_RETRIES", 3),

		LogLevel:  getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "json"),

		CORSEnabled:          getEnvOrDefaultBool("CORS_ENABLED", false),
		CORSAllowCredentials: getEnvOrDefaultBool("CORS_ALLOW_CREDENTIALS", true),
		CORSAllowedOrigins:   parseList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "")),

		TrustedProxies: parseList(getEnvOrDefault("TRUSTED_PROXIES", "")),
	}

	if cfg.DatabaseURL == "" {
		return nil, ErrMissingDatabaseURL
	}
	if cfg.JWTSecret == "" {
		return nil, ErrMissingJWTSecret
	}
	if cfg.RateLimitBackend != RateLimitBackendMemory && cfg.RateLimitBackend != RateLimitBackendRedis {
		return nil, ErrInvalidRateLimitBackend
	}
	for _, p := range cfg.TrustedProxies {
		if _, _, err := net.ParseCIDR(p); err != nil && net.ParseIP(p) == nil {
			return nil, ErrInvalidTrustedProxy
		}
	}

	var err error
	if cfg.AccessTokenTTL, err = getEnvDuration("JWT_ACCESS_TOKEN_TTL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.RateLimitSweepInterval, err = getEnvDuration("RATE_LIMIT_SWEEP_INTERVAL", time.Minute); err != nil {
		return nil, err
	}
	if cfg.CSRFCookieTTL, err = getEnvDuration("CSRF_COOKIE_TTL", 0); err != nil {
		return nil, err
	}

	if cfg.LoginRateLimit, err = loadPolicy("RATE_LIMIT_LOGIN", 10, 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.OnboardingRateLimit, err = loadPolicy("RATE_LIMIT_ONBOARDING", 30, time.Minute); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return c.ServerHost + ":" + c.ServerPort
}

func loadPolicy(prefix string, defaultLimit int, defaultWindow time.Duration) (RateLimitPolicy, error) {
	window, err := getEnvDuration(prefix+"_WINDOW", defaultWindow)
	if err != nil {
		return RateLimitPolicy{}, err
	}
	p := RateLimitPolicy{
		Limit:  getEnvOrDefaultInt(prefix+"_ATTEMPTS", defaultLimit),
		Window: window,
	}
	if p.Limit <= 0 || p.Window <= 0 {
		return RateLimitPolicy{}, ErrInvalidRateLimitPolicy
	}
	return p, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvOrDefaultBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return defaultValue
		}
		return parsed
	}
	return defaultValue
}

func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return defaultValue
		}
		return parsed
	}
	return defaultValue
}

// getEnvDuration interprets plain integers as seconds and anything else as a
// Go duration string.
func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	if n, err := strconv.Atoi(value); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, ErrInvalidDuration
	}
	return d, nil
}

// parseList splits a comma-separated value, dropping blank entries.
func parseList(value string) []string {
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	res := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			res = append(res, trimmed)
		}
	}
	return res
}
