package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Cache backend constants
const (
	CacheTypeMemory = "memory"
	CacheTypeRedis  = "redis"
)

// DefaultTokenTTL is applied when no TTL configuration is present.
// Matches the legacy gateway default (86400000 ms).
const DefaultTokenTTL = 24 * time.Hour

type Config struct {
	// Server settings
	ServerAddr   string
	BaseURL      string
	IsProduction bool

	// Token settings
	JWTSecret              string
	AccessTokenExpiration  time.Duration
	RefreshTokenExpiration time.Duration
	EnableTokenRotation    bool

	// Login state settings
	StateExpiration time.Duration

	// Google OAuth
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	GoogleScopes       []string

	// Outbound provider HTTP client
	OAuthTimeout    time.Duration
	OAuthMaxRetries int
	OAuthRetryDelay time.Duration

	// Session tracking / revocation
	EnableSessionTracking bool

	// Cache backend
	CacheType     string // "memory" or "redis"
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisTLS      bool
	RedisTimeout  time.Duration

	// Rate limiting
	EnableRateLimit    bool
	RateLimitPerMinute int
	RateLimitStoreType string // "memory" or "redis"

	// Metrics
	MetricsEnabled bool
	MetricsToken   string

	// Backend service routing
	TransformerServiceURL string
	MLServiceURL          string
}

func Load() *Config {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	return &Config{
		ServerAddr:   getEnv("SERVER_ADDR", ":8080"),
		BaseURL:      getEnv("BASE_URL", "http://localhost:8080"),
		IsProduction: getEnvBool("PRODUCTION", false),

		JWTSecret:              os.Getenv("JWT_SECRET"),
		AccessTokenExpiration:  getEnvTTL("ACCESS_TOKEN_EXPIRATION"),
		RefreshTokenExpiration: getEnvTTL("REFRESH_TOKEN_EXPIRATION"),
		EnableTokenRotation:    getEnvBool("ENABLE_TOKEN_ROTATION", false),

		StateExpiration: getEnvDuration("LOGIN_STATE_EXPIRATION", 10*time.Minute),

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URI", ""),
		GoogleScopes:       getEnvSlice("GOOGLE_SCOPES", []string{"openid", "profile", "email"}),

		OAuthTimeout:    getEnvDuration("OAUTH_TIMEOUT", 5*time.Second),
		OAuthMaxRetries: getEnvInt("OAUTH_MAX_RETRIES", 1),
		OAuthRetryDelay: getEnvDuration("OAUTH_RETRY_DELAY", 500*time.Millisecond),

		EnableSessionTracking: getEnvBool("ENABLE_SESSION_TRACKING", false),

		CacheType:     getEnv("CACHE_TYPE", CacheTypeMemory),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		RedisTLS:      getEnvBool("REDIS_TLS", true),
		RedisTimeout:  getEnvDuration("REDIS_TIMEOUT", 2*time.Second),

		EnableRateLimit:    getEnvBool("ENABLE_RATE_LIMIT", false),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		RateLimitStoreType: getEnv("RATE_LIMIT_STORE", "memory"),

		MetricsEnabled: getEnvBool("METRICS_ENABLED", true),
		MetricsToken:   getEnv("METRICS_TOKEN", ""),

		TransformerServiceURL: getEnv("TRANSFORMER_SERVICE_URL", "http://localhost:9020"),
		MLServiceURL:          getEnv("ML_SERVICE_URL", "http://localhost:9010"),
	}
}

// Validate checks settings the process cannot run without.
// Provider settings are validated lazily so a gateway without federated
// login configured can still serve its routing endpoints.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.IsProduction && len(c.JWTSecret) < 32 {
		return errors.New("JWT_SECRET must be at least 32 bytes in production")
	}
	if c.AccessTokenExpiration <= 0 || c.RefreshTokenExpiration <= 0 {
		return errors.New("token expirations must be positive")
	}
	if c.CacheType != CacheTypeMemory && c.CacheType != CacheTypeRedis {
		return fmt.Errorf("unsupported cache type: %s", c.CacheType)
	}
	return nil
}

// GoogleConfigured reports whether the Google login capability is usable.
func (c *Config) GoogleConfigured() bool {
	return c.GoogleClientID != "" && c.GoogleRedirectURL != ""
}

// ParseTTL converts a TTL setting into a duration. Both forms used by
// deployments are accepted: a bare integer is taken as milliseconds
// ("86400000"), anything else must be a Go duration string ("24h").
func ParseTTL(value string) (time.Duration, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, errors.New("empty duration")
	}
	if ms, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		if ms <= 0 {
			return 0, fmt.Errorf("non-positive duration: %s", trimmed)
		}
		return time.Duration(ms) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(trimmed)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", trimmed, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("non-positive duration: %s", trimmed)
	}
	return d, nil
}

// getEnvTTL reads a TTL setting via ParseTTL. The fallback is deliberate
// and loud: running with the default lifetime should be visible in logs.
func getEnvTTL(key string) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		log.Printf("[Config] %s not set, falling back to %s", key, DefaultTokenTTL)
		return DefaultTokenTTL
	}
	d, err := ParseTTL(value)
	if err != nil {
		log.Printf("[Config] invalid %s (%v), falling back to %s", key, err, DefaultTokenTTL)
		return DefaultTokenTTL
	}
	return d
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var parts []string
		for _, part := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				parts = append(parts, trimmed)
			}
		}
		if len(parts) > 0 {
			return parts
		}
	}
	return defaultValue
}
