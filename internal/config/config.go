package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Cache backend constants
const (
	CacheTypeMemory       = "memory"
	CacheTypeRueidis      = "rueidis"
	CacheTypeRueidisAside = "rueidis_aside"
)

// CommonGround component names used in resource descriptors
const (
	ComponentUserCredential = "uc"  // user-credential service (users, tokens, providers)
	ComponentContact        = "cc"  // contact service (people)
	ComponentApplication    = "wrc" // application/organization registry
)

type Config struct {
	// Server settings
	ServerAddr string
	BaseURL    string

	// Session settings
	SessionSecret string

	// Application identity
	ApplicationID string
	AppSubpath    string // optional URL prefix for redirect targets ("" = none)

	// Routes
	LoginPath             string // external-login entry point
	CallbackPath          string // OIDC callback route
	ProfileCompletionPath string // where brand-new users land
	DefaultLandingPath    string // fallback landing page

	// CommonGround microservices
	ComponentURLs          map[string]string // component name -> base URL
	CommonGroundAuthMode   string            // "none", "simple", or "hmac"
	CommonGroundAuthSecret string
	CommonGroundAuthHeader string
	CommonGroundTimeout    time.Duration

	// Health probe retry settings (operator surface, not the login path)
	HealthMaxRetries    int
	HealthRetryDelay    time.Duration
	HealthMaxRetryDelay time.Duration

	// External OIDC provider (IDIN / Signicat)
	IdinIssuerURL          string
	IdinClientID           string
	IdinClientSecret       string
	IdinTimeout            time.Duration
	IdinInsecureSkipVerify bool

	// Company registry (KVK)
	KvkBaseURL string
	KvkTimeout time.Duration

	// Database
	DatabaseDriver string // "sqlite" or "postgres"
	DatabaseDSN    string

	// Login audit log
	LoginLogEnabled    bool
	LoginLogBufferSize int
	LoginLogRetention  time.Duration

	// Application-config cache (resident city names)
	CacheType         string
	AppConfigCacheTTL time.Duration
	RedisAddr         string
	RedisPassword     string
	RedisDB           int

	// Metrics
	MetricsEnabled bool

	// Rate limiting on the login endpoints
	RateLimitEnabled   bool
	RateLimitPerMinute int
	RateLimitStore     string // "memory" or "redis"
}

func Load() *Config {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	// Determine database driver and DSN
	driver := getEnv("DATABASE_DRIVER", "sqlite")
	var dsn string
	if driver == "sqlite" {
		dsn = getEnv("DATABASE_DSN", "commonground.db")
	} else {
		dsn = getEnv("DATABASE_DSN", "")
	}

	return &Config{
		ServerAddr:    getEnv("SERVER_ADDR", ":8080"),
		BaseURL:       getEnv("BASE_URL", "http://localhost:8080"),
		SessionSecret: getEnv("SESSION_SECRET", "session-secret-change-in-production"),

		ApplicationID: getEnv("APP_ID", ""),
		AppSubpath:    normalizeSubpath(getEnv("APP_SUBPATH", "")),

		LoginPath:             getEnv("LOGIN_PATH", "/login/idin"),
		CallbackPath:          getEnv("CALLBACK_PATH", "/login/idin/callback"),
		ProfileCompletionPath: getEnv("PROFILE_COMPLETION_PATH", "/profile/complete"),
		DefaultLandingPath:    getEnv("DEFAULT_LANDING_PATH", "/"),

		ComponentURLs: map[string]string{
			ComponentUserCredential: getEnv("UC_BASE_URL", ""),
			ComponentContact:        getEnv("CC_BASE_URL", ""),
			ComponentApplication:    getEnv("WRC_BASE_URL", ""),
		},
		CommonGroundAuthMode:   getEnv("COMMONGROUND_AUTH_MODE", "simple"),
		CommonGroundAuthSecret: getEnv("COMMONGROUND_AUTH_SECRET", ""),
		CommonGroundAuthHeader: getEnv("COMMONGROUND_AUTH_HEADER", "Authorization"),
		CommonGroundTimeout:    getEnvDuration("COMMONGROUND_TIMEOUT", 2*time.Second),

		HealthMaxRetries:    getEnvInt("HEALTH_MAX_RETRIES", 2),
		HealthRetryDelay:    getEnvDuration("HEALTH_RETRY_DELAY", 1*time.Second),
		HealthMaxRetryDelay: getEnvDuration("HEALTH_MAX_RETRY_DELAY", 5*time.Second),

		IdinIssuerURL:          getEnv("IDIN_ISSUER_URL", "https://eu01.preprod.signicat.com"),
		IdinClientID:           getEnv("IDIN_CLIENT_ID", ""),
		IdinClientSecret:       getEnv("IDIN_CLIENT_SECRET", ""),
		IdinTimeout:            getEnvDuration("IDIN_TIMEOUT", 2*time.Second),
		IdinInsecureSkipVerify: getEnvBool("IDIN_INSECURE_SKIP_VERIFY", false),

		KvkBaseURL: getEnv("KVK_BASE_URL", "https://api.kvk.nl"),
		KvkTimeout: getEnvDuration("KVK_TIMEOUT", 2*time.Second),

		DatabaseDriver: driver,
		DatabaseDSN:    dsn,

		LoginLogEnabled:    getEnvBool("LOGIN_LOG_ENABLED", true),
		LoginLogBufferSize: getEnvInt("LOGIN_LOG_BUFFER_SIZE", 1000),
		LoginLogRetention:  getEnvDuration("LOGIN_LOG_RETENTION", 2160*time.Hour), // 90 days

		CacheType:         getEnv("CACHE_TYPE", CacheTypeMemory),
		AppConfigCacheTTL: getEnvDuration("APP_CONFIG_CACHE_TTL", 5*time.Minute),
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		RedisDB:           getEnvInt("REDIS_DB", 0),

		MetricsEnabled: getEnvBool("METRICS_ENABLED", false),

		RateLimitEnabled:   getEnvBool("RATE_LIMIT_ENABLED", true),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		RateLimitStore:     getEnv("RATE_LIMIT_STORE", "memory"),
	}
}

// Validate checks that the configuration is complete enough to start
func (c *Config) Validate() error {
	if c.ApplicationID == "" {
		return fmt.Errorf("APP_ID is required")
	}
	if c.IdinClientID == "" || c.IdinClientSecret == "" {
		return fmt.Errorf("IDIN_CLIENT_ID and IDIN_CLIENT_SECRET are required")
	}
	for component, baseURL := range c.ComponentURLs {
		if baseURL == "" {
			return fmt.Errorf("base URL for component %q is not configured", component)
		}
		if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
			return fmt.Errorf("base URL for component %q must be an http(s) URL", component)
		}
	}
	if c.DatabaseDriver != "sqlite" && c.DatabaseDriver != "postgres" {
		return fmt.Errorf("unsupported database driver: %s", c.DatabaseDriver)
	}
	if c.DatabaseDriver == "postgres" && c.DatabaseDSN == "" {
		return fmt.Errorf("DATABASE_DSN is required for postgres")
	}
	switch c.CacheType {
	case CacheTypeMemory, CacheTypeRueidis, CacheTypeRueidisAside:
	default:
		return fmt.Errorf("unsupported cache type: %s", c.CacheType)
	}
	return nil
}

// normalizeSubpath strips surrounding slashes and treats the literal "false"
// as unset, matching how deployments disable the subpath.
func normalizeSubpath(s string) string {
	s = strings.Trim(strings.TrimSpace(s), "/")
	if s == "false" {
		return ""
	}
	return s
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
		var i int
		if _, err := fmt.Sscanf(value, "%d", &i); err == nil {
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
