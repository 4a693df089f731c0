package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DraftStorePostgres = "postgres"
	DraftStoreMemory   = "memory"
)

type Config struct {
	Addr                 string
	Environment          string
	DatabaseURL          string
	DraftStore           string
	JWTSecret            string
	DataEncryptionKey    string
	BackendURL           string
	BackendTimeout       time.Duration
	BaseDomain           string
	Locales              []string
	DefaultLocale        string
	SessionCookie        string
	SessionTTL           time.Duration
	LocalUsersFile       string
	FrontendDir          string
	RunMigrations        bool
	MigrationsDir        string
	MaxBodyBytes         int64
	RateLimitPerMinute   int
	DraftTTL             time.Duration
	DraftJanitorInterval time.Duration
	MetricsEnabled       bool
	TrustProxy           bool
}

func Load() Config {
	return Config{
		Addr:                 getEnv("APP_ADDR", ":8080"),
		Environment:          getEnv("APP_ENV", "development"),
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		DraftStore:           strings.ToLower(getEnv("DRAFT_STORE", DraftStorePostgres)),
		JWTSecret:            getEnv("JWT_SECRET", ""),
		DataEncryptionKey:    getEnv("DATA_ENCRYPTION_KEY", ""),
		BackendURL:           getEnv("BACKEND_URL", "http://localhost:4000"),
		BackendTimeout:       getEnvDuration("BACKEND_TIMEOUT", 15*time.Second),
		BaseDomain:           strings.ToLower(getEnv("BASE_DOMAIN", "hr-ify.com")),
		Locales:              getEnvList("LOCALES", []string{"en", "ar"}),
		DefaultLocale:        getEnv("DEFAULT_LOCALE", "en"),
		SessionCookie:        getEnv("SESSION_COOKIE", "hrify_session"),
		SessionTTL:           getEnvDuration("SESSION_TTL", 8*time.Hour),
		LocalUsersFile:       getEnv("LOCAL_USERS_FILE", ""),
		FrontendDir:          getEnv("FRONTEND_DIR", "frontend/dist"),
		RunMigrations:        getEnvBool("RUN_MIGRATIONS", true),
		MigrationsDir:        getEnv("MIGRATIONS_DIR", "migrations"),
		MaxBodyBytes:         int64(getEnvInt("MAX_BODY_BYTES", 1048576)),
		RateLimitPerMinute:   getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
		DraftTTL:             getEnvDuration("DRAFT_TTL", 30*24*time.Hour),
		DraftJanitorInterval: getEnvDuration("DRAFT_JANITOR_INTERVAL", time.Hour),
		MetricsEnabled:       getEnvBool("METRICS_ENABLED", true),
		TrustProxy:           getEnvBool("TRUST_PROXY", false),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func (c Config) Validate() error {
	switch c.DraftStore {
	case DraftStorePostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return fmt.Errorf("DATABASE_URL is required when DRAFT_STORE=postgres")
		}
	case DraftStoreMemory:
	default:
		return fmt.Errorf("DRAFT_STORE must be %q or %q", DraftStorePostgres, DraftStoreMemory)
	}
	if strings.TrimSpace(c.BackendURL) == "" {
		return fmt.Errorf("BACKEND_URL is required")
	}
	if strings.TrimSpace(c.BaseDomain) == "" {
		return fmt.Errorf("BASE_DOMAIN is required")
	}
	if !c.HasLocale(c.DefaultLocale) {
		return fmt.Errorf("DEFAULT_LOCALE %q must be listed in LOCALES", c.DefaultLocale)
	}
	if c.Environment == "production" {
		if strings.TrimSpace(c.JWTSecret) == "" {
			return fmt.Errorf("JWT_SECRET must be set to a strong value in production")
		}
		if strings.TrimSpace(c.DataEncryptionKey) == "" {
			return fmt.Errorf("DATA_ENCRYPTION_KEY must be set in production to seal draft secrets")
		}
		if c.DraftStore == DraftStoreMemory {
			return fmt.Errorf("DRAFT_STORE=memory is not allowed in production")
		}
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	return nil
}

func (c Config) HasLocale(locale string) bool {
	locale = strings.ToLower(strings.TrimSpace(locale))
	for _, candidate := range c.Locales {
		if candidate == locale {
			return true
		}
	}
	return false
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}
