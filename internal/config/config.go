package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App         AppConfig
	Postgres    PostgresConfig
	Redis       RedisConfig
	Logger      LoggerConfig
	Auth        AuthConfig
	Notify      NotifyConfig
	Storage     StorageConfig
	Attachments AttachmentConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines token verification parameters. Token issuance
// lives in the identity service; this service only verifies.
type AuthConfig struct {
	JWTSecret string
}

// NotifyConfig holds recipient override lists and channel settings.
// Resolved once at startup; the lists are immutable afterwards.
type NotifyConfig struct {
	EmailFrom           string
	EmailFromName       string
	SendgridAPIKey      string
	SMSGatewayURL       string
	SMSGatewayToken     string
	SMSMaxLength        int
	PlatformEmails      []string
	PlatformPhones      []string
	EmergencyEmails     []string
	EmergencyPhones     []string
	RecipientCacheTTL   time.Duration
	DispatchWorkers     int
	DispatchQueueLength int
}

// StorageConfig points at the external blob store.
type StorageConfig struct {
	BaseURL      string
	ServiceToken string
	Bucket       string
}

// AttachmentConfig bounds attachment registration.
type AttachmentConfig struct {
	MaxSizeBytes int64
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "workorder-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("AUTH_JWT_SECRET", "dev-secret"),
		},
		Notify: NotifyConfig{
			EmailFrom:           getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			EmailFromName:       getEnv("NOTIFY_EMAIL_FROM_NAME", "Work Orders"),
			SendgridAPIKey:      os.Getenv("SENDGRID_API_KEY"),
			SMSGatewayURL:       os.Getenv("SMS_GATEWAY_URL"),
			SMSGatewayToken:     os.Getenv("SMS_GATEWAY_TOKEN"),
			SMSMaxLength:        getEnvAsInt("SMS_MAX_LENGTH", 300),
			PlatformEmails:      getEnvAsList("NOTIFY_PLATFORM_EMAILS"),
			PlatformPhones:      getEnvAsList("NOTIFY_PLATFORM_PHONES"),
			EmergencyEmails:     getEnvAsList("NOTIFY_EMERGENCY_EMAILS"),
			EmergencyPhones:     getEnvAsList("NOTIFY_EMERGENCY_PHONES"),
			RecipientCacheTTL:   time.Duration(getEnvAsInt("NOTIFY_RECIPIENT_CACHE_TTL_SECONDS", 300)) * time.Second,
			DispatchWorkers:     getEnvAsInt("NOTIFY_DISPATCH_WORKERS", 4),
			DispatchQueueLength: getEnvAsInt("NOTIFY_DISPATCH_QUEUE_LENGTH", 256),
		},
		Storage: StorageConfig{
			BaseURL:      os.Getenv("BLOB_STORAGE_URL"),
			ServiceToken: os.Getenv("BLOB_STORAGE_TOKEN"),
			Bucket:       getEnv("BLOB_STORAGE_BUCKET", "workorder-files"),
		},
		Attachments: AttachmentConfig{
			MaxSizeBytes: int64(getEnvAsInt("ATTACHMENT_MAX_SIZE_BYTES", 26214400)),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsList(key string) []string {
	val := os.Getenv(key)
	if val == "" {
		return nil
	}
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
