package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Upstream UpstreamConfig
	JWT      JWTConfig
	Redis    RedisConfig
	AWS      AWSConfig
	Admin    AdminConfig
	Logging  LoggingConfig
	CORS     CORSConfig
}

type ServerConfig struct {
	Port          string
	RatePerSecond int
	RateBurst     int
}

// UpstreamConfig points at the job-board backend that owns companies and jobs.
type UpstreamConfig struct {
	BaseURL       string
	Timeout       time.Duration
	RatePerSecond int
	RateBurst     int
}

type JWTConfig struct {
	SigningKey string
	Issuer     string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	FromEmail       string
	EndpointURL     string
}

// AdminConfig tunes the delegation core.
//
// BootstrapEmails is a temporary bootstrap mechanism: addresses listed here
// classify as super-admin even without the admin role or the staff+superuser
// flag pair. Leave it empty once real role assignment is in place.
type AdminConfig struct {
	BootstrapEmails  []string
	GuardInterval    time.Duration
	GuardIdleTTL     time.Duration
	RegistryFreshFor time.Duration
	RegistryIdleTTL  time.Duration
}

type LoggingConfig struct {
	Filename   string
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
	Level      string
	Format     string
}

type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:          getEnv("SERVER_PORT", "8080"),
			RatePerSecond: getEnvInt("SERVER_RATE_PER_SECOND", 50),
			RateBurst:     getEnvInt("SERVER_RATE_BURST", 100),
		},
		Upstream: UpstreamConfig{
			BaseURL:       getEnv("UPSTREAM_BASE_URL", "http://localhost:9000"),
			Timeout:       getEnvDuration("UPSTREAM_TIMEOUT", 15*time.Second),
			RatePerSecond: getEnvInt("UPSTREAM_RATE_PER_SECOND", 20),
			RateBurst:     getEnvInt("UPSTREAM_RATE_BURST", 40),
		},
		JWT: JWTConfig{
			SigningKey: getEnv("JWT_SIGNING_KEY", "default-signing-key-change-in-production"),
			Issuer:     getEnv("JWT_ISSUER", "jobdeck"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			FromEmail:       getEnv("SES_FROM_EMAIL", "no-reply@jobdeck.io"),
			EndpointURL:     getEnv("AWS_ENDPOINT_URL", ""),
		},
		Admin: AdminConfig{
			BootstrapEmails:  getEnvList("ADMIN_BOOTSTRAP_EMAILS", nil),
			GuardInterval:    getEnvDuration("ADMIN_GUARD_INTERVAL", 30*time.Second),
			GuardIdleTTL:     getEnvDuration("ADMIN_GUARD_IDLE_TTL", 30*time.Minute),
			RegistryFreshFor: getEnvDuration("ADMIN_REGISTRY_FRESH_FOR", 10*time.Second),
			RegistryIdleTTL:  getEnvDuration("ADMIN_REGISTRY_IDLE_TTL", 30*time.Minute),
		},
		Logging: LoggingConfig{
			Filename:   getEnv("LOG_FILENAME", "logs/admin-backend.log"),
			MaxSize:    getEnvInt("LOG_MAX_SIZE", 100),
			MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 5),
			MaxAge:     getEnvInt("LOG_MAX_AGE", 30),
			Compress:   getEnvBool("LOG_COMPRESS", true),
			Level:      getEnv("LOG_LEVEL", "info"),
			Format:     getEnv("LOG_FORMAT", "json"),
		},
		CORS: CORSConfig{
			AllowedOrigins:   getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
