package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Email     EmailConfig
	Surprise  SurpriseConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Host        string
	Port        int
	Environment string // "development", "production", "test"
	Debug       bool
	StaticDir   string
	TemplateDir string
}

type DatabaseConfig struct {
	Driver     string // "postgres", "sqlite"
	Host       string
	Port       int
	User       string
	Password   string
	DBName     string
	SSLMode    string
	SQLitePath string
	MaxConns   int32 // zero keeps the driver default
	MinConns   int32
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	PoolSize int
}

type EmailConfig struct {
	Provider     string // "resend", "console"
	FromAddress  string
	FromName     string
	ResendAPIKey string
}

// SurpriseConfig locates the surprise document served at /api/config.
type SurpriseConfig struct {
	DocumentPath string
	SSMParameter string
	AWSRegion    string
	CacheTTL     time.Duration
	VisitorTTL   time.Duration
}

type RateLimitConfig struct {
	MessagesPerHour int64
}

// ClientConfig drives the terminal client in cmd/surprise.
type ClientConfig struct {
	APIURL      string
	VisitorID   string // empty: read or create VisitorFile
	VisitorFile string
	OpenMail    bool
	LogFile     string // empty: discard logs, the terminal belongs to the UI
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

func (d DatabaseConfig) UsesSQLite() bool {
	return strings.EqualFold(d.Driver, "sqlite")
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:        getEnv("SERVER_HOST", "0.0.0.0"),
			Port:        getEnvInt("SERVER_PORT", 8080),
			Environment: getEnv("APP_ENV", "development"),
			Debug:       getEnvBool("DEBUG", false),
			StaticDir:   getEnvNonEmpty("STATIC_DIR", "web/static"),
			TemplateDir: getEnvNonEmpty("TEMPLATE_DIR", "web/templates"),
		},
		Database: DatabaseConfig{
			Driver:     getEnvNonEmpty("DB_DRIVER", "postgres"),
			Host:       getEnv("DB_HOST", "localhost"),
			Port:       getEnvInt("DB_PORT", 5432),
			User:       getEnv("DB_USER", "surprise"),
			Password:   getEnv("DB_PASSWORD", "surprise"),
			DBName:     getEnv("DB_NAME", "birthday_surprise"),
			SSLMode:    getEnv("DB_SSLMODE", "disable"),
			SQLitePath: getEnvNonEmpty("SQLITE_PATH", "data/messages.db"),
			MaxConns:   int32(getEnvInt("DB_MAX_CONNS", 10)),
			MinConns:   int32(getEnvInt("DB_MIN_CONNS", 0)),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			PoolSize: getEnvInt("REDIS_POOL_SIZE", 0),
		},
		Email: EmailConfig{
			Provider:     getEnv("EMAIL_PROVIDER", "console"),
			FromAddress:  getEnv("EMAIL_FROM_ADDRESS", "surprise@example.com"),
			FromName:     getEnv("EMAIL_FROM_NAME", "Birthday Surprise"),
			ResendAPIKey: getEnv("RESEND_API_KEY", ""),
		},
		Surprise: SurpriseConfig{
			DocumentPath: getEnvNonEmpty("SURPRISE_CONFIG_PATH", "config.json"),
			SSMParameter: getEnv("SURPRISE_CONFIG_SSM_PARAMETER", ""),
			AWSRegion:    getEnv("AWS_REGION", ""),
			CacheTTL:     getEnvDuration("SURPRISE_CONFIG_TTL", 30*time.Second),
			VisitorTTL:   getEnvDuration("VISITOR_STATE_TTL", 30*24*time.Hour),
		},
		RateLimit: RateLimitConfig{
			MessagesPerHour: int64(getEnvInt("MESSAGES_RATE_LIMIT", 20)),
		},
	}

	if cfg.Database.Driver != "postgres" && !cfg.Database.UsesSQLite() {
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Database.Driver)
	}
	if cfg.Email.Provider == "resend" && strings.TrimSpace(cfg.Email.ResendAPIKey) == "" {
		return nil, fmt.Errorf("RESEND_API_KEY is required when EMAIL_PROVIDER=resend")
	}

	return cfg, nil
}

func LoadClient() ClientConfig {
	return ClientConfig{
		APIURL:      getEnvNonEmpty("SURPRISE_API_URL", "http://localhost:8080"),
		VisitorID:   strings.TrimSpace(getEnv("SURPRISE_VISITOR_ID", "")),
		VisitorFile: getEnv("SURPRISE_VISITOR_FILE", ""),
		OpenMail:    getEnvBool("SURPRISE_OPEN_MAIL", true),
		LogFile:     getEnv("SURPRISE_LOG_FILE", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvNonEmpty(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		if strings.TrimSpace(value) != "" {
			return value
		}
		return defaultValue
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if parsed, err := time.ParseDuration(value); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}
