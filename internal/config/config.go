package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port        int
	Environment string
	Database    DatabaseConfig
	Telegram    TelegramConfig
	SMTP        SMTPConfig
	AdminEmail  string
	CORSOrigins []string

	// MonitorLimit caps the number of monitored pages per account
	MonitorLimit int

	// LinkTokenTTL bounds how long an unconsumed link token may live before
	// the sweep reclaims it
	LinkTokenTTL time.Duration

	// WatchInterval is how often the change watcher scans active monitors
	WatchInterval time.Duration
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Type         string // postgres
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
}

// TelegramConfig holds Telegram bot configuration
type TelegramConfig struct {
	BotToken string
	// WebhookSecret, when set, must match Telegram's
	// X-Telegram-Bot-Api-Secret-Token header on every webhook delivery
	WebhookSecret string
	// BotUsername overrides the getMe lookup when set
	BotUsername string
}

// SMTPConfig holds outbound email configuration
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Load loads configuration from environment variables. A .env file in the
// working directory is read first when present.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Config: skipping .env: %v", err)
	}

	env := getEnv("ENVIRONMENT", "production")

	cfg := &Config{
		Port:        getEnvInt("PORT", 8080),
		Environment: env,
		Database: DatabaseConfig{
			Type:         getEnv("DATABASE_TYPE", "postgres"),
			DSN:          getEnv("DATABASE_DSN", buildPostgresDSN()),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 5),
		},
		Telegram: TelegramConfig{
			BotToken:      os.Getenv("TELEGRAM_BOT_TOKEN"),
			WebhookSecret: os.Getenv("TELEGRAM_WEBHOOK_SECRET"),
			BotUsername:   os.Getenv("TELEGRAM_BOT_USERNAME"),
		},
		SMTP: SMTPConfig{
			Host:     os.Getenv("EMAIL_HOST"),
			Port:     getEnvInt("EMAIL_PORT", 587),
			Username: os.Getenv("EMAIL_HOST_USER"),
			Password: os.Getenv("EMAIL_HOST_PASSWORD"),
			From:     getEnv("EMAIL_FROM", os.Getenv("EMAIL_HOST_USER")),
		},
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		CORSOrigins:   loadCORSOrigins(env),
		MonitorLimit:  getEnvInt("MONITOR_LIMIT", 10),
		LinkTokenTTL:  getEnvDuration("LINK_TOKEN_TTL", 15*time.Minute),
		WatchInterval: getEnvDuration("WATCH_INTERVAL", 5*time.Minute),
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	return cfg
}

func buildPostgresDSN() string {
	host := getEnv("POSTGRES_HOST", "localhost")
	port := getEnv("POSTGRES_PORT", "5432")
	user := getEnv("POSTGRES_USER", "webwatcher")
	password := getEnv("POSTGRES_PASSWORD", "secret")
	dbName := getEnv("POSTGRES_DB", "webwatcher")
	sslMode := getEnv("POSTGRES_SSLMODE", "disable")

	u := url.URL{
		Scheme: "postgresql",
		User:   url.UserPassword(user, password),
		Host:   fmt.Sprintf("%s:%s", host, port),
		Path:   dbName,
	}

	query := u.Query()
	query.Set("sslmode", sslMode)
	u.RawQuery = query.Encode()

	return u.String()
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Type != "postgres" {
		return fmt.Errorf("unsupported database type: %s", c.Database.Type)
	}

	if len(c.CORSOrigins) == 0 {
		return fmt.Errorf("at least one CORS origin must be configured")
	}

	if c.MonitorLimit <= 0 {
		return fmt.Errorf("MONITOR_LIMIT must be positive")
	}

	if c.LinkTokenTTL <= 0 {
		return fmt.Errorf("LINK_TOKEN_TTL must be positive")
	}

	if c.Telegram.BotToken == "" {
		log.Println("WARNING: TELEGRAM_BOT_TOKEN not set. Telegram linking and notifications are disabled.")
	}

	if c.Environment == "production" && c.Telegram.BotToken != "" && c.Telegram.WebhookSecret == "" {
		log.Println("WARNING: TELEGRAM_WEBHOOK_SECRET not set. The webhook will accept unauthenticated deliveries.")
	}

	return nil
}

func loadCORSOrigins(env string) []string {
	if appURL := getAppURL(); appURL != "" {
		return []string{appURL}
	}

	if env == "development" {
		return []string{"http://localhost:3000", "http://localhost:8080"}
	}

	log.Println("WARNING: APP_URL not set. Using default localhost origins.")
	return []string{"http://localhost:3000", "http://localhost:8080"}
}

func getAppURL() string {
	appURL := os.Getenv("APP_URL")
	if appURL == "" {
		return ""
	}
	return strings.TrimRight(appURL, "/")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
